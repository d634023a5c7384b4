// Package planservice coordinates the plan lifecycle: generation, viewing,
// manual and AI-assisted section edits, translation, and export. It holds no
// plan state of its own; every operation reads from and writes back through
// the store.
package planservice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/planinsta/internal/access"
	"github.com/starford/planinsta/internal/export"
	"github.com/starford/planinsta/internal/gateway"
	"github.com/starford/planinsta/internal/models"
	"github.com/starford/planinsta/internal/parser"
	"github.com/starford/planinsta/internal/store"
)

// PreviewSections is how many sections a tier without full view access sees.
const PreviewSections = 4

// AI is the language model boundary.
type AI interface {
	GeneratePlan(ctx context.Context, in gateway.GeneratePlanInput) (string, error)
	AlterSection(ctx context.Context, sectionText, command string) (string, error)
	Translate(ctx context.Context, planMarkdown, languageName string) (string, error)
}

// Gate decides whether the caller may use a capability.
type Gate interface {
	Check(ctx context.Context, c access.Capability) error
	Allowed(tier access.Tier, c access.Capability) (bool, error)
}

// Events receives plan change announcements and user notices.
type Events interface {
	PublishPlanEvent(kind, planID string)
	PublishNotice(n models.Notice)
}

// Plan event kinds.
const (
	EventCreated = "created"
	EventUpdated = "updated"
)

// Service is the plan controller.
type Service struct {
	store    *store.Store
	ai       AI
	gate     Gate
	events   Events
	exporter *export.Exporter
	logger   *slog.Logger
	now      func() time.Time

	flight *inflight
}

// New creates a plan service. A nil events sink discards announcements.
func New(st *store.Store, ai AI, gate Gate, events Events, logger *slog.Logger) *Service {
	if events == nil {
		events = nopEvents{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		ai:       ai,
		gate:     gate,
		events:   events,
		exporter: export.New(),
		logger:   logger,
		now:      time.Now,
		flight:   newInflight(),
	}
}

// View is a plan as presented to one caller.
type View struct {
	Plan *models.BusinessPlan `json:"plan"`
	// Locked is true when the caller's tier cannot edit, alter, translate, or export.
	Locked bool `json:"locked"`
	// HiddenSections counts sections withheld from a preview.
	HiddenSections int    `json:"hiddenSections"`
	Status         Status `json:"status"`
}

// List returns plans matching the query, most recently updated first.
func (s *Service) List(ctx context.Context, query string) ([]*models.BusinessPlan, error) {
	return s.store.List(ctx, store.Filter{Query: query})
}

// Get returns the stored plan without any preview restriction.
func (s *Service) Get(ctx context.Context, id string) (*models.BusinessPlan, error) {
	return s.store.Get(ctx, id)
}

// Open loads a plan for display. Callers whose tier lacks full view access
// receive only the first PreviewSections sections.
func (s *Service) Open(ctx context.Context, id string) (*View, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tier := access.TierFrom(ctx)
	full, err := s.gate.Allowed(tier, access.CapViewFull)
	if err != nil {
		return nil, err
	}
	editable, err := s.gate.Allowed(tier, access.CapEdit)
	if err != nil {
		return nil, err
	}

	v := &View{Plan: p, Locked: !editable, Status: s.flight.status(p.ID)}
	if !full && len(p.Sections) > PreviewSections {
		v.HiddenSections = len(p.Sections) - PreviewSections
		p.Sections = p.Sections[:PreviewSections]
		p.FullPlanMarkdown = parser.Serialize(p.Sections)
	}
	return v, nil
}

// Status reports what is in flight for a plan.
func (s *Service) Status(ctx context.Context, id string) (Status, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return Status{}, err
	}
	return s.flight.status(id), nil
}

func (s *Service) notify(level, planID, title, message string) {
	s.events.PublishNotice(models.Notice{
		Level:   level,
		Title:   title,
		Message: message,
		PlanID:  planID,
		At:      s.now().UTC(),
	})
}

// fail logs err and emits the failure notice. Cancelled callers are gone,
// so they get no notice.
func (s *Service) fail(planID, title string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	s.logger.Warn("plan operation failed",
		slog.String("plan_id", planID),
		slog.String("op", title),
		slog.String("error", err.Error()))
	s.notify(models.NoticeError, planID, title, err.Error())
	return err
}

type nopEvents struct{}

func (nopEvents) PublishPlanEvent(string, string) {}
func (nopEvents) PublishNotice(models.Notice)     {}
