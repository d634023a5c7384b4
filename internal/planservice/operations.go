package planservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/planinsta/internal/access"
	"github.com/starford/planinsta/internal/apperr"
	"github.com/starford/planinsta/internal/export"
	"github.com/starford/planinsta/internal/models"
	"github.com/starford/planinsta/internal/parser"
	"github.com/starford/planinsta/internal/seed"
)

type upgradeNotice struct{ title, message string }

var upgradeNotices = map[access.Capability]upgradeNotice{
	access.CapEdit:      {"Upgrade to Edit", "You need to upgrade to a paid plan to save changes."},
	access.CapAlter:     {"Upgrade to Use AI", "You need to upgrade to a paid plan to use AI editing."},
	access.CapTranslate: {"Upgrade to Translate", "You need to upgrade to a paid plan to translate your plan."},
	access.CapExport:    {"Upgrade to Export", "You need to upgrade to a paid plan to export your plan."},
}

// guard runs the capability check. A locked caller gets exactly one notice.
func (s *Service) guard(ctx context.Context, planID string, c access.Capability) error {
	err := s.gate.Check(ctx, c)
	if err == nil {
		return nil
	}
	if errors.Is(err, apperr.ErrLocked) {
		u := upgradeNotices[c]
		s.notify(models.NoticeError, planID, u.title, u.message)
		return err
	}
	return s.fail(planID, "Access Check Failed", err)
}

// EditSection replaces one section's content. A non-zero ifRevision must
// match the stored revision.
func (s *Service) EditSection(ctx context.Context, planID, sectionID, content string, ifRevision int64) (*models.BusinessPlan, error) {
	if err := s.guard(ctx, planID, access.CapEdit); err != nil {
		return nil, err
	}
	p, title, err := s.applySection(ctx, planID, sectionID, content, ifRevision)
	if err != nil {
		return nil, s.fail(planID, "Save Failed", err)
	}
	s.notify(models.NoticeSuccess, planID, "Section Saved", fmt.Sprintf("%s has been updated.", title))
	return p, nil
}

// AlterSection rewrites one section through the model. Only one alteration
// per section may be in flight; a second request gets apperr.ErrBusy.
func (s *Service) AlterSection(ctx context.Context, planID, sectionID, command string) (*models.BusinessPlan, error) {
	const failTitle = "AI Edit Failed"
	if err := s.guard(ctx, planID, access.CapAlter); err != nil {
		return nil, err
	}
	if strings.TrimSpace(command) == "" {
		return nil, s.fail(planID, failTitle, fmt.Errorf("%w: command is required", apperr.ErrValidation))
	}
	p, err := s.store.Get(ctx, planID)
	if err != nil {
		return nil, s.fail(planID, failTitle, err)
	}
	idx := p.SectionIndex(sectionID)
	if idx < 0 {
		return nil, s.fail(planID, failTitle, fmt.Errorf("%w: section %s", apperr.ErrNotFound, sectionID))
	}

	release, ok := s.flight.beginAlter(planID, sectionID)
	if !ok {
		return nil, s.fail(planID, failTitle, fmt.Errorf("%w: section %q is already being altered", apperr.ErrBusy, p.Sections[idx].Title))
	}
	defer release()

	altered, err := s.ai.AlterSection(ctx, p.Sections[idx].Content, command)
	if err != nil {
		return nil, s.fail(planID, failTitle, err)
	}
	if err := ctx.Err(); err != nil {
		s.logger.Debug("alteration discarded", slog.String("plan_id", planID), slog.String("section_id", sectionID))
		return nil, err
	}

	updated, title, err := s.applySection(ctx, planID, sectionID, altered, 0)
	if err != nil {
		return nil, s.fail(planID, failTitle, err)
	}
	s.notify(models.NoticeSuccess, planID, "AI Edit Applied", fmt.Sprintf("Section %q was successfully altered by AI.", title))
	return updated, nil
}

func (s *Service) applySection(ctx context.Context, planID, sectionID, content string, ifRevision int64) (*models.BusinessPlan, string, error) {
	var title string
	p, err := s.store.Update(ctx, planID, func(p *models.BusinessPlan) error {
		if ifRevision != 0 && p.Revision != ifRevision {
			return fmt.Errorf("%w: plan is at revision %d, not %d", apperr.ErrConflict, p.Revision, ifRevision)
		}
		idx := p.SectionIndex(sectionID)
		if idx < 0 {
			return fmt.Errorf("%w: section %s", apperr.ErrNotFound, sectionID)
		}
		p.Sections[idx].Content = content
		p.FullPlanMarkdown = parser.Serialize(p.Sections)
		title = p.Sections[idx].Title
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	s.events.PublishPlanEvent(EventUpdated, planID)
	return p, title, nil
}

// Translate replaces the plan text with a translation into languageCode. The
// plan revision is captured when the request starts; if the plan changed
// before the translation arrives, the result is rejected with
// apperr.ErrConflict and the plan is left as it is.
func (s *Service) Translate(ctx context.Context, planID, languageCode string) (*models.BusinessPlan, error) {
	const failTitle = "Translation Failed"
	if err := s.guard(ctx, planID, access.CapTranslate); err != nil {
		return nil, err
	}
	lang, ok := seed.LookupLanguage(languageCode)
	if !ok {
		return nil, s.fail(planID, failTitle, fmt.Errorf("%w: unsupported language %q", apperr.ErrValidation, languageCode))
	}
	p, err := s.store.Get(ctx, planID)
	if err != nil {
		return nil, s.fail(planID, failTitle, err)
	}
	// Nothing to translate, or already in the target language.
	if strings.TrimSpace(p.FullPlanMarkdown) == "" || p.Language == lang.Code {
		return p, nil
	}

	release, ok := s.flight.beginTranslate(planID)
	if !ok {
		return nil, s.fail(planID, failTitle, fmt.Errorf("%w: a translation is already in progress", apperr.ErrBusy))
	}
	defer release()

	captured := p.Revision
	translated, err := s.ai.Translate(ctx, p.FullPlanMarkdown, seed.EnglishName(lang.Code))
	if err != nil {
		return nil, s.fail(planID, failTitle, err)
	}
	if err := ctx.Err(); err != nil {
		s.logger.Debug("translation discarded", slog.String("plan_id", planID))
		return nil, err
	}

	updated, err := s.store.Update(ctx, planID, func(p *models.BusinessPlan) error {
		if p.Revision != captured {
			return fmt.Errorf("%w: plan changed while the translation was in progress", apperr.ErrConflict)
		}
		p.Sections = parser.ParseSections(translated)
		p.FullPlanMarkdown = parser.Serialize(p.Sections)
		p.Language = lang.Code
		return nil
	})
	if err != nil {
		return nil, s.fail(planID, failTitle, err)
	}
	s.events.PublishPlanEvent(EventUpdated, planID)
	s.notify(models.NoticeSuccess, planID, "Plan Translated", fmt.Sprintf("Business plan translated to %s.", lang.Name))
	return updated, nil
}

// Export renders the plan for download. It never calls the model.
func (s *Service) Export(ctx context.Context, planID, format string) (*export.Artifact, error) {
	const failTitle = "Export Failed"
	if err := s.guard(ctx, planID, access.CapExport); err != nil {
		return nil, err
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, s.fail(planID, failTitle, err)
	}
	p, err := s.store.Get(ctx, planID)
	if err != nil {
		return nil, s.fail(planID, failTitle, err)
	}
	a, err := s.exporter.Export(p, f)
	if err != nil {
		return nil, s.fail(planID, failTitle, err)
	}
	s.notify(models.NoticeSuccess, planID, "Plan Exported", fmt.Sprintf("Prepared %s for download.", a.Filename))
	return a, nil
}
