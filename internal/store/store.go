// Package store is the plan collection. All plans live in one storage slot as
// a JSON array that is read and rewritten wholesale on every mutation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/planinsta/internal/apperr"
	"github.com/starford/planinsta/internal/models"
	"github.com/starford/planinsta/internal/storage"
)

// DefaultKey is the slot that holds the plan collection.
const DefaultKey = "planinsta_plans"

// maxAttempts bounds the read-modify-CAS loop.
const maxAttempts = 5

// Store reads and writes the plan collection through a storage.Provider.
type Store struct {
	slots storage.Provider
	key   string
	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	lastSeen string // slot revision after our last write or Changed check
}

// New creates a Store over the given provider. An empty key selects DefaultKey.
func New(slots storage.Provider, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		slots: slots,
		key:   key,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Key returns the slot key.
func (s *Store) Key() string { return s.key }

// Filter narrows List results.
type Filter struct {
	// Query matches case-insensitively against name and company name.
	Query string
}

// List returns plans ordered by most recently updated first.
func (s *Store) List(ctx context.Context, f Filter) ([]*models.BusinessPlan, error) {
	plans, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]*models.BusinessPlan, 0, len(plans))
	for _, p := range plans {
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.CompanyName), q) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Get returns the plan with the given id or an error wrapping apperr.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*models.BusinessPlan, error) {
	plans, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range plans {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: plan %s", apperr.ErrNotFound, id)
}

// Create appends a plan to the collection. An empty ID is assigned; timestamps
// are set and the revision starts at 1.
func (s *Store) Create(ctx context.Context, plan *models.BusinessPlan) (*models.BusinessPlan, error) {
	p := plan.Clone()
	if p.ID == "" {
		p.ID = s.newID()
	}
	if p.Language == "" {
		p.Language = models.DefaultLanguage
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Revision = 1

	err := s.modify(ctx, func(plans []*models.BusinessPlan) ([]*models.BusinessPlan, error) {
		for _, existing := range plans {
			if existing.ID == p.ID {
				return nil, fmt.Errorf("%w: plan %s", apperr.ErrAlreadyExists, p.ID)
			}
		}
		return append(plans, p), nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// MutateFunc changes a plan in place. Returning an error aborts the update.
type MutateFunc func(p *models.BusinessPlan) error

// Update applies mutate to the latest stored copy of the plan and persists
// the collection. mutate may run more than once if the slot changes
// concurrently, so it must be free of side effects beyond the plan itself.
// Revision and UpdatedAt are bumped after a successful mutate.
func (s *Store) Update(ctx context.Context, id string, mutate MutateFunc) (*models.BusinessPlan, error) {
	var updated *models.BusinessPlan
	err := s.modify(ctx, func(plans []*models.BusinessPlan) ([]*models.BusinessPlan, error) {
		for i, existing := range plans {
			if existing.ID != id {
				continue
			}
			p := existing.Clone()
			if err := mutate(p); err != nil {
				return nil, err
			}
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
			p.Revision = existing.Revision + 1
			p.UpdatedAt = s.now()
			plans[i] = p
			updated = p
			return plans, nil
		}
		return nil, fmt.Errorf("%w: plan %s", apperr.ErrNotFound, id)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Changed reports whether the slot revision differs from the one this Store
// last wrote or observed here, i.e. another process touched it.
func (s *Store) Changed(ctx context.Context) (bool, error) {
	_, rev, err := s.slots.Read(ctx, s.key)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rev == s.lastSeen {
		return false, nil
	}
	s.lastSeen = rev
	return true, nil
}

func (s *Store) modify(ctx context.Context, fn func([]*models.BusinessPlan) ([]*models.BusinessPlan, error)) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		plans, rev, err := s.load(ctx)
		if err != nil {
			return err
		}
		next, err := fn(plans)
		if err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("store: encode plans: %w", err)
		}
		newRev, err := s.slots.CompareAndSwap(ctx, s.key, rev, data)
		if err == nil {
			s.remember(newRev)
			return nil
		}
		if !errors.Is(err, apperr.ErrConflict) {
			return err
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("store: gave up after %d attempts: %w", maxAttempts, lastErr)
}

func (s *Store) load(ctx context.Context) ([]*models.BusinessPlan, string, error) {
	data, rev, err := s.slots.Read(ctx, s.key)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return []*models.BusinessPlan{}, rev, nil
	}
	var plans []*models.BusinessPlan
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, "", fmt.Errorf("store: decode plans: %w", err)
	}
	return plans, rev, nil
}

func (s *Store) remember(rev string) {
	s.mu.Lock()
	s.lastSeen = rev
	s.mu.Unlock()
}
