package planservice

import (
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"
)

// State is the controller state of one plan.
type State string

const (
	StateReady           State = "ready"
	StateTranslating     State = "translating"
	StateAlteringSection State = "altering_section"
)

// Status is the in-flight work on a plan.
type Status struct {
	State            State    `json:"state"`
	AlteringSections []string `json:"alteringSections"`
}

// inflight tracks AI operations per plan: one translation per plan and one
// alteration per section.
type inflight struct {
	mu          sync.Mutex
	translates  map[string]*semaphore.Weighted
	translating map[string]bool
	altering    map[string]map[string]struct{} // plan id -> section ids
}

func newInflight() *inflight {
	return &inflight{
		translates:  make(map[string]*semaphore.Weighted),
		translating: make(map[string]bool),
		altering:    make(map[string]map[string]struct{}),
	}
}

func (f *inflight) translateSem(planID string) *semaphore.Weighted {
	f.mu.Lock()
	defer f.mu.Unlock()
	sem, ok := f.translates[planID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		f.translates[planID] = sem
	}
	return sem
}

// beginTranslate reserves the plan's translation slot.
func (f *inflight) beginTranslate(planID string) (release func(), ok bool) {
	sem := f.translateSem(planID)
	if !sem.TryAcquire(1) {
		return nil, false
	}
	f.mu.Lock()
	f.translating[planID] = true
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.translating, planID)
		f.mu.Unlock()
		sem.Release(1)
	}, true
}

// beginAlter reserves one section of a plan.
func (f *inflight) beginAlter(planID, sectionID string) (release func(), ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sections := f.altering[planID]
	if _, busy := sections[sectionID]; busy {
		return nil, false
	}
	if sections == nil {
		sections = make(map[string]struct{})
		f.altering[planID] = sections
	}
	sections[sectionID] = struct{}{}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.altering[planID], sectionID)
		if len(f.altering[planID]) == 0 {
			delete(f.altering, planID)
		}
	}, true
}

func (f *inflight) status(planID string) Status {
	f.mu.Lock()
	translating := f.translating[planID]
	ids := make([]string, 0, len(f.altering[planID]))
	for id := range f.altering[planID] {
		ids = append(ids, id)
	}
	f.mu.Unlock()
	sort.Strings(ids)

	st := Status{State: StateReady, AlteringSections: ids}
	switch {
	case translating:
		st.State = StateTranslating
	case len(ids) > 0:
		st.State = StateAlteringSection
	}
	return st
}
