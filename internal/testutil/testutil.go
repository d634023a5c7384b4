// Package testutil provides shared test helpers for slot directories and plan stores.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/starford/planinsta/internal/models"
	"github.com/starford/planinsta/internal/parser"
	"github.com/starford/planinsta/internal/storage"
	"github.com/starford/planinsta/internal/store"
)

// TestFS creates a temporary data directory with a file-backed storage.Provider.
func TestFS(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// TestStore creates a plan store over a temporary file slot.
func TestStore(t *testing.T) *store.Store {
	t.Helper()
	_, fs := TestFS(t)
	return store.New(fs, "")
}

// SeedPlan stores a plan with the given sections and returns it.
func SeedPlan(t *testing.T, s *store.Store, name string, sections ...models.PlanSection) *models.BusinessPlan {
	t.Helper()
	p, err := s.Create(context.Background(), &models.BusinessPlan{
		Name:             name,
		CompanyName:      name + " Inc",
		Industry:         "Technology",
		Language:         models.DefaultLanguage,
		Sections:         sections,
		FullPlanMarkdown: parser.Serialize(sections),
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// Eventually polls fn every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}
