package prefs

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/planinsta/internal/apperr"
	"github.com/starford/planinsta/internal/storage"
)

func newSlots(t *testing.T) storage.Provider {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestLoadTheme_Default(t *testing.T) {
	th, err := LoadTheme(context.Background(), newSlots(t), "")
	if err != nil {
		t.Fatal(err)
	}
	if got := th.Get(); got != ThemeLight {
		t.Fatalf("Get() = %q, want %q", got, ThemeLight)
	}
}

func TestLoadTheme_ConfiguredDefault(t *testing.T) {
	th, err := LoadTheme(context.Background(), newSlots(t), ThemeDark)
	if err != nil {
		t.Fatal(err)
	}
	if got := th.Get(); got != ThemeDark {
		t.Fatalf("Get() = %q, want %q", got, ThemeDark)
	}
}

func TestTheme_SetPersists(t *testing.T) {
	ctx := context.Background()
	slots := newSlots(t)
	th, err := LoadTheme(ctx, slots, ThemeLight)
	if err != nil {
		t.Fatal(err)
	}
	if err := th.Set(ctx, ThemeDark); err != nil {
		t.Fatal(err)
	}
	if got := th.Get(); got != ThemeDark {
		t.Fatalf("Get() = %q, want %q", got, ThemeDark)
	}

	reloaded, err := LoadTheme(ctx, slots, ThemeLight)
	if err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Get(); got != ThemeDark {
		t.Fatalf("reloaded Get() = %q, want %q", got, ThemeDark)
	}
}

func TestTheme_SetAfterForeignWrite(t *testing.T) {
	ctx := context.Background()
	slots := newSlots(t)
	a, _ := LoadTheme(ctx, slots, ThemeLight)
	b, _ := LoadTheme(ctx, slots, ThemeLight)

	if err := a.Set(ctx, ThemeDark); err != nil {
		t.Fatal(err)
	}
	if err := b.Set(ctx, ThemeLight); err != nil {
		t.Fatalf("Set after foreign write: %v", err)
	}
	reloaded, _ := LoadTheme(ctx, slots, ThemeDark)
	if got := reloaded.Get(); got != ThemeLight {
		t.Fatalf("Get() = %q, want last write %q", got, ThemeLight)
	}
}

func TestTheme_SetRejectsUnknown(t *testing.T) {
	th, _ := LoadTheme(context.Background(), newSlots(t), "")
	err := th.Set(context.Background(), "neon")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("Set(neon) error = %v, want ErrValidation", err)
	}
	if got := th.Get(); got != ThemeLight {
		t.Fatalf("Get() = %q after rejected Set", got)
	}
}
