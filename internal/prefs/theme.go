// Package prefs holds user interface preferences persisted in a storage slot.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/starford/planinsta/internal/apperr"
	"github.com/starford/planinsta/internal/storage"
)

// ThemeKey is the slot that holds the theme preference.
const ThemeKey = "planinsta_theme"

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type themeDoc struct {
	Theme string `json:"theme"`
}

// Theme is the colour theme preference. It is initialized from the slot (or
// the configured default) once and only changes through Set.
type Theme struct {
	slots storage.Provider

	mu    sync.RWMutex
	value string
	rev   string
}

// LoadTheme reads the persisted theme, falling back to def when absent or invalid.
func LoadTheme(ctx context.Context, slots storage.Provider, def string) (*Theme, error) {
	if !validTheme(def) {
		def = ThemeLight
	}
	data, rev, err := slots.Read(ctx, ThemeKey)
	if err != nil {
		return nil, err
	}
	t := &Theme{slots: slots, value: def, rev: rev}
	if len(data) > 0 {
		var doc themeDoc
		if err := json.Unmarshal(data, &doc); err == nil && validTheme(doc.Theme) {
			t.value = doc.Theme
		}
	}
	return t, nil
}

// Get returns the current theme.
func (t *Theme) Get() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

// Set persists and applies a new theme.
func (t *Theme) Set(ctx context.Context, value string) error {
	if !validTheme(value) {
		return fmt.Errorf("%w: theme must be %q or %q", apperr.ErrValidation, ThemeLight, ThemeDark)
	}
	data, err := json.Marshal(themeDoc{Theme: value})
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	rev, err := t.slots.CompareAndSwap(ctx, ThemeKey, t.rev, data)
	if errors.Is(err, apperr.ErrConflict) {
		// Another writer got there first; last write wins for a preference.
		_, current, readErr := t.slots.Read(ctx, ThemeKey)
		if readErr != nil {
			return readErr
		}
		rev, err = t.slots.CompareAndSwap(ctx, ThemeKey, current, data)
	}
	if err != nil {
		return err
	}
	t.value, t.rev = value, rev
	return nil
}

func validTheme(v string) bool { return v == ThemeLight || v == ThemeDark }
