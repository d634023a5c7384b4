package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce collapses the burst of events an atomic rename produces.
const debounce = 200 * time.Millisecond

// ChangeCallback is called after another process rewrote the plan slot.
type ChangeCallback func()

// Watch observes the file backing the plan slot and calls cb when its
// content changes underneath this process. It blocks until ctx is cancelled.
//
// The directory is watched rather than the file, because atomic writes
// replace the file inode on every save.
func Watch(ctx context.Context, s *Store, slotPath string, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(slotPath)
	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("path", slotPath))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			changed, err := s.Changed(ctx)
			if err != nil {
				logger.Warn("watcher: read slot failed", slog.String("error", err.Error()))
				continue
			}
			if changed {
				logger.Debug("watcher: external change", slog.String("path", slotPath))
				if cb != nil {
					cb()
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != slotPath {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
