package seed

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/rollcall/internal/models"
	"github.com/starford/rollcall/internal/storage"
)

// ReloadFunc receives a freshly loaded roster after the seed files changed.
type ReloadFunc func(models.Roster)

// DefaultDebounce is how long Watch waits for writes to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watch observes the source directory and calls reload with the new roster
// whenever seed content changes, until ctx is cancelled. Bursts of events are
// debounced. A seed that fails to load is logged and skipped, leaving the
// running session untouched.
func Watch(ctx context.Context, src *Source, debounce time.Duration, logger *slog.Logger, reload ReloadFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// A single-file source only needs its own directory.
	if src.rel != "" {
		err = w.Add(src.Root())
	} else {
		err = addDirsRecursive(w, src.Root())
	}
	if err != nil {
		return err
	}

	last, err := src.fingerprint()
	if err != nil {
		logger.Warn("seed watcher: initial fingerprint failed", slog.String("error", err.Error()))
	}

	logger.Info("seed watcher: started", slog.String("root", src.Root()))

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
			logger.Info("seed watcher: stopped")
			return nil

		case <-fire:
			fp, err := src.fingerprint()
			if err != nil {
				logger.Warn("seed watcher: fingerprint failed", slog.String("error", err.Error()))
				continue
			}
			if fp == last {
				continue
			}
			roster, err := src.Load()
			if err != nil {
				logger.Warn("seed watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			last = fp
			logger.Info("seed watcher: reloaded", slog.Int("students", len(roster)))
			reload(roster)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 && src.rel == "" {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("seed watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}
			if !storage.IsSeedFile(ev.Name) || (src.rel != "" && filepath.Base(ev.Name) != filepath.Base(src.rel)) {
				continue
			}
			logger.Debug("seed watcher: event", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("seed watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
