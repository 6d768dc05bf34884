package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events editors emit for a single save.
const reloadDelay = 100 * time.Millisecond

// WatchVariants reloads the registry whenever the variants file at path changes.
// Invalid edits are logged and ignored so a typo never takes the wizard down.
// It blocks until ctx is done.
func WatchVariants(ctx context.Context, path string, registry *Registry, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	target := filepath.Clean(path)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			pending = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Variants watcher error", "err", err)
		case <-pending:
			pending = nil
			variants, err := LoadVariants(path)
			if err != nil {
				logger.Warn("Variants reload rejected", "path", path, "err", err)
				continue
			}
			if err := registry.Replace(variants...); err != nil {
				logger.Warn("Variants reload rejected", "path", path, "err", err)
				continue
			}
			logger.Info("Variants reloaded", "path", path, "count", len(variants))
		}
	}
}
