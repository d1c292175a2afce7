package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/jonwraymond/checkops/catalog"
	"github.com/jonwraymond/checkops/observe"
)

// WatchCatalog monitors the catalog file at path and calls onChange with
// every newly loaded snapshot. It runs until ctx is cancelled.
//
// If a reload fails, or onChange rejects the snapshot, the error is logged
// and watching continues.
func WatchCatalog(ctx context.Context, path string, logger observe.Logger, onChange func(catalog.Snapshot) error) error {
	if logger == nil {
		logger = observe.NopLogger()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so atomic saves (write temp, rename) are seen.
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}
	logger.Info(ctx, "config: watching catalog", observe.F("path", path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			snap, err := LoadCatalog(path)
			if err == nil {
				err = onChange(snap)
			}
			if err != nil {
				logger.Error(ctx, "config: catalog reload failed, keeping previous catalog",
					observe.F("path", path), observe.F("error", err))
				continue
			}
			logger.Info(ctx, "config: catalog reloaded",
				observe.F("path", path),
				observe.F("configurations", len(snap.Configurations)),
				observe.F("associations", len(snap.Associations)))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error(ctx, "config: watcher error", observe.F("error", err))
		}
	}
}
