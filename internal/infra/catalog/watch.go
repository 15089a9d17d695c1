package catalog

import (
	"context"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	zlog "github.com/rs/zerolog/log"
)

// DefaultDebounce collapses the burst of events editors produce on save.
const DefaultDebounce = 200 * time.Millisecond

// Watch reloads the catalog file into store whenever it changes, until ctx
// is done. The parent directory is watched so atomic renames are seen.
// A file that fails to load leaves the current catalog in place.
func Watch(ctx context.Context, path string, store *Store, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "failed to resolve catalog path")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return errors.Wrap(err, "failed to watch catalog directory")
	}
	zlog.Info().Msgf("catalog: watching: path=%s", target)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

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
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			zlog.Warn().Msgf("catalog: watch error: error=%v", err)

		case <-timer.C:
			c, err := Load(target)
			if err != nil {
				zlog.Error().Msgf("catalog: reload failed, keeping current: error=%v", err)
				continue
			}
			store.Replace(c)
			zlog.Info().Msgf("catalog: reloaded: stations=%d", len(c.Stations))
		}
	}
}
