package manager

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the profile list whenever the profiles file changes on disk
// and schedules a refresh pass. It blocks until ctx is done. The watch is
// on the containing directory so the file may not exist yet and atomic
// replace-by-rename is still observed.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating profiles watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(m.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	target := filepath.Clean(m.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			m.log.Debug("profiles file changed", "op", ev.Op.String())
			if err := m.Load(); err != nil {
				m.log.Error("reloading profiles failed", "error", err)
				continue
			}
			m.UpdateSoon()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.log.Warn("profiles watcher error", "error", err)
		}
	}
}
