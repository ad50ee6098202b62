package dataset

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch watches the data file's directory and marks the cache stale when the
// file is written, created, renamed or removed. Editors often replace a file
// instead of writing it in place, so the directory is watched rather than
// the file. The returned channel is closed once the watcher has shut down
// after ctx is cancelled.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { _ = w.Close() }()
		l.watchLoop(ctx, w)
	}()

	l.logger.Info("watching data file", zap.String("path", l.path))
	return done, nil
}

func (l *Loader) watchLoop(ctx context.Context, w *fsnotify.Watcher) {
	name := filepath.Base(l.path)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			l.markStale()
			l.logger.Debug("data file changed", zap.String("event", event.Op.String()))
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			l.logger.Warn("watcher error", zap.Error(err))
		}
	}
}
