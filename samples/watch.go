package samples

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the library when files in its directory change. It
// blocks until ctx is done and is intended to run in its own
// goroutine. A Library without a directory has nothing to watch.
func (l *Library) Watch(ctx context.Context) error {
	if l.dir == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			l.log.Debug("sample library changed", zap.String("file", ev.Name))
			if err := l.Reload(); err != nil {
				l.log.Warn("sample library reload failed", zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.log.Warn("sample library watcher error", zap.Error(err))
		}
	}
}
