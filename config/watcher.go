// config/watcher.go
package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	logger "github.com/workfloworchestrator/oauth2-filter/logging"
)

// WatchRules watches the rules file and invokes onChange whenever it is
// written or replaced. The parent directory is watched rather than the
// file itself so editors that rename-over the file keep triggering
// events. Runs until the context is cancelled.
func WatchRules(ctx context.Context, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create rules watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	logger.Info("Watching rules file", zap.String("path", target))

	for {
		select {
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
			logger.Info("Rules file changed", zap.String("op", event.Op.String()))
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Rules watcher error", zap.Error(err))
		case <-ctx.Done():
			return nil
		}
	}
}
