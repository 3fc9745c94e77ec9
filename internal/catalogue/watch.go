package catalogue

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long Watch waits for writes to settle before reloading.
const DefaultDebounce = 500 * time.Millisecond

// Watch reloads the catalogue in dir whenever files in it change and passes
// each successfully loaded catalogue to onChange. It blocks until ctx is done.
func Watch(ctx context.Context, dir string, debounce time.Duration, log *zap.Logger, onChange func(*Catalogue)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		if cerr := watcher.Close(); cerr != nil {
			log.Warn("failed to close catalogue watcher", zap.Error(cerr))
		}
	}()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Info("watching catalogue", zap.String("dir", dir))

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("catalogue changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("catalogue watcher error", zap.Error(err))
		case <-timer.C:
			cat, err := Load(dir)
			if err != nil {
				log.Warn("failed to reload catalogue", zap.Error(err))
				continue
			}
			log.Info("catalogue reloaded", zap.Int("sets", len(cat.Sets)))
			onChange(cat)
		}
	}
}
