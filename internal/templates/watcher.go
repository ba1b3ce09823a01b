package templates

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Watcher invalidates a Manager's cache as soon as its config file changes,
// instead of waiting for the cache TTL to expire.
type Watcher struct {
	mu      sync.Mutex
	manager *Manager
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a Watcher for manager. The logger may be nil.
func NewWatcher(manager *Manager, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		manager: manager,
		logger:  logger,
		watcher: watcher,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine. It watches the directory
// of the config file currently in use and the config directory under the
// manager's start directory, if present. Directories that cannot be watched
// are logged and skipped.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	w.running = true

	for _, dir := range w.watchDirs() {
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("cannot watch template config directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		w.logger.Debug("watching template config directory", zap.String("dir", dir))
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("error closing template watcher", zap.Error(err))
	}
}

func (w *Watcher) watchDirs() []string {
	var dirs []string
	if path := w.manager.ConfigPath(); path != "" {
		dirs = append(dirs, filepath.Dir(path))
	}

	if w.manager.startDir != "" {
		local := filepath.Dir(filepath.Join(w.manager.startDir, w.manager.configFile))
		if info, err := os.Stat(local); err == nil && info.IsDir() && !lo.Contains(dirs, local) {
			dirs = append(dirs, local)
		}
	}
	return dirs
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	configName := filepath.Base(w.manager.configFile)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configName {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Info("template config changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			w.manager.Reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("template watcher error", zap.Error(err))
		}
	}
}
