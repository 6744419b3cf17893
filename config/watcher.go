package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// CatalogWatcher reloads the persona catalog when the file changes on disk.
// Editors rewrite files with several events in quick succession, so reloads
// are debounced.
type CatalogWatcher struct {
	watcher  *fsnotify.Watcher
	filePath string
	onReload func(c *Catalog)
	log      *zap.Logger
	debounce time.Duration
	done     chan bool
}

func NewCatalogWatcher(filePath string, onReload func(c *Catalog), log *zap.Logger) (*CatalogWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// watch the directory, not the file, so renames from atomic saves are
	// still observed
	if err := watcher.Add(filepath.Dir(filePath)); err != nil {
		watcher.Close()
		return nil, err
	}

	return &CatalogWatcher{
		watcher:  watcher,
		filePath: filePath,
		onReload: onReload,
		log:      log,
		debounce: 200 * time.Millisecond,
		done:     make(chan bool),
	}, nil
}

func (w *CatalogWatcher) Listen() {
	w.log.Info("catalog watcher started listening for catalog updates")

	go func() {
		var timer *time.Timer

		for {
			select {
			case <-w.done:
				if timer != nil {
					timer.Stop()
				}

				w.watcher.Close()
				w.log.Info("catalog watcher stopped")
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}

				if filepath.Clean(event.Name) != filepath.Clean(w.filePath) {
					continue
				}

				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}

				if timer != nil {
					timer.Stop()
				}

				timer = time.AfterFunc(w.debounce, w.reload)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}

				w.log.Sugar().Debugf("catalog watcher error: %v", err)
			}
		}
	}()
}

func (w *CatalogWatcher) reload() {
	c, err := NewCatalog(w.filePath)
	if err != nil {
		w.log.Sugar().Errorf("catalog watcher failed to reload catalog: %v", err)
		return
	}

	w.log.Sugar().Infof("catalog watcher reloaded catalog with %d personas", len(c.Personas))
	w.onReload(c)
}

func (w *CatalogWatcher) Stop() {
	w.log.Info("shutting down catalog watcher...")

	w.done <- true
}
