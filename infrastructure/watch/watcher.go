package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"goslim/application/ports"
)

const (
	defaultDebounce = 2 * time.Second
	rebuildTimeout  = 5 * time.Minute
)

// OntologyWatcher triggers a snapshot rebuild when a file in the ontology
// directory changes. Events debounce so one editor save or download burst
// causes a single reload.
type OntologyWatcher struct {
	dir      string
	debounce time.Duration
	reloader ports.OntologyReloader
	logger   *zap.Logger

	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewOntologyWatcher creates a watcher over the given directory
func NewOntologyWatcher(dir string, debounce time.Duration, reloader ports.OntologyReloader, logger *zap.Logger) *OntologyWatcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &OntologyWatcher{
		dir:      dir,
		debounce: debounce,
		reloader: reloader,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins watching for source changes
func (w *OntologyWatcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch ontology directory %s: %w", w.dir, err)
	}

	w.watcher = watcher
	go w.watchLoop()
	w.logger.Info("ontology watcher started",
		zap.String("dir", w.dir),
		zap.Duration("debounce", w.debounce),
	)
	return nil
}

// Stop stops watching. Safe to call more than once.
func (w *OntologyWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			w.watcher.Close()
		}
		w.logger.Info("ontology watcher stopped")
	})
}

func (w *OntologyWatcher) watchLoop() {
	var debounceTimer *time.Timer

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevantEvent(event) {
				continue
			}
			w.logger.Debug("ontology source changed",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()),
			)

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.rebuild)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("ontology watcher error", zap.Error(err))
		}
	}
}

// relevantEvent filters out chmods and the dotfiles editors and atomic
// writers leave behind
func relevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	return !strings.HasPrefix(filepath.Base(event.Name), ".")
}

// rebuild reloads through the provider. Stale fingerprints make the
// persisted cache miss on its own, so the cache is not force-bypassed:
// a spurious event resolves into a cheap cache hit.
func (w *OntologyWatcher) rebuild() {
	ctx, cancel := context.WithTimeout(context.Background(), rebuildTimeout)
	defer cancel()

	w.logger.Info("ontology sources changed, rebuilding snapshot")
	if _, err := w.reloader.Reload(ctx, false); err != nil {
		w.logger.Error("ontology reload failed", zap.Error(err))
	}
}
