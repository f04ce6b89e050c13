// Package watcher feeds filesystem change notifications into the thumbnail
// pipeline. New media files get individual jobs; new directories get watched
// and enqueued as a whole.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"media-browser/internal/logging"
	"media-browser/internal/mediatypes"
	"media-browser/internal/metrics"
)

// Enqueuer admits watcher-driven thumbnail work.
type Enqueuer interface {
	EnqueueDirectory(ctx context.Context, dirPath string) bool
	EnqueueFile(ctx context.Context, filePath string) bool
}

// Watcher monitors the media root recursively with fsnotify.
type Watcher struct {
	root     string
	enqueuer Enqueuer

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// New creates a watcher over the absolute media root.
func New(root string, enqueuer Enqueuer) *Watcher {
	return &Watcher{root: root, enqueuer: enqueuer}
}

// Start begins watching. Failure to establish the watch is logged, not
// fatal: the pipeline still works through browse-driven dispatch.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(runCtx)
}

// Stop halts the watcher and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.started = false

	w.cancel()
	<-w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Error("Failed to create file watcher: %v", err)
		metrics.WatcherErrors.Inc()
		return
	}
	defer func() {
		if err := fsw.Close(); err != nil {
			logging.Error("failed to close file watcher: %v", err)
		}
	}()

	watched := w.addDirectories(fsw)
	logging.Info("File watcher started, watching %d directories", watched)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logging.Error("Watcher error: %v", err)
			metrics.WatcherErrors.Inc()
		}
	}
}

func (w *Watcher) addDirectories(fsw *fsnotify.Watcher) int {
	var count int
	err := filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && !strings.HasPrefix(info.Name(), ".") {
			if addErr := fsw.Add(path); addErr != nil {
				logging.Warn("failed to watch %s: %v", path, addErr)
				metrics.WatcherErrors.Inc()
			} else {
				count++
			}
		}
		return nil
	})
	if err != nil {
		logging.Error("failed to walk media root for watcher: %v", err)
		metrics.WatcherErrors.Inc()
	}
	return count
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event) {
	if strings.Contains(event.Name, "/.") {
		return
	}

	metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	if event.Op&fsnotify.Create == 0 {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if info.IsDir() {
		if addErr := fsw.Add(event.Name); addErr != nil {
			logging.Warn("failed to watch new directory %s: %v", event.Name, addErr)
			metrics.WatcherErrors.Inc()
		} else {
			logging.Debug("Watching new directory: %s", rel)
		}
		w.enqueuer.EnqueueDirectory(ctx, rel)
		return
	}

	if mediatypes.Thumbable(mediatypes.Classify(strings.ToLower(filepath.Ext(event.Name)))) {
		logging.Debug("New media file observed: %s", rel)
		w.enqueuer.EnqueueFile(ctx, rel)
	}
}

func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}
