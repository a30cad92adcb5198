package catalog

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads an on-disk catalog file when it changes, so long-running
// tooling picks up inventory edits without a restart. Changes are debounced
// to avoid reloading on every write of a multi-chunk save.
type Watcher struct {
	catalog *FileCatalog
	path    string
	watcher *fsnotify.Watcher
	logger  zerolog.Logger

	debounceDelay time.Duration

	mu            sync.Mutex
	debounceTimer *time.Timer
	done          chan struct{}
}

// NewWatcher creates a watcher for the given catalog file. Call Start to
// begin watching and Close to stop.
func NewWatcher(catalog *FileCatalog, path string, logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		catalog:       catalog,
		path:          path,
		watcher:       fsw,
		logger:        logger,
		debounceDelay: 100 * time.Millisecond,
		done:          make(chan struct{}),
	}, nil
}

// Start begins watching the catalog file's directory. Watching the parent
// directory instead of the file itself survives editors that replace the
// file on save.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("catalog watcher error")
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		if err := w.catalog.ReplaceFromFile(w.path); err != nil {
			w.logger.Warn().Err(err).Str("path", w.path).Msg("catalog reload failed, keeping current inventory")
			return
		}
		w.logger.Info().Str("path", w.path).Int("entries", w.catalog.Len()).Msg("catalog reloaded")
	})
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()
	close(w.done)
	return w.watcher.Close()
}
