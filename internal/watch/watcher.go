// Package watch notices writes made to a store's files by other processes
// and reports them, debounced, so an open timeline can reload.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/gantry/internal/errors"
	"github.com/Iron-Ham/gantry/internal/logging"
)

// DefaultDebounce collapses the burst of events a single SQLite commit
// produces (main file, WAL and journal).
const DefaultDebounce = 200 * time.Millisecond

// sidecars are the files SQLite writes next to the database.
var sidecars = []string{"", "-wal", "-journal", "-shm"}

// Watcher reports changes to a set of files. Directories are watched
// rather than files so that replace-by-rename writes are seen too.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *logging.Logger

	// files maps a watched file path to the path reported for it
	files map[string]string
	dirs  map[string]struct{}

	onChange func(path string)

	mu       sync.RWMutex
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a watcher. A non-positive debounce uses DefaultDebounce.
func New(debounce time.Duration, logger *logging.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Watcher{
		watcher:  fw,
		debounce: debounce,
		logger:   logger.WithComponent("watch"),
		files:    make(map[string]string),
		dirs:     make(map[string]struct{}),
		stopCh:   make(chan struct{}),
	}, nil
}

// SetCallback sets the function called once per debounced batch, for each
// distinct watched path in the batch.
func (w *Watcher) SetCallback(cb func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = cb
}

// AddDatabase watches an SQLite database file and its sidecar files.
func (w *Watcher) AddDatabase(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(err, "database %s", path)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, suffix := range sidecars {
		w.files[path+suffix] = path
	}
	return w.addDirLocked(filepath.Dir(path))
}

// AddFile watches a single file, such as a fixture being edited.
func (w *Watcher) AddFile(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "watch %s", path)
	}
	if info.IsDir() {
		return errors.NewValidationError("expected a file").WithField("path").WithValue(path)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[path] = path
	return w.addDirLocked(filepath.Dir(path))
}

func (w *Watcher) addDirLocked(dir string) error {
	if _, ok := w.dirs[dir]; ok {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "watch directory %s", dir)
	}
	w.dirs[dir] = struct{}{}
	return nil
}

// Start runs the event loop in a goroutine until Stop is called.
func (w *Watcher) Start() {
	go func() { _ = w.Run(context.Background()) }()
}

// Stop ends the event loop and releases the underlying watcher. It is safe
// to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
	})
}

// Run processes file events until ctx is done or Stop is called.
func (w *Watcher) Run(ctx context.Context) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()

		case <-w.stopCh:
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			reported, ok := w.match(event.Name)
			if !ok {
				continue
			}
			pending[reported] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			batch := pending
			pending = make(map[string]struct{})
			for path := range batch {
				w.notify(path)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) match(name string) (string, bool) {
	name, err := filepath.Abs(name)
	if err != nil {
		return "", false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	reported, ok := w.files[name]
	return reported, ok
}

func (w *Watcher) notify(path string) {
	w.mu.RLock()
	cb := w.onChange
	w.mu.RUnlock()

	w.logger.Debug("watched file changed", "path", path)
	if cb != nil {
		cb(path)
	}
}
