package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event is a file that appeared in the watched directory and has settled.
type Event struct {
	Path string
	Op   fsnotify.Op // last operation seen before the file settled
}

// Watcher monitors a directory and reports new files once they stop changing.
type Watcher struct {
	fsw    *fsnotify.Watcher
	dir    string
	settle time.Duration
	accept func(name string) bool
	log    *zap.Logger

	Events chan Event

	mu      sync.Mutex
	pending map[string]*time.Timer
	last    map[string]fsnotify.Op
	ready   chan string
}

// New creates a Watcher for dir. Only files whose base name passes accept are
// reported, each after settle has passed without further writes.
func New(dir string, settle time.Duration, accept func(name string) bool, log *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(abs); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		fsw:     fsw,
		dir:     abs,
		settle:  settle,
		accept:  accept,
		log:     log,
		Events:  make(chan Event, 256),
		pending: make(map[string]*time.Timer),
		last:    make(map[string]fsnotify.Op),
		ready:   make(chan string, 256),
	}, nil
}

// Dir returns the absolute path of the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Start begins listening for file events. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)
	defer w.stopAll()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		case path := <-w.ready:
			w.mu.Lock()
			op := w.last[path]
			delete(w.last, path)
			w.mu.Unlock()

			w.log.Debug("File settled", zap.String("path", path))
			select {
			case w.Events <- Event{Path: path, Op: op}:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if !w.accept(filepath.Base(ev.Name)) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.last[ev.Name] = ev.Op
		if t, ok := w.pending[ev.Name]; ok {
			t.Reset(w.settle)
			return
		}
		path := ev.Name
		w.pending[path] = time.AfterFunc(w.settle, func() {
			w.mu.Lock()
			delete(w.pending, path)
			w.mu.Unlock()
			select {
			case w.ready <- path:
			case <-ctx.Done():
			}
		})
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if t, ok := w.pending[ev.Name]; ok {
			t.Stop()
			delete(w.pending, ev.Name)
		}
		delete(w.last, ev.Name)
	}
}

func (w *Watcher) stopAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}
