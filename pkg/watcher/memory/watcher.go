// Package memory provides a scripted in-memory watcher.FileWatcher.
package memory

import (
	"context"
	"sync"

	"github.com/butter-bot-machines/linetail/pkg/errors"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

type item struct {
	line watcher.Line
	ok   bool
	err  error
}

// Watcher implements watcher.FileWatcher from lines pushed by the caller
type Watcher struct {
	mu       sync.Mutex
	files    []string
	watched  map[string]bool
	failAdd  map[string]error
	items    chan item
	terminal *item
	done     chan struct{}
	closed   bool
}

// New creates a memory watcher whose queue holds up to size pending items
func New(size int) *Watcher {
	if size <= 0 {
		size = watcher.DefaultQueueSize
	}
	return &Watcher{
		watched: make(map[string]bool),
		failAdd: make(map[string]error),
		items:   make(chan item, size),
		done:    make(chan struct{}),
	}
}

// AddFile records path as watched
func (w *Watcher) AddFile(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return watcher.ErrClosed
	}
	if err, ok := w.failAdd[path]; ok {
		return errors.WatchError.Wrap(err, "failed to watch %s", path)
	}
	if !w.watched[path] {
		w.watched[path] = true
		w.files = append(w.files, path)
	}
	return nil
}

// FailAdd makes AddFile(path) fail with err
func (w *Watcher) FailAdd(path string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failAdd[path] = err
}

// Files returns the watched paths in registration order
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.files...)
}

// Emit queues lines as if they were appended to path
func (w *Watcher) Emit(path string, lines ...string) {
	for _, l := range lines {
		w.items <- item{line: watcher.Line{Content: l, Source: path}, ok: true}
	}
}

// Fail queues a terminal error
func (w *Watcher) Fail(err error) {
	w.items <- item{err: err}
}

// End queues the end of the sequence
func (w *Watcher) End() {
	w.items <- item{}
}

// NextLine returns the next queued item. Terminal items are sticky.
func (w *Watcher) NextLine(ctx context.Context) (watcher.Line, bool, error) {
	w.mu.Lock()
	if w.terminal != nil {
		t := *w.terminal
		w.mu.Unlock()
		return t.line, t.ok, t.err
	}
	w.mu.Unlock()

	select {
	case <-ctx.Done():
		return watcher.Line{}, false, ctx.Err()
	case <-w.done:
		return watcher.Line{}, false, watcher.ErrClosed
	case it := <-w.items:
		if !it.ok {
			w.mu.Lock()
			w.terminal = &it
			w.mu.Unlock()
		}
		return it.line, it.ok, it.err
	}
}

// Close stops the watcher
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.closed {
		w.closed = true
		close(w.done)
	}
	return nil
}
