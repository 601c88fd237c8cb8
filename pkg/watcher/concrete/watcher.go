// Package concrete implements watcher.FileWatcher on top of fsnotify.
package concrete

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/butter-bot-machines/linetail/pkg/errors"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

// watcherImpl implements watcher.FileWatcher. Each watched file's parent
// directory is registered with fsnotify, which reports creation, removal and
// growth of the file itself.
type watcherImpl struct {
	fsWatcher *fsnotify.Watcher
	logger    *slog.Logger

	mu      sync.Mutex
	files   map[string]*follower
	dirs    map[string]bool
	stopped bool

	lines      chan watcher.Line
	done       chan struct{}
	terminated chan struct{}
	err        error
	wg         sync.WaitGroup
}

// NewWatcher creates a new fsnotify-backed file watcher
func NewWatcher(opts watcher.Options) (watcher.FileWatcher, error) {
	opts = opts.WithDefaults()

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WatchError.Wrap(err, "failed to create watcher")
	}

	w := &watcherImpl{
		fsWatcher:  fsWatcher,
		logger:     opts.Logger.With("component", "watcher", "backend", watcher.BackendFSNotify),
		files:      make(map[string]*follower),
		dirs:       make(map[string]bool),
		lines:      make(chan watcher.Line, opts.QueueSize),
		done:       make(chan struct{}),
		terminated: make(chan struct{}),
	}

	w.wg.Add(1)
	go w.watch()

	return w, nil
}

// AddFile registers path. Registering the same path twice is a no-op.
func (w *watcherImpl) AddFile(path string) error {
	absPath, err := watcher.ResolvePath(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return watcher.ErrClosed
	}
	if _, ok := w.files[absPath]; ok {
		return nil
	}

	f := newFollower(absPath)
	dir := filepath.Dir(absPath)
	if !w.dirs[dir] {
		if err := w.fsWatcher.Add(dir); err != nil {
			return errors.WatchError.Wrap(err, "failed to watch %s", absPath).WithContext("dir", dir)
		}
		w.dirs[dir] = true
	}
	w.files[absPath] = f

	w.logger.Info("Watching file", "path", absPath, "offset", f.offset)
	return nil
}

// NextLine blocks until a line is read. Lines read before a failure are
// still delivered before the failure itself.
func (w *watcherImpl) NextLine(ctx context.Context) (watcher.Line, bool, error) {
	select {
	case <-ctx.Done():
		return watcher.Line{}, false, ctx.Err()
	case line := <-w.lines:
		return line, true, nil
	case <-w.terminated:
		select {
		case line := <-w.lines:
			return line, true, nil
		default:
		}
		return watcher.Line{}, false, w.err
	}
}

// Close stops the watcher
func (w *watcherImpl) Close() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.done)
	w.mu.Unlock()

	w.wg.Wait()
	return w.fsWatcher.Close()
}

func (w *watcherImpl) watch() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			w.terminate(watcher.ErrClosed)
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				w.terminate(watcher.ErrClosed)
				return
			}
			if err := w.handleEvent(event); err != nil {
				w.logger.Error("Watcher failed", "path", event.Name, "error", err)
				w.terminate(err)
				return
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				w.terminate(watcher.ErrClosed)
				return
			}
			w.logger.Error("Watcher error", "error", err)
			w.terminate(errors.WatchError.Wrap(err, "watcher error"))
			return
		}
	}
}

func (w *watcherImpl) handleEvent(event fsnotify.Event) error {
	w.mu.Lock()
	f, ok := w.files[filepath.Clean(event.Name)]
	w.mu.Unlock()
	if !ok {
		return nil
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.logger.Debug("File moved away", "path", f.path, "op", event.Op.String())
		f.reset()
		return nil
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return nil
	}

	lines, err := f.readNew()
	for _, content := range lines {
		select {
		case w.lines <- watcher.Line{Content: content, Source: f.path}:
		case <-w.done:
			return nil
		}
	}
	if err != nil {
		if os.IsNotExist(err) {
			// removed between the event and the read
			return nil
		}
		return errors.WatchError.Wrap(err, "failed to read %s", f.path)
	}
	return nil
}

func (w *watcherImpl) terminate(err error) {
	w.err = err
	close(w.terminated)
}
