// Package tailer implements watcher.FileWatcher with one nxadm/tail follower
// per file, fanned into a single line sequence.
package tailer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/nxadm/tail"
	"golang.org/x/sync/errgroup"

	"github.com/butter-bot-machines/linetail/pkg/errors"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

type watcherImpl struct {
	logger *slog.Logger

	mu      sync.Mutex
	tails   map[string]*tail.Tail
	stopped bool

	lines    chan watcher.Line
	done     chan struct{}
	failed   chan struct{}
	failOnce sync.Once
	err      error
	group    errgroup.Group
}

// NewWatcher creates a tail-backed file watcher
func NewWatcher(opts watcher.Options) (watcher.FileWatcher, error) {
	opts = opts.WithDefaults()
	return &watcherImpl{
		logger: opts.Logger.With("component", "watcher", "backend", watcher.BackendTail),
		tails:  make(map[string]*tail.Tail),
		lines:  make(chan watcher.Line, opts.QueueSize),
		done:   make(chan struct{}),
		failed: make(chan struct{}),
	}, nil
}

// AddFile starts following path. Existing files are followed from their
// end; missing files are read from the start once they appear.
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
	if _, ok := w.tails[absPath]; ok {
		return nil
	}

	cfg := tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Logger:    tail.DiscardingLogger,
	}
	// The end offset is taken now; the tail goroutine seeks later, and
	// lines appended in between must not be skipped.
	if fi, err := os.Stat(absPath); err == nil {
		cfg.Location = &tail.SeekInfo{Offset: fi.Size(), Whence: io.SeekStart}
	}

	t, err := tail.TailFile(absPath, cfg)
	if err != nil {
		return errors.WatchError.Wrap(err, "failed to tail %s", absPath)
	}
	w.tails[absPath] = t
	w.group.Go(func() error {
		return w.forward(absPath, t)
	})

	w.logger.Info("Watching file", "path", absPath)
	return nil
}

// forward drains t until it stops and returns the error that ended it, nil
// after Close. It keeps draining after a failure so that the tail goroutine
// is never left blocked on a send.
func (w *watcherImpl) forward(path string, t *tail.Tail) error {
	var failure error
	for line := range t.Lines {
		if line.Err != nil {
			if failure == nil {
				w.logger.Error("Tail failed", "path", path, "error", line.Err)
				failure = errors.WatchError.Wrap(line.Err, "failed to read %s", path)
				w.fail(failure)
			}
			continue
		}
		select {
		case w.lines <- watcher.Line{Content: line.Text, Source: path}:
		case <-w.done:
		case <-w.failed:
		}
	}
	if failure != nil {
		return failure
	}

	select {
	case <-w.done:
		return nil
	default:
	}
	if err := t.Wait(); err != nil {
		failure = errors.WatchError.Wrap(err, "tail of %s stopped", path)
		w.fail(failure)
		return failure
	}
	// A following tail only ends when stopped; treat anything else as the
	// end of the sequence.
	w.fail(nil)
	return nil
}

func (w *watcherImpl) fail(err error) {
	w.failOnce.Do(func() {
		w.err = err
		close(w.failed)
	})
}

// NextLine blocks until a line is read
func (w *watcherImpl) NextLine(ctx context.Context) (watcher.Line, bool, error) {
	select {
	case <-ctx.Done():
		return watcher.Line{}, false, ctx.Err()
	case line := <-w.lines:
		return line, true, nil
	case <-w.done:
		return watcher.Line{}, false, watcher.ErrClosed
	case <-w.failed:
		select {
		case line := <-w.lines:
			return line, true, nil
		default:
		}
		return watcher.Line{}, false, w.err
	}
}

// Close stops every tail and waits for the forwarders to exit. It returns
// any error that ended a forwarder.
func (w *watcherImpl) Close() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.done)
	tails := make([]*tail.Tail, 0, len(w.tails))
	for _, t := range w.tails {
		tails = append(tails, t)
	}
	w.mu.Unlock()

	var errs errors.Aggregate
	for _, t := range tails {
		errs.Add(t.Stop())
		t.Cleanup()
	}
	// a forwarder that failed before Close reports its error here
	errs.Add(w.group.Wait())
	return errs.Err()
}
