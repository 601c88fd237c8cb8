// Package tail is the consumer-facing entry point. A Tail delivers
// debounced batches from a background collector; an AsyncTail hands out
// lines one at a time. A given watcher serves only one of the two modes.
package tail

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"

	"github.com/butter-bot-machines/linetail/pkg/buffer"
	"github.com/butter-bot-machines/linetail/pkg/collector"
	"github.com/butter-bot-machines/linetail/pkg/debounce"
	"github.com/butter-bot-machines/linetail/pkg/errors"
	"github.com/butter-bot-machines/linetail/pkg/metrics"
	"github.com/butter-bot-machines/linetail/pkg/mux"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

// ErrInterrupted is returned by Follow when its context is cancelled and
// FollowOptions.RaiseInterrupt is set.
var ErrInterrupted = stderrors.New("interrupted")

// FollowOptions controls the Follow loop
type FollowOptions struct {
	// YieldOnTimeout calls fn with a nil batch on every idle timeout
	YieldOnTimeout bool
	// RaiseInterrupt turns cancellation into ErrInterrupted instead of a
	// clean return
	RaiseInterrupt bool
}

// DefaultFollowOptions returns the default follow behavior
func DefaultFollowOptions() FollowOptions {
	return FollowOptions{RaiseInterrupt: true}
}

// Tail is a batch-mode handle
type Tail struct {
	mux       *mux.Multiplexer
	collector *collector.Collector
	poller    *debounce.Poller
	logger    *slog.Logger
	metrics   metrics.Recorder

	pollMu    sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

// Open watches paths and starts collecting. Every path is registered before
// the collector starts; the first one that cannot be watched fails Open and
// releases the watcher. ctx bounds the collector's lifetime.
func Open(ctx context.Context, paths []string, opts ...Option) (*Tail, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger.With("component", "tail")

	fw, err := o.newWatcher()
	if err != nil {
		return nil, err
	}
	m := mux.New(fw, o.logger)

	for _, path := range paths {
		if err := m.AddFile(path); err != nil {
			if closeErr := m.Close(); closeErr != nil {
				logger.Warn("Failed to close watcher", "error", closeErr)
			}
			return nil, err
		}
	}
	o.metrics.FilesWatched(len(m.Files()))

	buf := buffer.New()
	coll := collector.New(m, buf,
		collector.WithLogger(o.logger),
		collector.WithMetrics(o.metrics),
	)
	poller := debounce.NewPoller(buf,
		debounce.WithClock(o.clock),
		debounce.WithHealth(coll.Health),
		debounce.WithLogger(o.logger),
		debounce.WithMetrics(o.metrics),
	)
	coll.Start(ctx)

	logger.Info("Tail opened", "backend", o.backend, "files", len(paths))
	return &Tail{
		mux:       m,
		collector: coll,
		poller:    poller,
		logger:    logger,
		metrics:   o.metrics,
		closed:    make(chan struct{}),
	}, nil
}

// Poll waits for the next batch. Concurrent calls are serialized.
func (t *Tail) Poll(ctx context.Context, cfg debounce.Config) debounce.Result {
	t.pollMu.Lock()
	defer t.pollMu.Unlock()

	select {
	case <-t.closed:
		return debounce.Result{Outcome: debounce.Failed, Err: watcher.ErrClosed}
	default:
	}
	return t.poller.Poll(ctx, cfg)
}

// Status reports the collector state. A Failed collector will never
// deliver another line.
func (t *Tail) Status() (collector.State, error) {
	return t.collector.State()
}

// AddFile grows the watch set
func (t *Tail) AddFile(path string) error {
	select {
	case <-t.closed:
		return watcher.ErrClosed
	default:
	}
	if err := t.mux.AddFile(path); err != nil {
		return err
	}
	t.metrics.FilesWatched(len(t.mux.Files()))
	return nil
}

// Files returns the watched paths
func (t *Tail) Files() []string {
	return t.mux.Files()
}

// Close stops the collector and releases the watcher. Later calls return
// the first call's result.
func (t *Tail) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
		t.collector.Stop()
		if err := t.mux.Close(); err != nil {
			t.closeErr = errors.WatchError.Wrap(err, "failed to close watcher")
		}
		t.logger.Debug("Tail closed")
	})
	return t.closeErr
}

// Follow polls until ctx ends, fn fails or the collector fails, passing
// each batch to fn.
func (t *Tail) Follow(ctx context.Context, cfg debounce.Config, fo FollowOptions, fn func([]watcher.Line) error) error {
	for {
		res := t.Poll(ctx, cfg)
		switch res.Outcome {
		case debounce.Lines:
			if err := fn(res.Lines); err != nil {
				return err
			}
		case debounce.Timeout:
			if fo.YieldOnTimeout {
				if err := fn(nil); err != nil {
					return err
				}
				continue
			}
			t.logger.Debug("Poll timed out")
		case debounce.Cancelled:
			if fo.RaiseInterrupt {
				return ErrInterrupted
			}
			t.logger.Warn("Follow interrupted")
			return nil
		default:
			return res.Err
		}
	}
}
