// Package collector drains a line source into a shared buffer on a
// background goroutine.
package collector

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"

	"github.com/butter-bot-machines/linetail/pkg/buffer"
	"github.com/butter-bot-machines/linetail/pkg/errors"
	"github.com/butter-bot-machines/linetail/pkg/metrics"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

// State is the lifecycle state of a Collector
type State int

const (
	Idle State = iota
	Running
	Failed
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Failed:
		return "failed"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ErrStopped is reported by Health once the collector has been stopped
var ErrStopped = stderrors.New("collector stopped")

// Source yields lines; *mux.Multiplexer satisfies it
type Source interface {
	NextLine(ctx context.Context) (watcher.Line, bool, error)
}

// Option configures a Collector
type Option func(*Collector)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(rec metrics.Recorder) Option {
	return func(c *Collector) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

// Collector appends every line from its source to a sink. It never waits for
// the consumer, and it stops for good on the first source failure.
type Collector struct {
	src     Source
	sink    buffer.Appender
	logger  *slog.Logger
	metrics metrics.Recorder

	mu     sync.Mutex
	state  State
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a collector; call Start to run it
func New(src Source, sink buffer.Appender, opts ...Option) *Collector {
	c := &Collector{
		src:     src,
		sink:    sink,
		logger:  slog.Default(),
		metrics: metrics.Discard{},
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "collector")
	return c
}

// Start launches the collection loop. It is a no-op unless the collector is idle.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Idle {
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.state = Running
	c.metrics.CollectorUp(true)

	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)

	for {
		line, ok, err := c.src.NextLine(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.finish(Stopped, nil)
				return
			}
			c.finish(Failed, errors.CollectorError.Wrap(err, "collector stopped"))
			return
		}
		if !ok {
			c.finish(Failed, errors.CollectorError.New("line sequence ended"))
			return
		}

		c.sink.Append(line)
		c.metrics.LineCollected(line.Source)
	}
}

func (c *Collector) finish(state State, err error) {
	c.mu.Lock()
	c.state = state
	c.err = err
	c.mu.Unlock()

	c.metrics.CollectorUp(false)
	if err != nil {
		c.logger.Error("Collector failed", "error", err)
		return
	}
	c.logger.Debug("Collector stopped")
}

// Stop ends the loop and waits for it to exit. A failed collector keeps
// its Failed state.
func (c *Collector) Stop() {
	c.mu.Lock()
	switch c.state {
	case Idle:
		c.state = Stopped
		close(c.done)
		c.mu.Unlock()
		return
	case Stopped:
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	<-c.done
}

// State returns the current state and, when Failed, the terminal error
func (c *Collector) State() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.err
}

// Health returns nil while the collector can still deliver lines
func (c *Collector) Health() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Failed:
		return c.err
	case Stopped:
		return ErrStopped
	default:
		return nil
	}
}

// Done is closed when the loop has exited
func (c *Collector) Done() <-chan struct{} {
	return c.done
}
