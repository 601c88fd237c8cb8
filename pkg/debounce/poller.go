// Package debounce turns a growing line buffer into discrete batches.
//
// A Poll samples the buffer length every Step. It returns the batch as soon
// as the length holds still for one tick, or once Debounce has passed since
// data was first seen even if lines keep arriving. With no data at all it
// gives up after Timeout.
package debounce

import (
	"context"
	"log/slog"
	"time"

	"github.com/butter-bot-machines/linetail/pkg/buffer"
	"github.com/butter-bot-machines/linetail/pkg/metrics"
	"github.com/butter-bot-machines/linetail/pkg/timing"
	"github.com/butter-bot-machines/linetail/pkg/timing/real"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

// Outcome tells how a Poll ended
type Outcome int

const (
	// Lines carries a batch
	Lines Outcome = iota
	// Timeout means no line arrived before the idle deadline
	Timeout
	// Cancelled means the context ended during the poll
	Cancelled
	// Failed means the poll cannot make progress; see Result.Err
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Lines:
		return "lines"
	case Timeout:
		return "timeout"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one Poll
type Result struct {
	Outcome Outcome
	Lines   []watcher.Line
	Err     error
}

// Option configures a Poller
type Option func(*Poller)

// WithHealth installs a check consulted whenever the buffer is empty. A
// non-nil error ends the poll with Failed, since no line can arrive anymore.
func WithHealth(health func() error) Option {
	return func(p *Poller) {
		if health != nil {
			p.health = health
		}
	}
}

// WithClock replaces the real clock
func WithClock(clock timing.Clock) Option {
	return func(p *Poller) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(rec metrics.Recorder) Option {
	return func(p *Poller) {
		if rec != nil {
			p.metrics = rec
		}
	}
}

// Poller is the reading side of the shared buffer. Only one Poll may run
// at a time.
type Poller struct {
	src     buffer.Drainer
	clock   timing.Clock
	health  func() error
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPoller creates a poller over src
func NewPoller(src buffer.Drainer, opts ...Option) *Poller {
	p := &Poller{
		src:     src,
		clock:   real.New(),
		health:  func() error { return nil },
		logger:  slog.Default(),
		metrics: metrics.Discard{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "poller")
	return p
}

// Poll waits for the next batch. Cancellation is checked at the start of
// every tick and takes priority; it discards whatever has accumulated, as
// does a timeout.
func (p *Poller) Poll(ctx context.Context, cfg Config) Result {
	if err := cfg.Validate(); err != nil {
		return p.complete(Result{Outcome: Failed, Err: err})
	}

	var (
		lastSize         int
		debounceDeadline time.Time
		debounceStarted  bool
		timeoutDeadline  time.Time
	)
	if cfg.Timeout != 0 {
		timeoutDeadline = p.clock.Now().Add(cfg.Timeout)
	}

	for {
		// The buffer lock is never held across the sleep.
		p.clock.Sleep(cfg.Step)

		if ctx.Err() != nil {
			p.src.Clear()
			return p.complete(Result{Outcome: Cancelled})
		}

		size := p.src.Len()
		if size > 0 {
			if size == lastSize {
				p.logger.Debug("Batch stable", "lines", size)
				break
			}
			lastSize = size

			now := p.clock.Now()
			if debounceStarted {
				if now.After(debounceDeadline) {
					p.logger.Debug("Batch forced", "lines", size)
					break
				}
			} else {
				// Counted from first detection and never extended.
				debounceDeadline = now.Add(cfg.Debounce)
				debounceStarted = true
			}
			continue
		}

		if err := p.health(); err != nil {
			return p.complete(Result{Outcome: Failed, Err: err})
		}
		if cfg.Timeout != 0 && p.clock.Now().After(timeoutDeadline) {
			p.src.Clear()
			return p.complete(Result{Outcome: Timeout})
		}
	}

	return p.complete(Result{Outcome: Lines, Lines: p.src.Drain()})
}

func (p *Poller) complete(res Result) Result {
	p.metrics.PollCompleted(res.Outcome.String(), len(res.Lines))
	return res
}
