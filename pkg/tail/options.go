package tail

import (
	"log/slog"

	"github.com/butter-bot-machines/linetail/pkg/metrics"
	"github.com/butter-bot-machines/linetail/pkg/timing"
	"github.com/butter-bot-machines/linetail/pkg/timing/real"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

type options struct {
	backend   string
	queueSize int
	factory   watcher.Factory
	logger    *slog.Logger
	metrics   metrics.Recorder
	clock     timing.Clock
}

func defaultOptions() *options {
	return &options{
		backend: watcher.BackendFSNotify,
		factory: Factory{},
		logger:  slog.Default(),
		metrics: metrics.Discard{},
		clock:   real.New(),
	}
}

// Option configures Open and OpenAsync
type Option func(*options)

// WithBackend selects the watcher backend by name
func WithBackend(name string) Option {
	return func(o *options) {
		if name != "" {
			o.backend = name
		}
	}
}

// WithQueueSize sets the watcher's internal line queue capacity
func WithQueueSize(n int) Option {
	return func(o *options) {
		o.queueSize = n
	}
}

// WithFactory replaces the backend factory
func WithFactory(f watcher.Factory) Option {
	return func(o *options) {
		if f != nil {
			o.factory = f
		}
	}
}

// WithLogger sets the logger shared by every component
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(rec metrics.Recorder) Option {
	return func(o *options) {
		if rec != nil {
			o.metrics = rec
		}
	}
}

// WithClock sets the clock driving Poll
func WithClock(clock timing.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func (o *options) newWatcher() (watcher.FileWatcher, error) {
	return o.factory.NewWatcher(watcher.Options{
		Backend:   o.backend,
		QueueSize: o.queueSize,
		Logger:    o.logger,
	})
}
