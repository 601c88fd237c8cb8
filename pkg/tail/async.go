package tail

import (
	"context"
	"log/slog"

	"github.com/butter-bot-machines/linetail/pkg/metrics"
	"github.com/butter-bot-machines/linetail/pkg/mux"
	"github.com/butter-bot-machines/linetail/pkg/reader"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

// AsyncTail is a line-at-a-time handle. It runs no background collector;
// lines are pulled on the caller's goroutine.
type AsyncTail struct {
	reader  *reader.Reader
	logger  *slog.Logger
	metrics metrics.Recorder
}

// OpenAsync creates the watcher and registers paths
func OpenAsync(ctx context.Context, paths []string, opts ...Option) (*AsyncTail, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	fw, err := o.newWatcher()
	if err != nil {
		return nil, err
	}
	at := &AsyncTail{
		reader:  reader.New(mux.New(fw, o.logger), o.logger),
		logger:  o.logger.With("component", "tail"),
		metrics: o.metrics,
	}
	for _, path := range paths {
		if err := at.AddFile(ctx, path); err != nil {
			if closeErr := at.Close(); closeErr != nil {
				at.logger.Warn("Failed to close watcher", "error", closeErr)
			}
			return nil, err
		}
	}
	return at, nil
}

// AddFile grows the watch set
func (a *AsyncTail) AddFile(ctx context.Context, path string) error {
	if err := a.reader.AddFile(ctx, path); err != nil {
		return err
	}
	a.metrics.FilesWatched(len(a.reader.Files()))
	return nil
}

// ReadLine waits for the next line
func (a *AsyncTail) ReadLine(ctx context.Context) (watcher.Line, error) {
	line, err := a.reader.ReadLine(ctx)
	if err != nil {
		return watcher.Line{}, err
	}
	a.metrics.LineCollected(line.Source)
	return line, nil
}

// Close releases the watcher
func (a *AsyncTail) Close() error {
	return a.reader.Close()
}

// Follow passes every line to fn until ctx ends, which returns nil, or
// until reading or fn fails.
func (a *AsyncTail) Follow(ctx context.Context, fn func(watcher.Line) error) error {
	for {
		line, err := a.ReadLine(ctx)
		if err != nil {
			if ctx.Err() != nil {
				a.logger.Debug("Follow stopped", "reason", context.Cause(ctx))
				return nil
			}
			return err
		}
		if err := fn(line); err != nil {
			return err
		}
	}
}
