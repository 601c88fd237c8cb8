// Package reader delivers watched lines one at a time to a pulling caller.
package reader

import (
	"context"
	"log/slog"

	"github.com/butter-bot-machines/linetail/pkg/errors"
	"github.com/butter-bot-machines/linetail/pkg/mux"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

// Reader is a pass-through over a Multiplexer. It does no batching and
// starts no goroutines of its own; every call runs on the caller's
// goroutine and blocks until it can return.
type Reader struct {
	m      *mux.Multiplexer
	logger *slog.Logger
}

// New creates a reader over m
func New(m *mux.Multiplexer, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		m:      m,
		logger: logger.With("component", "reader"),
	}
}

// AddFile registers path. Watch failures are returned as WatchError.
func (r *Reader) AddFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.m.AddFile(path)
}

// ReadLine waits for the next line. The line sequence never ends while the
// watcher is healthy, so its end is reported as a ReadError.
func (r *Reader) ReadLine(ctx context.Context) (watcher.Line, error) {
	line, ok, err := r.m.NextLine(ctx)
	if err != nil {
		return watcher.Line{}, err
	}
	if !ok {
		r.logger.Warn("Line sequence ended")
		return watcher.Line{}, errors.ReadError.New("line sequence ended unexpectedly")
	}
	return line, nil
}

// Files returns the watched paths
func (r *Reader) Files() []string {
	return r.m.Files()
}

// Close releases the watcher
func (r *Reader) Close() error {
	return r.m.Close()
}
