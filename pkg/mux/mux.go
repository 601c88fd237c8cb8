// Package mux exposes one watcher's line sequence through two independent
// operations: growing the watch set and taking the next line.
package mux

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"

	"github.com/butter-bot-machines/linetail/pkg/errors"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

// Multiplexer owns a watcher.FileWatcher. AddFile never waits for the
// consumer slot, so it can run while a NextLine call is blocked.
type Multiplexer struct {
	fw     watcher.FileWatcher
	logger *slog.Logger

	// consumer admits one outstanding NextLine at a time
	consumer chan struct{}

	mu    sync.RWMutex
	files []string
	seen  map[string]bool
}

// New creates a multiplexer over fw
func New(fw watcher.FileWatcher, logger *slog.Logger) *Multiplexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Multiplexer{
		fw:       fw,
		logger:   logger.With("component", "mux"),
		consumer: make(chan struct{}, 1),
		seen:     make(map[string]bool),
	}
}

// AddFile registers path with the watcher
func (m *Multiplexer) AddFile(path string) error {
	if err := m.fw.AddFile(path); err != nil {
		if !errors.IsType(err, errors.WatchError) {
			err = errors.WatchError.Wrap(err, "failed to watch %s", path)
		}
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.seen[path] {
		m.seen[path] = true
		m.files = append(m.files, path)
	}
	m.logger.Debug("File added", "path", path, "files", len(m.files))
	return nil
}

// NextLine returns the next line of the sequence. ok is false once the
// sequence has ended. Watcher failures come back as WatchError; context
// errors are returned unchanged.
func (m *Multiplexer) NextLine(ctx context.Context) (watcher.Line, bool, error) {
	select {
	case m.consumer <- struct{}{}:
	case <-ctx.Done():
		return watcher.Line{}, false, ctx.Err()
	}
	defer func() { <-m.consumer }()

	line, ok, err := m.fw.NextLine(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && stderrors.Is(err, ctxErr) {
			return watcher.Line{}, false, err
		}
		if !errors.IsType(err, errors.WatchError) {
			err = errors.WatchError.Wrap(err, "failed to read next line")
		}
		return watcher.Line{}, false, err
	}
	return line, ok, nil
}

// Files returns the registered paths in registration order
func (m *Multiplexer) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.files...)
}

// Close closes the underlying watcher
func (m *Multiplexer) Close() error {
	return m.fw.Close()
}
