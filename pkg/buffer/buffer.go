// Package buffer holds lines between the collector and the poller.
package buffer

import (
	"sync"

	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

// Appender is the writer side of a Buffer
type Appender interface {
	Append(line watcher.Line)
}

// Drainer is the reader side of a Buffer
type Drainer interface {
	// Len reports the number of buffered lines without removing them
	Len() int
	// Drain removes and returns every buffered line, in append order
	Drain() []watcher.Line
	// Clear discards every buffered line
	Clear()
}

// Buffer is an unbounded, ordered line queue. Its length only grows between
// drains. Every operation holds the lock only for its own duration.
type Buffer struct {
	mu      sync.Mutex
	entries []watcher.Line
}

var (
	_ Appender = (*Buffer)(nil)
	_ Drainer  = (*Buffer)(nil)
)

// New creates an empty buffer
func New() *Buffer {
	return &Buffer{}
}

// Append adds line at the end
func (b *Buffer) Append(line watcher.Line) {
	b.mu.Lock()
	b.entries = append(b.entries, line)
	b.mu.Unlock()
}

// Len returns the number of buffered lines
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Drain takes all buffered lines and resets the length to zero in one step
func (b *Buffer) Drain() []watcher.Line {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.entries
	b.entries = nil
	return out
}

// Clear discards all buffered lines
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.entries = nil
	b.mu.Unlock()
}
