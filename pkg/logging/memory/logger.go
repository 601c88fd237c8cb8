// Package memory provides a slog.Handler that keeps records in memory for
// assertions in tests.
package memory

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogEntry represents a stored log entry
type LogEntry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	// Attrs holds every attribute, keyed by its dotted group path
	Attrs map[string]any
}

type store struct {
	mu      sync.RWMutex
	entries []LogEntry
}

// Handler implements slog.Handler with in-memory storage. Handlers derived
// through WithAttrs and WithGroup share the same entries.
type Handler struct {
	level  slog.Leveler
	store  *store
	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler creates a handler recording records at or above level
func NewHandler(level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelDebug
	}
	return &Handler{level: level, store: &store{}}
}

// NewLogger returns a logger writing to a new handler, and the handler
func NewLogger(level slog.Leveler) (*slog.Logger, *Handler) {
	h := NewHandler(level)
	return slog.New(h), h
}

// Enabled reports whether level is recorded
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle stores the record
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   make(map[string]any),
	}
	for _, a := range h.attrs {
		addAttr(entry.Attrs, "", a)
	}
	prefix := strings.Join(h.groups, ".")
	r.Attrs(func(a slog.Attr) bool {
		addAttr(entry.Attrs, prefix, a)
		return true
	})

	h.store.mu.Lock()
	h.store.entries = append(h.store.entries, entry)
	h.store.mu.Unlock()
	return nil
}

// attrs added before a group keep their own prefix
func addAttr(dst map[string]any, prefix string, a slog.Attr) {
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addAttr(dst, key, ga)
		}
		return
	}
	dst[key] = a.Value.Resolve().Any()
}

// WithAttrs returns a handler that adds attrs to every record
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := strings.Join(h.groups, ".")
	grouped := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	grouped = append(grouped, h.attrs...)
	for _, a := range attrs {
		if prefix != "" {
			a = slog.Attr{Key: prefix + "." + a.Key, Value: a.Value}
		}
		grouped = append(grouped, a)
	}
	return &Handler{level: h.level, store: h.store, attrs: grouped, groups: h.groups}
}

// WithGroup returns a handler that nests later attributes under name
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := append(append([]string{}, h.groups...), name)
	return &Handler{level: h.level, store: h.store, attrs: h.attrs, groups: groups}
}

// Entries returns a copy of all stored log entries
func (h *Handler) Entries() []LogEntry {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	entries := make([]LogEntry, len(h.store.entries))
	copy(entries, h.store.entries)
	return entries
}

// Find returns the entries with the given message
func (h *Handler) Find(msg string) []LogEntry {
	var found []LogEntry
	for _, e := range h.Entries() {
		if e.Message == msg {
			found = append(found, e)
		}
	}
	return found
}
