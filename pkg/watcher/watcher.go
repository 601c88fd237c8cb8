// Package watcher defines the line-producing file watcher capability and the
// helpers shared by its backends.
package watcher

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/butter-bot-machines/linetail/pkg/errors"
)

// Line is a single line appended to a watched file
type Line struct {
	Content string `json:"line"`
	Source  string `json:"path"`
}

func (l Line) String() string {
	return fmt.Sprintf("%s: %s", l.Source, l.Content)
}

// Backend names accepted by Options.Backend
const (
	BackendFSNotify = "fsnotify"
	BackendTail     = "tail"
)

// DefaultQueueSize is the capacity of the channel between a backend's
// reader goroutines and NextLine.
const DefaultQueueSize = 1024

// Options configures a watcher backend
type Options struct {
	Backend   string
	QueueSize int
	Logger    *slog.Logger
}

// WithDefaults fills zero values
func (o Options) WithDefaults() Options {
	if o.Backend == "" {
		o.Backend = BackendFSNotify
	}
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// ErrClosed is returned by a watcher after Close
var ErrClosed = stderrors.New("watcher closed")

// ResolvePath returns the absolute form of path and checks that its parent
// directory exists, which is required to observe the file being created.
func ResolvePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", errors.WatchError.Wrap(err, "failed to resolve path %s", path)
	}

	dir := filepath.Dir(absPath)
	info, err := os.Stat(dir)
	if err != nil {
		return "", errors.WatchError.Wrap(err, "failed to watch %s", absPath).WithContext("dir", dir)
	}
	if !info.IsDir() {
		return "", errors.WatchError.New("failed to watch %s: parent is not a directory", absPath).WithContext("dir", dir)
	}
	if fi, err := os.Stat(absPath); err == nil && fi.IsDir() {
		return "", errors.WatchError.New("failed to watch %s: is a directory", absPath)
	}
	return absPath, nil
}

// SplitLine strips the line terminator from raw
func SplitLine(raw string) string {
	n := len(raw)
	if n > 0 && raw[n-1] == '\n' {
		n--
		if n > 0 && raw[n-1] == '\r' {
			n--
		}
	}
	return raw[:n]
}
