package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/butter-bot-machines/linetail/pkg/errors"
)

// Options configures the logger
type Options struct {
	// Level sets the minimum level to log
	Level slog.Level
	// AddSource adds source code information to log messages
	AddSource bool
	// Output sets the output destination (defaults to os.Stderr)
	Output io.Writer
	// JSON enables JSON output format
	JSON bool
}

// NewLogger creates a new logger with the given options
func NewLogger(opts *Options) *slog.Logger {
	if opts == nil {
		opts = &Options{
			Level:     slog.LevelInfo,
			AddSource: true,
			Output:    os.Stderr,
		}
	}

	// stdout carries the tailed lines
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var handler slog.Handler
	handlerOpts := &slog.HandlerOptions{
		Level:       opts.Level,
		AddSource:   opts.AddSource,
		ReplaceAttr: shortenSource,
	}

	if opts.JSON {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	return slog.New(handler)
}

// shortenSource trims source paths to the file name
func shortenSource(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey || len(groups) > 0 {
		return a
	}
	src, ok := a.Value.Any().(*slog.Source)
	if !ok {
		return a
	}
	short := *src
	short.File = filepath.Base(src.File)
	a.Value = slog.AnyValue(&short)
	return a
}

// ParseLevel converts a level name to a slog.Level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.ConfigError.New("invalid log level %q", s)
	}
}
