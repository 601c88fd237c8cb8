package tail

import (
	"github.com/butter-bot-machines/linetail/pkg/errors"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
	"github.com/butter-bot-machines/linetail/pkg/watcher/concrete"
	"github.com/butter-bot-machines/linetail/pkg/watcher/tailer"
)

// Factory creates watchers for the built-in backends
type Factory struct{}

var _ watcher.Factory = Factory{}

// NewWatcher creates the backend named by opts.Backend
func (Factory) NewWatcher(opts watcher.Options) (watcher.FileWatcher, error) {
	opts = opts.WithDefaults()
	switch opts.Backend {
	case watcher.BackendFSNotify:
		return concrete.NewWatcher(opts)
	case watcher.BackendTail:
		return tailer.NewWatcher(opts)
	default:
		return nil, errors.ConfigError.New("unknown watcher backend %q", opts.Backend).
			WithContext("supported", []string{watcher.BackendFSNotify, watcher.BackendTail})
	}
}

// FactoryFunc adapts a function to watcher.Factory
type FactoryFunc func(opts watcher.Options) (watcher.FileWatcher, error)

// NewWatcher calls f
func (f FactoryFunc) NewWatcher(opts watcher.Options) (watcher.FileWatcher, error) {
	return f(opts)
}
