package watcher

import "context"

// FileWatcher turns growth of a set of files into one lazy, infinite,
// non-restartable sequence of lines.
//
//go:generate mockgen -source=interface.go -destination=mocks/mock_watcher.go -package=mocks
type FileWatcher interface {
	// AddFile registers path for growth watching. It fails with a
	// WatchError when the path cannot be watched.
	AddFile(path string) error
	// NextLine blocks until the next line is available. ok is false when
	// the sequence has ended, which callers treat as a failure.
	NextLine(ctx context.Context) (line Line, ok bool, err error)
	// Close releases watcher resources.
	Close() error
}

// Factory creates new watchers
type Factory interface {
	NewWatcher(opts Options) (FileWatcher, error)
}
