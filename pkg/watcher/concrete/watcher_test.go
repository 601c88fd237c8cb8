package concrete

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/butter-bot-machines/linetail/pkg/errors"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

func appendTo(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func nextLine(t *testing.T, w watcher.FileWatcher) watcher.Line {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	line, ok, err := w.NextLine(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	return line
}

func newTestWatcher(t *testing.T) watcher.FileWatcher {
	t.Helper()
	w, err := NewWatcher(watcher.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()
	existing := filepath.Join(tmpDir, "existing.log")
	require.NoError(t, os.WriteFile(existing, []byte("old line\n"), 0644))

	w := newTestWatcher(t)
	require.NoError(t, w.AddFile(existing))

	t.Run("appended lines only", func(t *testing.T) {
		appendTo(t, existing, "first\nsecond\n")

		assert.Equal(t, watcher.Line{Content: "first", Source: existing}, nextLine(t, w))
		assert.Equal(t, watcher.Line{Content: "second", Source: existing}, nextLine(t, w))
	})

	t.Run("file created after registration", func(t *testing.T) {
		later := filepath.Join(tmpDir, "later.log")
		require.NoError(t, w.AddFile(later))

		require.NoError(t, os.WriteFile(later, []byte("dummy"), 0644))
		assert.Equal(t, watcher.Line{Content: "dummy", Source: later}, nextLine(t, w))
	})

	t.Run("truncation restarts from the beginning", func(t *testing.T) {
		require.NoError(t, os.WriteFile(existing, []byte("new\n"), 0644))
		assert.Equal(t, watcher.Line{Content: "new", Source: existing}, nextLine(t, w))
	})

	t.Run("per-file order", func(t *testing.T) {
		appendTo(t, existing, "a\nb\nc\n")
		var got []string
		for i := 0; i < 3; i++ {
			got = append(got, nextLine(t, w).Content)
		}
		assert.Equal(t, []string{"a", "b", "c"}, got)
	})
}

func TestWatcher_UnregisteredFilesIgnored(t *testing.T) {
	tmpDir := t.TempDir()
	watched := filepath.Join(tmpDir, "watched.log")
	w := newTestWatcher(t)
	require.NoError(t, w.AddFile(watched))

	appendTo(t, filepath.Join(tmpDir, "other.log"), "ignored\n")
	appendTo(t, watched, "kept\n")

	assert.Equal(t, "kept", nextLine(t, w).Content)
}

func TestWatcherErrors(t *testing.T) {
	t.Run("missing parent directory", func(t *testing.T) {
		w := newTestWatcher(t)
		err := w.AddFile(filepath.Join(t.TempDir(), "missing", "a.log"))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.WatchError))
	})

	t.Run("closed watcher", func(t *testing.T) {
		w, err := NewWatcher(watcher.Options{})
		require.NoError(t, err)
		require.NoError(t, w.Close())
		require.NoError(t, w.Close())

		_, ok, err := w.NextLine(context.Background())
		assert.False(t, ok)
		assert.ErrorIs(t, err, watcher.ErrClosed)
		assert.ErrorIs(t, w.AddFile(filepath.Join(t.TempDir(), "a.log")), watcher.ErrClosed)
	})

	t.Run("context cancelled", func(t *testing.T) {
		w := newTestWatcher(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := w.NextLine(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFollower_ReadNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.log")
	require.NoError(t, os.WriteFile(path, []byte("skip me\n"), 0644))

	f := newFollower(path)
	assert.Equal(t, int64(8), f.offset)

	lines, err := f.readNew()
	require.NoError(t, err)
	assert.Empty(t, lines)

	appendTo(t, path, "one\r\ntwo\npartial")
	lines, err = f.readNew()
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "partial"}, lines)

	f.reset()
	lines, err = f.readNew()
	require.NoError(t, err)
	assert.Equal(t, []string{"skip me", "one", "two", "partial"}, lines)

	require.NoError(t, os.Remove(path))
	_, err = f.readNew()
	assert.True(t, os.IsNotExist(err))
}
