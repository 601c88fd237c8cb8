package tail

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/butter-bot-machines/linetail/pkg/errors"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
	"github.com/butter-bot-machines/linetail/pkg/watcher/memory"
)

func TestAsyncTail_ReadLine(t *testing.T) {
	fw := memory.New(8)
	at, err := OpenAsync(context.Background(), []string{"a.log"}, withMemory(fw))
	require.NoError(t, err)
	defer at.Close()

	require.NoError(t, at.AddFile(context.Background(), "b.log"))
	assert.Equal(t, []string{"a.log", "b.log"}, fw.Files())

	fw.Emit("b.log", "hello")
	line, err := at.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, watcher.Line{Content: "hello", Source: "b.log"}, line)

	fw.End()
	_, err = at.ReadLine(context.Background())
	assert.True(t, errors.IsType(err, errors.ReadError))
}

func TestOpenAsync_FailsFast(t *testing.T) {
	fw := memory.New(8)
	fw.FailAdd("a.log", stderrors.New("permission denied"))

	_, err := OpenAsync(context.Background(), []string{"a.log"}, withMemory(fw))
	assert.True(t, errors.IsType(err, errors.WatchError))
	assert.ErrorIs(t, fw.AddFile("b.log"), watcher.ErrClosed)
}

func TestAsyncTail_Follow(t *testing.T) {
	t.Run("stops cleanly on cancel", func(t *testing.T) {
		fw := memory.New(8)
		at, err := OpenAsync(context.Background(), []string{"a.log"}, withMemory(fw))
		require.NoError(t, err)
		defer at.Close()

		fw.Emit("a.log", "1", "2")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var got []string
		err = at.Follow(ctx, func(line watcher.Line) error {
			got = append(got, line.Content)
			if len(got) == 2 {
				cancel()
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, got)
	})

	t.Run("fn error", func(t *testing.T) {
		fw := memory.New(8)
		at, err := OpenAsync(context.Background(), nil, withMemory(fw))
		require.NoError(t, err)
		defer at.Close()

		fw.Emit("a.log", "1")
		errStop := stderrors.New("stop")
		err = at.Follow(context.Background(), func(watcher.Line) error { return errStop })
		assert.ErrorIs(t, err, errStop)
	})
}

func TestAsyncTail_RealFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dummy.log")

	at, err := OpenAsync(context.Background(), []string{path})
	require.NoError(t, err)
	defer at.Close()

	appendTo(t, path, "dummy")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	line, err := at.ReadLine(ctx)
	require.NoError(t, err)
	// created after registration, so read from the start
	assert.Equal(t, watcher.Line{Content: "dummy", Source: path}, line)
}
