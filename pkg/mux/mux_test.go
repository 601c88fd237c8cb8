package mux

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/butter-bot-machines/linetail/pkg/errors"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
	"github.com/butter-bot-machines/linetail/pkg/watcher/memory"
	"github.com/butter-bot-machines/linetail/pkg/watcher/mocks"
)

func TestMultiplexer_AddFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	fw := mocks.NewMockFileWatcher(ctrl)

	denied := stderrors.New("permission denied")
	gomock.InOrder(
		fw.EXPECT().AddFile("a.log").Return(nil),
		fw.EXPECT().AddFile("b.log").Return(denied),
		fw.EXPECT().AddFile("a.log").Return(nil),
	)

	m := New(fw, nil)
	require.NoError(t, m.AddFile("a.log"))

	err := m.AddFile("b.log")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.WatchError))
	assert.ErrorIs(t, err, denied)

	require.NoError(t, m.AddFile("a.log"))
	assert.Equal(t, []string{"a.log"}, m.Files())
}

func TestMultiplexer_NextLineErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("watcher failure becomes WatchError", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fw := mocks.NewMockFileWatcher(ctrl)
		boom := stderrors.New("inotify queue overflow")
		fw.EXPECT().NextLine(gomock.Any()).Return(watcher.Line{}, false, boom)

		_, ok, err := New(fw, nil).NextLine(ctx)
		assert.False(t, ok)
		assert.True(t, errors.IsType(err, errors.WatchError))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("end of sequence", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fw := mocks.NewMockFileWatcher(ctrl)
		fw.EXPECT().NextLine(gomock.Any()).Return(watcher.Line{}, false, nil)

		_, ok, err := New(fw, nil).NextLine(ctx)
		assert.False(t, ok)
		assert.NoError(t, err)
	})

	t.Run("context error passes through", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fw := mocks.NewMockFileWatcher(ctrl)
		cctx, cancel := context.WithCancel(ctx)
		fw.EXPECT().NextLine(gomock.Any()).DoAndReturn(func(c context.Context) (watcher.Line, bool, error) {
			cancel()
			return watcher.Line{}, false, c.Err()
		})

		_, _, err := New(fw, nil).NextLine(cctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, errors.IsType(err, errors.WatchError))
	})
}

func TestMultiplexer_Close(t *testing.T) {
	ctrl := gomock.NewController(t)
	fw := mocks.NewMockFileWatcher(ctrl)
	fw.EXPECT().Close().Return(nil)

	require.NoError(t, New(fw, nil).Close())
}

func TestMultiplexer_AddFileDuringNextLine(t *testing.T) {
	fw := memory.New(4)
	m := New(fw, nil)

	got := make(chan watcher.Line, 1)
	go func() {
		line, _, _ := m.NextLine(context.Background())
		got <- line
	}()

	// NextLine is blocked; registration must still complete.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, m.AddFile("late.log"))
	fw.Emit("late.log", "hello")

	select {
	case line := <-got:
		assert.Equal(t, watcher.Line{Content: "hello", Source: "late.log"}, line)
	case <-time.After(time.Second):
		t.Fatal("NextLine did not return")
	}
}

func TestMultiplexer_SingleConsumer(t *testing.T) {
	const n = 200
	fw := memory.New(n)
	m := New(fw, nil)
	for i := 0; i < n; i++ {
		fw.Emit("a.log", string(rune('a'+i%26)))
	}

	var mu sync.Mutex
	count := 0
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
				_, ok, err := m.NextLine(ctx)
				cancel()
				if err != nil || !ok {
					return
				}
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, n, count, "every event delivered to exactly one caller")
}

func TestMultiplexer_WaitingConsumerHonoursContext(t *testing.T) {
	fw := memory.New(1)
	m := New(fw, nil)

	go func() { _, _, _ = m.NextLine(context.Background()) }()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err := m.NextLine(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, fw.Close())
}
