package buffer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

func TestBuffer_AppendDrain(t *testing.T) {
	b := New()
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Drain())

	b.Append(watcher.Line{Content: "x", Source: "a"})
	b.Append(watcher.Line{Content: "y", Source: "b"})
	assert.Equal(t, 2, b.Len())

	got := b.Drain()
	assert.Equal(t, []watcher.Line{{Content: "x", Source: "a"}, {Content: "y", Source: "b"}}, got)
	assert.Equal(t, 0, b.Len())

	// A drained batch is not affected by later appends.
	b.Append(watcher.Line{Content: "z", Source: "a"})
	assert.Len(t, got, 2)
	assert.Equal(t, 1, b.Len())

	b.Clear()
	assert.Equal(t, 0, b.Len())
}

func TestBuffer_ConcurrentExactlyOnce(t *testing.T) {
	const writers, perWriter = 4, 500
	b := New()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				b.Append(watcher.Line{Content: fmt.Sprint(i), Source: fmt.Sprint(w)})
			}
		}(w)
	}

	var drained []watcher.Line
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		select {
		case <-done:
			drained = append(drained, b.Drain()...)
			require.Len(t, drained, writers*perWriter)

			// per-source order is preserved
			next := make(map[string]int)
			for _, l := range drained {
				assert.Equal(t, fmt.Sprint(next[l.Source]), l.Content)
				next[l.Source]++
			}
			return
		default:
			drained = append(drained, b.Drain()...)
		}
	}
}
