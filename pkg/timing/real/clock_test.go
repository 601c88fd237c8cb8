package real

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_BasicOperations(t *testing.T) {
	clock := New()

	t.Run("Now", func(t *testing.T) {
		t1 := time.Now()
		c := clock.Now()
		t2 := time.Now()

		assert.False(t, c.Before(t1) || c.After(t2), "clock time %v not between %v and %v", c, t1, t2)
	})

	t.Run("Sleep", func(t *testing.T) {
		d := 10 * time.Millisecond
		start := time.Now()
		clock.Sleep(d)
		assert.GreaterOrEqual(t, time.Since(start), d)
	})

	t.Run("AfterFunc", func(t *testing.T) {
		fired := make(chan struct{})
		clock.AfterFunc(time.Millisecond, func() { close(fired) })

		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatal("AfterFunc did not fire")
		}
	})

	t.Run("Stop", func(t *testing.T) {
		timer := clock.AfterFunc(time.Hour, func() {})
		assert.True(t, timer.Stop())
		assert.False(t, timer.Stop())
	})
}
