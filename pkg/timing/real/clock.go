package real

import (
	"time"

	"github.com/butter-bot-machines/linetail/pkg/timing"
)

// Clock implements timing.Clock using the standard time package
type Clock struct{}

// New creates a new real clock
func New() *Clock {
	return &Clock{}
}

// Now returns the current time
func (c *Clock) Now() time.Time {
	return time.Now()
}

// Sleep pauses the current goroutine for the specified duration
func (c *Clock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// AfterFunc waits for the duration to elapse and then calls f in its own goroutine
func (c *Clock) AfterFunc(d time.Duration, f func()) timing.Timer {
	return time.AfterFunc(d, f)
}
