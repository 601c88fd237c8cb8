// Package timing abstracts the clock so that polling and deadline logic can
// be driven deterministically in tests.
package timing

import "time"

// Clock defines the interface for time operations
type Clock interface {
	// Now returns the current time. Real clocks carry a monotonic reading,
	// so deadline comparisons are immune to wall-clock adjustments.
	Now() time.Time
	// Sleep blocks the calling goroutine for d
	Sleep(d time.Duration)
	// AfterFunc calls f once d has elapsed
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer defines the interface for timer operations
type Timer interface {
	// Stop prevents the timer from firing
	Stop() bool
}
