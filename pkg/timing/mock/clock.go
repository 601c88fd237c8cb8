package mock

import (
	"sort"
	"sync"
	"time"

	"github.com/butter-bot-machines/linetail/pkg/timing"
)

// Clock implements timing.Clock with controlled time flow. Sleep advances
// the clock instead of blocking, and due callbacks run synchronously on the
// advancing goroutine, so a poll loop driven by this clock is deterministic.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*timer
	sleeps int
}

// New creates a new mock clock starting at the given time
func New(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current mock time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances time by the given duration
func (c *Clock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.sleeps++
	c.mu.Unlock()
	c.Advance(d)
}

// Sleeps returns how many times Sleep was called
func (c *Clock) Sleeps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleeps
}

// AfterFunc registers f to run once the clock reaches now+d
func (c *Clock) AfterFunc(d time.Duration, f func()) timing.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &timer{
		when:   c.now.Add(d),
		fn:     f,
		active: true,
	}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by duration d, firing due callbacks in
// deadline order with the clock set to each deadline.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	end := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(end)
		if next == nil {
			c.now = end
			c.mu.Unlock()
			return
		}
		if next.when.After(c.now) {
			c.now = next.when
		}
		c.mu.Unlock()

		next.fire()
	}
}

// nextDueLocked removes and returns the earliest active timer due by end
func (c *Clock) nextDueLocked(end time.Time) *timer {
	sort.SliceStable(c.timers, func(i, j int) bool {
		return c.timers[i].when.Before(c.timers[j].when)
	})
	for i, t := range c.timers {
		if !t.isActive() {
			continue
		}
		if t.when.After(end) {
			return nil
		}
		c.timers = append(c.timers[:i:i], c.timers[i+1:]...)
		return t
	}
	return nil
}

// timer implements timing.Timer
type timer struct {
	mu     sync.Mutex
	when   time.Time
	fn     func()
	active bool
}

func (t *timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	active := t.active
	t.active = false
	return active
}

func (t *timer) isActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *timer) fire() {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	t.active = false
	t.mu.Unlock()

	t.fn()
}
