package testutil

import (
	"sync"
	"time"
)

// DefaultEpoch is the first instant a StepClock returns.
var DefaultEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// StepClock is a thread-safe deterministic clock for tests.
//
// Every call to Now advances the clock by a fixed step, so rows created in
// sequence get strictly increasing timestamps and the same scenario run
// twice stamps identical times. It can be reset for test reuse.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	next  time.Time
}

// NewStepClock creates a clock whose first Now() returns start.
// A zero step defaults to one second.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	if step == 0 {
		step = time.Second
	}
	return &StepClock{start: start.UTC(), step: step, next: start.UTC()}
}

// NewDeterministicClock creates a StepClock starting at DefaultEpoch with a
// one-second step.
func NewDeterministicClock() *StepClock {
	return NewStepClock(DefaultEpoch, time.Second)
}

// Now returns the current instant and advances the clock by one step.
//
// Implements engine.Clock.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}

// Peek returns the instant the next Now() call will return.
func (c *StepClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Set moves the clock so the next Now() returns t.
// Used by scenarios that pin activity dates to specific days.
func (c *StepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = t.UTC()
}

// Reset rewinds the clock to its start.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = c.start
}
