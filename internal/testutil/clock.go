package testutil

import (
	"sync"
	"time"
)

// StepClock is a deterministic clock for tests.
//
// Every call to Now advances by Step from Start, so timestamps written by
// code under test are predictable.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu    sync.Mutex
	Start time.Time
	Step  time.Duration
	calls int
}

// NewStepClock creates a clock starting at 2026-12-24T18:00:00Z that
// advances one second per call.
func NewStepClock() *StepClock {
	return &StepClock{
		Start: time.Date(2026, time.December, 24, 18, 0, 0, 0, time.UTC),
		Step:  time.Second,
	}
}

// Now returns the next timestamp.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.Start.Add(time.Duration(c.calls) * c.Step)
	c.calls++
	return t
}
