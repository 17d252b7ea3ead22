// Package timeutil provides a testable abstraction over time operations.
//
// The live monitoring path reads the wall clock; the offline validation
// harness drives a ReplayClock from recorded sample timestamps so replays
// are deterministic. Cooldown and hysteresis behaviour is expressed as
// clock comparisons on each tick, never as background timers, so neither
// implementation needs timer channels.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides an abstraction over time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the duration since t.
	Since(t time.Time) time.Duration
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// Since returns the time elapsed since t.
func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// ReplayClock is a manually driven clock. The validation harness advances it
// to each recorded sample timestamp before processing the sample, and tests
// step it explicitly.
type ReplayClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewReplayClock creates a ReplayClock set to the given time.
func NewReplayClock(t time.Time) *ReplayClock {
	return &ReplayClock{now: t}
}

// Now returns the replayed current time.
func (c *ReplayClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Since returns the duration since t in replayed time.
func (c *ReplayClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Set moves the clock to an absolute time. Moving backwards is allowed; the
// harness only ever moves forward because sessions are timestamp-sorted.
func (c *ReplayClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// SetUnixMs moves the clock to an absolute Unix-millisecond timestamp.
func (c *ReplayClock) SetUnixMs(ms int64) {
	c.Set(time.UnixMilli(ms))
}

// Advance moves the clock forward by d.
func (c *ReplayClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
