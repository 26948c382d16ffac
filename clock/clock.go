// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package clock provides implementations of the timing source used by
// mainloop: a monotonic system clock, and a manually advanced fake.
package clock

import (
	"sync"
	"time"
)

// NanosecondFrequency is the perf counter frequency of both [System] and
// [Fake], i.e. the perf counter is in nanoseconds.
const NanosecondFrequency = uint64(time.Second)

// System returns the monotonic system clock. The returned value is safe
// for concurrent use.
func System() *SystemClock {
	return systemClock
}

var systemClock = &SystemClock{}

// SystemClock reads the monotonic system clock, see [System].
type SystemClock struct{}

// CoarseTicks returns monotonic milliseconds, from an arbitrary epoch.
func (*SystemClock) CoarseTicks() uint64 {
	return uint64(coarseNanos() / int64(time.Millisecond))
}

// PerfCounter returns monotonic nanoseconds, from an arbitrary epoch.
func (*SystemClock) PerfCounter() uint64 {
	return uint64(perfNanos())
}

// PerfFrequency returns [NanosecondFrequency].
func (*SystemClock) PerfFrequency() uint64 {
	return NanosecondFrequency
}

// Sleep blocks for d, or returns immediately if d is not positive.
func (*SystemClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	sleep(d)
}

// Fake is a manually advanced clock. Sleep advances the clock rather than
// blocking, which makes loop pacing deterministic.
//
// Thread Safety: All methods are thread-safe.
type Fake struct {
	// OnSleep, if set, is called after each Sleep, with the lock released.
	OnSleep func(d time.Duration)

	sleeps []time.Duration
	now    time.Duration
	mu     sync.Mutex
}

// NewFake returns a new fake clock, starting at start.
func NewFake(start time.Duration) *Fake {
	return &Fake{now: start}
}

// Advance moves the clock forward by d, if positive.
func (c *Fake) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

// Now returns the current (fake) time, since the epoch.
func (c *Fake) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleeps returns a copy of the durations passed to Sleep, in order.
func (c *Fake) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// CoarseTicks returns the current time in whole milliseconds.
func (c *Fake) CoarseTicks() uint64 {
	return uint64(c.Now() / time.Millisecond)
}

// PerfCounter returns the current time in nanoseconds.
func (c *Fake) PerfCounter() uint64 {
	return uint64(c.Now())
}

// PerfFrequency returns [NanosecondFrequency].
func (c *Fake) PerfFrequency() uint64 {
	return NanosecondFrequency
}

// Sleep records d, and advances the clock by it.
func (c *Fake) Sleep(d time.Duration) {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	if d > 0 {
		c.now += d
	}
	fn := c.OnSleep
	c.mu.Unlock()
	if fn != nil {
		fn(d)
	}
}
