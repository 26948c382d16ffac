// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"math"
	"time"
)

// EventType identifies a category of input event (e.g. key down, pointer
// move, quit requested). Values are supplied by the [EventSource], and are
// stable for the lifetime of the process.
type EventType uint32

// Reserved event types. Quit sits at 0x100, per the common native platform
// convention. The drained range spans every EventType.
const (
	// EventTypeFirst is the lowest event type drained by the loops.
	EventTypeFirst EventType = 0
	// EventQuit signals that the application has been asked to quit. The
	// loops request exit upon seeing it, after dispatching it.
	EventQuit EventType = 0x100
	// EventTypeLast is the highest event type drained by the loops.
	EventTypeLast EventType = math.MaxUint32
)

// Event is a single platform input event.
type Event struct {
	// Detail is the event payload, opaque to the loop.
	Detail any

	// Timestamp is the source-defined event time, typically coarse ticks.
	Timestamp uint64

	// Type categorises the event, and selects the handlers to dispatch to.
	Type EventType
}

// EventSource models the platform's low-level event queue.
//
// Implementations are only ever called from the loop goroutine.
type EventSource interface {
	// PumpEvents ingests newly arrived platform events into the internal
	// queue. It must not block.
	PumpEvents()

	// TakeEvents removes up to len(buf) pending events, with a type within
	// [lo, hi] (inclusive), writing them to buf, in arrival order. A non-nil
	// error indicates the source is in an unrecoverable state.
	TakeEvents(buf []Event, lo, hi EventType) (int, error)
}

// EventWaiter is an optional extension of [EventSource], used by
// [WaitLoop], that blocks until events are available.
type EventWaiter interface {
	// WaitEvents blocks until at least one event is pending, or the timeout
	// elapses, returning true if events may be available. A timeout <= 0
	// must not block.
	WaitEvents(timeout time.Duration) bool
}

// Clock models the platform timing primitives used for pacing.
//
// See the clock package for implementations.
type Clock interface {
	// CoarseTicks returns a monotonic millisecond tick counter.
	CoarseTicks() uint64

	// PerfCounter returns the current value of a high resolution,
	// monotonic counter, in units of 1/PerfFrequency seconds.
	PerfCounter() uint64

	// PerfFrequency returns the number of PerfCounter units per second.
	PerfFrequency() uint64

	// Sleep blocks for (as close as possible to) exactly d.
	Sleep(d time.Duration)
}

// DisplayID identifies a display, for refresh rate lookups.
type DisplayID uint32

// DisplayInfo models the platform's display mode query.
type DisplayInfo interface {
	// RefreshRate returns the current refresh rate of the display, in Hz,
	// or false if unknown.
	RefreshRate(id DisplayID) (float64, bool)
}

// DisplayRates is a static [DisplayInfo], mapping each display to its
// refresh rate in Hz. Non-positive rates are treated as unknown.
type DisplayRates map[DisplayID]float64

// RefreshRate implements [DisplayInfo].
func (x DisplayRates) RefreshRate(id DisplayID) (float64, bool) {
	hz, ok := x[id]
	if !ok || !(hz > 0) {
		return 0, false
	}
	return hz, true
}
