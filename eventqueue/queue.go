// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package eventqueue implements an in-memory platform event queue, suitable
// as the event source of a mainloop loop.
//
// Events are posted (from any goroutine) to an incoming list, and become
// visible to TakeEvents only after PumpEvents moves them to the pending
// list, mirroring the pump / peep model of typical platform layers.
package eventqueue

import (
	"slices"
	"sync"
	"time"

	"github.com/joeycumines/go-mainloop"
)

var (
	_ mainloop.EventSource = (*Queue)(nil)
	_ mainloop.EventWaiter = (*Queue)(nil)
)

// Queue is a goroutine-safe event queue, implementing
// [mainloop.EventSource] and [mainloop.EventWaiter].
//
// Example:
//
//	q := eventqueue.New()
//	loop, _ := mainloop.NewFixedRateLoop(q)
//	go func() {
//		q.Post(mainloop.Event{Type: 0x8000})
//		q.PostQuit()
//	}()
//	_ = loop.Run(ctx)
type Queue struct {
	created  time.Time
	err      error
	signal   chan struct{}
	incoming chunkedList
	pending  []mainloop.Event
	mu       sync.Mutex
}

// New returns a new, empty queue.
func New() *Queue {
	return &Queue{
		created: time.Now(),
		signal:  make(chan struct{}, 1),
	}
}

// Post appends event to the incoming list. If the event timestamp is zero,
// it is set to the milliseconds elapsed since the queue was created.
func (q *Queue) Post(event mainloop.Event) {
	if event.Timestamp == 0 {
		event.Timestamp = uint64(time.Since(q.created) / time.Millisecond)
	}

	q.mu.Lock()
	q.incoming.push(event)
	q.mu.Unlock()

	q.notify()
}

// PostQuit posts a [mainloop.EventQuit] event.
func (q *Queue) PostQuit() {
	q.Post(mainloop.Event{Type: mainloop.EventQuit})
}

// Fail causes all subsequent TakeEvents calls to return err, until it is
// called again with nil.
func (q *Queue) Fail(err error) {
	q.mu.Lock()
	q.err = err
	q.mu.Unlock()

	q.notify()
}

// PumpEvents moves all incoming events to the pending list.
func (q *Queue) PumpEvents() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = q.incoming.drainTo(q.pending)
}

// TakeEvents removes up to len(buf) pending events with types within the
// inclusive range [lo, hi], copying them to buf, in order. Pending events
// outside the range are retained.
func (q *Queue) TakeEvents(buf []mainloop.Event, lo, hi mainloop.EventType) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.err != nil {
		return 0, q.err
	}

	var n int
	q.pending = slices.DeleteFunc(q.pending, func(event mainloop.Event) bool {
		if n == len(buf) || event.Type < lo || event.Type > hi {
			return false
		}
		buf[n] = event
		n++
		return true
	})

	return n, nil
}

// WaitEvents blocks until events are available (incoming or pending), or
// the timeout elapses, returning true in the former case. A non-positive
// timeout polls without blocking.
func (q *Queue) WaitEvents(timeout time.Duration) bool {
	if q.ready() {
		return true
	}
	if timeout <= 0 {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-q.signal:
			if q.ready() {
				return true
			}
		case <-timer.C:
			return q.ready()
		}
	}
}

// Pending returns the number of events visible to TakeEvents.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Incoming returns the number of events awaiting PumpEvents.
func (q *Queue) Incoming() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.incoming.length
}

// ready returns true if there are events, or an error, to take.
func (q *Queue) ready() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err != nil || len(q.pending) != 0 || q.incoming.length != 0
}

func (q *Queue) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
