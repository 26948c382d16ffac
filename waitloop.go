// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"context"
	"sync/atomic"
	"time"
)

// WaitLoop is the event-driven loop strategy. It blocks until events are
// available, then drains and dispatches them. It performs no periodic work,
// and no pacing.
type WaitLoop struct {
	*Controller

	source  EventSource
	waiter  EventWaiter
	buf     []Event
	timeout time.Duration
	cycles  atomic.Uint64
}

// NewWaitLoop creates a new loop, consuming events from source, which must
// also implement [EventWaiter], otherwise [ErrWaitUnsupported] is returned.
func NewWaitLoop(source EventSource, opts ...Option) (*WaitLoop, error) {
	if source == nil {
		return nil, &TypeError{Message: "mainloop: event source must not be nil"}
	}
	waiter, ok := source.(EventWaiter)
	if !ok {
		return nil, ErrWaitUnsupported
	}

	cfg, err := resolveLoopOptions(opts)
	if err != nil {
		return nil, err
	}

	return &WaitLoop{
		Controller: newController(cfg),
		source:     source,
		waiter:     waiter,
		buf:        make([]Event, cfg.batchSize),
		timeout:    cfg.waitTimeout,
	}, nil
}

// Run runs the loop until exit is requested, ctx is canceled, or the event
// source fails. Each wait is bounded by the timeout configured via
// [WithWaitTimeout], which bounds the latency of observing exit requests
// made from other goroutines.
func (l *WaitLoop) Run(ctx context.Context) error {
	return l.run(ctx, l.runInternal)
}

func (l *WaitLoop) runInternal(ctx context.Context) error {
	for !l.IsPendingExit() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !l.waiter.WaitEvents(l.timeout) {
			continue
		}

		cycle := l.cycles.Add(1)
		l.source.PumpEvents()
		if _, err := l.drain(l.source, l.buf, cycle); err != nil {
			l.log.logError(categoryPoll, "failed to take events", err)
			return err
		}
	}
	return nil
}

// CycleCount returns the number of wake-ups that resulted in a drain, over
// all runs.
func (l *WaitLoop) CycleCount() uint64 { return l.cycles.Load() }
