// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Loop is implemented by the loop strategies, [FixedRateLoop] and
// [WaitLoop].
type Loop interface {
	// Run runs the loop until exit is requested, ctx is canceled, or the
	// event source fails. Calling Run while already running is a no-op.
	Run(ctx context.Context) error

	// RequestExit asks the loop to stop, at the start of the next cycle.
	RequestExit()

	// IsRunning returns true while inside Run.
	IsRunning() bool

	// IsPendingExit returns true if exit has been requested, and the
	// request has not been cleared by a subsequent Run.
	IsPendingExit() bool

	// Events returns the event registry.
	Events() *EventRegistry
}

var (
	_ Loop = (*FixedRateLoop)(nil)
	_ Loop = (*WaitLoop)(nil)
)

var loopIDCounter atomic.Uint64

// Controller is the strategy-independent part of a loop: it owns the
// [EventRegistry], and the running / exit-requested flags. It is embedded by
// each loop strategy, which supplies the body of Run.
type Controller struct {
	events *EventRegistry
	log    loopLogger
	state  runState
	id     uint64
}

func newController(opts *loopOptions) *Controller {
	id := loopIDCounter.Add(1)
	return &Controller{
		id:     id,
		events: NewEventRegistry(),
		log: loopLogger{
			logger:  opts.logger,
			limiter: opts.overrunLimiter,
			id:      id,
		},
	}
}

// ID returns the process-unique id of the loop, as attached to its logs.
func (c *Controller) ID() uint64 { return c.id }

// Events returns the event registry, which may be modified at any time,
// including from within handlers and tasks.
func (c *Controller) Events() *EventRegistry { return c.events }

// RequestExit asks the loop to stop. It is safe to call from any goroutine,
// including from handlers and tasks. The current cycle always completes.
func (c *Controller) RequestExit() {
	c.state.exitRequested.Store(true)
}

// IsRunning returns true while inside Run.
func (c *Controller) IsRunning() bool {
	return c.state.isRunning()
}

// IsPendingExit returns true if exit has been requested, and not yet
// cleared by a subsequent Run.
func (c *Controller) IsPendingExit() bool {
	return c.state.exitRequested.Load()
}

// State returns the current [LoopState].
func (c *Controller) State() LoopState {
	return c.state.load()
}

// ProcessEvent dispatches event to the registered handlers, see
// [EventRegistry.Dispatch].
func (c *Controller) ProcessEvent(event *Event) bool {
	return c.events.Dispatch(event)
}

// run implements the Run protocol shared by all strategies. Re-entrant or
// concurrent calls return nil immediately, without modifying any state.
// The running flag is released on every exit path, including panics
// raised by handlers or tasks, which propagate.
func (c *Controller) run(ctx context.Context, runInternal func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if !c.state.tryAcquire() {
		c.log.debug(categoryLoop).Log("run ignored: already running")
		return nil
	}
	defer c.state.release()
	defer func() {
		if r := recover(); r != nil {
			c.log.logPanic(categoryLoop, r)
			panic(r)
		}
	}()

	c.events.Optimise()
	c.state.exitRequested.Store(false)

	c.log.debug(categoryLoop).Log("loop starting")

	// poll failures are logged by the strategy, at error level
	err := runInternal(ctx)
	if err != nil {
		c.log.debug(categoryLoop).Err(err).Log("loop stopped")
	} else {
		c.log.debug(categoryLoop).Log("loop stopped")
	}
	return err
}

// drain takes and dispatches batches of pending events, until the source
// returns a short batch, or exit is requested by a handler or a quit event.
// On exit, the remainder of the batch is discarded.
func (c *Controller) drain(source EventSource, buf []Event, cycle uint64) (dispatched int, err error) {
	for {
		n, takeErr := source.TakeEvents(buf, EventTypeFirst, EventTypeLast)
		if takeErr == nil && (n < 0 || n > len(buf)) {
			takeErr = fmt.Errorf("event source returned invalid count %d for batch of %d", n, len(buf))
		}
		if takeErr != nil {
			return dispatched, &PollError{Err: takeErr, Cycle: cycle}
		}

		stop := false
		for i := range buf[:n] {
			event := &buf[i]
			dispatched++
			if !c.ProcessEvent(event) || event.Type == EventQuit {
				c.log.debug(categoryDispatch).
					Uint64("cycle", cycle).
					Uint64("type", uint64(event.Type)).
					Log("exit requested by event")
				c.RequestExit()
				stop = true
				break
			}
		}
		// release references held by the events
		clear(buf[:n])

		if stop || n < len(buf) {
			return dispatched, nil
		}
	}
}
