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

// FixedRateLoop is the fixed-cadence loop strategy. Each cycle drains the
// pending events, runs the periodic tasks once, then sleeps for the
// remainder of the target period.
//
// The period is determined once, at construction: the refresh interval of
// the display configured via [WithDisplay], if known, otherwise the default
// period ([WithDefaultPeriod]).
type FixedRateLoop struct {
	*Controller

	source  EventSource
	tasks   *TaskRegistry
	clock   Clock
	metrics *metricsRecorder
	buf     []Event
	period  time.Duration
	cycles  atomic.Uint64

	taskExitOnFalse bool
}

// NewFixedRateLoop creates a new loop, consuming events from source.
func NewFixedRateLoop(source EventSource, opts ...Option) (*FixedRateLoop, error) {
	if source == nil {
		return nil, &TypeError{Message: "mainloop: event source must not be nil"}
	}

	cfg, err := resolveLoopOptions(opts)
	if err != nil {
		return nil, err
	}

	l := &FixedRateLoop{
		Controller:      newController(cfg),
		source:          source,
		tasks:           NewTaskRegistry(),
		clock:           cfg.clock,
		buf:             make([]Event, cfg.batchSize),
		period:          cfg.defaultPeriod,
		taskExitOnFalse: cfg.taskExitOnFalse,
	}
	if cfg.metricsEnabled {
		l.metrics = newMetricsRecorder()
	}

	if cfg.syncDisplay {
		if period, ok := refreshPeriod(cfg.displays, cfg.display); ok {
			l.period = period
			l.log.info(categoryPacing).
				Uint64("display", uint64(cfg.display)).
				Dur("period", period).
				Log("synchronised period to display refresh rate")
		} else {
			l.log.warning(categoryPacing).
				Uint64("display", uint64(cfg.display)).
				Dur("period", l.period).
				Log("display refresh rate unknown, using default period")
		}
	}

	return l, nil
}

// refreshPeriod converts the refresh rate of a display to a period.
func refreshPeriod(displays DisplayInfo, id DisplayID) (time.Duration, bool) {
	if displays == nil {
		return 0, false
	}
	hz, ok := displays.RefreshRate(id)
	if !ok || !(hz > 0) {
		return 0, false
	}
	period := time.Duration(float64(time.Second) / hz)
	if period <= 0 {
		return 0, false
	}
	return period, true
}

// Run runs the loop until exit is requested, ctx is canceled, or the event
// source fails, the latter resulting in a [*PollError]. Exit requests and
// ctx are checked at the start of each cycle, so a cycle, once started,
// always completes (including its periodic tasks).
//
// Calling Run while the loop is already running (e.g. from a handler) is a
// no-op, returning nil.
func (l *FixedRateLoop) Run(ctx context.Context) error {
	return l.run(ctx, l.runInternal)
}

func (l *FixedRateLoop) runInternal(ctx context.Context) error {
	l.log.debug(categoryPacing).
		Dur("period", l.period).
		Int("batch", len(l.buf)).
		Log("fixed rate loop starting")

	for !l.IsPendingExit() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.cycle(); err != nil {
			return err
		}
	}

	return nil
}

// cycle runs a single iteration of the loop.
func (l *FixedRateLoop) cycle() error {
	cycle := l.cycles.Add(1)

	l.source.PumpEvents()

	startTicks := l.clock.CoarseTicks()
	startPerf := l.clock.PerfCounter()

	dispatched, err := l.drain(l.source, l.buf, cycle)
	if err != nil {
		l.log.logError(categoryPoll, "failed to take events", err)
		return err
	}

	delta := l.delta(startPerf)

	if !l.tasks.ForEachInOrder(delta) {
		if l.taskExitOnFalse {
			l.log.debug(categorySchedule).
				Uint64("cycle", cycle).
				Log("exit requested by periodic task")
			l.RequestExit()
		} else {
			l.log.debug(categorySchedule).
				Uint64("cycle", cycle).
				Log("periodic task returned false")
		}
	}

	l.source.PumpEvents()

	elapsed := time.Duration(l.clock.CoarseTicks()-startTicks) * time.Millisecond
	work := l.perfElapsed(startPerf)

	var slept time.Duration
	var overrun bool
	switch {
	case elapsed < l.period:
		slept = l.period - elapsed
		l.clock.Sleep(slept)
	case elapsed > l.period:
		overrun = true
		l.log.logOverrun(cycle, elapsed, l.period)
	}

	if l.metrics != nil {
		l.metrics.record(work, slept, dispatched, overrun)
	}

	return nil
}

// delta returns the elapsed seconds since start, the perf counter at the
// start of the current cycle.
func (l *FixedRateLoop) delta(start uint64) float64 {
	now := l.clock.PerfCounter()
	freq := l.clock.PerfFrequency()
	if freq == 0 || now < start {
		return 0
	}
	return float64(now-start) / float64(freq)
}

func (l *FixedRateLoop) perfElapsed(start uint64) time.Duration {
	now := l.clock.PerfCounter()
	freq := l.clock.PerfFrequency()
	if freq == 0 || now < start {
		return 0
	}
	return time.Duration(float64(now-start) / float64(freq) * float64(time.Second))
}

// Tasks returns the periodic task registry, which may be modified at any
// time, including from within handlers and tasks.
func (l *FixedRateLoop) Tasks() *TaskRegistry { return l.tasks }

// Period returns the target cycle period.
func (l *FixedRateLoop) Period() time.Duration { return l.period }

// CycleCount returns the number of cycles started, over all runs.
func (l *FixedRateLoop) CycleCount() uint64 { return l.cycles.Load() }

// Metrics returns a snapshot of the loop metrics, or false if metrics are
// not enabled, see [WithMetrics].
func (l *FixedRateLoop) Metrics() (Metrics, bool) {
	if l.metrics == nil {
		return Metrics{}, false
	}
	return l.metrics.load(), true
}
