// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"fmt"
	"log"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// Log categories, attached to every entry as the "category" field.
const (
	categoryLoop     = "loop"
	categoryDispatch = "dispatch"
	categorySchedule = "schedule"
	categoryPacing   = "pacing"
	categoryPoll     = "poll"
)

// overrunCategory is the catrate category for overrun warnings.
const overrunCategory = "overrun"

// loopLogger decorates the (optional) structured logger with per-loop
// fields. All methods are safe to call with a nil logger.
type loopLogger struct {
	logger  *logiface.Logger[logiface.Event]
	limiter *catrate.Limiter
	id      uint64
}

func (x *loopLogger) with(b *logiface.Builder[logiface.Event], category string) *logiface.Builder[logiface.Event] {
	return b.Str("category", category).Uint64("loop", x.id)
}

func (x *loopLogger) debug(category string) *logiface.Builder[logiface.Event] {
	return x.with(x.logger.Debug(), category)
}

func (x *loopLogger) info(category string) *logiface.Builder[logiface.Event] {
	return x.with(x.logger.Info(), category)
}

func (x *loopLogger) warning(category string) *logiface.Builder[logiface.Event] {
	return x.with(x.logger.Warning(), category)
}

// logError logs at error level. A panicking logger must not take the loop
// down with it, so it falls back to the standard logger.
func (x *loopLogger) logError(category, msg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("mainloop: logger panicked (%v) while logging: %s: %v", r, msg, err)
		}
	}()
	x.with(x.logger.Err(), category).Err(err).Log(msg)
}

// logPanic logs a panic raised by a handler or task, prior to it being
// re-raised.
func (x *loopLogger) logPanic(category string, r any) {
	defer func() {
		if r2 := recover(); r2 != nil {
			log.Printf("mainloop: logger panicked (%v) while logging panic: %v", r2, r)
		}
	}()
	x.with(x.logger.Crit(), category).Str("panic", fmt.Sprint(r)).Log("loop panicked")
}

// logOverrun logs a cycle that exceeded its period, subject to rate limits.
func (x *loopLogger) logOverrun(cycle uint64, elapsed, period time.Duration) {
	if x.logger == nil {
		return
	}
	if _, ok := x.limiter.Allow(overrunCategory); !ok {
		return
	}
	x.warning(categoryPacing).
		Uint64("cycle", cycle).
		Dur("elapsed", elapsed).
		Dur("period", period).
		Log("cycle overran target period")
}
