// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package mainloop implements the main loop of an interactive application:
// it dispatches platform input events to registered handlers, and runs
// per-frame ("periodic") tasks at a fixed cadence, optionally synchronised
// to the refresh interval of a display.
//
// # Architecture
//
// The platform layer is modelled by interfaces: [EventSource] (pump and
// take events), [EventWaiter] (block for events), [Clock] (tick counters and
// precise sleep), and [DisplayInfo] (refresh rates). The eventqueue package
// provides an in-memory [EventSource], and the clock package provides the
// system and fake clocks.
//
// An [EventRegistry] maps event types to handlers, which are either dynamic
// ([Handler]) or static ([HandlerFunc] plus an opaque context). Every
// registration receives a unique [HandlerID], which may later be used to
// remove it. A [TaskRegistry] holds periodic tasks, ordered by ascending
// priority.
//
// Two loop strategies embed the shared [Controller]:
//
//   - [FixedRateLoop]: each cycle drains pending events (in batches), runs
//     the periodic tasks once, then sleeps for the remainder of the target
//     period.
//   - [WaitLoop]: blocks until events are available, then drains them.
//
// # Exit Semantics
//
// A handler returning false, or an [EventQuit] event, requests exit, and
// stops the current drain. The current cycle always completes, including
// its periodic tasks. [Controller.RequestExit] may be called from any
// goroutine. Run also returns once its context is canceled, or immediately
// (with a [*PollError]) if the event source fails.
//
// # Thread Safety
//
// Run must only be called from one goroutine at a time. Calling Run while it
// is already running, e.g. from a handler, is a no-op. Both registries may be
// modified from any goroutine, including from handlers and tasks, see
// [EventRegistry] for the semantics of modification during dispatch.
//
// # Logging
//
// Loops accept a [logiface] logger via [WithLogger]. Overrun warnings are
// rate limited via [catrate], see [WithOverrunWarningRate].
//
// [logiface]: https://pkg.go.dev/github.com/joeycumines/logiface
// [catrate]: https://pkg.go.dev/github.com/joeycumines/go-catrate
package mainloop
