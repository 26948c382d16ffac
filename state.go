// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"sync/atomic"
)

// LoopState represents the current state of a loop.
//
// State Machine:
//
//	StateIdle (0) → StateRunning (1)     [Run()]
//	StateRunning (1) → StateExiting (2)  [RequestExit(), observed at the next cycle]
//	StateRunning (1) → StateIdle (0)     [Run() returns, on any path]
//	StateExiting (2) → StateIdle (0)     [Run() returns]
//
// StateExiting is derived: it is reported while running with an exit
// request pending.
type LoopState uint32

const (
	// StateIdle indicates the loop is not inside Run.
	StateIdle LoopState = 0
	// StateRunning indicates the loop is inside Run.
	StateRunning LoopState = 1
	// StateExiting indicates the loop is inside Run, with an exit request
	// that has not yet been observed.
	StateExiting LoopState = 2
)

// String returns a human-readable representation of the state.
func (s LoopState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateExiting:
		return "Exiting"
	default:
		return "Unknown"
	}
}

// runState is the running / exit-requested flag pair, shared between the
// loop goroutine and any goroutine calling RequestExit.
type runState struct {
	running       atomic.Uint32
	exitRequested atomic.Bool
}

// tryAcquire transitions Idle to Running, returning false if already
// running.
func (s *runState) tryAcquire() bool {
	return s.running.CompareAndSwap(uint32(StateIdle), uint32(StateRunning))
}

// release transitions back to Idle. It must only be called by the goroutine
// that acquired.
func (s *runState) release() {
	s.running.Store(uint32(StateIdle))
}

func (s *runState) isRunning() bool {
	return LoopState(s.running.Load()) == StateRunning
}

func (s *runState) load() LoopState {
	if !s.isRunning() {
		return StateIdle
	}
	if s.exitRequested.Load() {
		return StateExiting
	}
	return StateRunning
}
