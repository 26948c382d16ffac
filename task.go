// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

// Task is a dynamically dispatched periodic task, run once per cycle.
//
// Tick receives the elapsed seconds since the start of the cycle (as of
// after the pending events were dispatched), and returns a "continue" advisory, which uses the same convention as
// [Handler.HandleEvent].
type Task interface {
	Tick(delta float64) bool
}

// TaskFunc is a statically dispatched periodic task, called with the context
// it was scheduled with. See also [HandlerFunc], regarding identity.
type TaskFunc func(delta float64, context any) bool

// TaskID uniquely identifies a scheduled entry within a [TaskRegistry].
// Zero is never a valid id.
type TaskID uint32

// TaskEntry unites a [TaskID] and priority with exactly one of a [Task] or
// a ([TaskFunc], context) pair.
type TaskEntry struct { //nolint:govet // betteralign:ignore
	task     Task
	fn       TaskFunc
	context  any
	id       TaskID
	priority uint32
	kind     Kind
	removed  bool
}

// ID returns the entry id.
func (e *TaskEntry) ID() TaskID { return e.id }

// Priority returns the entry priority, lower values run first.
func (e *TaskEntry) Priority() uint32 { return e.priority }

// Kind returns which representation backs the entry.
func (e *TaskEntry) Kind() Kind { return e.kind }

// Execute invokes the task. Panics propagate to the caller.
func (e *TaskEntry) Execute(delta float64) bool {
	switch e.kind {
	case KindDynamic:
		return e.task.Tick(delta)
	case KindStatic:
		return e.fn(delta, e.context)
	default:
		panic("mainloop: invalid task entry")
	}
}

func (e *TaskEntry) matchesTask(task Task) bool {
	return e.kind == KindDynamic && sameValue(e.task, task)
}

func (e *TaskEntry) matchesFunc(fn TaskFunc, context any) bool {
	return e.kind == KindStatic &&
		funcPointer(e.fn) == funcPointer(fn) &&
		sameValue(e.context, context)
}
