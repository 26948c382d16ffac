// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"slices"
	"sort"
	"sync"
)

// TaskRegistry is an ordered collection of periodic tasks, kept sorted by
// ascending priority. Entries of equal priority run in the order they were
// scheduled.
//
// Thread Safety: as per [EventRegistry], including the snapshot semantics
// of [TaskRegistry.ForEachInOrder].
type TaskRegistry struct {
	entries []*TaskEntry
	mu      sync.Mutex
	nextID  TaskID
}

// NewTaskRegistry creates an empty registry, whose first id will be 1.
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{nextID: 1}
}

// Schedule adds a dynamic task with the given priority, returning its id.
// A nil task is ignored, returning 0.
func (r *TaskRegistry) Schedule(task Task, priority uint32) TaskID {
	if task == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := &TaskEntry{id: r.allocID(), priority: priority, kind: KindDynamic, task: task}
	r.insert(entry)
	return entry.id
}

// ScheduleFunc adds a static task with the given context and priority,
// returning its id. A nil fn is ignored, returning 0.
func (r *TaskRegistry) ScheduleFunc(fn TaskFunc, context any, priority uint32) TaskID {
	if fn == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := &TaskEntry{id: r.allocID(), priority: priority, kind: KindStatic, fn: fn, context: context}
	r.insert(entry)
	return entry.id
}

// Remove removes the entry with the given id, returning true if found.
func (r *TaskRegistry) Remove(id TaskID) bool {
	if id == 0 {
		return false
	}
	return r.removeAll(func(e *TaskEntry) bool { return e.id == id })
}

// RemoveTask removes every entry for the given dynamic task, returning true
// if any were removed.
func (r *TaskRegistry) RemoveTask(task Task) bool {
	if task == nil {
		return false
	}
	return r.removeAll(func(e *TaskEntry) bool { return e.matchesTask(task) })
}

// RemoveFunc removes every entry for the given (fn, context) pair, returning
// true if any were removed.
func (r *TaskRegistry) RemoveFunc(fn TaskFunc, context any) bool {
	if fn == nil {
		return false
	}
	return r.removeAll(func(e *TaskEntry) bool { return e.matchesFunc(fn, context) })
}

// ForEachInOrder executes every entry, in priority order, passing delta (the
// elapsed seconds), and returning the logical AND of their results. As with
// dispatch, every entry runs regardless of the results of earlier entries.
func (r *TaskRegistry) ForEachInOrder(delta float64) bool {
	r.mu.Lock()
	entries := slices.Clone(r.entries)
	r.mu.Unlock()

	result := true
	for _, entry := range entries {
		if r.isRemoved(entry) {
			continue
		}
		if !entry.Execute(delta) {
			result = false
		}
	}
	return result
}

// Len returns the number of scheduled entries.
func (r *TaskRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// IDs returns the ids of all entries, in execution order.
func (r *TaskRegistry) IDs() []TaskID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]TaskID, len(r.entries))
	for i, e := range r.entries {
		ids[i] = e.id
	}
	return ids
}

// Priorities returns the priorities of all entries, in execution order.
func (r *TaskRegistry) Priorities() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	priorities := make([]uint32, len(r.entries))
	for i, e := range r.entries {
		priorities[i] = e.priority
	}
	return priorities
}

// CALLER MUST HOLD r.mu
func (r *TaskRegistry) insert(entry *TaskEntry) {
	// first entry with a strictly greater priority, i.e. after any equal
	i := sort.Search(len(r.entries), func(i int) bool {
		return r.entries[i].priority > entry.priority
	})
	r.entries = slices.Insert(r.entries, i, entry)
}

// CALLER MUST HOLD r.mu
func (r *TaskRegistry) allocID() TaskID {
	id := r.nextID
	if id == 0 {
		// wrapped, after handing out MaxUint32
		panic("mainloop: task id space [1, MaxUint32] exhausted")
	}
	r.nextID++
	return id
}

func (r *TaskRegistry) removeAll(match func(e *TaskEntry) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.entries)
	r.entries = slices.DeleteFunc(r.entries, func(e *TaskEntry) bool {
		if match(e) {
			e.removed = true
			return true
		}
		return false
	})
	return len(r.entries) != n
}

func (r *TaskRegistry) isRemoved(entry *TaskEntry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return entry.removed
}
