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

// registryEntry keys a node by event type, within the flat index.
type registryEntry struct {
	node *HandlerNode
	typ  EventType
}

// EventRegistry maps event types to handlers, dispatching events to every
// handler registered for their type, in registration order.
//
// Internally, the registry is a flat slice of (type, node) pairs, which is
// lazily re-indexed (stable sorted by type) by [EventRegistry.Optimise], so
// that the bucket for a type is a contiguous range, found by binary search.
// Re-indexing never reorders nodes sharing the same type.
//
// Thread Safety:
// EventRegistry is safe for concurrent use. The internal mutex is never held
// while a handler runs, so handlers may register or deregister handlers,
// including themselves, during dispatch. Dispatch iterates a snapshot of the
// bucket, taken when it starts: handlers registered mid-dispatch are first
// invoked on the next dispatch, while handlers deregistered mid-dispatch are
// skipped, if they had not already been reached.
type EventRegistry struct {
	entries []registryEntry
	mu      sync.Mutex
	nextID  HandlerID
	// dirty is set by registration, and cleared by optimise
	dirty bool
}

// NewEventRegistry creates an empty registry, whose first id will be 1.
func NewEventRegistry() *EventRegistry {
	return &EventRegistry{nextID: 1}
}

// Register adds a dynamic handler for events of type t, returning the id of
// the new registration. Registering the same handler more than once results
// in independent registrations. A nil handler is ignored, returning 0.
func (r *EventRegistry) Register(t EventType, handler Handler) HandlerID {
	if handler == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.allocID()
	r.insert(t, newDynamicHandlerNode(id, handler))
	return id
}

// RegisterFunc adds a static handler for events of type t, which will be
// called with the given context. A nil fn is ignored, returning 0.
func (r *EventRegistry) RegisterFunc(t EventType, fn HandlerFunc, context any) HandlerID {
	if fn == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.allocID()
	r.insert(t, newStaticHandlerNode(id, fn, context))
	return id
}

// Deregister removes the registration with the given id, if any, returning
// true if it was found.
func (r *EventRegistry) Deregister(id HandlerID) bool {
	if id == 0 {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, entry := range r.entries {
		if entry.node.id == id {
			entry.node.removed = true
			r.entries = slices.Delete(r.entries, i, i+1)
			return true
		}
	}
	return false
}

// DeregisterHandler removes every registration of handler for type t,
// returning the number removed.
func (r *EventRegistry) DeregisterHandler(t EventType, handler Handler) int {
	if handler == nil {
		return 0
	}
	return r.removeFromBucket(t, func(node *HandlerNode) bool {
		return node.matchesHandler(handler)
	})
}

// DeregisterFunc removes every registration of the (fn, context) pair for
// type t, returning the number removed.
func (r *EventRegistry) DeregisterFunc(t EventType, fn HandlerFunc, context any) int {
	if fn == nil {
		return 0
	}
	return r.removeFromBucket(t, func(node *HandlerNode) bool {
		return node.matchesFunc(fn, context)
	})
}

// Dispatch invokes every handler registered for the event's type, in
// registration order, returning the logical AND of their results. All
// handlers are invoked, even after one returns false. If there are no
// handlers for the type, it returns true.
//
// Panics raised by handlers propagate to the caller.
func (r *EventRegistry) Dispatch(event *Event) bool {
	if event == nil {
		return true
	}

	// copy the bucket to avoid holding the lock during dispatch
	r.mu.Lock()
	r.optimise()
	lo, hi := r.bucket(event.Type)
	var nodes []*HandlerNode
	if lo < hi {
		nodes = make([]*HandlerNode, 0, hi-lo)
		for _, entry := range r.entries[lo:hi] {
			nodes = append(nodes, entry.node)
		}
	}
	r.mu.Unlock()

	result := true
	for _, node := range nodes {
		if r.isRemoved(node) {
			continue
		}
		if !node.Execute(event) {
			result = false
		}
	}
	return result
}

// HasHandlers returns true if at least one handler is registered.
func (r *EventRegistry) HasHandlers() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries) != 0
}

// Len returns the total number of registrations.
func (r *EventRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Count returns the number of registrations for type t.
func (r *EventRegistry) Count(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.optimise()
	lo, hi := r.bucket(t)
	return hi - lo
}

// Optimise re-indexes the registry, if anything was registered since the
// last call. It is called automatically as needed, and is exposed so that
// callers may pay the cost up front, e.g. before entering the loop.
func (r *EventRegistry) Optimise() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.optimise()
}

// CALLER MUST HOLD r.mu
func (r *EventRegistry) optimise() {
	if !r.dirty {
		return
	}
	slices.SortStableFunc(r.entries, func(a, b registryEntry) int {
		switch {
		case a.typ < b.typ:
			return -1
		case a.typ > b.typ:
			return 1
		default:
			return 0
		}
	})
	r.dirty = false
}

// bucket returns the [lo, hi) range of entries for type t.
//
// CALLER MUST HOLD r.mu, AND THE REGISTRY MUST BE OPTIMISED.
func (r *EventRegistry) bucket(t EventType) (lo, hi int) {
	lo = sort.Search(len(r.entries), func(i int) bool { return r.entries[i].typ >= t })
	hi = lo
	for hi < len(r.entries) && r.entries[hi].typ == t {
		hi++
	}
	return lo, hi
}

// CALLER MUST HOLD r.mu
func (r *EventRegistry) insert(t EventType, node *HandlerNode) {
	// appending in type order keeps the index valid
	if n := len(r.entries); n != 0 && r.entries[n-1].typ > t {
		r.dirty = true
	}
	r.entries = append(r.entries, registryEntry{typ: t, node: node})
}

// CALLER MUST HOLD r.mu
func (r *EventRegistry) allocID() HandlerID {
	id := r.nextID
	if id == 0 {
		// wrapped, after handing out MaxUint32
		panic("mainloop: handler id space [1, MaxUint32] exhausted")
	}
	r.nextID++
	return id
}

func (r *EventRegistry) removeFromBucket(t EventType, match func(node *HandlerNode) bool) (removed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.optimise()
	lo, hi := r.bucket(t)
	if lo == hi {
		return 0
	}
	kept := r.entries[:lo]
	for _, entry := range r.entries[lo:hi] {
		if match(entry.node) {
			entry.node.removed = true
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	if removed != 0 {
		r.entries = slices.Delete(r.entries, len(kept), hi)
	}
	return removed
}

func (r *EventRegistry) isRemoved(node *HandlerNode) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return node.removed
}
