// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"reflect"
)

// Handler is a dynamically dispatched event handler.
//
// HandleEvent returns true to continue processing, or false to request that
// the loop stop.
type Handler interface {
	HandleEvent(event *Event) bool
}

// HandlerFunc is a statically dispatched event handler, called with the
// context it was registered with. The return value has the same meaning as
// [Handler.HandleEvent].
//
// In Go, functions cannot be compared for equality, so static handlers are
// identified by their code pointer and context, which is well-defined for
// top-level functions and method expressions, but not closures (each closure
// shares the code pointer of its literal).
type HandlerFunc func(event *Event, context any) bool

// HandlerID uniquely identifies a registration within an [EventRegistry].
// Zero is never a valid id.
type HandlerID uint32

// Kind discriminates between the two handler and task representations.
type Kind uint8

const (
	// KindDynamic indicates an interface-backed handler or task.
	KindDynamic Kind = iota + 1
	// KindStatic indicates a function-and-context backed handler or task.
	KindStatic
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindDynamic:
		return "Dynamic"
	case KindStatic:
		return "Static"
	default:
		return "Unknown"
	}
}

// HandlerNode unites a [HandlerID] with exactly one of a [Handler] or a
// ([HandlerFunc], context) pair.
type HandlerNode struct { //nolint:govet // betteralign:ignore
	handler Handler
	fn      HandlerFunc
	context any
	id      HandlerID
	kind    Kind
	// removed is set when the node is deregistered, so in-flight dispatch
	// snapshots skip it
	removed bool
}

func newDynamicHandlerNode(id HandlerID, handler Handler) *HandlerNode {
	return &HandlerNode{id: id, kind: KindDynamic, handler: handler}
}

func newStaticHandlerNode(id HandlerID, fn HandlerFunc, context any) *HandlerNode {
	return &HandlerNode{id: id, kind: KindStatic, fn: fn, context: context}
}

// ID returns the registration id.
func (n *HandlerNode) ID() HandlerID { return n.id }

// Kind returns which representation backs the node.
func (n *HandlerNode) Kind() Kind { return n.kind }

// Execute invokes the handler. Panics propagate to the caller.
func (n *HandlerNode) Execute(event *Event) bool {
	switch n.kind {
	case KindDynamic:
		return n.handler.HandleEvent(event)
	case KindStatic:
		return n.fn(event, n.context)
	default:
		panic("mainloop: invalid handler node")
	}
}

func (n *HandlerNode) matchesHandler(handler Handler) bool {
	return n.kind == KindDynamic && sameValue(n.handler, handler)
}

func (n *HandlerNode) matchesFunc(fn HandlerFunc, context any) bool {
	return n.kind == KindStatic &&
		funcPointer(n.fn) == funcPointer(fn) &&
		sameValue(n.context, context)
}

// funcPointer returns the code pointer of fn, or 0 if fn is nil or not a
// function.
func funcPointer(fn any) uintptr {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return 0
	}
	return v.Pointer()
}

// sameValue reports a == b, treating values that would panic on comparison
// (non-comparable dynamic types) as unequal.
func sameValue(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
