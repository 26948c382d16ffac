// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrPollFailed indicates the [EventSource] failed while being drained.
	// It is fatal to the current Run call.
	ErrPollFailed = errors.New("mainloop: event polling failed")

	// ErrWaitUnsupported is returned by [NewWaitLoop] if the source does not
	// implement [EventWaiter].
	ErrWaitUnsupported = errors.New("mainloop: event source does not support waiting")
)

// PollError is returned from Run when the [EventSource] reports an error.
// It matches both [ErrPollFailed] and the underlying cause, via [errors.Is].
type PollError struct {
	// Err is the error reported by the source.
	Err error
	// Cycle is the (1-based) cycle during which the failure occurred.
	Cycle uint64
}

// Error implements the error interface.
func (e *PollError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (cycle %d)", ErrPollFailed, e.Cycle)
	}
	return fmt.Sprintf("%s (cycle %d): %v", ErrPollFailed, e.Cycle, e.Err)
}

// Unwrap returns the sentinel and the cause, for [errors.Is] and
// [errors.As].
func (e *PollError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPollFailed}
	}
	return []error{ErrPollFailed, e.Err}
}

// TypeError indicates a value was not of the expected type, e.g. a nil
// interface passed to an option.
type TypeError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	if e.Message == "" {
		return "type error"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *TypeError) Unwrap() error {
	return e.Cause
}

// RangeError indicates a value was not within the expected range.
type RangeError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	if e.Message == "" {
		return "range error"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *RangeError) Unwrap() error {
	return e.Cause
}
