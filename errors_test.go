// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"errors"
	"testing"
)

func TestPollError(t *testing.T) {
	cause := errors.New("device lost")
	var err error = &PollError{Err: cause, Cycle: 3}

	if !errors.Is(err, ErrPollFailed) {
		t.Error("PollError should match ErrPollFailed")
	}
	if !errors.Is(err, cause) {
		t.Error("PollError should match its cause")
	}
	var pe *PollError
	if !errors.As(err, &pe) || pe.Cycle != 3 {
		t.Errorf("errors.As failed: %v", pe)
	}
	if got, want := err.Error(), "mainloop: event polling failed (cycle 3): device lost"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = &PollError{Cycle: 1}
	if !errors.Is(err, ErrPollFailed) {
		t.Error("PollError without cause should match ErrPollFailed")
	}
	if got, want := err.Error(), "mainloop: event polling failed (cycle 1)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTypeError(t *testing.T) {
	cause := errors.New("cause")
	err := &TypeError{Message: "bad type", Cause: cause}
	if err.Error() != "bad type" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("TypeError should unwrap to its cause")
	}
	if (&TypeError{}).Error() != "type error" {
		t.Error("unexpected default message")
	}
}

func TestRangeError(t *testing.T) {
	cause := errors.New("cause")
	err := &RangeError{Message: "out of range", Cause: cause}
	if err.Error() != "out of range" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("RangeError should unwrap to its cause")
	}
	if (&RangeError{}).Error() != "range error" {
		t.Error("unexpected default message")
	}
}
