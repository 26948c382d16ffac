// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestLoopState_String(t *testing.T) {
	tests := []struct {
		state    LoopState
		expected string
	}{
		{StateIdle, "Idle"},
		{StateRunning, "Running"},
		{StateExiting, "Exiting"},
		{LoopState(99), "Unknown"},
	}
	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			if got := tc.state.String(); got != tc.expected {
				t.Errorf("String() = %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestRunState_transitions(t *testing.T) {
	var s runState
	if s.load() != StateIdle {
		t.Fatalf("expected Idle, got %v", s.load())
	}
	s.exitRequested.Store(true)
	if s.load() != StateIdle {
		t.Error("exit request should not matter while idle")
	}
	s.exitRequested.Store(false)

	if !s.tryAcquire() {
		t.Fatal("tryAcquire should succeed")
	}
	if s.tryAcquire() {
		t.Error("second tryAcquire should fail")
	}
	if !s.isRunning() || s.load() != StateRunning {
		t.Errorf("expected Running, got %v", s.load())
	}
	s.exitRequested.Store(true)
	if s.load() != StateExiting {
		t.Errorf("expected Exiting, got %v", s.load())
	}
	s.release()
	if s.isRunning() || s.load() != StateIdle {
		t.Errorf("expected Idle, got %v", s.load())
	}
}

func TestRunState_tryAcquire_concurrent(t *testing.T) {
	var s runState
	var acquired atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.tryAcquire() {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()
	if n := acquired.Load(); n != 1 {
		t.Errorf("expected exactly one acquisition, got %d", n)
	}
}
