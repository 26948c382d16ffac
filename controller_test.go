// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource is an EventSource that serves a fixed list of events, and
// records the count returned by each TakeEvents call.
type scriptedSource struct {
	err    error
	events []Event
	takes  []int
	pumps  int
	count  int
}

func (x *scriptedSource) PumpEvents() { x.pumps++ }

func (x *scriptedSource) TakeEvents(buf []Event, lo, hi EventType) (int, error) {
	if x.err != nil {
		return 0, x.err
	}
	if x.count != 0 {
		return x.count, nil
	}
	n := copy(buf, x.events)
	x.events = x.events[n:]
	x.takes = append(x.takes, n)
	return n, nil
}

func newTestController(t *testing.T) *Controller {
	cfg, err := resolveLoopOptions(nil)
	require.NoError(t, err)
	return newController(cfg)
}

func TestController_drain_batches(t *testing.T) {
	c := newTestController(t)
	var seen []EventType
	for typ := EventType(1); typ <= 20; typ++ {
		c.Events().RegisterFunc(typ, func(e *Event, _ any) bool {
			seen = append(seen, e.Type)
			return true
		}, nil)
	}

	src := &scriptedSource{}
	for i := range 20 {
		src.events = append(src.events, Event{Type: EventType(i + 1)})
	}

	n, err := c.drain(src, make([]Event, DefaultBatchSize), 1)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Equal(t, []int{16, 4}, src.takes)
	require.Len(t, seen, 20)
	for i, typ := range seen {
		assert.Equal(t, EventType(i+1), typ)
	}
	assert.False(t, c.IsPendingExit())
}

func TestController_drain_exactBatch(t *testing.T) {
	c := newTestController(t)
	src := &scriptedSource{events: make([]Event, 4)}
	n, err := c.drain(src, make([]Event, 4), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	// a full batch requires a further (empty) take to confirm drained
	assert.Equal(t, []int{4, 0}, src.takes)
}

func TestController_drain_quitStopsBatch(t *testing.T) {
	c := newTestController(t)
	var calls int
	c.Events().RegisterFunc(1, func(*Event, any) bool {
		calls++
		return true
	}, nil)

	src := &scriptedSource{events: []Event{{Type: 1}, {Type: EventQuit}, {Type: 1}, {Type: 1}}}
	n, err := c.drain(src, make([]Event, 2), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, calls)
	assert.True(t, c.IsPendingExit())
	// no further batches are taken
	assert.Equal(t, []int{2}, src.takes)
}

func TestController_drain_handlerFalse(t *testing.T) {
	c := newTestController(t)
	var calls []int
	c.Events().RegisterFunc(1, func(e *Event, _ any) bool {
		calls = append(calls, e.Detail.(int))
		return e.Detail.(int) != 2
	}, nil)

	src := &scriptedSource{events: []Event{
		{Type: 1, Detail: 1},
		{Type: 1, Detail: 2},
		{Type: 1, Detail: 3},
	}}
	_, err := c.drain(src, make([]Event, 16), 1)
	require.NoError(t, err)
	assert.True(t, c.IsPendingExit())
	assert.Equal(t, []int{1, 2}, calls)
}

func TestController_drain_quitDispatched(t *testing.T) {
	c := newTestController(t)
	var quits int
	c.Events().RegisterFunc(EventQuit, func(*Event, any) bool {
		quits++
		return true
	}, nil)
	src := &scriptedSource{events: []Event{{Type: EventQuit}}}
	_, err := c.drain(src, make([]Event, 16), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, quits)
	assert.True(t, c.IsPendingExit())
}

func TestController_drain_errors(t *testing.T) {
	cause := errors.New("lost")
	for _, tc := range []struct {
		name string
		src  *scriptedSource
	}{
		{"source error", &scriptedSource{err: cause}},
		{"negative count", &scriptedSource{count: -1}},
		{"count exceeds buffer", &scriptedSource{count: 5}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestController(t)
			_, err := c.drain(tc.src, make([]Event, 4), 9)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrPollFailed)
			var pe *PollError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, uint64(9), pe.Cycle)
			if tc.src.err != nil {
				assert.ErrorIs(t, err, cause)
			}
		})
	}
}

func TestController_run(t *testing.T) {
	c := newTestController(t)
	c.RequestExit()
	assert.Equal(t, StateIdle, c.State())

	var inner error
	err := c.run(context.Background(), func(ctx context.Context) error {
		assert.True(t, c.IsRunning())
		assert.Equal(t, StateRunning, c.State())
		// cleared on entry
		assert.False(t, c.IsPendingExit())

		c.RequestExit()
		assert.Equal(t, StateExiting, c.State())

		// re-entrant run is a no-op, which leaves the request intact
		inner = c.run(ctx, func(context.Context) error {
			t.Error("re-entrant run should not call runInternal")
			return nil
		})
		assert.True(t, c.IsPendingExit())
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, inner)
	assert.False(t, c.IsRunning())
	assert.True(t, c.IsPendingExit())
}

func TestController_run_nilContext(t *testing.T) {
	c := newTestController(t)
	var got context.Context
	err := c.run(nil, func(ctx context.Context) error { //nolint:staticcheck // nil context
		got = ctx
		return nil
	})
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestController_run_error(t *testing.T) {
	c := newTestController(t)
	cause := errors.New("failed")
	err := c.run(context.Background(), func(context.Context) error { return cause })
	assert.Same(t, cause, err)
	assert.False(t, c.IsRunning())
}

func TestController_run_panicReleases(t *testing.T) {
	c := newTestController(t)
	assert.PanicsWithValue(t, "boom", func() {
		_ = c.run(context.Background(), func(context.Context) error { panic("boom") })
	})
	assert.False(t, c.IsRunning())

	// usable again
	var ran bool
	require.NoError(t, c.run(context.Background(), func(context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
}

func TestController_ID(t *testing.T) {
	a := newTestController(t)
	b := newTestController(t)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotZero(t, a.ID())
}
