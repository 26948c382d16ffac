// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop_test

import (
	"context"
	"fmt"
	"time"

	"github.com/joeycumines/go-mainloop"
	"github.com/joeycumines/go-mainloop/clock"
	"github.com/joeycumines/go-mainloop/eventqueue"
)

type keyPress struct {
	key string
}

func (k keyPress) HandleEvent(event *mainloop.Event) bool {
	fmt.Printf("key %s: %v\n", k.key, event.Detail)
	return true
}

func ExampleFixedRateLoop() {
	const eventKey mainloop.EventType = 0x300

	q := eventqueue.New()
	fake := clock.NewFake(0)

	loop, err := mainloop.NewFixedRateLoop(q,
		mainloop.WithClock(fake),
		mainloop.WithDisplay(0),
		mainloop.WithDisplayInfo(mainloop.DisplayRates{0: 50}),
	)
	if err != nil {
		panic(err)
	}
	fmt.Println("period:", loop.Period())

	loop.Events().Register(eventKey, keyPress{key: "a"})

	frame := 0
	loop.Tasks().ScheduleFunc(func(delta float64, _ any) bool {
		frame++
		fake.Advance(5 * time.Millisecond)
		if frame == 2 {
			q.PostQuit()
		}
		return true
	}, nil, 0)

	q.Post(mainloop.Event{Type: eventKey, Detail: "down"})

	if err := loop.Run(context.Background()); err != nil {
		panic(err)
	}
	fmt.Println("frames:", frame)
	fmt.Println("sleeps:", fake.Sleeps())

	// Output:
	// period: 20ms
	// key a: down
	// frames: 3
	// sleeps: [15ms 15ms 15ms]
}

func ExampleWaitLoop() {
	q := eventqueue.New()
	loop, err := mainloop.NewWaitLoop(q)
	if err != nil {
		panic(err)
	}

	loop.Events().RegisterFunc(mainloop.EventQuit, func(*mainloop.Event, any) bool {
		fmt.Println("quit")
		return true
	}, nil)

	q.PostQuit()
	if err := loop.Run(context.Background()); err != nil {
		panic(err)
	}
	fmt.Println("running:", loop.IsRunning())

	// Output:
	// quit
	// running: false
}
