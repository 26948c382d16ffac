// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-mainloop"
	"github.com/joeycumines/go-mainloop/clock"
	"github.com/joeycumines/go-mainloop/eventqueue"
	"github.com/joeycumines/go-mainloop/internal/config"
	"github.com/spf13/cobra"
)

// eventTick is posted once per period, and counted by the demo handler.
const eventTick mainloop.EventType = 0x8000

type runFlags struct {
	configPath string
	cfg        config.Config
}

func newRunCmd() *cobra.Command {
	f := &runFlags{cfg: config.Default()}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the loop",
		Long: `Runs the loop until a quit event is received (Ctrl+C), or the configured
number of cycles or duration has elapsed.

Flags override values loaded from --config (TOML or YAML).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			return runLoop(cmd, cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "path to a TOML or YAML config file")
	fs.StringVar(&f.cfg.Mode, "mode", f.cfg.Mode, `loop strategy, "fixed" or "wait"`)
	fs.StringVar(&f.cfg.LogLevel, "log-level", f.cfg.LogLevel, "minimum log level")
	fs.Uint32Var(&f.cfg.Display, "display", f.cfg.Display, "display to synchronise to")
	fs.Float64Var(&f.cfg.RefreshRate, "refresh-rate", f.cfg.RefreshRate, "simulated display refresh rate in Hz (0 = unknown)")
	fs.DurationVar((*time.Duration)(&f.cfg.Period), "period", time.Duration(f.cfg.Period), "default target cycle period")
	fs.DurationVar((*time.Duration)(&f.cfg.Work), "work", time.Duration(f.cfg.Work), "simulated work per cycle")
	fs.DurationVarP((*time.Duration)(&f.cfg.Duration), "duration", "d", time.Duration(f.cfg.Duration), "stop after this long (0 = unlimited)")
	fs.Uint64VarP(&f.cfg.Cycles, "cycles", "n", f.cfg.Cycles, "stop after this many cycles (0 = unlimited)")
	fs.IntVar(&f.cfg.BatchSize, "batch-size", f.cfg.BatchSize, "maximum events taken at once")
	fs.BoolVar(&f.cfg.Metrics, "metrics", f.cfg.Metrics, "log metrics on exit")

	return cmd
}

// resolve loads the config file, if any, then applies explicitly set flags.
func (f *runFlags) resolve(cmd *cobra.Command) (config.Config, error) {
	if f.configPath == "" {
		return f.cfg, f.cfg.Validate()
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}

	fs := cmd.Flags()
	if fs.Changed("mode") {
		cfg.Mode = f.cfg.Mode
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.cfg.LogLevel
	}
	if fs.Changed("display") {
		cfg.Display = f.cfg.Display
	}
	if fs.Changed("refresh-rate") {
		cfg.RefreshRate = f.cfg.RefreshRate
	}
	if fs.Changed("period") {
		cfg.Period = f.cfg.Period
	}
	if fs.Changed("work") {
		cfg.Work = f.cfg.Work
	}
	if fs.Changed("duration") {
		cfg.Duration = f.cfg.Duration
	}
	if fs.Changed("cycles") {
		cfg.Cycles = f.cfg.Cycles
	}
	if fs.Changed("batch-size") {
		cfg.BatchSize = f.cfg.BatchSize
	}
	if fs.Changed("metrics") {
		cfg.Metrics = f.cfg.Metrics
	}

	return cfg, cfg.Validate()
}

func runLoop(cmd *cobra.Command, cfg config.Config) error {
	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Duration))
		defer cancel()
	}

	q := eventqueue.New()

	// interrupts are delivered to the loop as quit events
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	stopInterrupts := make(chan struct{})
	defer close(stopInterrupts)
	go forwardInterrupts(interrupts, stopInterrupts, q)

	opts := []mainloop.Option{
		mainloop.WithLogger(logger),
		mainloop.WithDefaultPeriod(time.Duration(cfg.Period)),
		mainloop.WithBatchSize(cfg.BatchSize),
		mainloop.WithMetrics(cfg.Metrics),
	}
	if cfg.RefreshRate > 0 {
		opts = append(opts,
			mainloop.WithDisplay(mainloop.DisplayID(cfg.Display)),
			mainloop.WithDisplayInfo(mainloop.DisplayRates{mainloop.DisplayID(cfg.Display): cfg.RefreshRate}),
		)
	}

	var ticks atomic.Uint64
	countTicks := func(_ *mainloop.Event, _ any) bool {
		n := ticks.Add(1)
		return cfg.Cycles == 0 || n < cfg.Cycles
	}
	logQuit := func(event *mainloop.Event, _ any) bool {
		logger.Info().Uint64("timestamp", event.Timestamp).Log("quit event received")
		return true
	}

	var loop mainloop.Loop
	var cycles func() uint64
	var metrics func() (mainloop.Metrics, bool)

	switch cfg.Mode {
	case config.ModeWait:
		l, err := mainloop.NewWaitLoop(q, append(opts, mainloop.WithWaitTimeout(time.Duration(cfg.Period)))...)
		if err != nil {
			return err
		}
		loop, cycles = l, l.CycleCount
		metrics = func() (mainloop.Metrics, bool) { return mainloop.Metrics{}, false }

		// ticks are produced externally, at the default period
		stop := make(chan struct{})
		defer close(stop)
		go postTicks(q, time.Duration(cfg.Period), stop)

	default:
		l, err := mainloop.NewFixedRateLoop(q, opts...)
		if err != nil {
			return err
		}
		loop, cycles, metrics = l, l.CycleCount, l.Metrics

		// the demo task simulates work, then posts a tick for the next cycle
		work := time.Duration(cfg.Work)
		l.Tasks().ScheduleFunc(func(float64, any) bool {
			if work > 0 {
				clock.System().Sleep(work)
			}
			q.Post(mainloop.Event{Type: eventTick})
			return true
		}, nil, 0)
	}

	loop.Events().RegisterFunc(eventTick, countTicks, nil)
	loop.Events().RegisterFunc(mainloop.EventQuit, logQuit, nil)

	err = loop.Run(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}

	if m, ok := metrics(); ok {
		logger.Info().
			Uint64("cycles", m.Cycles).
			Uint64("overruns", m.Overruns).
			Dur("work_p50", m.Work.P50).
			Dur("work_p99", m.Work.P99).
			Dur("work_max", m.Work.Max).
			Dur("slept", m.Slept).
			Float64("cycles_per_second", m.CyclesPerSecond).
			Log("loop metrics")
	}

	cmd.Printf("cycles: %d\nticks: %d\n", cycles(), ticks.Load())

	return err
}

func postTicks(q *eventqueue.Queue, period time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			q.Post(mainloop.Event{Type: eventTick})
		}
	}
}

// forwardInterrupts posts a quit event per interrupt, until done is closed.
func forwardInterrupts(interrupts <-chan os.Signal, done <-chan struct{}, q *eventqueue.Queue) {
	for {
		select {
		case <-done:
			return
		case <-interrupts:
			q.PostQuit()
		}
	}
}
