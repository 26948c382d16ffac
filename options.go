// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"fmt"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-mainloop/clock"
	"github.com/joeycumines/logiface"
)

const (
	// DefaultBatchSize is the maximum number of events taken from the
	// source at once, while draining.
	DefaultBatchSize = 16

	// DefaultPeriod is the target cycle period used when no display refresh
	// rate is available.
	DefaultPeriod = time.Second

	// DefaultWaitTimeout bounds each wait of a [WaitLoop], so that exit
	// requests from other goroutines are observed.
	DefaultWaitTimeout = 100 * time.Millisecond
)

// defaultOverrunRates limits overrun warnings, per loop.
var defaultOverrunRates = map[time.Duration]int{
	time.Second: 1,
	time.Minute: 10,
}

// loopOptions holds configuration options for loop creation.
type loopOptions struct { //nolint:govet // betteralign:ignore
	logger          *logiface.Logger[logiface.Event]
	clock           Clock
	displays        DisplayInfo
	overrunLimiter  *catrate.Limiter
	overrunNoLimit  bool
	display         DisplayID
	syncDisplay     bool
	defaultPeriod   time.Duration
	batchSize       int
	waitTimeout     time.Duration
	taskExitOnFalse bool
	metricsEnabled  bool
}

// --- Loop Options ---

// Option configures a [FixedRateLoop] or [WaitLoop].
type Option interface {
	applyLoop(*loopOptions) error
}

// loopOptionImpl implements Option.
type loopOptionImpl struct {
	applyLoopFunc func(*loopOptions) error
}

func (l *loopOptionImpl) applyLoop(opts *loopOptions) error {
	return l.applyLoopFunc(opts)
}

// WithLogger sets the structured logger. A nil logger (the default)
// disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithClock sets the clock used for timing and pacing. Defaults to
// [clock.System].
func WithClock(c Clock) Option {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if c == nil {
			return &TypeError{Message: "mainloop: clock must not be nil"}
		}
		opts.clock = c
		return nil
	}}
}

// WithDisplay requests that the [FixedRateLoop] period be synchronised to
// the refresh rate of the given display, as reported by the [DisplayInfo]
// configured via [WithDisplayInfo]. If the rate is unknown, the default
// period is used. The rate is queried once, at construction.
func WithDisplay(id DisplayID) Option {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.display = id
		opts.syncDisplay = true
		return nil
	}}
}

// WithDisplayInfo sets the source of display refresh rates.
func WithDisplayInfo(info DisplayInfo) Option {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if info == nil {
			return &TypeError{Message: "mainloop: display info must not be nil"}
		}
		opts.displays = info
		return nil
	}}
}

// WithDefaultPeriod overrides the target cycle period used when the
// display refresh rate is not available ([DefaultPeriod]).
func WithDefaultPeriod(d time.Duration) Option {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if d <= 0 {
			return &RangeError{Message: fmt.Sprintf("mainloop: default period must be positive, got %s", d)}
		}
		opts.defaultPeriod = d
		return nil
	}}
}

// WithBatchSize sets the maximum number of events taken from the source per
// batch, while draining ([DefaultBatchSize]).
func WithBatchSize(n int) Option {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if n < 1 {
			return &RangeError{Message: fmt.Sprintf("mainloop: batch size must be at least 1, got %d", n)}
		}
		opts.batchSize = n
		return nil
	}}
}

// WithTaskExitOnFalse sets whether a periodic task returning false requests
// exit, as an event handler returning false does. When disabled (default),
// a false result is only logged.
func WithTaskExitOnFalse(enabled bool) Option {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.taskExitOnFalse = enabled
		return nil
	}}
}

// WithMetrics enables per-cycle metrics collection, accessible via the
// Metrics method of the loop.
func WithMetrics(enabled bool) Option {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// WithOverrunWarningRate sets the rate limits applied to the warning logged
// when a cycle overruns its target period, as per [catrate.NewLimiter]. An
// empty map disables limiting. Invalid rates result in a [RangeError].
func WithOverrunWarningRate(rates map[time.Duration]int) Option {
	return &loopOptionImpl{func(opts *loopOptions) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &RangeError{Message: fmt.Sprintf("mainloop: invalid overrun warning rate: %v", r)}
			}
		}()
		if len(rates) == 0 {
			opts.overrunLimiter = nil
			opts.overrunNoLimit = true
			return nil
		}
		opts.overrunLimiter = catrate.NewLimiter(rates)
		opts.overrunNoLimit = false
		return nil
	}}
}

// WithWaitTimeout bounds each blocking wait of a [WaitLoop]
// ([DefaultWaitTimeout]).
func WithWaitTimeout(d time.Duration) Option {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if d <= 0 {
			return &RangeError{Message: fmt.Sprintf("mainloop: wait timeout must be positive, got %s", d)}
		}
		opts.waitTimeout = d
		return nil
	}}
}

// resolveLoopOptions applies Option instances to loopOptions.
func resolveLoopOptions(opts []Option) (*loopOptions, error) {
	cfg := &loopOptions{
		defaultPeriod: DefaultPeriod,
		batchSize:     DefaultBatchSize,
		waitTimeout:   DefaultWaitTimeout,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.clock == nil {
		cfg.clock = clock.System()
	}
	if cfg.overrunLimiter == nil && !cfg.overrunNoLimit {
		cfg.overrunLimiter = catrate.NewLimiter(defaultOverrunRates)
	}
	return cfg, nil
}
