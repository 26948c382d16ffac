// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"sync"
	"time"
)

// Metrics is a snapshot of the runtime statistics of a [FixedRateLoop],
// enabled via [WithMetrics].
//
// Example:
//
//	loop, _ := mainloop.NewFixedRateLoop(source, mainloop.WithMetrics(true))
//	_ = loop.Run(ctx)
//	if m, ok := loop.Metrics(); ok {
//		fmt.Printf("cycles/s: %.2f, p99 work: %v\n", m.CyclesPerSecond, m.Work.P99)
//	}
type Metrics struct {
	// Work is the distribution of time spent per cycle, prior to sleeping.
	Work LatencyMetrics

	// Events tracks the number of events dispatched per cycle.
	Events EventMetrics

	// Cycles is the total number of completed cycles.
	Cycles uint64

	// Overruns is the number of cycles whose work exceeded the period.
	Overruns uint64

	// Slept is the total time spent pacing.
	Slept time.Duration

	// CyclesPerSecond is the completion rate over the trailing window.
	CyclesPerSecond float64
}

// LatencyMetrics summarises a duration distribution. Percentiles are
// streaming estimates.
type LatencyMetrics struct {
	P50  time.Duration
	P90  time.Duration
	P95  time.Duration
	P99  time.Duration
	Max  time.Duration
	Mean time.Duration
	Sum  time.Duration
}

// EventMetrics tracks the number of events dispatched per cycle.
type EventMetrics struct {
	// Total is the number of events dispatched, over all cycles.
	Total uint64

	// Current is the count for the most recent cycle.
	Current int

	// Max is the largest count observed for a single cycle.
	Max int

	// Avg is an exponential moving average (alpha=0.1), initialised to the
	// first observed value.
	Avg float64
}

// cycleRateWindow and cycleRateBucket configure the cycles-per-second counter.
const (
	cycleRateWindow = 10 * time.Second
	cycleRateBucket = 100 * time.Millisecond
)

var workPercentiles = [...]float64{0.50, 0.90, 0.95, 0.99}

// metricsRecorder accumulates [Metrics] on the loop goroutine, while allowing
// snapshots from any goroutine.
type metricsRecorder struct { //nolint:govet // betteralign:ignore
	mu        sync.Mutex
	work      [len(workPercentiles)]*quantileEstimator
	rate      *RateCounter
	snapshot  Metrics
	workCount int
	emaInit   bool
}

func newMetricsRecorder() *metricsRecorder {
	m := &metricsRecorder{rate: NewRateCounter(cycleRateWindow, cycleRateBucket)}
	for i, p := range workPercentiles {
		m.work[i] = newQuantileEstimator(p)
	}
	return m
}

// record is called once per completed cycle.
func (m *metricsRecorder) record(work, slept time.Duration, events int, overrun bool) {
	m.rate.Increment()

	m.mu.Lock()
	defer m.mu.Unlock()

	s := &m.snapshot
	s.Cycles++
	if overrun {
		s.Overruns++
	}
	s.Slept += slept

	for _, e := range m.work {
		e.observe(float64(work))
	}
	m.workCount++
	s.Work.Sum += work
	s.Work.Max = max(s.Work.Max, work)

	s.Events.Total += uint64(events)
	s.Events.Current = events
	s.Events.Max = max(s.Events.Max, events)
	if !m.emaInit {
		s.Events.Avg = float64(events)
		m.emaInit = true
	} else {
		s.Events.Avg = 0.9*s.Events.Avg + 0.1*float64(events)
	}
}

func (m *metricsRecorder) load() Metrics {
	cps := m.rate.Rate()

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.snapshot
	s.CyclesPerSecond = cps
	if m.workCount != 0 {
		s.Work.P50 = time.Duration(m.work[0].value())
		s.Work.P90 = time.Duration(m.work[1].value())
		s.Work.P95 = time.Duration(m.work[2].value())
		s.Work.P99 = time.Duration(m.work[3].value())
		s.Work.Mean = s.Work.Sum / time.Duration(m.workCount)
	}
	return s
}

// RateCounter tracks occurrences per second over a rolling window, divided
// into fixed size buckets.
//
// Thread Safety: All methods are thread-safe.
type RateCounter struct {
	lastRotation time.Time
	now          func() time.Time
	buckets      []int64
	bucketSize   time.Duration
	windowSize   time.Duration
	mu           sync.Mutex
}

// NewRateCounter creates a new counter, e.g. a 10 second window with 100ms
// buckets. The rate is 0 until at least one occurrence is recorded.
func NewRateCounter(windowSize, bucketSize time.Duration) *RateCounter {
	if bucketSize <= 0 {
		bucketSize = windowSize
	}
	bucketCount := max(int(windowSize/bucketSize), 1)
	return &RateCounter{
		now:          time.Now,
		lastRotation: time.Now(),
		buckets:      make([]int64, bucketCount),
		bucketSize:   bucketSize,
		windowSize:   time.Duration(bucketCount) * bucketSize,
	}
}

// Increment records an occurrence.
func (c *RateCounter) Increment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rotate()
	c.buckets[len(c.buckets)-1]++
}

// Rate returns the average occurrences per second over the window.
func (c *RateCounter) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rotate()
	var sum int64
	for _, v := range c.buckets {
		sum += v
	}
	return float64(sum) / c.windowSize.Seconds()
}

// CALLER MUST HOLD c.mu
func (c *RateCounter) rotate() {
	now := c.now()
	advance := int(now.Sub(c.lastRotation) / c.bucketSize)
	if advance <= 0 {
		return
	}
	if advance >= len(c.buckets) {
		clear(c.buckets)
		c.lastRotation = now
		return
	}
	copy(c.buckets, c.buckets[advance:])
	clear(c.buckets[len(c.buckets)-advance:])
	c.lastRotation = c.lastRotation.Add(time.Duration(advance) * c.bucketSize)
}
