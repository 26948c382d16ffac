// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRecorder(t *testing.T) {
	m := newMetricsRecorder()

	s := m.load()
	assert.Zero(t, s.Cycles)
	assert.Zero(t, s.Work.Mean)

	m.record(10*time.Millisecond, 990*time.Millisecond, 4, false)
	m.record(30*time.Millisecond, 970*time.Millisecond, 0, false)
	m.record(2*time.Second, 0, 20, true)

	s = m.load()
	assert.Equal(t, uint64(3), s.Cycles)
	assert.Equal(t, uint64(1), s.Overruns)
	assert.Equal(t, 1960*time.Millisecond, s.Slept)
	assert.Equal(t, 2*time.Second, s.Work.Max)
	assert.Equal(t, 2040*time.Millisecond, s.Work.Sum)
	assert.Equal(t, 680*time.Millisecond, s.Work.Mean)
	assert.Equal(t, 30*time.Millisecond, s.Work.P50)

	assert.Equal(t, uint64(24), s.Events.Total)
	assert.Equal(t, 20, s.Events.Current)
	assert.Equal(t, 20, s.Events.Max)
	// 4 -> 0.9*4 + 0 -> 0.9*3.6 + 0.1*20
	assert.InDelta(t, 5.24, s.Events.Avg, 1e-9)

	assert.Greater(t, s.CyclesPerSecond, 0.0)
}

func TestMetricsRecorder_concurrentLoad(t *testing.T) {
	m := newMetricsRecorder()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 1000 {
			m.record(time.Duration(i), 0, i%3, i%10 == 0)
		}
	}()
	go func() {
		defer wg.Done()
		for range 1000 {
			_ = m.load()
		}
	}()
	wg.Wait()
	s := m.load()
	assert.Equal(t, uint64(1000), s.Cycles)
	assert.Equal(t, uint64(100), s.Overruns)
}

func TestRateCounter(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewRateCounter(time.Second, 100*time.Millisecond)
	c.now = func() time.Time { return now }
	c.lastRotation = now

	assert.Zero(t, c.Rate())
	for range 5 {
		c.Increment()
	}
	assert.InDelta(t, 5.0, c.Rate(), 1e-9)

	now = now.Add(500 * time.Millisecond)
	c.Increment()
	assert.InDelta(t, 6.0, c.Rate(), 1e-9)

	// the first 5 fall out of the window
	now = now.Add(600 * time.Millisecond)
	assert.InDelta(t, 1.0, c.Rate(), 1e-9)

	now = now.Add(time.Hour)
	assert.Zero(t, c.Rate())
}

func TestNewRateCounter_bucketDefaults(t *testing.T) {
	c := NewRateCounter(time.Second, 0)
	assert.Len(t, c.buckets, 1)
	assert.Equal(t, time.Second, c.windowSize)

	c = NewRateCounter(time.Second, 3*time.Second)
	assert.Len(t, c.buckets, 1)
	assert.Equal(t, 3*time.Second, c.windowSize)
}

func TestQuantileEstimator(t *testing.T) {
	for _, p := range []float64{0.5, 0.9, 0.99} {
		e := newQuantileEstimator(p)
		r := rand.New(rand.NewPCG(1, 2))
		values := make([]float64, 10000)
		for i := range values {
			values[i] = r.Float64() * 1000
			e.observe(values[i])
		}
		slices.Sort(values)
		want := values[int(p*float64(len(values)-1))]
		assert.InDelta(t, want, e.value(), 20, "p=%v", p)
	}
}

func TestQuantileEstimator_small(t *testing.T) {
	e := newQuantileEstimator(0.5)
	assert.Zero(t, e.value())
	for _, v := range []float64{3, 1, 2} {
		e.observe(v)
	}
	assert.Equal(t, 2.0, e.value())
}

func TestQuantileEstimator_constant(t *testing.T) {
	e := newQuantileEstimator(0.95)
	for range 100 {
		e.observe(7)
	}
	assert.Equal(t, 7.0, e.value())
	assert.False(t, math.IsNaN(e.value()))
}
