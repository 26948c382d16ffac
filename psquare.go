// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"slices"
)

// quantileEstimator estimates a single quantile of a stream, in O(1) space
// and time per observation, using the P-Square algorithm.
//
// Reference:
// Jain, R. and Chlamtac, I. (1985). "The P² Algorithm for Dynamic Calculation
// of Quantiles and Histograms Without Storing Observations". Communications
// of the ACM, 28(10), pp. 1076-1085.
//
// Thread Safety: NOT thread-safe.
type quantileEstimator struct {
	// heights are the marker heights, positions their actual positions,
	// desired their ideal positions, and increments the per-observation
	// change in desired positions
	heights    [5]float64
	desired    [5]float64
	increments [5]float64
	positions  [5]int
	p          float64
	count      int
}

func newQuantileEstimator(p float64) *quantileEstimator {
	p = min(max(p, 0), 1)
	return &quantileEstimator{
		p:          p,
		increments: [5]float64{0, p / 2, p, (1 + p) / 2, 1},
	}
}

func (e *quantileEstimator) observe(x float64) {
	e.count++

	// the first five observations seed the markers
	if e.count <= 5 {
		e.heights[e.count-1] = x
		if e.count == 5 {
			slices.Sort(e.heights[:])
			for i := range e.positions {
				e.positions[i] = i
			}
			e.desired = [5]float64{0, 2 * e.p, 4 * e.p, 2 + 2*e.p, 4}
		}
		return
	}

	var cell int
	switch {
	case x < e.heights[0]:
		e.heights[0] = x
	case x >= e.heights[4]:
		e.heights[4] = x
		cell = 3
	default:
		for cell = 0; cell < 3; cell++ {
			if x < e.heights[cell+1] {
				break
			}
		}
	}

	for i := cell + 1; i < 5; i++ {
		e.positions[i]++
	}
	for i := range e.desired {
		e.desired[i] += e.increments[i]
	}

	for i := 1; i < 4; i++ {
		d := e.desired[i] - float64(e.positions[i])
		if (d >= 1 && e.positions[i+1]-e.positions[i] > 1) ||
			(d <= -1 && e.positions[i-1]-e.positions[i] < -1) {
			sign := 1
			if d < 0 {
				sign = -1
			}
			if h := e.parabolic(i, sign); e.heights[i-1] < h && h < e.heights[i+1] {
				e.heights[i] = h
			} else {
				e.heights[i] = e.linear(i, sign)
			}
			e.positions[i] += sign
		}
	}
}

func (e *quantileEstimator) parabolic(i, sign int) float64 {
	d := float64(sign)
	n, prev, next := float64(e.positions[i]), float64(e.positions[i-1]), float64(e.positions[i+1])
	return e.heights[i] + d/(next-prev)*
		((n-prev+d)*(e.heights[i+1]-e.heights[i])/(next-n)+
			(next-n-d)*(e.heights[i]-e.heights[i-1])/(n-prev))
}

func (e *quantileEstimator) linear(i, sign int) float64 {
	j := i + sign
	return e.heights[i] + float64(sign)*(e.heights[j]-e.heights[i])/float64(e.positions[j]-e.positions[i])
}

func (e *quantileEstimator) value() float64 {
	switch {
	case e.count == 0:
		return 0
	case e.count < 5:
		seed := slices.Clone(e.heights[:e.count])
		slices.Sort(seed)
		return seed[int(float64(e.count-1)*e.p)]
	default:
		return e.heights[2]
	}
}
