// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build !linux

package clock

import (
	"time"
)

var epoch = time.Now()

func perfNanos() int64 {
	return int64(time.Since(epoch))
}

func coarseNanos() int64 {
	return int64(time.Since(epoch))
}

func sleep(d time.Duration) {
	time.Sleep(d)
}
