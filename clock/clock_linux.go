// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build linux

package clock

import (
	"time"

	"golang.org/x/sys/unix"
)

func perfNanos() int64 {
	return clockNanos(unix.CLOCK_MONOTONIC_RAW)
}

func coarseNanos() int64 {
	return clockNanos(unix.CLOCK_MONOTONIC)
}

func clockNanos(id int32) int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(id, &ts); err != nil {
		// only fails for invalid clock ids
		panic(err)
	}
	return ts.Nano()
}

// sleep uses an absolute deadline, so that signal interruptions don't
// accumulate error.
func sleep(d time.Duration) {
	deadline := unix.NsecToTimespec(coarseNanos() + int64(d))
	for {
		err := unix.ClockNanosleep(unix.CLOCK_MONOTONIC, unix.TIMER_ABSTIME, &deadline, nil)
		if err != unix.EINTR {
			return
		}
	}
}
