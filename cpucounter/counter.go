// Package cpucounter reads the monotonic counter used to time lock
// acquisitions and critical sections.
//
// The counter is the runtime's monotonic clock, read without touching the
// wall clock and without allocating. Values from different processors are
// comparable.
package cpucounter

import (
	_ "unsafe" // for linkname
)

// Ticks is a counter value in nanoseconds.
type Ticks uint64

// Read returns the current counter value.
func Read() Ticks {
	return Ticks(runtime_nanotime())
}

// Difference returns the ticks elapsed from first to second. The result
// wraps like unsigned arithmetic, so a counter overflow between the two
// reads still yields the elapsed ticks.
func Difference(second, first Ticks) Ticks {
	return second - first
}

// Nanoseconds converts ticks to nanoseconds.
func Nanoseconds(t Ticks) uint64 {
	return uint64(t)
}

// nolint:all
//
//go:linkname runtime_nanotime runtime.nanotime
//goland:noinspection ALL
func runtime_nanotime() int64
