//go:build !smplock_profiling

package smplock

// Profiling reports whether Lock records statistics.
// Build with -tags smplock_profiling to turn it on.
const Profiling = false

type defaultStats = NoStats
