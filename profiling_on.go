//go:build smplock_profiling

package smplock

// Profiling reports whether Lock records statistics.
const Profiling = true

type defaultStats = Stats
