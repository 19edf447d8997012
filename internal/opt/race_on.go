//go:build race

package opt

// Race_ reports that the race detector is on. Tests use it to shrink
// their iteration counts.
const Race_ = true
