package smplock

import (
	"runtime"
	_ "unsafe" // for linkname
)

// noCopy may be added to structs which must not be copied
// after the first use.
//
// See https://golang.org/issues/8005#issuecomment-190753527
// for details.
//
// Note that it must not be embedded, due to the Lock and Unlock methods.
type noCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

func trySpin(spins *int) bool {
	if runtime_canSpin(*spins) {
		*spins++
		runtime_doSpin()
		return true
	}
	return false
}

// spin is one step of a ticket waiter's busy-wait. A pinned waiter owns its
// processor and must not enter the scheduler, so it only ever issues
// processor yields. An unpinned waiter gives its processor away once the
// active spin budget is used up: the holder may be a descheduled goroutine
// waiting for exactly that processor.
func spin(spins *int, pinned bool) {
	if trySpin(spins) {
		return
	}
	if pinned {
		runtime_doSpin()
		return
	}
	*spins = 0
	runtime.Gosched()
}

// nolint:all
//
//go:linkname runtime_canSpin sync.runtime_canSpin
//goland:noinspection ALL
func runtime_canSpin(i int) bool

// nolint:all
//
//go:linkname runtime_doSpin sync.runtime_doSpin
//goland:noinspection ALL
func runtime_doSpin()
