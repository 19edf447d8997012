// Package isr provides local interrupt masking for Go code.
//
// A goroutine cannot mask hardware interrupts, but it can keep the scheduler
// from taking its processor away: Disable pins the calling goroutine to its
// current P, so it is neither preempted nor migrated until the matching
// Enable. That is the property an interrupt-disabled critical section relies
// on: nothing else runs on this processor while the section is open.
//
// Disable/Enable pairs nest. Code between them must not block, sleep or
// yield.
package isr

import (
	_ "unsafe" // for linkname

	"github.com/llxisdsh/smplock/internal/opt"
)

// Level is the state saved by Disable and restored by Enable. It carries
// the index of the processor the caller is pinned to.
type Level int

// Processor returns the index of the processor that was current when
// interrupts were disabled. It is stable until the matching Enable.
func (l Level) Processor() int {
	return int(l)
}

// Disable masks local interrupts and returns the previous level.
func Disable() Level {
	return Level(runtime_procPin())
}

// Enable restores the level returned by the matching Disable.
//
// Debug builds check that level belongs to the processor the caller is
// still pinned to. On a mismatch the pin is dropped before the panic, so
// the panic is recoverable.
func Enable(level Level) {
	if opt.Debug_ {
		if p := CurrentProcessor(); p != level.Processor() {
			runtime_procUnpin()
			panic(errLevelMismatch)
		}
	}
	runtime_procUnpin()
}

const errLevelMismatch = "isr: level restored on a different processor"

// CurrentProcessor returns the index of the processor running the caller.
// Unless interrupts are disabled the answer may be stale on return.
func CurrentProcessor() int {
	p := runtime_procPin()
	runtime_procUnpin()
	return p
}

// nolint:all
//
//go:linkname runtime_procPin runtime.procPin
//goland:noinspection ALL
func runtime_procPin() int

// nolint:all
//
//go:linkname runtime_procUnpin runtime.procUnpin
//goland:noinspection ALL
func runtime_procUnpin()
