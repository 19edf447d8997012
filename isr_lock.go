package smplock

import (
	"github.com/llxisdsh/smplock/internal/opt"
	"github.com/llxisdsh/smplock/isr"
)

// ISRContext is the context of a lock acquired with interrupts disabled.
// It carries the interrupt level to restore on release.
type ISRContext struct {
	Level isr.Level
	Context
}

// DisableAndAcquire disables interrupts on the current processor, then
// acquires the lock. The critical section is atomic with respect to other
// processors and to everything else on this one.
//
// The order is fixed: acquiring first would let code preempting the holder
// on the same processor spin forever on a lock that processor holds.
//
// A lock taken this way anywhere must be taken this way everywhere, since a
// pinned waiter never yields its processor to an unpinned holder.
func (l *LockOf[S, P]) DisableAndAcquire() ISRContext {
	var c ISRContext
	c.Level = isr.Disable()
	l.AcquireISR(&c)
	return c
}

// ReleaseAndEnable releases the lock, then restores the interrupt level
// saved by DisableAndAcquire.
func (l *LockOf[S, P]) ReleaseAndEnable(c ISRContext) {
	l.ReleaseISR(&c)
	isr.Enable(c.Level)
}

// InterruptDisable only disables interrupts. The lock can be acquired later
// with AcquireISR, for example after some work that needs no lock.
func (l *LockOf[S, P]) InterruptDisable() ISRContext {
	return ISRContext{Level: isr.Disable()}
}

// InterruptEnable restores the interrupt level saved in c.
func (l *LockOf[S, P]) InterruptEnable(c ISRContext) {
	isr.Enable(c.Level)
}

// AcquireISR acquires the lock from a context that already has interrupts
// disabled, leaving the level unchanged.
//
// Debug builds stop a recursive acquire from the holding processor with a
// panic. The outer critical section still has interrupts disabled, so the
// runtime turns that panic into a fatal error.
func (l *LockOf[S, P]) AcquireISR(c *ISRContext) {
	p := c.Level.Processor()
	if opt.Debug_ && l.ticket.owner.Is(p) {
		panic("smplock: recursive acquire on the holding processor")
	}
	c.Context = acquireWith[S, P](&l.ticket, &l.stats, true)
	l.ticket.owner.Set(p)
}

// ReleaseISR releases a lock acquired by AcquireISR, leaving the interrupt
// level unchanged. Debug builds restore the level saved in c and panic if
// c does not hold the lock.
func (l *LockOf[S, P]) ReleaseISR(c *ISRContext) {
	if opt.Debug_ && !l.ticket.holds(&c.Context) {
		isr.Enable(c.Level)
		panic(errForeignRelease)
	}
	l.ticket.owner.Clear()
	releaseWith[S, P](&l.ticket, &l.stats, &c.Context)
}
