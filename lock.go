package smplock

import (
	"github.com/llxisdsh/smplock/cpucounter"
	"github.com/llxisdsh/smplock/internal/opt"
)

// Context carries one acquire/release pairing. An acquire creates it and
// the matching release consumes it; it is not meant to be stored.
type Context struct {
	lock     *TicketLock
	stats    *Stats
	begin    cpucounter.Ticks
	acquired cpucounter.Ticks
	ticket   uint32
	queue    uint32
}

// QueueLength returns the number of callers that were queued ahead of the
// acquisition when it drew its ticket.
func (c *Context) QueueLength() uint32 {
	return c.queue
}

// LockOf is a ticket lock combined with a statistics block of type S.
//
// Use the aliases: Lock follows the build configuration (profiled with
// -tags smplock_profiling), ProfiledLock always profiles and PlainLock
// never does. A PlainLock carries no statistics fields at all.
//
// Usage:
//
//	var mu smplock.Lock
//	mu.Initialize("queue")
//	ctx := mu.Acquire()
//	// Critical section
//	mu.Release(ctx)
//
// Acquire leaves the interrupt level alone; use DisableAndAcquire when the
// critical section must also exclude everything else on the processor.
//
// Lock and Unlock make a *LockOf a sync.Locker. They keep the holder's
// context inside the lock, so they must not be mixed with Acquire/Release
// on the same critical section.
type LockOf[S any, P statsBlock[S]] struct {
	_     noCopy
	stats S
	// held is the context of the current Lock holder; only the holder
	// reads or writes it.
	held   Context
	ticket TicketLock
}

type (
	// ProfiledLock is a lock that always records statistics.
	ProfiledLock = LockOf[Stats, *Stats]
	// PlainLock is a lock that never records statistics.
	PlainLock = LockOf[NoStats, *NoStats]
	// Lock is the lock of the build configuration. See Profiling.
	Lock = LockOf[defaultStats, *defaultStats]
)

// Initialize resets the lock and its statistics. The name labels the
// statistics and must outlive the lock; locks without profiling ignore it.
func (l *LockOf[S, P]) Initialize(name string) {
	l.ticket.Initialize()
	P(&l.stats).initialize(name)
}

// Acquire acquires the lock and returns the context to release it with.
func (l *LockOf[S, P]) Acquire() Context {
	return acquireWith[S, P](&l.ticket, &l.stats, false)
}

// Release releases the lock acquired with ctx.
func (l *LockOf[S, P]) Release(ctx Context) {
	releaseWith[S, P](&l.ticket, &l.stats, &ctx)
}

// TryAcquire acquires the lock only if it is free and nobody is queued.
// On success the context must be passed to Release.
func (l *LockOf[S, P]) TryAcquire() (Context, bool) {
	ctx := Context{lock: &l.ticket}
	P(&l.stats).acquireBegin(&ctx)
	if !l.ticket.TryAcquire() {
		return Context{}, false
	}
	ctx.ticket = l.ticket.nowServing.Load()
	P(&l.stats).acquireEnd(&ctx)
	return ctx, true
}

// IsLocked reports whether the lock is held.
func (l *LockOf[S, P]) IsLocked() bool {
	return l.ticket.IsLocked()
}

// Destroy ends the life of the lock and detaches its statistics.
func (l *LockOf[S, P]) Destroy() {
	l.ticket.Destroy()
	P(&l.stats).destroy()
}

// Lock acquires the lock. Blocks until the lock is available.
func (l *LockOf[S, P]) Lock() {
	ctx := l.Acquire()
	l.held = ctx
}

// Unlock releases the lock acquired by Lock.
func (l *LockOf[S, P]) Unlock() {
	ctx := l.held
	l.held = Context{}
	l.Release(ctx)
}

// Stats returns the statistics block of the lock.
func (l *LockOf[S, P]) Stats() P {
	return &l.stats
}

func acquireWith[S any, P statsBlock[S]](t *TicketLock, stats P, pinned bool) Context {
	ctx := Context{lock: t}
	stats.acquireBegin(&ctx)
	ctx.ticket, ctx.queue = t.acquire(pinned)
	stats.acquireEnd(&ctx)
	return ctx
}

// releaseWith folds the statistics while the caller still owns the lock,
// then publishes the next ticket.
func releaseWith[S any, P statsBlock[S]](t *TicketLock, stats P, ctx *Context) {
	if opt.Debug_ && !t.holds(ctx) {
		panic(errForeignRelease)
	}
	stats.releaseUpdate(ctx)
	t.release()
}
