package smplock

import (
	"sync/atomic"

	"github.com/llxisdsh/smplock/internal/opt"
)

// TicketLock is a fair, FIFO (First-In-First-Out) spin-lock.
//
// Unlike sync.Mutex, which allows "barging" (newcomers can steal the lock),
// TicketLock guarantees that callers acquire the lock in the exact order
// they drew their tickets, so no waiter can be skipped forever.
//
// Implementation:
// It uses the classic "ticket" algorithm with two counters.
//   - Acquire(): Draws `next_ticket` with a fetch-and-add. Spins until
//     `now_serving` == `my_ticket`.
//   - Release(): Publishes `now_serving + 1`. Only the holder writes
//     `now_serving`, so a load and a store suffice.
//
// The counters wrap. Serving is checked for equality only, so wraparound is
// harmless as long as fewer than 2^32 callers wait at once.
//
// Waiting is a busy-wait, never a sleep or a park: the lock guards critical
// sections of a few dozen instructions and must stay usable from code that
// itself implements scheduling.
//
// The zero value is a free lock.
type TicketLock struct {
	_          noCopy
	owner      opt.Owner_
	nextTicket atomic.Uint32
	_          opt.TicketPad_
	nowServing atomic.Uint32
}

// Initialize resets the lock to the free state. It must not race with any
// other operation on the lock.
func (t *TicketLock) Initialize() {
	t.nextTicket.Store(0)
	t.nowServing.Store(0)
	t.owner.Clear()
}

// Acquire acquires the lock and returns the number of callers that were
// queued ahead of this one when it drew its ticket.
func (t *TicketLock) Acquire() uint32 {
	_, queue := t.acquire(false)
	return queue
}

func (t *TicketLock) acquire(pinned bool) (ticket, queue uint32) {
	ticket = t.nextTicket.Add(1) - 1
	serving := t.nowServing.Load()
	if serving == ticket {
		return ticket, 0
	}
	queue = ticket - serving
	var spins int
	for t.nowServing.Load() != ticket {
		spin(&spins, pinned)
	}
	return ticket, queue
}

// TryAcquire acquires the lock only if it is free and nobody is queued.
// It never spins.
func (t *TicketLock) TryAcquire() bool {
	serving := t.nowServing.Load()
	return t.nextTicket.CompareAndSwap(serving, serving+1)
}

// Release releases the lock and hands it to the next ticket.
func (t *TicketLock) Release() {
	if opt.Debug_ && !t.IsLocked() {
		panic("smplock: release of a free ticket lock")
	}
	t.release()
}

func (t *TicketLock) release() {
	t.nowServing.Store(t.nowServing.Load() + 1)
}

// IsLocked reports whether the lock is held. The answer may be stale on
// return unless the caller holds the lock.
func (t *TicketLock) IsLocked() bool {
	return t.nextTicket.Load() != t.nowServing.Load()
}

// Destroy ends the life of the lock. In debug builds it panics if the
// lock is still held.
func (t *TicketLock) Destroy() {
	if opt.Debug_ && t.IsLocked() {
		panic("smplock: destroy of a held ticket lock")
	}
}

// Lock acquires the lock. Blocks until the lock is available.
func (t *TicketLock) Lock() {
	t.acquire(false)
}

// Unlock releases the lock.
func (t *TicketLock) Unlock() {
	t.Release()
}

// AcquireStats acquires the lock and folds the sample into s instead of a
// statistics block owned by the lock. Several ticket locks may share one
// block; holders of different locks then update it concurrently and may
// lose individual increments. The returned context must be passed to
// ReleaseStats.
func (t *TicketLock) AcquireStats(s *Stats) Context {
	return acquireWith[Stats](t, s, false)
}

// ReleaseStats releases a lock acquired by AcquireStats.
func (t *TicketLock) ReleaseStats(ctx Context) {
	releaseWith[Stats](t, ctx.stats, &ctx)
}

// holds reports whether ctx is the context of the current holder.
func (t *TicketLock) holds(ctx *Context) bool {
	return ctx.lock == t && t.IsLocked() && t.nowServing.Load() == ctx.ticket
}

const errForeignRelease = "smplock: release by a context that does not hold the lock"
