package smplock

import (
	"sync/atomic"

	"github.com/llxisdsh/smplock/cpucounter"
)

// ContentionCounts is the number of contention buckets of a Stats block.
// Bucket i counts acquisitions that found i callers queued ahead of them;
// the last bucket also takes every deeper queue.
const ContentionCounts = 4

// statsBlock is the method set a lock needs from its statistics block.
// Stats implements it; NoStats implements it with empty bodies, so a lock
// instantiated with NoStats carries neither the fields nor the counter reads.
type statsBlock[S any] interface {
	*S
	initialize(name string)
	destroy()
	acquireBegin(ctx *Context)
	acquireEnd(ctx *Context)
	releaseUpdate(ctx *Context)
}

// Stats holds the profiling data of one lock.
//
// Counters are written only by the current holder of the lock (plain load
// plus store, no read-modify-write) and read atomically by snapshots, so a
// snapshot taken while the lock is in use is not torn per field, though
// fields may belong to different acquisitions.
//
// Totals are nanosecond sums in 64 bits. They wrap after roughly 584 years
// of accumulated time; the wrap is not detected or reported.
//
// A block is not discoverable by Iterate until one of its critical sections
// sets a new maximum section time; it then registers itself, once.
type Stats struct {
	_ noCopy

	// Registry links, guarded by the registry lock.
	prev, next *Stats
	registered atomic.Bool

	maxAcquireTime   atomic.Uint64
	maxSectionTime   atomic.Uint64
	usageCount       atomic.Uint64
	totalAcquireTime atomic.Uint64
	totalSectionTime atomic.Uint64
	contentionCounts [ContentionCounts]atomic.Uint64

	name string
}

// Snapshot is a copy of the counters of a Stats block.
type Snapshot struct {
	// NameLen is the length of the full lock name. It exceeds the number of
	// bytes Iterator.Next copied when the caller's buffer was too small.
	NameLen int

	UsageCount       uint64
	MaxAcquireTime   cpucounter.Ticks
	MaxSectionTime   cpucounter.Ticks
	TotalAcquireTime uint64
	TotalSectionTime uint64
	ContentionCounts [ContentionCounts]uint64
}

// NewStats returns an initialized statistics block named name.
func NewStats(name string) *Stats {
	s := new(Stats)
	s.initialize(name)
	return s
}

// Name returns the name given at initialization.
func (s *Stats) Name() string {
	return s.name
}

// Registered reports whether the block is discoverable by Iterate.
func (s *Stats) Registered() bool {
	return s.registered.Load()
}

// Snapshot copies the counters of s into out.
func (s *Stats) Snapshot(out *Snapshot) {
	out.NameLen = len(s.name)
	out.UsageCount = s.usageCount.Load()
	out.MaxAcquireTime = cpucounter.Ticks(s.maxAcquireTime.Load())
	out.MaxSectionTime = cpucounter.Ticks(s.maxSectionTime.Load())
	out.TotalAcquireTime = s.totalAcquireTime.Load()
	out.TotalSectionTime = s.totalSectionTime.Load()
	for i := range s.contentionCounts {
		out.ContentionCounts[i] = s.contentionCounts[i].Load()
	}
}

// Destroy detaches the block from the registry, moving any iterator that
// points at it to its successor. It is a no-op for a block that never
// registered.
func (s *Stats) Destroy() {
	s.destroy()
}

func (s *Stats) initialize(name string) {
	s.maxAcquireTime.Store(0)
	s.maxSectionTime.Store(0)
	s.usageCount.Store(0)
	s.totalAcquireTime.Store(0)
	s.totalSectionTime.Store(0)
	for i := range s.contentionCounts {
		s.contentionCounts[i].Store(0)
	}
	s.name = name
}

func (s *Stats) destroy() {
	statsRegistry.unregister(s)
}

func (s *Stats) acquireBegin(ctx *Context) {
	ctx.stats = s
	ctx.begin = cpucounter.Read()
}

func (s *Stats) acquireEnd(ctx *Context) {
	ctx.acquired = cpucounter.Read()
}

func (s *Stats) releaseUpdate(ctx *Context) {
	now := cpucounter.Read()
	s.recordAcquire(ctx.queue, cpucounter.Difference(ctx.acquired, ctx.begin))
	s.recordRelease(cpucounter.Difference(now, ctx.acquired))
}

func (s *Stats) recordAcquire(queue uint32, acquireTime cpucounter.Ticks) {
	d := cpucounter.Nanoseconds(acquireTime)
	s.usageCount.Store(s.usageCount.Load() + 1)
	s.totalAcquireTime.Store(s.totalAcquireTime.Load() + d)
	if d > s.maxAcquireTime.Load() {
		s.maxAcquireTime.Store(d)
	}
	bucket := &s.contentionCounts[min(queue, ContentionCounts-1)]
	bucket.Store(bucket.Load() + 1)
}

func (s *Stats) recordRelease(sectionTime cpucounter.Ticks) {
	d := cpucounter.Nanoseconds(sectionTime)
	s.totalSectionTime.Store(s.totalSectionTime.Load() + d)
	if d > s.maxSectionTime.Load() {
		s.maxSectionTime.Store(d)
		if !s.registered.Load() {
			statsRegistry.register(s)
		}
	}
}

// NoStats is the statistics block of a lock built without profiling.
// It has no size and every operation is empty.
type NoStats struct{}

func (*NoStats) initialize(string)      {}
func (*NoStats) destroy()               {}
func (*NoStats) acquireBegin(*Context)  {}
func (*NoStats) acquireEnd(*Context)    {}
func (*NoStats) releaseUpdate(*Context) {}
