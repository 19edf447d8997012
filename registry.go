package smplock

// registry is the process-wide chain of Stats blocks that set a section
// time record, plus the chain of live iterators over it.
//
// Its own lock is a PlainLock: the registry lock must not profile itself,
// since registering its statistics would need the registry lock. It is
// always taken with interrupts disabled, and nothing is allocated while it
// is held.
type registry struct {
	lock PlainLock

	head, tail *Stats
	iterators  *Iterator
}

var statsRegistry registry

func (r *registry) register(s *Stats) {
	c := r.lock.DisableAndAcquire()
	if !s.registered.Load() {
		s.prev = r.tail
		s.next = nil
		if r.tail != nil {
			r.tail.next = s
		} else {
			r.head = s
		}
		r.tail = s
		s.registered.Store(true)
		r.repairIterators(nil, s)
	}
	r.lock.ReleaseAndEnable(c)
}

func (r *registry) unregister(s *Stats) {
	if !s.registered.Load() {
		return
	}
	c := r.lock.DisableAndAcquire()
	if s.registered.Load() {
		r.repairIterators(s, s.next)
		if s.prev != nil {
			s.prev.next = s.next
		} else {
			r.head = s.next
		}
		if s.next != nil {
			s.next.prev = s.prev
		} else {
			r.tail = s.prev
		}
		s.prev, s.next = nil, nil
		s.registered.Store(false)
	}
	r.lock.ReleaseAndEnable(c)
}

// repairIterators moves every iterator positioned at from to to.
// Iterators that already ran off the end (from == nil) pick up a block
// appended behind them. Must be called with the registry lock held.
func (r *registry) repairIterators(from, to *Stats) {
	for it := r.iterators; it != nil; it = it.next {
		if it.current == from {
			if from != nil || !it.done {
				it.current = to
			}
		}
	}
}

func (r *registry) start(it *Iterator) {
	c := r.lock.DisableAndAcquire()
	it.current = r.head
	it.done = false
	it.prev = nil
	it.next = r.iterators
	if r.iterators != nil {
		r.iterators.prev = it
	}
	r.iterators = it
	it.active = true
	r.lock.ReleaseAndEnable(c)
}

func (r *registry) advance(it *Iterator, out *Snapshot, name []byte) bool {
	c := r.lock.DisableAndAcquire()
	s := it.current
	if s == nil {
		it.done = true
		r.lock.ReleaseAndEnable(c)
		return false
	}
	s.Snapshot(out)
	copy(name, s.name)
	it.current = s.next
	r.lock.ReleaseAndEnable(c)
	return true
}

func (r *registry) stop(it *Iterator) {
	c := r.lock.DisableAndAcquire()
	if it.active {
		if it.prev != nil {
			it.prev.next = it.next
		} else {
			r.iterators = it.next
		}
		if it.next != nil {
			it.next.prev = it.prev
		}
		it.prev, it.next = nil, nil
		it.current = nil
		it.active = false
	}
	r.lock.ReleaseAndEnable(c)
}

// Iterator walks the Stats blocks that registered themselves by setting a
// section time record. Blocks destroyed during the walk are skipped without
// disturbing it; blocks registered during the walk are visited if the
// iterator has not yet reported the end.
//
// Usage:
//
//	it := smplock.NewIterator()
//	defer it.Stop()
//	var s smplock.Snapshot
//	name := make([]byte, 64)
//	for it.Next(&s, name) {
//		n := min(s.NameLen, len(name))
//		fmt.Println(string(name[:n]), s.UsageCount)
//	}
type Iterator struct {
	_ noCopy

	// Guarded by the registry lock.
	prev, next *Iterator
	current    *Stats
	active     bool
	done       bool
}

// NewIterator starts an iteration at the first registered block.
// The iterator must be stopped with Stop.
func NewIterator() *Iterator {
	it := new(Iterator)
	statsRegistry.start(it)
	return it
}

// Next copies the snapshot of the next block into out and its name into
// name, truncated to len(name). It returns false at the end of the chain.
// The registry lock is held only while copying.
func (it *Iterator) Next(out *Snapshot, name []byte) bool {
	return statsRegistry.advance(it, out, name)
}

// Stop ends the iteration. Calling it more than once is harmless.
func (it *Iterator) Stop() {
	statsRegistry.stop(it)
}

// NameBufferSize is the name buffer Iterate hands to Iterator.Next. Longer
// lock names reach the visitor truncated.
const NameBufferSize = 64

// Iterate calls visit for every registered block until visit returns false.
// visit runs without the registry lock held, so it may be slow or acquire
// profiled locks itself.
func Iterate(visit func(name string, s *Snapshot) bool) {
	it := NewIterator()
	defer it.Stop()

	var s Snapshot
	buf := make([]byte, NameBufferSize)
	for it.Next(&s, buf) {
		if !visit(string(buf[:min(s.NameLen, len(buf))]), &s) {
			return
		}
	}
}
