package smplock

import (
	"fmt"
	"sync"

	"github.com/llxisdsh/pb"
)

// LockGroupOf allows locking on arbitrary keys (string, int, struct, etc.).
// It dynamically manages a set of locks associated with values.
//
// Features:
//   - Infinite Keys: No need to pre-allocate locks.
//   - Auto-Cleanup: A key's lock is destroyed, and its statistics detached,
//     once it is released and no one else is waiting.
//   - Named Statistics: each key's lock is named Name + "/" + key.
//
// Use the aliases: LockGroup follows the build configuration like Lock,
// ProfiledLockGroup always profiles its locks.
//
// Usage:
//
//	g := smplock.ProfiledLockGroup[string]{Name: "users"}
//	ctx := g.Acquire("user-123")
//	// Critical section for user-123
//	g.Release("user-123", ctx)
//
// Implementation Note:
// It uses reference counting to safely delete entries. Every access to an
// entry happens inside ProcessEntry, under the map's bucket lock.
type LockGroupOf[K comparable, S any, P statsBlock[S]] struct {
	_ noCopy

	// Name prefixes the names of the per-key locks.
	Name string

	once sync.Once
	m    pb.MapOf[K, *lockGroupEntry[S, P]]
}

type (
	// LockGroup is a group of locks of the build configuration.
	LockGroup[K comparable] = LockGroupOf[K, defaultStats, *defaultStats]
	// ProfiledLockGroup is a group of locks that always record statistics.
	ProfiledLockGroup[K comparable] = LockGroupOf[K, Stats, *Stats]
)

type lockGroupEntry[S any, P statsBlock[S]] struct {
	mu  LockOf[S, P]
	ref int32
}

// init sets the map up before its first use, so concurrent first users
// never race on its lazy initialization.
func (g *LockGroupOf[K, S, P]) init() {
	g.once.Do(func() {
		g.m.InitWithOptions()
	})
}

// Acquire acquires the lock of k, creating it if needed.
func (g *LockGroupOf[K, S, P]) Acquire(k K) Context {
	g.init()
	v, _ := g.m.ProcessEntry(
		k,
		func(l *pb.EntryOf[K, *lockGroupEntry[S, P]]) (*pb.EntryOf[K, *lockGroupEntry[S, P]], *lockGroupEntry[S, P], bool) {
			if l != nil {
				l.Value.ref++
				return l, l.Value, true
			}
			e := &lockGroupEntry[S, P]{ref: 1}
			e.mu.Initialize(g.lockName(k))
			return &pb.EntryOf[K, *lockGroupEntry[S, P]]{Value: e}, e, false
		},
	)
	return v.mu.Acquire()
}

// Release releases the lock of k acquired with ctx.
func (g *LockGroupOf[K, S, P]) Release(k K, ctx Context) {
	g.init()
	g.m.ProcessEntry(
		k,
		func(l *pb.EntryOf[K, *lockGroupEntry[S, P]]) (*pb.EntryOf[K, *lockGroupEntry[S, P]], *lockGroupEntry[S, P], bool) {
			if l == nil {
				return nil, nil, false
			}
			// Releasing never blocks, so it may run under the bucket lock.
			l.Value.mu.Release(ctx)
			l.Value.ref--
			if l.Value.ref <= 0 {
				l.Value.mu.Destroy()
				return nil, nil, true
			}
			return l, l.Value, true
		},
	)
}

// Len returns the number of keys that currently have a lock.
func (g *LockGroupOf[K, S, P]) Len() int {
	g.init()
	return g.m.Size()
}

func (g *LockGroupOf[K, S, P]) lockName(k K) string {
	if g.Name == "" {
		return fmt.Sprint(k)
	}
	return g.Name + "/" + fmt.Sprint(k)
}
