package smplock

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/llxisdsh/smplock/internal/opt"
	"github.com/llxisdsh/smplock/isr"
)

func TestDisableAndAcquire(t *testing.T) {
	var l ProfiledLock
	l.Initialize("isr")
	defer l.Destroy()

	const workers = 8
	iterations := 2000
	if opt.Race_ {
		iterations = 200
	}
	counter := 0
	var migrated atomic.Int32
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for range iterations {
				c := l.DisableAndAcquire()
				counter++
				if isr.CurrentProcessor() != c.Level.Processor() {
					migrated.Add(1)
				}
				l.ReleaseAndEnable(c)
			}
		}()
	}
	wg.Wait()

	if counter != workers*iterations {
		t.Fatalf("counter = %d, want %d", counter, workers*iterations)
	}
	if n := migrated.Load(); n != 0 {
		t.Fatalf("%d critical sections left their processor", n)
	}
	var s Snapshot
	l.Stats().Snapshot(&s)
	if s.UsageCount != uint64(workers*iterations) {
		t.Fatalf("usage = %d, want %d", s.UsageCount, workers*iterations)
	}
}

func TestInterruptDisableThenAcquireISR(t *testing.T) {
	var l PlainLock
	c := l.InterruptDisable()
	l.AcquireISR(&c)
	if !l.IsLocked() {
		l.InterruptEnable(c)
		t.Fatal("AcquireISR did not take the lock")
	}
	l.ReleaseISR(&c)
	l.InterruptEnable(c)
	if l.IsLocked() {
		t.Fatal("ReleaseISR did not free the lock")
	}
}

func TestDisableAndAcquireMixedWithISRVariants(t *testing.T) {
	var l ProfiledLock
	l.Initialize("isr-mixed")
	defer l.Destroy()

	const workers = 4
	const iterations = 500
	var counter int
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := range workers {
		go func() {
			defer wg.Done()
			for range iterations {
				if w%2 == 0 {
					c := l.DisableAndAcquire()
					counter++
					l.ReleaseAndEnable(c)
					continue
				}
				c := l.InterruptDisable()
				l.AcquireISR(&c)
				counter++
				l.ReleaseISR(&c)
				l.InterruptEnable(c)
			}
		}()
	}
	wg.Wait()
	if counter != workers*iterations {
		t.Fatalf("counter = %d, want %d", counter, workers*iterations)
	}
}
