package benchmark

import (
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/llxisdsh/smplock"
	"github.com/llxisdsh/smplock/cpucounter"
)

// ============================================================================
// Global Configuration
// ============================================================================

// Test parameters - adjust for stability vs speed tradeoff
const (
	defaultOpsPerWorker = 50000 // Acquisitions per worker
	sectionWork         = 20    // Increments inside each critical section
	warmupRounds        = 3     // Warmup iterations before measurement
	measureRounds       = 5     // Measurement rounds to average
)

// ============================================================================
// Lock Adapters
// ============================================================================

type LockInterface interface {
	Lock()
	Unlock()
}

// isrAdapter measures the interrupt-disabled path, which has no
// sync.Locker form.
type isrAdapter struct {
	l   smplock.PlainLock
	ctx smplock.ISRContext
}

func (a *isrAdapter) Lock()   { a.ctx = a.l.DisableAndAcquire() }
func (a *isrAdapter) Unlock() { a.l.ReleaseAndEnable(a.ctx) }

// ============================================================================
// Latency Result
// ============================================================================

type latencyResult struct {
	name       string
	throughput float64
	avg        time.Duration
	p50        time.Duration
	p99        time.Duration
	p999       time.Duration
	max        time.Duration
	slowRate   float64 // % of acquisitions > 100µs
}

// us formats duration as microseconds with 2 decimal places
func us(d time.Duration) string {
	return fmt.Sprintf("%.2fµs", float64(d.Nanoseconds())/float64(time.Microsecond))
}

// runLatencyTest measures, per acquisition, the time from requesting the
// lock to holding it.
func runLatencyTest(workers, opsPerWorker int, l LockInterface) latencyResult {
	total := workers * opsPerWorker
	samples := make([]int64, total)
	var sampleIdx atomic.Int64
	var slowOps atomic.Int64
	shared := 0

	runtime.GC()

	var g errgroup.Group
	start := time.Now()
	for range workers {
		g.Go(func() error {
			for range opsPerWorker {
				begin := cpucounter.Read()
				l.Lock()
				wait := int64(cpucounter.Difference(cpucounter.Read(), begin))
				for range sectionWork {
					shared++
				}
				l.Unlock()

				if wait > int64(100*time.Microsecond) {
					slowOps.Add(1)
				}
				samples[sampleIdx.Add(1)-1] = wait
			}
			return nil
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	slices.Sort(samples)

	var sum int64
	for _, v := range samples {
		sum += v
	}

	return latencyResult{
		throughput: float64(total) / elapsed.Seconds(),
		avg:        time.Duration(sum / int64(len(samples))),
		p50:        time.Duration(samples[len(samples)/2]),
		p99:        time.Duration(samples[int(float64(len(samples))*0.99)]),
		p999:       time.Duration(samples[int(float64(len(samples)-1)*0.999)]),
		max:        time.Duration(samples[len(samples)-1]),
		slowRate:   float64(slowOps.Load()) / float64(total) * 100,
	}
}

// runWithWarmup runs warmup rounds then measurement rounds and returns averaged result
func runWithWarmup(workers, ops int, makeLock func() LockInterface) latencyResult {
	for range warmupRounds {
		_ = runLatencyTest(workers, ops/10, makeLock())
	}
	runtime.GC()
	time.Sleep(10 * time.Millisecond)

	var results []latencyResult
	for range measureRounds {
		results = append(results, runLatencyTest(workers, ops, makeLock()))
		runtime.GC()
	}

	var avgResult latencyResult
	for _, r := range results {
		avgResult.throughput += r.throughput
		avgResult.avg += r.avg
		avgResult.p50 += r.p50
		avgResult.p99 += r.p99
		avgResult.p999 += r.p999
		avgResult.max += r.max
		avgResult.slowRate += r.slowRate
	}
	n := float64(len(results))
	avgResult.throughput /= n
	avgResult.avg /= time.Duration(n)
	avgResult.p50 /= time.Duration(n)
	avgResult.p99 /= time.Duration(n)
	avgResult.p999 /= time.Duration(n)
	avgResult.max /= time.Duration(n)
	avgResult.slowRate /= n

	return avgResult
}

func implementations() []struct {
	name string
	make func() LockInterface
} {
	return []struct {
		name string
		make func() LockInterface
	}{
		{"sync.Mutex", func() LockInterface { return &sync.Mutex{} }},
		{"TicketLock", func() LockInterface { return &smplock.TicketLock{} }},
		{"Lock", func() LockInterface { return &smplock.Lock{} }},
		{"ProfiledLock", func() LockInterface {
			l := &smplock.ProfiledLock{}
			l.Initialize("benchmark")
			return l
		}},
		{"DisableAndAcquire", func() LockInterface { return &isrAdapter{} }},
	}
}

// ============================================================================
// Main Test
// ============================================================================

func TestLatencySummary(t *testing.T) {
	numCPU := runtime.GOMAXPROCS(0)
	workers := numCPU
	ops := defaultOpsPerWorker

	t.Logf("=== Acquire Latency Benchmark ===")
	t.Logf("CPUs: %d, Workers: %d, Ops/Worker: %d", numCPU, workers, ops)
	t.Logf("Warmup: %d rounds, Measure: %d rounds, Profiling: %v\n",
		warmupRounds, measureRounds, smplock.Profiling)

	var results []*latencyResult
	for _, impl := range implementations() {
		t.Logf("Testing %s...", impl.name)
		r := runWithWarmup(workers, ops, impl.make)
		r.name = impl.name
		results = append(results, &r)
	}

	slices.SortFunc(results, func(a, b *latencyResult) int {
		if a.p999 < b.p999 {
			return -1
		}
		if a.p999 > b.p999 {
			return 1
		}
		return 0
	})

	t.Log("\n=== Results (sorted by p999) ===")
	t.Logf("%-4s | %-18s | %12s | %10s | %10s | %10s | %8s",
		"Rank", "Implementation", "Throughput", "p99", "p999", "max", "slow%")
	t.Logf("-----|--------------------|--------------|------------|------------|------------|----------")
	for i, r := range results {
		t.Logf("%-4d | %-18s | %10.0f/s | %10s | %10s | %10s | %6.4f%%",
			i+1, r.name, r.throughput, us(r.p99), us(r.p999), us(r.max), r.slowRate)
	}

	t.Logf("\n✓ Best p999: %s (%s)", results[0].name, us(results[0].p999))

	best := results[0]
	for _, r := range results {
		if r.throughput > best.throughput {
			best = r
		}
	}
	t.Logf("✓ Best throughput: %s (%.0f/s)", best.name, best.throughput)
}

// ============================================================================
// Quick Test (for fast iteration)
// ============================================================================

func TestLatencyQuick(t *testing.T) {
	workers := runtime.GOMAXPROCS(0)
	ops := 10000

	t.Logf("Quick test: %d workers, %d ops", workers, ops)
	t.Logf("%-18s | %12s | %10s | %10s", "Implementation", "Throughput", "p999", "max")
	t.Logf("-------------------|--------------|------------|------------")

	for _, impl := range implementations() {
		r := runLatencyTest(workers, ops, impl.make())
		t.Logf("%-18s | %10.0f/s | %10s | %10s",
			impl.name, r.throughput, us(r.p999), us(r.max))
	}
}
