//go:build smplock_debug

package opt

import (
	"sync/atomic"
)

// Debug_ enables the usage contract assertions of the lock layer.
// Use: go build -tags=smplock_debug
const Debug_ = true

// Owner_ records the processor holding a lock acquired with interrupts
// disabled. Zero means no pinned owner; processor p is stored as p+1.
type Owner_ struct {
	p atomic.Int32
}

func (o *Owner_) Set(p int) { o.p.Store(int32(p) + 1) }

func (o *Owner_) Clear() { o.p.Store(0) }

func (o *Owner_) Is(p int) bool { return o.p.Load() == int32(p)+1 }
