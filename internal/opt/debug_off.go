//go:build !smplock_debug

package opt

const Debug_ = false

// Owner_ records the processor holding a lock acquired with interrupts
// disabled. Without smplock_debug it records nothing.
type Owner_ struct{}

func (*Owner_) Set(int)     {}
func (*Owner_) Clear()      {}
func (*Owner_) Is(int) bool { return false }
