//go:build !(amd64 || 386 || arm || mips || mipsle || wasm) && !smplock_disable_padding && !smplock_enable_padding

package opt

// TicketPad_ separates the ticket dispenser from the serving counter, so
// processors drawing tickets do not invalidate the line waiters poll.
// Padding is automatically enabled for architectures that are NOT:
// - amd64 (x86_64): Hardware optimizations often make padding less critical
// - 32-bit architectures (386, arm, mips, mipsle, wasm): Smaller cache lines/memory constraints
//
// Enabled for: arm64, s390x, ppc64, ppc64le, riscv64, loong64, mips64, mips64le, etc.
type TicketPad_ struct {
	_ [CacheLineSize_ - 4]byte
}

const Padding_ = true
