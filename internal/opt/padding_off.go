//go:build (amd64 || 386 || arm || mips || mipsle || wasm) && !smplock_disable_padding && !smplock_enable_padding

package opt

// TicketPad_ separates the ticket dispenser from the serving counter.
// Padding is disabled by default for:
// - amd64
// - 32-bit architectures (386, arm, mips, mipsle, wasm)
type TicketPad_ struct{}

const Padding_ = false
