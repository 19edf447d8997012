//go:build smplock_disable_padding

package opt

// TicketPad_ separates the ticket dispenser from the serving counter.
// Padding is force-disabled via the smplock_disable_padding build tag.
// Use: go build -tags=smplock_disable_padding
type TicketPad_ struct{}

const Padding_ = false
