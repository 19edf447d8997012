//go:build smplock_enable_padding

package opt

// TicketPad_ separates the ticket dispenser from the serving counter.
// Padding is force-enabled via the smplock_enable_padding build tag.
// Use: go build -tags=smplock_enable_padding
type TicketPad_ struct {
	_ [CacheLineSize_ - 4]byte
}

const Padding_ = true
