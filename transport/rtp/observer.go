package rtp

// Observer receives protocol-level events as they happen. It lets the core
// engine stay exporter-agnostic while still giving something like
// transport/rtp/rtpmetrics per-packet visibility, the same separation the
// teacher draws between stack.go's protocol logic and a plugged-in
// collaborator such as runZeroInc-sockstats's TCPInfoCollector.
type Observer interface {
	// PacketSent is called once a packet of the given kind has actually
	// been handed to the substrate, successfully, with its wire size.
	PacketSent(k Kind, wireLen int)

	// PacketReceived is called for every datagram that passed checksum
	// and length validation, before out-of-window/duplicate filtering.
	PacketReceived(k Kind, wireLen int)

	// PacketDropped is called whenever an inbound packet is discarded
	// instead of being delivered or accepted; reason is a short
	// stable label such as "malformed", "checksum", "out_of_window", or
	// "duplicate".
	PacketDropped(reason string)

	// Retransmitted is called each time a buffered packet is resent after
	// its retransmission timeout expired.
	Retransmitted()
}

// nopObserver discards every event. It is the Registry's default observer
// so call sites never need a nil check.
type nopObserver struct{}

func (nopObserver) PacketSent(Kind, int)     {}
func (nopObserver) PacketReceived(Kind, int) {}
func (nopObserver) PacketDropped(string)     {}
func (nopObserver) Retransmitted()           {}
