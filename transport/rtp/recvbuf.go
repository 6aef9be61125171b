package rtp

// recvBuffer holds out-of-order data/EOF packets keyed by seqno, awaiting
// in-order delivery to the local output. Grounded on the shape of
// transport/tcp/rcv.go's pendingRcvdSegments field, resolved to a plain map
// (rather than a heap) because the cumulative-ack scheme this repo
// implements only ever needs a direct membership test against
// expectedNext, never a smallest-key scan — the same map-keyed-by-seqno
// shape as other_examples' AetherFlow ReceiveBuffer.
type recvBuffer struct {
	packets map[uint32]*Packet
}

func newRecvBuffer() *recvBuffer {
	return &recvBuffer{packets: make(map[uint32]*Packet)}
}

func (b *recvBuffer) Len() int { return len(b.packets) }

func (b *recvBuffer) Has(seq uint32) bool {
	_, ok := b.packets[seq]
	return ok
}

func (b *recvBuffer) Insert(p *Packet) {
	b.packets[p.Seq] = p
}

func (b *recvBuffer) Get(seq uint32) (*Packet, bool) {
	p, ok := b.packets[seq]
	return p, ok
}

func (b *recvBuffer) Delete(seq uint32) {
	delete(b.packets, seq)
}
