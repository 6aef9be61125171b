package rtp

// receiver holds the state necessary to validate inbound packets, buffer
// out-of-order ones, deliver them in order to the local output, and emit
// cumulative acks. Mirrors transport/tcp/rcv.go's receiver, and resolves
// spec.md §4.2's validation pipeline exactly as original_source/reliable.c's
// rel_recvpkt does (out-of-window and duplicate packets still get an ack).
type receiver struct {
	sess *Session

	windowMax int

	expectedNext  uint32 // lowest seqno not yet delivered; echoed in acks
	outputBlocked bool
	eofReceived   bool
	eofSeq        uint32 // valid once eofReceived

	buf *recvBuffer
}

func newReceiver(sess *Session, windowMax int) *receiver {
	return &receiver{
		sess:         sess,
		windowMax:    windowMax,
		expectedNext: 1,
		buf:          newRecvBuffer(),
	}
}

// handlePacket runs the validation pipeline of spec.md §4.2 for a decoded,
// checksum-valid, non-ack packet (pure acks are routed to sender.handleAck
// before ever reaching here — step 3 of the pipeline).
func (r *receiver) handlePacket(p *Packet) {
	s := p.Seq

	if s < r.expectedNext || s >= r.expectedNext+uint32(r.windowMax) {
		// Out-of-window: drop payload, but still ack so the peer can
		// prune its send buffer of already-delivered data.
		r.sess.observer().PacketDropped("out_of_window")
		r.sendAck()
		return
	}

	if r.buf.Has(s) {
		// Duplicate: drop silently, still ack.
		r.sess.observer().PacketDropped("duplicate")
		r.sendAck()
		return
	}

	r.buf.Insert(p)
	if p.Kind == KindEOF {
		r.eofReceived = true
		r.eofSeq = s
	}

	if s == r.expectedNext {
		r.deliver()
	}

	r.sendAck()
}

// deliver peels packets off the receive buffer in order while the local
// output sink has room, per spec.md §4.3.
func (r *receiver) deliver() {
	for {
		p, ok := r.buf.Get(r.expectedNext)
		if !ok {
			return
		}

		if p.Kind == KindEOF {
			r.buf.Delete(p.Seq)
			r.expectedNext++
			r.outputBlocked = false
			continue
		}

		if r.sess.sub.OutputSpace() < len(p.Payload) {
			r.outputBlocked = true
			return
		}

		if err := r.sess.sub.WriteOutput(p.Payload); err != nil {
			r.sess.log().WithError(err).Warn("write_output failed")
			return
		}

		r.buf.Delete(p.Seq)
		r.expectedNext++
		r.outputBlocked = false
	}
}

// sendAck emits a cumulative ack, unless output is back-pressured: in that
// case delivering more would only force the peer to retransmit, so the
// ack is suppressed until OnOutputDrained lets expectedNext advance again.
func (r *receiver) sendAck() {
	if r.outputBlocked {
		return
	}

	ack := &Packet{Kind: KindAck, Ack: r.expectedNext}
	raw := ack.Encode()
	if err := r.sess.sub.SendDatagram(raw); err != nil {
		r.sess.log().WithError(err).Warn("send_datagram (ack) failed")
		return
	}
	r.sess.observer().PacketSent(KindAck, len(raw))
}

// onOutputDrained clears back-pressure and resumes delivery; it always
// emits a fresh ack afterward, reflecting whatever progress resulted.
func (r *receiver) onOutputDrained() {
	r.outputBlocked = false
	r.deliver()
	r.sendAck()
}

// eofDelivered reports whether the in-order EOF has actually been consumed
// (expectedNext advanced past it), the teardown condition of spec.md §4.5.
func (r *receiver) eofDelivered() bool {
	return r.eofReceived && r.expectedNext > r.eofSeq
}

func (r *receiver) idle() bool {
	return r.buf.Len() == 0
}
