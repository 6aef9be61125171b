package rtp

import (
	"time"

	"github.com/relaysystems/reliudp/buffer"
)

// sender holds the state necessary to fragment, transmit, and retransmit
// the local stream, mirroring transport/tcp/snd.go's sender but shrunk to
// the cumulative-ack, no-congestion-control scheme spec.md §4.1 describes.
type sender struct {
	sess *Session

	windowMax int
	timeout   time.Duration

	nextSeqno uint32 // next seqno to assign when emitting a packet
	eofSent   bool

	buf sendBuffer
}

func newSender(sess *Session, windowMax int, timeout time.Duration) *sender {
	return &sender{
		sess:      sess,
		windowMax: windowMax,
		timeout:   timeout,
		nextSeqno: 1,
	}
}

// emit fragments local input into packets while the send window has room
// and EOF hasn't been sent yet, per spec.md §4.1's numbered steps.
func (s *sender) emit(now time.Time) {
	for s.buf.Len() < s.windowMax && !s.eofSent {
		view := buffer.NewView(MaxPayloadSize)
		n, eof, err := s.sess.sub.ReadInput(view)
		if err != nil {
			s.sess.log().WithError(err).Warn("read_input failed")
			return
		}

		if n == 0 && !eof {
			// Nothing available right now; resumed by OnInputReadable.
			return
		}
		view.CapLength(n)

		var pkt *Packet
		if eof {
			pkt = &Packet{Kind: KindEOF, Seq: s.nextSeqno}
		} else {
			pkt = &Packet{Kind: KindData, Seq: s.nextSeqno, Payload: view}
		}

		raw := pkt.Encode()
		if err := s.sess.sub.SendDatagram(raw); err != nil {
			s.sess.log().WithError(err).Warn("send_datagram failed, will retry on timeout")
		} else {
			s.sess.observer().PacketSent(pkt.Kind, len(raw))
		}

		s.buf.PushBack(pkt.Seq, raw, now)
		s.nextSeqno++

		if eof {
			s.eofSent = true
			return
		}
	}
}

// handleAck applies the cumulative-ack semantics of spec.md §4.1: every
// buffered entry with seqno < ackno is retired. Retiring may open the
// window, so emission is re-attempted afterward.
func (s *sender) handleAck(ackno uint32, now time.Time) {
	s.buf.RetireBelow(ackno)
	s.emit(now)
}

// retransmitExpired resends, unchanged, every buffered packet whose age
// exceeds the retransmission timeout (spec.md §4.1/§4.4 — only expired
// packets, no backoff, no retry ceiling).
func (s *sender) retransmitExpired(now time.Time) {
	s.buf.ForEach(func(e *sendEntry) {
		if now.Sub(e.lastTransmittedAt) <= s.timeout {
			return
		}
		if err := s.sess.sub.SendDatagram(e.raw); err != nil {
			s.sess.log().WithError(err).Warn("retransmit failed, will retry next tick")
			return
		}
		e.lastTransmittedAt = now
		s.sess.observer().Retransmitted()
	})
}

func (s *sender) idle() bool {
	return s.eofSent && s.buf.Len() == 0
}
