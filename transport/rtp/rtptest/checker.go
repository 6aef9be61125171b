package rtptest

import (
	"testing"

	"github.com/relaysystems/reliudp/transport/rtp"
)

// PacketChecker checks one property of a decoded packet, composed the same
// way the teacher's checker package composes NetworkChecker/TransportChecker
// functions: a constructor returns a closure, and callers pass as many as
// they need to Packet.
type PacketChecker func(*testing.T, *rtp.Packet)

// Packet decodes b and runs every checker against the result, failing t
// with a descriptive message on the first decode error.
func Packet(t *testing.T, b []byte, checkers ...PacketChecker) *rtp.Packet {
	t.Helper()

	p, err := rtp.DecodePacket(b)
	if err != nil {
		t.Fatalf("rtptest.Packet: DecodePacket: %v", err)
		return nil
	}

	for _, c := range checkers {
		c(t, p)
	}
	return p
}

// KindIs checks the packet's Kind.
func KindIs(want rtp.Kind) PacketChecker {
	return func(t *testing.T, p *rtp.Packet) {
		t.Helper()
		if p.Kind != want {
			t.Errorf("got Kind = %v, want %v", p.Kind, want)
		}
	}
}

// SeqIs checks the packet's sequence number.
func SeqIs(want uint32) PacketChecker {
	return func(t *testing.T, p *rtp.Packet) {
		t.Helper()
		if p.Seq != want {
			t.Errorf("got Seq = %d, want %d", p.Seq, want)
		}
	}
}

// AckIs checks the packet's ack number.
func AckIs(want uint32) PacketChecker {
	return func(t *testing.T, p *rtp.Packet) {
		t.Helper()
		if p.Ack != want {
			t.Errorf("got Ack = %d, want %d", p.Ack, want)
		}
	}
}

// PayloadIs checks the packet's payload bytes exactly.
func PayloadIs(want []byte) PacketChecker {
	return func(t *testing.T, p *rtp.Packet) {
		t.Helper()
		if string(p.Payload) != string(want) {
			t.Errorf("got Payload = %q, want %q", p.Payload, want)
		}
	}
}

// PayloadLenIs checks the packet's payload length.
func PayloadLenIs(want int) PacketChecker {
	return func(t *testing.T, p *rtp.Packet) {
		t.Helper()
		if len(p.Payload) != want {
			t.Errorf("got len(Payload) = %d, want %d", len(p.Payload), want)
		}
	}
}
