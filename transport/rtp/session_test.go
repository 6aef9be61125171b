package rtp_test

import (
	"testing"
	"time"

	"github.com/relaysystems/reliudp/transport/rtp"
	"github.com/relaysystems/reliudp/transport/rtp/rtptest"
)

func newSession(t *testing.T, sub *rtptest.FakeSubstrate, window int, timeout time.Duration) *rtp.Session {
	t.Helper()
	reg := rtp.NewRegistry(nil)
	sess, err := reg.NewSession(sub, rtp.Config{Window: window, Timeout: timeout})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return sess
}

func newRegisteredSession(t *testing.T, sub *rtptest.FakeSubstrate, window int, timeout time.Duration) (*rtp.Registry, *rtp.Session) {
	t.Helper()
	reg := rtp.NewRegistry(nil)
	sess, err := reg.NewSession(sub, rtp.Config{Window: window, Timeout: timeout})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return reg, sess
}

// TestSessionRoundTrip exercises both halves of a session together: local
// input flows out as data and EOF packets, an ack for both flows back in,
// the peer's own EOF arrives, and only then is the session torn down.
func TestSessionRoundTrip(t *testing.T) {
	sub := rtptest.NewFakeSubstrate()
	sub.FeedInput([]byte("payload"))
	sub.CloseInput()

	reg, sess := newRegisteredSession(t, sub, 4, time.Second)
	sess.OnInputReadable()

	sent := sub.TakeSent()
	if len(sent) != 2 {
		t.Fatalf("got %d packets sent, want 2 (data, eof)", len(sent))
	}

	// Play the peer's receiver acking what was sent: ack through seq 2
	// (both packets).
	ack := &rtp.Packet{Kind: rtp.KindAck, Ack: 3}
	sess.OnDatagramArrived(ack.Encode())

	// The sender is idle, but the receiver side has seen no EOF of its
	// own, so teardown must not have happened yet.
	reg.Tick(time.Now())
	if reg.Len() != 1 {
		t.Fatal("want session still registered: peer hasn't sent EOF back")
	}

	eof := &rtp.Packet{Kind: rtp.KindEOF, Seq: 1}
	sess.OnDatagramArrived(eof.Encode())

	reg.Tick(time.Now())
	if reg.Len() != 0 {
		t.Fatal("want session torn down once both directions are idle and EOF delivered")
	}
}

// TestSessionStopAndWaitWindowOne pins down the window_max = 1 boundary
// spec.md §8 calls out: with the window full at one unacked packet, the
// sender must not emit another until that one packet is acked, i.e. a
// strict stop-and-wait round trip.
func TestSessionStopAndWaitWindowOne(t *testing.T) {
	sub := rtptest.NewFakeSubstrate()
	sub.FeedInput([]byte("a"))

	sess := newSession(t, sub, 1, time.Second)
	sess.OnInputReadable()

	sent := sub.TakeSent()
	if len(sent) != 1 {
		t.Fatalf("got %d packets sent, want 1 (window full after first send)", len(sent))
	}
	rtptest.Packet(t, sent[0], rtptest.KindIs(rtp.KindData), rtptest.SeqIs(1))

	// More input arrives while the lone in-flight packet is still unacked:
	// the window is full, so nothing more may go out.
	sub.FeedInput([]byte("b"))
	sess.OnInputReadable()
	if sent := sub.TakeSent(); len(sent) != 0 {
		t.Fatalf("got %d packets sent while window full, want 0", len(sent))
	}

	// Ack the first packet: the window opens by exactly one, and the
	// buffered second byte goes out.
	ack1 := &rtp.Packet{Kind: rtp.KindAck, Ack: 2}
	sess.OnDatagramArrived(ack1.Encode())
	sent = sub.TakeSent()
	if len(sent) != 1 {
		t.Fatalf("got %d packets sent after first ack, want 1", len(sent))
	}
	rtptest.Packet(t, sent[0], rtptest.KindIs(rtp.KindData), rtptest.SeqIs(2))

	// Ack the second packet and close input: EOF goes out as the third and
	// final stop-and-wait round.
	sub.CloseInput()
	ack2 := &rtp.Packet{Kind: rtp.KindAck, Ack: 3}
	sess.OnDatagramArrived(ack2.Encode())
	sent = sub.TakeSent()
	if len(sent) != 1 {
		t.Fatalf("got %d packets sent after second ack, want 1 (eof)", len(sent))
	}
	rtptest.Packet(t, sent[0], rtptest.KindIs(rtp.KindEOF), rtptest.SeqIs(3))
}

func TestSessionMalformedDatagramDroppedSilently(t *testing.T) {
	sub := rtptest.NewFakeSubstrate()
	sess := newSession(t, sub, 4, time.Second)

	sess.OnDatagramArrived([]byte{0x01, 0x02, 0x03}) // too short to be valid

	if len(sub.Output) != 0 {
		t.Errorf("got output %q from malformed datagram, want none", sub.Output)
	}
	if len(sub.TakeSent()) != 0 {
		t.Errorf("want no ack sent in response to a malformed datagram")
	}
}

func TestSessionDeliversDataAndAcks(t *testing.T) {
	sub := rtptest.NewFakeSubstrate()
	sess := newSession(t, sub, 4, time.Second)

	p := &rtp.Packet{Kind: rtp.KindData, Seq: 1, Payload: []byte("hi")}
	sess.OnDatagramArrived(p.Encode())

	if string(sub.Output) != "hi" {
		t.Errorf("got output %q, want %q", sub.Output, "hi")
	}

	sent := sub.TakeSent()
	rtptest.Packet(t, sent[len(sent)-1], rtptest.KindIs(rtp.KindAck), rtptest.AckIs(2))
}

func TestSessionRetransmitsOnTick(t *testing.T) {
	sub := rtptest.NewFakeSubstrate()
	sub.FeedInput([]byte("x"))

	sess := newSession(t, sub, 4, 10*time.Millisecond)
	sess.OnInputReadable()
	sub.TakeSent()

	now := time.Now()
	sess.OnTick(now.Add(50 * time.Millisecond))

	sent := sub.TakeSent()
	if len(sent) != 1 {
		t.Fatalf("got %d retransmitted packets, want 1", len(sent))
	}
	rtptest.Packet(t, sent[0], rtptest.KindIs(rtp.KindData), rtptest.SeqIs(1))
}
