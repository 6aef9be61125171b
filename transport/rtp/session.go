package rtp

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Config fixes the two per-session parameters spec.md §6 describes:
// window bounds in-flight packets both directions, timeout is the
// retransmission timeout.
type Config struct {
	Window  int
	Timeout time.Duration
}

func (c Config) validate() error {
	if c.Window <= 0 {
		return ErrWindowMax
	}
	if c.Timeout <= 0 {
		return ErrTimeout
	}
	return nil
}

// Session owns one bidirectional reliable stream: a sender window and a
// receiver reassembler, tied together with the teardown check of
// spec.md §4.5. It plays the role the teacher's transport/tcp/endpoint.go
// plays, minus everything (handshake state, waiterQueue, concurrency
// guards) spec.md §5's single-threaded, cooperative model doesn't need.
type Session struct {
	id  SessionID
	sub Substrate

	snd *sender
	rcv *receiver

	logger *logrus.Entry
	obs    Observer
}

func newSession(id SessionID, sub Substrate, cfg Config, logger *logrus.Entry, obs Observer) *Session {
	if obs == nil {
		obs = nopObserver{}
	}
	s := &Session{id: id, sub: sub, logger: logger, obs: obs}
	s.snd = newSender(s, cfg.Window, cfg.Timeout)
	s.rcv = newReceiver(s, cfg.Window)
	return s
}

func (s *Session) log() *logrus.Entry {
	if s.logger != nil {
		return s.logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func (s *Session) observer() Observer {
	if s.obs != nil {
		return s.obs
	}
	return nopObserver{}
}

// ID returns the session's registry handle.
func (s *Session) ID() SessionID { return s.id }

// OnDatagramArrived is the engine's first entry point: a datagram was
// delivered from the peer. Implements the validation pipeline of
// spec.md §4.2 verbatim, including its routing of pure acks to the
// sender (step 3) without touching receiver state.
func (s *Session) OnDatagramArrived(b []byte) {
	now := time.Now()

	p, err := DecodePacket(b)
	if err != nil {
		reason := "malformed"
		if err == ErrChecksumMismatch {
			reason = "checksum"
		}
		s.obs.PacketDropped(reason)
		return
	}
	s.obs.PacketReceived(p.Kind, len(b))

	if p.Kind == KindAck {
		s.snd.handleAck(p.Ack, now)
		return
	}

	s.rcv.handlePacket(p)
}

// OnInputReadable is the engine's second entry point: local input has
// bytes, or has closed. Resumes sender emission.
func (s *Session) OnInputReadable() {
	s.snd.emit(time.Now())
}

// OnOutputDrained is the engine's third entry point: the local output
// sink has free space again. Resumes receiver delivery and re-emits an
// ack reflecting whatever progress resulted.
func (s *Session) OnOutputDrained() {
	s.rcv.onOutputDrained()
}

// OnTick is the engine's fourth entry point: the periodic timer fired.
// Retransmits expired packets; teardown is evaluated separately by the
// registry, which owns the authority to destroy a session (spec.md §4.5:
// "Teardown must not occur from inside packet-receive processing").
func (s *Session) OnTick(now time.Time) {
	s.snd.retransmitExpired(now)
}

// readyForTeardown reports whether all four conditions of spec.md §4.5
// hold simultaneously.
func (s *Session) readyForTeardown() bool {
	return s.snd.idle() && s.rcv.eofDelivered() && s.rcv.idle()
}
