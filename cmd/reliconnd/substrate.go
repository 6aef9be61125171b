package main

import (
	"io"
	"net"
	"sync"

	"github.com/relaysystems/reliudp/buffer"
)

// stdioUDPSubstrate implements rtp.Substrate over one UDP peer address and
// the process's own stdin/stdout, the same collaborator shape
// transport/rtp/rtptest.FakeSubstrate fakes for tests. Input/output bytes
// are handed across from the loop goroutines under inMu/outMu, but every
// method here runs only on the single event-loop goroutine that also calls
// into the Session, so no lock is held across a Session call — the
// single-threaded, cooperative model stays intact on the protocol side.
type stdioUDPSubstrate struct {
	conn *net.UDPConn
	peer *net.UDPAddr

	inMu  sync.Mutex
	input buffer.View
	eof   bool

	outMu sync.Mutex
	out   io.Writer
}

func newStdioUDPSubstrate(conn *net.UDPConn, peer *net.UDPAddr, out io.Writer) *stdioUDPSubstrate {
	return &stdioUDPSubstrate{conn: conn, peer: peer, out: out}
}

// SendDatagram implements rtp.DatagramSender.
func (s *stdioUDPSubstrate) SendDatagram(b []byte) error {
	_, err := s.conn.WriteToUDP(b, s.peer)
	return err
}

// feedInput is called by the event loop (loop.go) with bytes the
// stdin-reading goroutine already read and passed over the loop's channel;
// never called concurrently with ReadInput itself since both run on the
// event-loop goroutine.
func (s *stdioUDPSubstrate) feedInput(b []byte, eof bool) {
	s.inMu.Lock()
	defer s.inMu.Unlock()
	s.input = append(s.input, b...)
	if eof {
		s.eof = true
	}
}

// ReadInput implements rtp.InputReader.
func (s *stdioUDPSubstrate) ReadInput(buf []byte) (int, bool, error) {
	s.inMu.Lock()
	defer s.inMu.Unlock()

	if len(s.input) == 0 {
		if s.eof {
			return 0, true, nil
		}
		return 0, false, nil
	}

	n := copy(buf, s.input)
	s.input.TrimFront(n)
	return n, false, nil
}

// OutputSpace implements rtp.OutputWriter. Standard output has no
// meaningful capacity limit from this process's point of view, so it
// always reports room; OnOutputDrained is consequently never needed on
// this substrate, unlike rtptest.FakeSubstrate which exercises the
// backpressure path deliberately.
func (s *stdioUDPSubstrate) OutputSpace() int {
	return 1 << 20
}

// WriteOutput implements rtp.OutputWriter.
func (s *stdioUDPSubstrate) WriteOutput(b []byte) error {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	_, err := s.out.Write(b)
	return err
}
