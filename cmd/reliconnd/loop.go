package main

import (
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relaysystems/reliudp/transport/rtp"
)

// tickInterval is how often OnTick/Registry.Tick fires to drive
// retransmission and teardown checks.
const tickInterval = 50 * time.Millisecond

type datagramMsg struct {
	addr *net.UDPAddr
	data []byte
}

type stdinMsg struct {
	data []byte
	eof  bool
}

// readDatagrams feeds every UDP datagram received on conn to ch, closing it
// when the socket is no longer readable. Runs on its own goroutine so the
// blocking ReadFromUDP call never stalls the event loop.
func readDatagrams(conn *net.UDPConn, ch chan<- datagramMsg, log *logrus.Entry) {
	defer close(ch)
	buf := make([]byte, rtp.MaxPacketSize)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			log.WithError(err).Info("udp socket closed, stopping datagram reader")
			return
		}
		ch <- datagramMsg{addr: addr, data: append([]byte(nil), buf[:n]...)}
	}
}

// readStdin feeds chunks of stdin to ch, sending a final eof message and
// closing ch once the stream ends.
func readStdin(in io.Reader, ch chan<- stdinMsg, log *logrus.Entry) {
	defer close(ch)
	buf := make([]byte, 4096)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			ch <- stdinMsg{data: append([]byte(nil), buf[:n]...)}
		}
		if err != nil {
			if err != io.EOF {
				log.WithError(err).Warn("stdin read error, treating as eof")
			}
			ch <- stdinMsg{eof: true}
			return
		}
	}
}

// runLoop is the single goroutine that owns sess and reg: every call into
// the protocol engine happens here, never from readDatagrams or readStdin
// directly, keeping the engine's single-threaded, no-locks invariant
// intact. There is no teacher equivalent for this multiplexer — the
// teacher's analogous fan-in (protocolListenLoop) is built on gVisor's
// sleep.Sleeper/waiter.Queue, which this repo does not carry forward; this
// is the idiomatic stdlib replacement, goroutines feeding channels into one
// select loop.
func runLoop(reg *rtp.Registry, sess *rtp.Session, sub *stdioUDPSubstrate, conn *net.UDPConn, stdin io.Reader, log *logrus.Entry) {
	datagramCh := make(chan datagramMsg, 64)
	stdinCh := make(chan stdinMsg, 64)

	go readDatagrams(conn, datagramCh, log)
	go readStdin(stdin, stdinCh, log)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-datagramCh:
			if !ok {
				datagramCh = nil
				break
			}
			if sub.peer == nil {
				sub.peer = msg.addr
			}
			sess.OnDatagramArrived(msg.data)

		case msg, ok := <-stdinCh:
			if !ok {
				stdinCh = nil
				break
			}
			sub.feedInput(msg.data, msg.eof)
			sess.OnInputReadable()

		case now := <-ticker.C:
			reg.Tick(now)
			if reg.Len() == 0 {
				log.Info("session torn down, exiting")
				return
			}
		}
	}
}
