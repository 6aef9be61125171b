package main

import (
	"errors"
	"math"
	"math/rand"
	"net"
)

// firstEphemeral is the first local UDP port tried when no -listen address
// is given, the same ephemeral range ports.PickEphemeralPort starts from.
const firstEphemeral uint16 = 16000

// errNoPortAvailable mirrors types.ErrNoPortAvailable: every candidate
// port in the ephemeral range was already in use.
var errNoPortAvailable = errors.New("reliconnd: no ephemeral UDP port available")

// pickEphemeralUDPConn opens a UDP socket on the first free port in the
// ephemeral range, starting from a random offset. Adapted from
// ports.PickEphemeralPort: that function probes candidate ports against a
// caller-supplied testPort closure operating on the in-process port table
// of a userspace stack; this one probes candidate ports by actually trying
// to bind a real kernel UDP socket, since there is no port table here, only
// the host's own network stack.
func pickEphemeralUDPConn(ip net.IP) (*net.UDPConn, error) {
	count := uint32(math.MaxUint16 - uint32(firstEphemeral) + 1)
	offset := uint16(rand.Int31n(int32(count)))

	for i := uint32(0); i < count; i++ {
		port := firstEphemeral + uint16((uint32(offset)+i)%count)
		conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: ip, Port: int(port)})
		if err == nil {
			return conn, nil
		}
		// Port in use or otherwise unavailable: try the next one.
	}

	return nil, errNoPortAvailable
}
