package rtp

import (
	"encoding/binary"

	"github.com/relaysystems/reliudp/buffer"
)

// Field offsets within the wire format. All multi-byte fields are in
// network byte order.
//
//	offset  size  field
//	  0      2    cksum
//	  2      2    len
//	  4      4    ackno
//	  8      4    seqno   (omitted when len == 8)
//	 12    len-12 payload (omitted when len <= 12)
const (
	offCksum = 0
	offLen   = 2
	offAck   = 4
	offSeq   = 8
)

const (
	// AckSize is the wire length of a pure-ack packet.
	AckSize = 8

	// HeaderSize is the wire length of a data/EOF header, before payload.
	HeaderSize = 12

	// MaxPayloadSize is the largest payload a single data packet may carry.
	MaxPayloadSize = 500

	// MaxPacketSize is the largest valid wire packet (header + max payload).
	MaxPacketSize = HeaderSize + MaxPayloadSize
)

// Kind classifies a decoded packet by its wire length.
type Kind int

const (
	// KindAck is a pure 8-byte acknowledgment; carries no seqno.
	KindAck Kind = iota
	// KindData is a 13..512-byte data packet.
	KindData
	// KindEOF is a 12-byte header-only end-of-stream marker.
	KindEOF
)

func (k Kind) String() string {
	switch k {
	case KindAck:
		return "ack"
	case KindData:
		return "data"
	case KindEOF:
		return "eof"
	default:
		return "unknown"
	}
}

// Packet is the in-memory representation of a wire packet. Ack is encoded on
// every packet, but the engine only sets and reads it on KindAck packets
// (data and EOF packets go out with Ack zero); Seq and Payload are only
// meaningful when Kind != KindAck.
type Packet struct {
	Kind    Kind
	Ack     uint32
	Seq     uint32
	Payload buffer.View
}

// WireLen returns the serialized length of p.
func (p *Packet) WireLen() int {
	switch p.Kind {
	case KindAck:
		return AckSize
	case KindEOF:
		return HeaderSize
	default:
		return HeaderSize + len(p.Payload)
	}
}

// Encode serializes p into a freshly allocated buffer, computing the
// checksum over the whole packet with the checksum field zeroed, exactly
// as spec.md's checksum pipeline requires.
func (p *Packet) Encode() []byte {
	n := p.WireLen()
	b := make([]byte, n)

	binary.BigEndian.PutUint16(b[offLen:], uint16(n))
	binary.BigEndian.PutUint32(b[offAck:], p.Ack)

	if p.Kind != KindAck {
		binary.BigEndian.PutUint32(b[offSeq:], p.Seq)
		if len(p.Payload) > 0 {
			copy(b[HeaderSize:], p.Payload)
		}
	}

	// cksum field left zero by make(); compute over the whole packet.
	binary.BigEndian.PutUint16(b[offCksum:], checksum(b, 0))
	return b
}

// DecodePacket validates and parses a datagram exactly as spec.md §4.2
// step 1-2 describes: length sanity, claimed-length vs actual-length
// agreement, then checksum. It never touches session state; the caller
// decides what to do with the result.
func DecodePacket(b []byte) (*Packet, error) {
	n := len(b)

	if n < AckSize || (n > AckSize && n < HeaderSize) || n > MaxPacketSize {
		return nil, ErrMalformedPacket
	}

	claimed := binary.BigEndian.Uint16(b[offLen:])
	if int(claimed) != n {
		return nil, ErrMalformedPacket
	}

	want := binary.BigEndian.Uint16(b[offCksum:])
	cp := make([]byte, n)
	copy(cp, b)
	binary.BigEndian.PutUint16(cp[offCksum:], 0)
	if checksum(cp, 0) != want {
		return nil, ErrChecksumMismatch
	}

	p := &Packet{Ack: binary.BigEndian.Uint32(b[offAck:])}

	switch {
	case n == AckSize:
		p.Kind = KindAck
	case n == HeaderSize:
		p.Kind = KindEOF
		p.Seq = binary.BigEndian.Uint32(b[offSeq:])
	default:
		p.Kind = KindData
		p.Seq = binary.BigEndian.Uint32(b[offSeq:])
		// Copy out of b: the caller may reuse its underlying array for the
		// next datagram as soon as DecodePacket returns.
		view := buffer.NewView(n - HeaderSize)
		copy(view, b[HeaderSize:n])
		p.Payload = view
	}

	return p, nil
}

// ErrMalformedPacket and ErrChecksumMismatch are the two ways
// DecodePacket can reject a datagram; both mean "drop silently, no ack,
// no state change" per spec.md §7.
var (
	ErrMalformedPacket  = &Error{"malformed packet"}
	ErrChecksumMismatch = &Error{"checksum mismatch"}
)
