package mdfu

import (
	"encoding/binary"
	"errors"
)

// Direction tells which side of the link produced a byte stream. Command
// packets travel host to client, status packets client to host.
type Direction int

const (
	HostToClient Direction = iota
	ClientToHost
)

func (d Direction) String() string {
	if d == ClientToHost {
		return "client"
	}
	return "host"
}

// Sequence field bit layout. Bits 0..4 carry the sequence number; bit 7 is
// the sync flag on command packets, bit 6 the resend flag on status packets.
const (
	SequenceMask = 0x1f
	SyncFlag     = 0x80
	ResendFlag   = 0x40
)

const (
	// HeaderSize covers the sequence field and the command/status code.
	HeaderSize = 2
	// MinFrameSize is the smallest complete frame: header plus FCS, with an
	// empty payload. Zero-payload packets are valid.
	MinFrameSize = HeaderSize + FCSSize
	// MaxPayloadLength is the protocol maximum for packet data; the client
	// buffer size field that bounds it is a 16-bit quantity.
	MaxPayloadLength = 0xffff
)

var (
	ErrIncompleteFrame  = errors.New("mdfu: incomplete frame")
	ErrLengthMismatch   = errors.New("mdfu: declared length does not match frame size")
	ErrMalformedFraming = errors.New("mdfu: malformed framing")
)

// Packet is one decoded MDFU packet. IntegrityValid is derived from the
// frame check sequence over the exact received bytes, never set directly.
type Packet struct {
	Dir            Direction
	SequenceNumber uint8
	Sync           bool
	Resend         bool
	Code           uint8
	Payload        []byte
	IntegrityValid bool
}

// PayloadLength returns the payload byte count.
func (p Packet) PayloadLength() int { return len(p.Payload) }

// ParseFrame decodes one framed candidate buffer: packet bytes followed by
// the two FCS bytes. declaredLen is the frame size announced by the
// transport (SPI/I2C response-length frames); pass a negative value when the
// transport does not declare one.
//
// An FCS mismatch is not a parse failure: the packet is returned with
// IntegrityValid false so the attempted decode stays visible.
func ParseFrame(dir Direction, buf []byte, declaredLen int) (Packet, error) {
	if len(buf) < MinFrameSize {
		return Packet{}, ErrIncompleteFrame
	}
	if declaredLen >= 0 && declaredLen != len(buf) {
		return Packet{}, ErrLengthMismatch
	}
	if len(buf)-MinFrameSize > MaxPayloadLength {
		return Packet{}, ErrMalformedFraming
	}

	body := buf[:len(buf)-FCSSize]
	fcs := binary.LittleEndian.Uint16(buf[len(buf)-FCSSize:])

	p := Packet{
		Dir:            dir,
		SequenceNumber: body[0] & SequenceMask,
		Code:           body[1],
		Payload:        append([]byte(nil), body[HeaderSize:]...),
		IntegrityValid: VerifyChecksum(body, fcs),
	}
	if dir == HostToClient {
		p.Sync = body[0]&SyncFlag != 0
	} else {
		p.Resend = body[0]&ResendFlag != 0
	}
	return p, nil
}

// EncodeFrame builds the candidate-buffer form of p: header, payload and a
// freshly computed FCS. It is the inverse of ParseFrame for packets with
// IntegrityValid true.
func EncodeFrame(p Packet) []byte {
	seq := p.SequenceNumber & SequenceMask
	if p.Dir == HostToClient && p.Sync {
		seq |= SyncFlag
	}
	if p.Dir == ClientToHost && p.Resend {
		seq |= ResendFlag
	}
	buf := make([]byte, 0, HeaderSize+len(p.Payload)+FCSSize)
	buf = append(buf, seq, p.Code)
	buf = append(buf, p.Payload...)
	fcs := Checksum(buf)
	return binary.LittleEndian.AppendUint16(buf, fcs)
}
