// Package spi frames MDFU SPI transport traffic.
//
// SPI is full duplex: every clock produces a MOSI and a MISO byte, bounded
// by chip-select assertion. A write window carries [0x11][packet][FCS] on
// MOSI; a read window carries [0x55][dummy...] on MOSI while the client
// answers on MISO with client-not-ready padding followed by an ASCII prefix:
// "LEN" for a response-length frame, "RSP" for the response itself. One
// framer instance decodes one trace direction.
package spi

import (
	"bytes"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/mdfu"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/trace"
)

const (
	writePrefix = 0x11
	readPrefix  = 0x55

	// paddingByte is clocked out by a client that has not prepared its
	// response yet. Leading runs of it never count toward a frame.
	paddingByte = 0x00
)

var (
	lenPrefix = []byte("LEN")
	rspPrefix = []byte("RSP")
)

const prefixSize = 3

// Config holds the per-instance settings.
type Config struct {
	// Trace selects MOSI (host) or MISO (client) decode.
	Trace mdfu.Direction
	// MaxFrameBytes bounds window accumulation. Zero selects the protocol
	// maximum.
	MaxFrameBytes int
}

// Framer accumulates one chip-select window at a time and decodes it on
// deassertion.
type Framer struct {
	cfg    Config
	active bool
	mosi   []byte
	miso   []byte
	spans  []trace.Span
	// declaredLen carries the response length announced by the last LEN
	// frame; negative when none is pending.
	declaredLen int
}

func New(cfg Config) *Framer {
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = mdfu.MaxPayloadLength + mdfu.MinFrameSize
	}
	return &Framer{cfg: cfg, declaredLen: -1}
}

// Begin opens a chip-select window.
func (f *Framer) Begin(t float64) {
	f.active = true
	f.mosi = f.mosi[:0]
	f.miso = f.miso[:0]
	f.spans = f.spans[:0]
}

// Byte records one clocked byte pair inside the active window.
func (f *Framer) Byte(ev trace.DuplexEvent) {
	if !f.active || len(f.mosi) >= f.cfg.MaxFrameBytes+prefixSize+1 {
		return
	}
	f.mosi = append(f.mosi, ev.MOSI)
	f.miso = append(f.miso, ev.MISO)
	f.spans = append(f.spans, ev.Span)
}

// End closes the window and decodes it for the configured direction.
func (f *Framer) End(t float64) []trace.Record {
	if !f.active {
		return nil
	}
	f.active = false
	if len(f.mosi) == 0 {
		return nil
	}

	switch f.mosi[0] {
	case writePrefix:
		return f.decodeWrite()
	case readPrefix:
		return f.decodeRead()
	}
	if f.cfg.Trace == mdfu.HostToClient {
		return []trace.Record{trace.ErrorRecord(f.windowSpan(0), mdfu.ErrMalformedFraming)}
	}
	return nil
}

// Flush reports a window left open at end of capture.
func (f *Framer) Flush() []trace.Record {
	if !f.active {
		return nil
	}
	f.active = false
	if len(f.mosi) == 0 {
		return nil
	}
	return []trace.Record{trace.ErrorRecord(f.windowSpan(0), mdfu.ErrIncompleteFrame)}
}

// decodeWrite handles a command window. The MOSI stream after the write
// prefix is packet plus FCS; MISO carries only dummy bytes.
func (f *Framer) decodeWrite() []trace.Record {
	if f.cfg.Trace != mdfu.HostToClient {
		return nil
	}
	span := f.windowSpan(1)
	frame := f.mosi[1:]
	if len(frame) < mdfu.MinFrameSize {
		// Chip select dropped before a checkable frame accumulated.
		return []trace.Record{trace.ErrorRecord(f.windowSpan(0), mdfu.ErrIncompleteFrame)}
	}
	pkt, err := mdfu.ParseFrame(mdfu.HostToClient, frame, -1)
	if err != nil {
		return []trace.Record{trace.ErrorRecord(span, err)}
	}
	return []trace.Record{trace.PacketRecord(span, pkt)}
}

// decodeRead handles a response window. For the host instance the window is
// control traffic; for the client instance the MISO stream holds padding and
// then a LEN or RSP frame.
func (f *Framer) decodeRead() []trace.Record {
	if f.cfg.Trace == mdfu.HostToClient {
		return []trace.Record{trace.ControlRecord(f.windowSpan(0), "Read (response poll)")}
	}

	// Strip the client-not-ready padding run. Frame fields shift with the
	// run length, so this must happen before any prefix check.
	i := 0
	for i < len(f.miso) && f.miso[i] == paddingByte {
		i++
	}
	rest := f.miso[i:]
	if len(rest) == 0 {
		return []trace.Record{trace.BusyRecord(f.windowSpan(0), "No response from client")}
	}
	if len(rest) < prefixSize {
		return []trace.Record{trace.ErrorRecord(f.windowSpan(i), mdfu.ErrIncompleteFrame)}
	}

	prefix := rest[:prefixSize]
	body := rest[prefixSize:]
	switch {
	case bytes.Equal(prefix, lenPrefix):
		return f.decodeLength(body, i)
	case bytes.Equal(prefix, rspPrefix):
		return f.decodeResponse(body, i)
	}
	return []trace.Record{trace.BusyRecord(f.windowSpan(0), "No response from client")}
}

// decodeLength handles a LEN frame: a 16-bit little-endian response length
// checksummed on its own.
func (f *Framer) decodeLength(body []byte, offset int) []trace.Record {
	span := f.windowSpan(offset)
	if len(body) < 2+mdfu.FCSSize {
		return []trace.Record{trace.ErrorRecord(span, mdfu.ErrIncompleteFrame)}
	}
	declared := int(body[0]) | int(body[1])<<8
	fcs := uint16(body[2]) | uint16(body[3])<<8
	valid := mdfu.VerifyChecksum(body[:2], fcs)
	if valid {
		f.declaredLen = declared
	}
	return []trace.Record{trace.LengthRecord(span, declared, valid)}
}

// decodeResponse handles an RSP frame carrying a status packet. A pending
// declared length from the last LEN frame must match the frame size.
func (f *Framer) decodeResponse(body []byte, offset int) []trace.Record {
	span := f.windowSpan(offset)
	declared := f.declaredLen
	f.declaredLen = -1
	pkt, err := mdfu.ParseFrame(mdfu.ClientToHost, body, declared)
	if err != nil {
		return []trace.Record{trace.ErrorRecord(span, err)}
	}
	return []trace.Record{trace.PacketRecord(span, pkt)}
}

// windowSpan covers the window's bytes from index first to its end.
func (f *Framer) windowSpan(first int) trace.Span {
	if len(f.spans) == 0 {
		return trace.Span{}
	}
	if first >= len(f.spans) {
		first = len(f.spans) - 1
	}
	return trace.Span{Start: f.spans[first].Start, End: f.spans[len(f.spans)-1].End}
}
