// Package i2c frames MDFU I2C transport traffic.
//
// Transactions are addressed and the client NACKs while busy; the host
// retries the same transfer until it is ACKed. A write transaction carries
// [packet][FCS]. A read transaction opens with a frame-type code: 'L' for a
// response-length frame, 'R' for the response, anything else means the
// client has no response prepared yet. One framer instance decodes one
// trace direction; busy polls surface only when debug output is enabled.
package i2c

import (
	"fmt"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/mdfu"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/trace"
)

// Read-transaction frame-type codes.
const (
	frameTypeLength   = 'L'
	frameTypeResponse = 'R'
)

// Config holds the per-instance settings.
type Config struct {
	// Trace selects write-transaction (host) or read-transaction (client)
	// decode.
	Trace mdfu.Direction
	// Debug surfaces client-busy and retry transactions as auxiliary
	// annotations instead of suppressing them.
	Debug bool
	// MaxFrameBytes bounds transaction accumulation. Zero selects the
	// protocol maximum.
	MaxFrameBytes int
}

// AddressEvent is the address phase of a transaction.
type AddressEvent struct {
	Address uint16
	Read    bool
	Ack     bool
	trace.Span
}

// DataEvent is one ACKed data byte inside a transaction.
type DataEvent struct {
	Value byte
	trace.Span
}

// Framer accumulates one transaction at a time and decodes it on the stop
// condition.
type Framer struct {
	cfg   Config
	open  bool
	addr  AddressEvent
	buf   []byte
	spans []trace.Span
	// declaredLen carries the response length announced by the last 'L'
	// frame; negative when none is pending.
	declaredLen int
}

func New(cfg Config) *Framer {
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = mdfu.MaxPayloadLength + mdfu.MinFrameSize
	}
	return &Framer{cfg: cfg, declaredLen: -1}
}

// Start opens a transaction.
func (f *Framer) Start(t float64) {
	f.open = true
	f.addr = AddressEvent{}
	f.buf = f.buf[:0]
	f.spans = f.spans[:0]
}

// Address records the address phase.
func (f *Framer) Address(ev AddressEvent) {
	if f.open {
		f.addr = ev
	}
}

// Data records one data byte.
func (f *Framer) Data(ev DataEvent) {
	if !f.open || len(f.buf) >= f.cfg.MaxFrameBytes+1 {
		return
	}
	f.buf = append(f.buf, ev.Value)
	f.spans = append(f.spans, ev.Span)
}

// Stop closes the transaction and decodes it. Busy polls never
// desynchronize packet accumulation: the declared-length session state
// survives them untouched.
func (f *Framer) Stop(t float64) []trace.Record {
	if !f.open {
		return nil
	}
	f.open = false

	if f.addr.Read != (f.cfg.Trace == mdfu.ClientToHost) {
		// The opposite direction's instance owns this transaction.
		return nil
	}
	if !f.addr.Ack {
		return f.busy(f.addr.Span, "Client busy")
	}
	if len(f.buf) == 0 {
		return f.busy(f.addr.Span, "Client busy")
	}

	if !f.addr.Read {
		return f.decodeCommand()
	}
	return f.decodeRead()
}

// Flush reports a transaction left open at end of capture.
func (f *Framer) Flush() []trace.Record {
	if !f.open {
		return nil
	}
	f.open = false
	if len(f.buf) == 0 {
		return nil
	}
	return []trace.Record{trace.ErrorRecord(f.frameSpan(), mdfu.ErrIncompleteFrame)}
}

func (f *Framer) decodeCommand() []trace.Record {
	span := f.frameSpan()
	if len(f.buf) < mdfu.MinFrameSize {
		return []trace.Record{trace.ErrorRecord(span, mdfu.ErrIncompleteFrame)}
	}
	pkt, err := mdfu.ParseFrame(mdfu.HostToClient, f.buf, -1)
	if err != nil {
		return []trace.Record{trace.ErrorRecord(span, err)}
	}
	r := trace.PacketRecord(span, pkt)
	r.Fields["client_address"] = fmt.Sprintf("0x%02x", f.addr.Address)
	return []trace.Record{r}
}

func (f *Framer) decodeRead() []trace.Record {
	switch f.buf[0] {
	case frameTypeLength:
		return f.decodeLength()
	case frameTypeResponse:
		return f.decodeResponse()
	}
	return f.busy(f.frameSpan(), "Response not ready")
}

// decodeLength handles an 'L' frame: a 16-bit little-endian response length
// checksummed on its own.
func (f *Framer) decodeLength() []trace.Record {
	span := f.frameSpan()
	body := f.buf[1:]
	if len(body) < 2+mdfu.FCSSize {
		return []trace.Record{trace.ErrorRecord(span, mdfu.ErrIncompleteFrame)}
	}
	declared := int(body[0]) | int(body[1])<<8
	fcs := uint16(body[2]) | uint16(body[3])<<8
	valid := mdfu.VerifyChecksum(body[:2], fcs)
	if valid {
		f.declaredLen = declared
	}
	r := trace.LengthRecord(span, declared, valid)
	r.Fields["client_address"] = fmt.Sprintf("0x%02x", f.addr.Address)
	return []trace.Record{r}
}

// decodeResponse handles an 'R' frame carrying a status packet, checked
// against any pending declared length.
func (f *Framer) decodeResponse() []trace.Record {
	span := f.frameSpan()
	declared := f.declaredLen
	f.declaredLen = -1
	pkt, err := mdfu.ParseFrame(mdfu.ClientToHost, f.buf[1:], declared)
	if err != nil {
		return []trace.Record{trace.ErrorRecord(span, err)}
	}
	r := trace.PacketRecord(span, pkt)
	r.Fields["client_address"] = fmt.Sprintf("0x%02x", f.addr.Address)
	return []trace.Record{r}
}

func (f *Framer) busy(span trace.Span, note string) []trace.Record {
	if !f.cfg.Debug {
		return nil
	}
	return []trace.Record{trace.BusyRecord(span, note)}
}

func (f *Framer) frameSpan() trace.Span {
	if len(f.spans) == 0 {
		return f.addr.Span
	}
	return trace.Span{Start: f.spans[0].Start, End: f.spans[len(f.spans)-1].End}
}
