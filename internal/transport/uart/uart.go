// Package uart frames MDFU serial transport traffic.
//
// The serial transport wraps each packet in sentinel codes with byte
// stuffing: 0x56 opens a frame, 0x9E closes it, and 0xCC escapes any
// protected code inside (the escaped byte is the code's one's complement).
// The framer is a per-direction state machine; full-duplex decode takes two
// instances over disjoint directions.
package uart

import (
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/mdfu"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/trace"
)

const (
	frameStartCode = 0x56
	frameEndCode   = 0x9e
	escapeCode     = 0xcc
)

type state int

const (
	stateIdle state = iota
	stateFrame
)

// Config holds the per-instance settings.
type Config struct {
	// Trace selects which direction's bytes this instance frames.
	Trace mdfu.Direction
	// GapTimeout aborts a frame when the inter-byte idle time exceeds it,
	// in seconds. Zero disables the check.
	GapTimeout float64
	// MaxFrameBytes bounds accumulation before the framer declares the
	// stream malformed and resyncs. Zero selects the protocol maximum.
	MaxFrameBytes int
}

// Framer reconstructs MDFU frames from a timestamped byte stream. One
// instance owns one direction's session state and never shares it.
type Framer struct {
	cfg     Config
	state   state
	escaped bool
	buf     []byte
	start   float64
	lastEnd float64
}

func New(cfg Config) *Framer {
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = mdfu.MaxPayloadLength + mdfu.MinFrameSize
	}
	return &Framer{cfg: cfg}
}

// Push feeds one byte event and returns any records it completes. Bytes from
// the opposite direction are ignored; the companion instance handles them.
func (f *Framer) Push(ev trace.ByteEvent) []trace.Record {
	if ev.Dir != f.cfg.Trace {
		return nil
	}

	var out []trace.Record
	if f.state == stateFrame && f.cfg.GapTimeout > 0 && ev.Start-f.lastEnd > f.cfg.GapTimeout {
		out = append(out, trace.ErrorRecord(trace.Span{Start: f.start, End: f.lastEnd}, mdfu.ErrIncompleteFrame))
		f.reset()
	}
	f.lastEnd = ev.End

	switch f.state {
	case stateIdle:
		if ev.Value == frameStartCode {
			f.begin(ev.Start)
		}
		// Bytes outside a frame are line noise between frames; the serial
		// transport assigns them no meaning.
	case stateFrame:
		out = append(out, f.frameByte(ev)...)
	}
	return out
}

// Flush reports a frame still open at end of capture as incomplete.
func (f *Framer) Flush() []trace.Record {
	if f.state != stateFrame {
		return nil
	}
	r := trace.ErrorRecord(trace.Span{Start: f.start, End: f.lastEnd}, mdfu.ErrIncompleteFrame)
	f.reset()
	return []trace.Record{r}
}

func (f *Framer) frameByte(ev trace.ByteEvent) []trace.Record {
	// Sentinel codes are never produced by escaping (their complements
	// differ from every protected code), so they bind before escape state.
	switch ev.Value {
	case frameStartCode:
		// Sync recovery: a raw start code restarts accumulation.
		f.begin(ev.Start)
		return nil
	case frameEndCode:
		if f.escaped {
			r := trace.ErrorRecord(trace.Span{Start: f.start, End: ev.End}, mdfu.ErrMalformedFraming)
			f.reset()
			return []trace.Record{r}
		}
		r := f.finish(ev.End)
		f.reset()
		return []trace.Record{r}
	}

	if f.escaped {
		f.escaped = false
		decoded := ^ev.Value
		switch decoded {
		case frameStartCode, frameEndCode, escapeCode:
			f.buf = append(f.buf, decoded)
		default:
			r := trace.ErrorRecord(trace.Span{Start: f.start, End: ev.End}, mdfu.ErrMalformedFraming)
			f.reset()
			return []trace.Record{r}
		}
	} else if ev.Value == escapeCode {
		f.escaped = true
	} else {
		f.buf = append(f.buf, ev.Value)
	}

	if len(f.buf) > f.cfg.MaxFrameBytes {
		r := trace.ErrorRecord(trace.Span{Start: f.start, End: ev.End}, mdfu.ErrMalformedFraming)
		f.reset()
		return []trace.Record{r}
	}
	return nil
}

func (f *Framer) begin(start float64) {
	f.state = stateFrame
	f.escaped = false
	f.buf = f.buf[:0]
	f.start = start
}

func (f *Framer) finish(end float64) trace.Record {
	span := trace.Span{Start: f.start, End: end}
	if len(f.buf) < mdfu.MinFrameSize {
		// The frame terminated cleanly but cannot hold a packet.
		return trace.ErrorRecord(span, mdfu.ErrMalformedFraming)
	}
	pkt, err := mdfu.ParseFrame(f.cfg.Trace, f.buf, -1)
	if err != nil {
		return trace.ErrorRecord(span, err)
	}
	return trace.PacketRecord(span, pkt)
}

func (f *Framer) reset() {
	f.state = stateIdle
	f.escaped = false
	f.buf = f.buf[:0]
}

// EncodeFrame serializes a packet into its on-wire serial transport form:
// start code, escaped packet+FCS, end code. Inverse of the framer.
func EncodeFrame(p mdfu.Packet) []byte {
	body := mdfu.EncodeFrame(p)
	out := make([]byte, 0, len(body)+2)
	out = append(out, frameStartCode)
	for _, b := range body {
		switch b {
		case frameStartCode, frameEndCode, escapeCode:
			out = append(out, escapeCode, ^b)
		default:
			out = append(out, b)
		}
	}
	return append(out, frameEndCode)
}
