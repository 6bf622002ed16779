package trace

import (
	"fmt"
	"strings"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/mdfu"
)

// Span is the time range a record or event covers, in seconds from the start
// of the capture.
type Span struct {
	Start float64
	End   float64
}

// Union returns the smallest span covering both a and b.
func (s Span) Union(other Span) Span {
	out := s
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

// ByteEvent is one byte observed on the bus, as delivered by the host's
// generic bus analyzer. Events arrive in capture order and are immutable.
type ByteEvent struct {
	Value byte
	Dir   mdfu.Direction
	Span
}

// DuplexEvent is one clocked SPI byte pair inside a chip-select window.
type DuplexEvent struct {
	MOSI byte
	MISO byte
	Span
}

// ParseDirection maps the user-facing trace setting to a direction. Each
// analyzer instance decodes exactly one direction; the opposite one needs a
// second instance.
func ParseDirection(s string) (mdfu.Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "host", "mosi", "tx", "from host":
		return mdfu.HostToClient, nil
	case "client", "miso", "rx", "to host":
		return mdfu.ClientToHost, nil
	}
	return 0, fmt.Errorf("trace: unknown direction %q (want host/client, mosi/miso or tx/rx)", s)
}
