package trace

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/mdfu"
)

// PacketRecord renders a decoded packet. A failed integrity check flags the
// record but the decode stays fully visible.
func PacketRecord(span Span, p mdfu.Packet) Record {
	desc := mdfu.Classify(p.Dir, p.Code)
	label := desc.Name
	if !p.IntegrityValid {
		label += " (FCS invalid)"
	}

	codeKey := "command"
	if p.Dir == mdfu.ClientToHost {
		codeKey = "status"
	}
	fields := map[string]string{
		"direction":      p.Dir.String(),
		"sequence":       fmt.Sprintf("%d", p.SequenceNumber),
		codeKey:          fmt.Sprintf("0x%02x", p.Code),
		"name":           desc.Name,
		"payload_length": fmt.Sprintf("%d", p.PayloadLength()),
		"fcs_valid":      fmt.Sprintf("%t", p.IntegrityValid),
	}
	if p.Dir == mdfu.HostToClient {
		fields["sync"] = fmt.Sprintf("%t", p.Sync)
	} else {
		fields["resend"] = fmt.Sprintf("%t", p.Resend)
	}
	if len(p.Payload) > 0 {
		fields["payload"] = "0x" + hex.EncodeToString(p.Payload)
	}
	if desc.Detail != nil {
		for k, v := range desc.Detail(p.Payload) {
			fields[k] = v
		}
	}
	return Record{Type: RecordPacket, Start: span.Start, End: span.End, Label: label, Fields: fields}
}

// ErrorRecord renders a decode failure over the span that triggered it.
// Failures are surfaced, never dropped: an analyst reviewing the trace must
// see where and why decoding stopped.
func ErrorRecord(span Span, err error) Record {
	label := "Decode error"
	switch {
	case errors.Is(err, mdfu.ErrIncompleteFrame):
		label = "Incomplete frame"
	case errors.Is(err, mdfu.ErrLengthMismatch):
		label = "Length mismatch"
	case errors.Is(err, mdfu.ErrMalformedFraming):
		label = "Malformed framing"
	}
	return Record{
		Type:   RecordError,
		Start:  span.Start,
		End:    span.End,
		Label:  label,
		Fields: map[string]string{"error": err.Error()},
	}
}

// BusyRecord renders a client-busy or retry annotation.
func BusyRecord(span Span, note string) Record {
	return Record{Type: RecordBusy, Start: span.Start, End: span.End, Label: note}
}

// LengthRecord renders a response-length frame (SPI "LEN" / I2C 'L').
func LengthRecord(span Span, declared int, fcsValid bool) Record {
	label := fmt.Sprintf("Response Length: %d bytes", declared)
	if !fcsValid {
		label += " (FCS invalid)"
	}
	return Record{
		Type:  RecordLength,
		Start: span.Start,
		End:   span.End,
		Label: label,
		Fields: map[string]string{
			"declared_length": fmt.Sprintf("%d", declared),
			"fcs_valid":       fmt.Sprintf("%t", fcsValid),
		},
	}
}

// ControlRecord renders transport control traffic that carries no packet,
// such as the SPI read prefix issued while polling for a response.
func ControlRecord(span Span, label string) Record {
	return Record{Type: RecordControl, Start: span.Start, End: span.End, Label: label}
}
