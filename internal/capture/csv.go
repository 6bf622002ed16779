package capture

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/trace"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/transport/i2c"
)

// ErrCaptureFormat reports a row that does not match the documented export
// schema.
var ErrCaptureFormat = errors.New("capture: malformed export row")

// Window is one SPI chip-select window: every clocked byte pair between
// assert and release.
type Window struct {
	Span  trace.Span
	Bytes []trace.DuplexEvent
}

// Transaction is one I2C start/stop pair: the address phase plus any data
// bytes that followed it.
type Transaction struct {
	Span    trace.Span
	Address i2c.AddressEvent
	Data    []i2c.DataEvent
}

// ReadUARTCSV reads a serial analyzer export. Expected columns:
//
//	time,duration,direction,data
//
// with time and duration in seconds, direction "host" or "client" (tx/rx
// also accepted) and data a hex byte such as 0x56. A header row is skipped.
func ReadUARTCSV(r io.Reader) ([]trace.ByteEvent, error) {
	rows, err := readRows(r, 4)
	if err != nil {
		return nil, err
	}
	events := make([]trace.ByteEvent, 0, len(rows))
	for _, row := range rows {
		span, err := parseSpan(row.fields[0], row.fields[1])
		if err != nil {
			return nil, rowErr(row.line, err)
		}
		dir, err := trace.ParseDirection(row.fields[2])
		if err != nil {
			return nil, rowErr(row.line, err)
		}
		value, err := parseHexByte(row.fields[3])
		if err != nil {
			return nil, rowErr(row.line, err)
		}
		events = append(events, trace.ByteEvent{Value: value, Dir: dir, Span: span})
	}
	return events, nil
}

// ReadSPICSV reads an SPI analyzer export. Expected columns:
//
//	time,duration,packet_id,mosi,miso
//
// Rows sharing a packet_id form one chip-select window, in file order.
func ReadSPICSV(r io.Reader) ([]Window, error) {
	rows, err := readRows(r, 5)
	if err != nil {
		return nil, err
	}
	var windows []Window
	lastID := ""
	for _, row := range rows {
		span, err := parseSpan(row.fields[0], row.fields[1])
		if err != nil {
			return nil, rowErr(row.line, err)
		}
		mosi, err := parseHexByte(row.fields[3])
		if err != nil {
			return nil, rowErr(row.line, err)
		}
		miso, err := parseHexByte(row.fields[4])
		if err != nil {
			return nil, rowErr(row.line, err)
		}
		id := row.fields[2]
		if len(windows) == 0 || id != lastID {
			windows = append(windows, Window{Span: span})
			lastID = id
		}
		w := &windows[len(windows)-1]
		w.Span = w.Span.Union(span)
		w.Bytes = append(w.Bytes, trace.DuplexEvent{MOSI: mosi, MISO: miso, Span: span})
	}
	return windows, nil
}

// ReadI2CCSV reads an I2C analyzer export. Expected columns:
//
//	time,duration,packet_id,type,value,read,ack
//
// Each transaction opens with a type "address" row (value is the 7-bit
// address, read and ack are true/false) followed by zero or more type
// "data" rows. Rows sharing a packet_id form one transaction.
func ReadI2CCSV(r io.Reader) ([]Transaction, error) {
	rows, err := readRows(r, 7)
	if err != nil {
		return nil, err
	}
	var txs []Transaction
	lastID := ""
	for _, row := range rows {
		span, err := parseSpan(row.fields[0], row.fields[1])
		if err != nil {
			return nil, rowErr(row.line, err)
		}
		id := row.fields[2]
		switch strings.ToLower(row.fields[3]) {
		case "address":
			addr, err := parseHexByte(row.fields[4])
			if err != nil {
				return nil, rowErr(row.line, err)
			}
			read, err := strconv.ParseBool(row.fields[5])
			if err != nil {
				return nil, rowErr(row.line, err)
			}
			ack, err := strconv.ParseBool(row.fields[6])
			if err != nil {
				return nil, rowErr(row.line, err)
			}
			txs = append(txs, Transaction{
				Span:    span,
				Address: i2c.AddressEvent{Address: uint16(addr), Read: read, Ack: ack, Span: span},
			})
			lastID = id
		case "data":
			if len(txs) == 0 || id != lastID {
				return nil, rowErr(row.line, fmt.Errorf("data row without address row"))
			}
			value, err := parseHexByte(row.fields[4])
			if err != nil {
				return nil, rowErr(row.line, err)
			}
			tx := &txs[len(txs)-1]
			tx.Span = tx.Span.Union(span)
			tx.Data = append(tx.Data, i2c.DataEvent{Value: value, Span: span})
		default:
			return nil, rowErr(row.line, fmt.Errorf("unknown row type %q", row.fields[3]))
		}
	}
	return txs, nil
}

// LoadUARTCSV is ReadUARTCSV over a file path.
func LoadUARTCSV(path string) ([]trace.ByteEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	defer f.Close()
	return ReadUARTCSV(f)
}

// LoadSPICSV is ReadSPICSV over a file path.
func LoadSPICSV(path string) ([]Window, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	defer f.Close()
	return ReadSPICSV(f)
}

// LoadI2CCSV is ReadI2CCSV over a file path.
func LoadI2CCSV(path string) ([]Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	defer f.Close()
	return ReadI2CCSV(f)
}

type row struct {
	line   int
	fields []string
}

// readRows pulls every data row, skipping a header row when the first cell
// is not a number.
func readRows(r io.Reader, want int) ([]row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = want
	cr.TrimLeadingSpace = true

	var rows []row
	line := 0
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("capture: line %d: %w", line, err)
		}
		if line == 1 {
			if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
				continue // header
			}
		}
		rows = append(rows, row{line: line, fields: fields})
	}
}

func parseSpan(start, duration string) (trace.Span, error) {
	t, err := strconv.ParseFloat(strings.TrimSpace(start), 64)
	if err != nil {
		return trace.Span{}, fmt.Errorf("bad time %q", start)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(duration), 64)
	if err != nil || d < 0 {
		return trace.Span{}, fmt.Errorf("bad duration %q", duration)
	}
	return trace.Span{Start: t, End: t + d}, nil
}

func parseHexByte(s string) (byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("bad byte %q", s)
	}
	return byte(v), nil
}

func rowErr(line int, err error) error {
	return fmt.Errorf("%w: line %d: %v", ErrCaptureFormat, line, err)
}
