package capture

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/mdfu"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/trace"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/transport/spi"
)

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestReadUARTCSV(t *testing.T) {
	in := strings.NewReader(
		"time,duration,direction,data\n" +
			"0.001,0.0001,host,0x56\n" +
			"0.002,0.0001,client,0x9e\n")
	events, err := ReadUARTCSV(in)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events", len(events))
	}
	if events[0].Value != 0x56 || events[0].Dir != mdfu.HostToClient || events[0].Start != 0.001 {
		t.Fatalf("first event: %+v", events[0])
	}
	if events[1].Value != 0x9e || events[1].Dir != mdfu.ClientToHost {
		t.Fatalf("second event: %+v", events[1])
	}
}

func TestReadUARTCSVWithoutHeader(t *testing.T) {
	events, err := ReadUARTCSV(strings.NewReader("0.5,0.0001,tx,11\n"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 1 || events[0].Value != 0x11 {
		t.Fatalf("events: %+v", events)
	}
}

func TestReadUARTCSVBadRow(t *testing.T) {
	_, err := ReadUARTCSV(strings.NewReader("0.1,0.0001,host,zz\n"))
	if !errors.Is(err, ErrCaptureFormat) {
		t.Fatalf("err = %v", err)
	}
	_, err = ReadUARTCSV(strings.NewReader("0.1,0.0001,sideways,0x00\n"))
	if !errors.Is(err, ErrCaptureFormat) {
		t.Fatalf("err = %v", err)
	}
}

func TestReadSPICSVGroupsWindows(t *testing.T) {
	in := strings.NewReader(
		"time,duration,packet_id,mosi,miso\n" +
			"0.001,0.0001,0,0x11,0x00\n" +
			"0.002,0.0001,0,0x80,0x00\n" +
			"0.010,0.0001,1,0x55,0x00\n")
	windows, err := ReadSPICSV(in)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("got %d windows", len(windows))
	}
	if len(windows[0].Bytes) != 2 || windows[0].Bytes[0].MOSI != 0x11 {
		t.Fatalf("first window: %+v", windows[0])
	}
	if !almost(windows[0].Span.Start, 0.001) || !almost(windows[0].Span.End, 0.0021) {
		t.Fatalf("first window span: %+v", windows[0].Span)
	}
	if len(windows[1].Bytes) != 1 || windows[1].Bytes[0].MOSI != 0x55 {
		t.Fatalf("second window: %+v", windows[1])
	}
}

func TestReadI2CCSV(t *testing.T) {
	in := strings.NewReader(
		"time,duration,packet_id,type,value,read,ack\n" +
			"0.001,0.0001,0,address,0x54,false,false\n" +
			"0.010,0.0001,1,address,0x54,false,true\n" +
			"0.011,0.0001,1,data,0x80,,\n" +
			"0.012,0.0001,1,data,0x01,,\n")
	txs, err := ReadI2CCSV(in)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions", len(txs))
	}
	if txs[0].Address.Ack || txs[0].Address.Address != 0x54 || len(txs[0].Data) != 0 {
		t.Fatalf("nacked poll: %+v", txs[0])
	}
	if !txs[1].Address.Ack || len(txs[1].Data) != 2 || txs[1].Data[1].Value != 0x01 {
		t.Fatalf("data transaction: %+v", txs[1])
	}
	if !almost(txs[1].Span.End, 0.0121) {
		t.Fatalf("span: %+v", txs[1].Span)
	}
}

func TestCSVWindowDecodesLikeDirectEvents(t *testing.T) {
	pkt := mdfu.Packet{Dir: mdfu.HostToClient, SequenceNumber: 1, Code: mdfu.CmdGetClientInfo}
	wire := append([]byte{0x11}, mdfu.EncodeFrame(pkt)...)

	var csvIn strings.Builder
	csvIn.WriteString("time,duration,packet_id,mosi,miso\n")
	direct := spi.New(spi.Config{Trace: mdfu.HostToClient})
	direct.Begin(0)
	for i, b := range wire {
		span := trace.Span{Start: 0.001 * float64(i+1), End: 0.001*float64(i+1) + 0.0001}
		fmt.Fprintf(&csvIn, "%f,0.0001,0,0x%02x,0x00\n", span.Start, b)
		direct.Byte(trace.DuplexEvent{MOSI: b, MISO: 0x00, Span: span})
	}
	want := direct.End(0.1)

	windows, err := ReadSPICSV(strings.NewReader(csvIn.String()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	loaded := spi.New(spi.Config{Trace: mdfu.HostToClient})
	var got []trace.Record
	for _, w := range windows {
		loaded.Begin(w.Span.Start)
		for _, ev := range w.Bytes {
			loaded.Byte(ev)
		}
		got = append(got, loaded.End(w.Span.End)...)
	}

	if len(got) != len(want) {
		t.Fatalf("record counts differ: %d vs %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Type != want[i].Type || got[i].Label != want[i].Label {
			t.Fatalf("record %d: got %+v want %+v", i, got[i], want[i])
		}
		for k, v := range want[i].Fields {
			if got[i].Fields[k] != v {
				t.Fatalf("record %d field %s: got %q want %q", i, k, got[i].Fields[k], v)
			}
		}
	}
}

func TestReadI2CCSVOrphanData(t *testing.T) {
	_, err := ReadI2CCSV(strings.NewReader("0.001,0.0001,0,data,0x80,,\n"))
	if !errors.Is(err, ErrCaptureFormat) {
		t.Fatalf("err = %v", err)
	}
}
