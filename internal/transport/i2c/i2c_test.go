package i2c

import (
	"encoding/binary"
	"testing"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/mdfu"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/trace"
)

const clientAddr = 0x54

// transaction runs one start/address/data/stop sequence through the framer.
func transaction(f *Framer, read, ack bool, data []byte, t0 float64) []trace.Record {
	f.Start(t0)
	f.Address(AddressEvent{Address: clientAddr, Read: read, Ack: ack, Span: trace.Span{Start: t0, End: t0 + 1e-4}})
	for i, b := range data {
		start := t0 + float64(i+1)*1e-3
		f.Data(DataEvent{Value: b, Span: trace.Span{Start: start, End: start + 1e-4}})
	}
	return f.Stop(t0 + float64(len(data)+1)*1e-3)
}

func lengthFrame(declared int) []byte {
	out := []byte{frameTypeLength}
	lenBytes := binary.LittleEndian.AppendUint16(nil, uint16(declared))
	out = append(out, lenBytes...)
	return binary.LittleEndian.AppendUint16(out, mdfu.Checksum(lenBytes))
}

func responseFrame(pkt mdfu.Packet) []byte {
	return append([]byte{frameTypeResponse}, mdfu.EncodeFrame(pkt)...)
}

func TestCommandTransactionDecodes(t *testing.T) {
	pkt := mdfu.Packet{Dir: mdfu.HostToClient, SequenceNumber: 2, Code: mdfu.CmdGetClientInfo}
	f := New(Config{Trace: mdfu.HostToClient})
	recs := transaction(f, false, true, mdfu.EncodeFrame(pkt), 0)
	if len(recs) != 1 || recs[0].Type != trace.RecordPacket {
		t.Fatalf("records: %+v", recs)
	}
	r := recs[0]
	if r.Label != "Get Client Info" || r.Fields["client_address"] != "0x54" || r.Fields["fcs_valid"] != "true" {
		t.Fatalf("record: %+v", r)
	}
}

func TestBusyPollingSuppressedWithoutDebug(t *testing.T) {
	pkt := mdfu.Packet{Dir: mdfu.HostToClient, Code: mdfu.CmdStartTransfer}
	f := New(Config{Trace: mdfu.HostToClient, Debug: false})

	var recs []trace.Record
	for i := 0; i < 3; i++ {
		recs = append(recs, transaction(f, false, false, nil, float64(i))...)
	}
	recs = append(recs, transaction(f, false, true, mdfu.EncodeFrame(pkt), 3)...)

	if len(recs) != 1 || recs[0].Type != trace.RecordPacket || recs[0].Label != "Start Transfer" {
		t.Fatalf("debug off: %+v", recs)
	}
}

func TestBusyPollingSurfacedWithDebug(t *testing.T) {
	pkt := mdfu.Packet{Dir: mdfu.HostToClient, Code: mdfu.CmdStartTransfer}
	f := New(Config{Trace: mdfu.HostToClient, Debug: true})

	var recs []trace.Record
	for i := 0; i < 3; i++ {
		recs = append(recs, transaction(f, false, false, nil, float64(i))...)
	}
	recs = append(recs, transaction(f, false, true, mdfu.EncodeFrame(pkt), 3)...)

	if len(recs) != 4 {
		t.Fatalf("debug on: got %d records: %+v", len(recs), recs)
	}
	for i := 0; i < 3; i++ {
		if recs[i].Type != trace.RecordBusy || recs[i].Label != "Client busy" {
			t.Fatalf("poll %d: %+v", i, recs[i])
		}
	}
	if recs[3].Type != trace.RecordPacket || recs[3].Label != "Start Transfer" {
		t.Fatalf("packet after polls: %+v", recs[3])
	}
}

func TestLengthThenResponseFlow(t *testing.T) {
	pkt := mdfu.Packet{Dir: mdfu.ClientToHost, SequenceNumber: 2, Code: mdfu.StatusSuccess, Payload: []byte{0x02}}
	frame := mdfu.EncodeFrame(pkt)
	f := New(Config{Trace: mdfu.ClientToHost})

	recs := transaction(f, true, true, lengthFrame(len(frame)), 0)
	if len(recs) != 1 || recs[0].Type != trace.RecordLength {
		t.Fatalf("length records: %+v", recs)
	}
	recs = transaction(f, true, true, responseFrame(pkt), 1)
	if len(recs) != 1 || recs[0].Type != trace.RecordPacket || recs[0].Label != "Success" {
		t.Fatalf("response records: %+v", recs)
	}
	if recs[0].Fields["image_state"] != "Invalid" {
		t.Fatalf("success payload detail: %v", recs[0].Fields)
	}
}

func TestLengthMismatchRejectsResponse(t *testing.T) {
	pkt := mdfu.Packet{Dir: mdfu.ClientToHost, Code: mdfu.StatusSuccess, Payload: []byte{1, 2, 3, 4}}
	f := New(Config{Trace: mdfu.ClientToHost})

	transaction(f, true, true, lengthFrame(3), 0)
	recs := transaction(f, true, true, responseFrame(pkt), 1)
	if len(recs) != 1 || recs[0].Label != "Length mismatch" {
		t.Fatalf("records: %+v", recs)
	}
}

func TestNotReadyReadPoll(t *testing.T) {
	f := New(Config{Trace: mdfu.ClientToHost, Debug: true})
	recs := transaction(f, true, true, []byte{0x00, 0x00, 0x00}, 0)
	if len(recs) != 1 || recs[0].Type != trace.RecordBusy || recs[0].Label != "Response not ready" {
		t.Fatalf("records: %+v", recs)
	}
	f = New(Config{Trace: mdfu.ClientToHost, Debug: false})
	if recs := transaction(f, true, true, []byte{0x00, 0x00, 0x00}, 0); recs != nil {
		t.Fatalf("not-ready poll surfaced without debug: %+v", recs)
	}
}

func TestDirectionIsolation(t *testing.T) {
	cmd := mdfu.Packet{Dir: mdfu.HostToClient, Code: mdfu.CmdEndTransfer}
	rsp := mdfu.Packet{Dir: mdfu.ClientToHost, Code: mdfu.StatusSuccess}

	host := New(Config{Trace: mdfu.HostToClient})
	client := New(Config{Trace: mdfu.ClientToHost})

	if recs := transaction(host, true, true, responseFrame(rsp), 0); recs != nil {
		t.Fatalf("host instance decoded a read: %+v", recs)
	}
	if recs := transaction(client, false, true, mdfu.EncodeFrame(cmd), 0); recs != nil {
		t.Fatalf("client instance decoded a write: %+v", recs)
	}
}

func TestBusyPollsDoNotDesynchronizeDeclaredLength(t *testing.T) {
	pkt := mdfu.Packet{Dir: mdfu.ClientToHost, Code: mdfu.StatusSuccess}
	frame := mdfu.EncodeFrame(pkt)
	f := New(Config{Trace: mdfu.ClientToHost})

	transaction(f, true, true, lengthFrame(len(frame)), 0)
	// Intervening busy polls must leave the declared length pending.
	transaction(f, true, false, nil, 1)
	transaction(f, true, true, []byte{0x00}, 2)
	recs := transaction(f, true, true, responseFrame(pkt), 3)
	if len(recs) != 1 || recs[0].Type != trace.RecordPacket {
		t.Fatalf("records: %+v", recs)
	}
}
