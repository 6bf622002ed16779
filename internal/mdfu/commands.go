package mdfu

import "fmt"

// Command codes (host to client).
const (
	CmdGetClientInfo uint8 = 0x01
	CmdStartTransfer uint8 = 0x02
	CmdWriteChunk    uint8 = 0x03
	CmdGetImageState uint8 = 0x04
	CmdEndTransfer   uint8 = 0x05
)

// Status codes (client to host).
const (
	StatusSuccess           uint8 = 0x01
	StatusCmdNotSupported   uint8 = 0x02
	StatusNotAuthorized     uint8 = 0x03
	StatusTransportFailure  uint8 = 0x04
	StatusAbortFileTransfer uint8 = 0x05
)

// Descriptor labels one command or status code. Detail, when set, decodes
// the payload sub-layout into display fields; it must tolerate any input.
type Descriptor struct {
	Name   string
	Known  bool
	Detail func(payload []byte) map[string]string
}

var commandTable = map[uint8]Descriptor{
	CmdGetClientInfo: {Name: "Get Client Info", Known: true},
	CmdStartTransfer: {Name: "Start Transfer", Known: true},
	CmdWriteChunk:    {Name: "Write Chunk", Known: true, Detail: chunkDetail},
	CmdGetImageState: {Name: "Get Image State", Known: true},
	CmdEndTransfer:   {Name: "End Transfer", Known: true},
}

var statusTable map[uint8]Descriptor

func init() {
	statusTable = map[uint8]Descriptor{
		StatusSuccess:           {Name: "Success", Known: true, Detail: successDetail},
		StatusCmdNotSupported:   {Name: "Command Not Supported", Known: true},
		StatusNotAuthorized:     {Name: "Not Authorized", Known: true},
		StatusTransportFailure:  {Name: "Transport Failure", Known: true, Detail: transportFailureDetail},
		StatusAbortFileTransfer: {Name: "Abort File Transfer", Known: true, Detail: abortDetail},
	}
}

// Classify maps a direction and code to its descriptor. Codes the table does
// not know classify as unknown with a generic label; new protocol versions
// must never break decoding.
func Classify(dir Direction, code uint8) Descriptor {
	if dir == HostToClient {
		if d, ok := commandTable[code]; ok {
			return d
		}
		return Descriptor{Name: fmt.Sprintf("Unknown Command 0x%02X", code)}
	}
	if d, ok := statusTable[code]; ok {
		return d
	}
	return Descriptor{Name: fmt.Sprintf("Unknown Status 0x%02X", code)}
}

var imageStateNames = map[uint8]string{
	1: "Valid",
	2: "Invalid",
}

var abortCauseNames = map[uint8]string{
	0: "Generic problem encountered by client",
	1: "Generic problem with the update file",
	2: "The update file is not compatible with the client device ID",
	3: "An invalid address is present in the update file",
	4: "Client memory did not properly erase",
	5: "Client memory did not properly write",
	6: "Client memory did not properly read",
	7: "Client did not allow changing to the application version in the update file",
}

var transportFailureCauseNames = map[uint8]string{
	0: "Invalid checksum detected",
	1: "Packet was too large",
}

func chunkDetail(payload []byte) map[string]string {
	return map[string]string{"chunk_size": fmt.Sprintf("%d", len(payload))}
}

func abortDetail(payload []byte) map[string]string {
	if len(payload) != 1 {
		return nil
	}
	cause, ok := abortCauseNames[payload[0]]
	if !ok {
		cause = fmt.Sprintf("Unknown cause 0x%02X", payload[0])
	}
	return map[string]string{"abort_cause": cause}
}

func transportFailureDetail(payload []byte) map[string]string {
	if len(payload) != 1 {
		return nil
	}
	cause, ok := transportFailureCauseNames[payload[0]]
	if !ok {
		cause = fmt.Sprintf("Unknown cause 0x%02X", payload[0])
	}
	return map[string]string{"failure_cause": cause}
}

// successDetail interprets Success payloads on a best-effort basis. The
// status packet does not name the command it answers, and direction-isolated
// sessions cannot peek at the opposite stream, so the interpretation is
// attempted from shape alone: a client-info parameter list or a one-byte
// image state. Anything else stays raw.
func successDetail(payload []byte) map[string]string {
	if len(payload) == 0 {
		return nil
	}
	if info, err := ParseClientInfo(payload); err == nil {
		return info.Fields()
	}
	if len(payload) == 1 {
		if state, ok := imageStateNames[payload[0]]; ok {
			return map[string]string{"image_state": state}
		}
	}
	return nil
}
