package mdfu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
)

// Client info parameter types carried in a GetClientInfo response.
const (
	paramProtocolVersion       uint8 = 1
	paramBufferInfo            uint8 = 2
	paramCommandTimeouts       uint8 = 3
	paramInterTransactionDelay uint8 = 4
)

const (
	versionSize         = 3
	versionInternalSize = 4
	bufferInfoSize      = 3
	timeoutEntrySize    = 3
	interTxDelaySize    = 4

	// Timeout values are carried in 0.1 s units.
	timeoutLSBsPerSecond = 10
)

var ErrClientInfo = errors.New("mdfu: invalid client info")

// ClientInfo is the decoded parameter list of a GetClientInfo response.
type ClientInfo struct {
	ProtocolVersion string
	BufferSize      int
	BufferCount     int
	DefaultTimeout  float64
	// CommandTimeouts maps command codes to timeouts in seconds.
	CommandTimeouts map[uint8]float64
	// InterTransactionDelay in seconds; negative when the client did not
	// report one.
	InterTransactionDelay float64
}

// ParseClientInfo decodes the TLV-style parameter list of a client info
// payload. Version, buffer info and a default timeout are mandatory.
func ParseClientInfo(data []byte) (ClientInfo, error) {
	info := ClientInfo{InterTransactionDelay: -1}
	var haveVersion, haveBuffer, haveDefault bool

	for i := 0; i < len(data); {
		if len(data)-i < 2 {
			return ClientInfo{}, fmt.Errorf("%w: truncated parameter header", ErrClientInfo)
		}
		ptype := data[i]
		plen := int(data[i+1])
		i += 2
		if len(data)-i < plen {
			return ClientInfo{}, fmt.Errorf("%w: parameter 0x%02x value truncated", ErrClientInfo, ptype)
		}
		value := data[i : i+plen]
		i += plen

		switch ptype {
		case paramProtocolVersion:
			switch plen {
			case versionSize:
				info.ProtocolVersion = fmt.Sprintf("%d.%d.%d", value[0], value[1], value[2])
			case versionInternalSize:
				info.ProtocolVersion = fmt.Sprintf("%d.%d.%d-alpha%d", value[0], value[1], value[2], value[3])
			default:
				return ClientInfo{}, fmt.Errorf("%w: version parameter length %d", ErrClientInfo, plen)
			}
			haveVersion = true
		case paramBufferInfo:
			if plen != bufferInfoSize {
				return ClientInfo{}, fmt.Errorf("%w: buffer info parameter length %d", ErrClientInfo, plen)
			}
			info.BufferSize = int(binary.LittleEndian.Uint16(value[0:2]))
			info.BufferCount = int(value[2])
			haveBuffer = true
		case paramCommandTimeouts:
			if plen == 0 || plen%timeoutEntrySize != 0 {
				return ClientInfo{}, fmt.Errorf("%w: timeouts parameter length %d", ErrClientInfo, plen)
			}
			info.CommandTimeouts = make(map[uint8]float64)
			for off := 0; off < plen; off += timeoutEntrySize {
				cmd := value[off]
				timeout := float64(binary.LittleEndian.Uint16(value[off+1:off+3])) / timeoutLSBsPerSecond
				if cmd == 0 {
					info.DefaultTimeout = timeout
					haveDefault = true
					continue
				}
				if _, ok := commandTable[cmd]; !ok {
					return ClientInfo{}, fmt.Errorf("%w: timeout for unknown command 0x%02x", ErrClientInfo, cmd)
				}
				info.CommandTimeouts[cmd] = timeout
			}
		case paramInterTransactionDelay:
			if plen != interTxDelaySize {
				return ClientInfo{}, fmt.Errorf("%w: inter-transaction delay length %d", ErrClientInfo, plen)
			}
			info.InterTransactionDelay = float64(binary.LittleEndian.Uint32(value)) / 1e9
		default:
			return ClientInfo{}, fmt.Errorf("%w: unknown parameter type 0x%02x", ErrClientInfo, ptype)
		}
	}

	if !haveVersion {
		return ClientInfo{}, fmt.Errorf("%w: mandatory protocol version missing", ErrClientInfo)
	}
	if !haveBuffer {
		return ClientInfo{}, fmt.Errorf("%w: mandatory buffer info missing", ErrClientInfo)
	}
	if !haveDefault {
		return ClientInfo{}, fmt.Errorf("%w: mandatory default timeout missing", ErrClientInfo)
	}
	return info, nil
}

// Encode builds the on-wire parameter list. Inverse of ParseClientInfo.
func (c ClientInfo) Encode() []byte {
	data := []byte{paramBufferInfo, bufferInfoSize}
	data = binary.LittleEndian.AppendUint16(data, uint16(c.BufferSize))
	data = append(data, byte(c.BufferCount))

	version := []byte{1, 0, 0}
	if c.ProtocolVersion != "" {
		var major, minor, patch int
		fmt.Sscanf(c.ProtocolVersion, "%d.%d.%d", &major, &minor, &patch)
		version = []byte{byte(major), byte(minor), byte(patch)}
	}
	data = append(data, paramProtocolVersion, versionSize)
	data = append(data, version...)

	cmds := make([]uint8, 0, len(c.CommandTimeouts))
	for cmd := range c.CommandTimeouts {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i] < cmds[j] })
	data = append(data, paramCommandTimeouts, byte((1+len(cmds))*timeoutEntrySize))
	data = append(data, 0)
	data = binary.LittleEndian.AppendUint16(data, uint16(math.Round(c.DefaultTimeout*timeoutLSBsPerSecond)))
	for _, cmd := range cmds {
		data = append(data, cmd)
		data = binary.LittleEndian.AppendUint16(data, uint16(math.Round(c.CommandTimeouts[cmd]*timeoutLSBsPerSecond)))
	}

	if c.InterTransactionDelay >= 0 {
		data = append(data, paramInterTransactionDelay, interTxDelaySize)
		data = binary.LittleEndian.AppendUint32(data, uint32(math.Round(c.InterTransactionDelay*1e9)))
	}
	return data
}

// Fields renders the client info as display fields for an output record.
func (c ClientInfo) Fields() map[string]string {
	fields := map[string]string{
		"client_protocol_version": c.ProtocolVersion,
		"client_buffer_size":      fmt.Sprintf("%d", c.BufferSize),
		"client_buffer_count":     fmt.Sprintf("%d", c.BufferCount),
		"client_default_timeout":  fmt.Sprintf("%.1fs", c.DefaultTimeout),
	}
	for cmd, timeout := range c.CommandTimeouts {
		key := fmt.Sprintf("client_timeout_%s", Classify(HostToClient, cmd).Name)
		fields[key] = fmt.Sprintf("%.1fs", timeout)
	}
	if c.InterTransactionDelay >= 0 {
		fields["client_inter_transaction_delay"] = fmt.Sprintf("%.9fs", c.InterTransactionDelay)
	}
	return fields
}
