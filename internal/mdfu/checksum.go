package mdfu

// FCSSize is the on-wire size of the frame check sequence.
const FCSSize = 2

// Checksum computes the MDFU frame check sequence: the inverted sum of
// little-endian 16-bit words over data. Odd-length input is zero-padded
// before summation.
func Checksum(data []byte) uint16 {
	var sum uint32
	for i := 0; i < len(data); i += 2 {
		w := uint32(data[i])
		if i+1 < len(data) {
			w |= uint32(data[i+1]) << 8
		}
		sum += w
	}
	return ^uint16(sum)
}

// VerifyChecksum reports whether fcs matches the checksum of data.
func VerifyChecksum(data []byte, fcs uint16) bool {
	return Checksum(data) == fcs
}
