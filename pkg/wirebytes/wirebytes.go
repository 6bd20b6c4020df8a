// Package wirebytes holds the byte-level primitives shared by the transport
// and codec layers: the XOR checksum mandated by the vendor protocol, the
// bit-0-first flag decomposition used by status replies, and small
// byte/hex conversions.
package wirebytes

import "fmt"

// XOR computes the vendor checksum: the running XOR of every byte in data.
func XOR(data ...byte) byte {
	var sum byte
	for _, b := range data {
		sum ^= b
	}
	return sum
}

// BitArray decomposes a byte into its 8 bits, bit 0 first. This ordering is
// load-bearing: status-reply flag tables index into the result by the bit
// position documented in the vendor's field table, not by byte order.
func BitArray(b byte) [8]bool {
	var bits [8]bool
	for i := 0; i < 8; i++ {
		bits[i] = b&(1<<uint(i)) != 0
	}
	return bits
}

// HexString renders bytes as a space-separated hex dump, e.g. "0x1 0xff".
func HexString(data []byte) string {
	out := ""
	for i, b := range data {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("0x%x", b)
	}
	return out
}

// PadRight truncates or NUL-pads data to exactly width bytes.
func PadRight(data []byte, width int) []byte {
	out := make([]byte, width)
	copy(out, data)
	return out
}

// TrimNUL trims trailing NUL bytes, mirroring Python's rstrip('\x00').
func TrimNUL(data []byte) []byte {
	end := len(data)
	for end > 0 && data[end-1] == 0 {
		end--
	}
	return data[:end]
}
