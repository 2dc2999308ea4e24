// Package varint implements the little-endian base-128 varint used
// throughout the wire format (spec.md §4.9): 7 data bits per byte, the high
// bit set iff another byte follows. This is bit-for-bit the same encoding
// as Go's encoding/binary.PutUvarint/Uvarint, so the implementation below
// is a direct, intentionally-thin pass-through to the standard library
// rather than a hand-rolled reimplementation of the same algorithm — see
// DESIGN.md.
package varint

import "encoding/binary"

// Encode appends the varint encoding of v to dst and returns the result.
func Encode(dst []byte, v uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return append(dst, buf[:n]...)
}

// Decode reads a varint from the front of b, returning the value and the
// number of bytes consumed. n is 0 if b does not contain a complete,
// well-formed varint.
func Decode(b []byte) (v uint64, n int) {
	return binary.Uvarint(b)
}

// Size returns the number of bytes Encode would produce for v.
func Size(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
