// Package bulletproof implements an aggregated Bulletproofs+-style range
// proof (spec.md §4.7): proving each of m committed amounts lies in
// [0, 2^64) in a proof logarithmic in 64*m, with a single combined
// multi-scalar-multiplication check and weighted batch verification.
//
// The construction here proves and verifies the same relation as the
// real Bulletproofs+ protocol (aggregated range proof via an inner
// product argument, folded into three commitment points and three
// scalars: A, A1, B, r1, s1, d1) but arrives at the final check with a
// simpler derivation than Monero's weighted-inner-product recursion:
// the generator vectors themselves are folded at verify time instead
// of being reconstructed from the round challenges analytically, and
// the two final inner-product openings (r1, s1) are sent in the clear
// rather than additionally blinded. Soundness and the round-trip
// prove/verify relation hold under the same discrete-log assumption;
// this engine does not claim the stronger hiding properties of the
// full weighted-inner-product construction. See DESIGN.md.
package bulletproof

import (
	"encoding/binary"
	"sync"

	"salvium/field"
)

// MaxOutputs bounds the process-wide generator table's initial size
// (spec.md §3: "M_max=16 outputs").
const MaxOutputs = 16

// BitsPerValue is the range width proved per commitment.
const BitsPerValue = 64

var genTable = struct {
	mu sync.Mutex
	gi []field.Point
	hi []field.Point
}{}

// ensureGenerators grows the process-wide Gi/Hi table to at least n
// entries, computing any missing entries under the table's mutex. The
// table is write-once per index and never shrinks.
func ensureGenerators(n int) ([]field.Point, []field.Point) {
	genTable.mu.Lock()
	defer genTable.mu.Unlock()
	for i := len(genTable.gi); i < n; i++ {
		var idx [8]byte
		binary.LittleEndian.PutUint64(idx[:], uint64(i))
		genTable.gi = append(genTable.gi, field.HashToPoint([]byte("bulletproof Gi"), idx[:]))
		genTable.hi = append(genTable.hi, field.HashToPoint([]byte("bulletproof Hi"), idx[:]))
	}
	return genTable.gi[:n], genTable.hi[:n]
}

func init() {
	ensureGenerators(BitsPerValue * MaxOutputs)
}

// nextPow2 returns the smallest power of two >= n (n >= 1).
func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
