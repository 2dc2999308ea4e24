package serialize

import (
	"salvium/bulletproof"
	"salvium/field"
	"salvium/types"
)

// PrefixHash returns keccak(prefixBytes).
func PrefixHash(prefixBytes []byte) [32]byte {
	return field.Keccak256(prefixBytes)
}

// RctBaseHash returns keccak(rctBaseBytes).
func RctBaseHash(rctBaseBytes []byte) [32]byte {
	return field.Keccak256(rctBaseBytes)
}

// PrunableHash returns keccak(prunableBytes).
func PrunableHash(prunableBytes []byte) [32]byte {
	return field.Keccak256(prunableBytes)
}

// bulletproofComponentsHash returns keccak(A ‖ A1 ‖ B ‖ r1 ‖ s1 ‖ d1 ‖
// L[…] ‖ R[…]), the exact component hash the pre-MLSAG message folds in
// (spec.md §4.9) — unlike EncodeBulletproof, it carries no length prefix
// for L since the message hash is computed before the prunable section
// (and its length prefix) exists.
func bulletproofComponentsHash(p *bulletproof.Proof) [32]byte {
	if p == nil {
		// Audit transactions carry no outputs and therefore no range
		// proof (spec.md §8 scenario 5); the pre-MLSAG message still
		// needs a deterministic placeholder for this component.
		return field.Keccak256([]byte("no-bulletproof"))
	}
	ab := p.A.Bytes()
	a1b := p.A1.Bytes()
	bb := p.B.Bytes()
	r1b := p.R1.Bytes()
	s1b := p.S1.Bytes()
	d1b := p.D1.Bytes()

	parts := [][]byte{ab[:], a1b[:], bb[:], r1b[:], s1b[:], d1b[:]}
	for _, l := range p.L {
		lb := l.Bytes()
		parts = append(parts, lb[:])
	}
	for _, r := range p.R {
		rb := r.Bytes()
		parts = append(parts, rb[:])
	}
	return field.Keccak256(parts...)
}

// PreMLSAGMessage returns the message CLSAG/TCLSAG sign over (spec.md
// §4.9): keccak(prefix_hash ‖ keccak(rct_base) ‖ keccak(bulletproof
// components)).
func PreMLSAGMessage(prefixHash [32]byte, rctBaseBytes []byte, proof *bulletproof.Proof) [32]byte {
	baseHash := RctBaseHash(rctBaseBytes)
	bpHash := bulletproofComponentsHash(proof)
	return field.Keccak256(prefixHash[:], baseHash[:], bpHash[:])
}

// TransactionHash returns the transaction identifier: keccak(prefix_hash
// ‖ rct_base_hash ‖ prunable_hash), or just prefix_hash for a coinbase
// (type-null RCT) transaction (spec.md §4.9).
func TransactionHash(prefixHash, rctBaseHash, prunableHash [32]byte, isCoinbase bool) [32]byte {
	if isCoinbase {
		return prefixHash
	}
	return field.Keccak256(prefixHash[:], rctBaseHash[:], prunableHash[:])
}
