// Package prproof implements the p_r / pr_proof return-address scheme
// (spec.md §4.8): a non-interactive Schnorr proof of knowledge of the
// mask-difference Δ committed to by p_r = Δ·G, surfaced so the
// return-address mechanism (spec.md §4.9's F[i] computation) can be
// verified without revealing Δ itself.
package prproof

import (
	"salvium/field"
	"salvium/xerrors"
)

// Proof is the three-scalar pr_proof wire value (spec.md §4.9: "three
// 32-byte scalars R/z1/z2"). Z2 is reserved and always the zero scalar in
// this version of the protocol.
type Proof struct {
	R  field.Point
	Z1 field.Scalar
	Z2 field.Scalar
}

// Generate proves knowledge of delta such that pr = delta*G, where pr is
// typically the commitment-mask difference Σ pseudoMasks - Σ outputMasks
// closed by the transaction builder (spec.md §4.12 step 7).
func Generate(delta field.Scalar) Proof {
	pr := field.ScalarMultBase(delta)
	r := field.RandomScalar()
	R := field.ScalarMultBase(r)
	c := challenge(R, pr)
	z1 := r.Add(c.Mul(delta))
	return Proof{R: R, Z1: z1, Z2: field.ScZero()}
}

// PR returns the p_r group element a Proof was generated for, recomputing
// it from the caller-supplied delta (the builder keeps both delta and the
// proof; the validator instead recovers pr from the transaction's own
// pseudo-out/outPk balance and calls Verify directly against it).
func PR(delta field.Scalar) field.Point {
	return field.ScalarMultBase(delta)
}

// Verify reports whether proof is a valid Schnorr proof of knowledge of
// the discrete log of pr base G.
func Verify(pr field.Point, proof Proof) error {
	c := challenge(proof.R, pr)
	lhs := field.ScalarMultBase(proof.Z1)
	rhs := proof.R.Add(pr.ScalarMult(c))
	if !lhs.Equal(rhs) {
		return xerrors.New(xerrors.SignatureFailure, "pr_proof Schnorr equation does not hold")
	}
	return nil
}

// challenge computes c = H_s(R ‖ p_r).
func challenge(r, pr field.Point) field.Scalar {
	rb := r.Bytes()
	prb := pr.Bytes()
	return field.HashToScalar(rb[:], prb[:])
}
