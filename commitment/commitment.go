// Package commitment implements Pedersen amount commitments and mask
// derivation (spec.md §4.2).
package commitment

import "salvium/field"

// Commit returns C = mask*G + amount*H.
func Commit(amount uint64, mask field.Scalar) field.Point {
	amountScalar, err := field.ScalarFromUint64(amount)
	if err != nil {
		panic("commitment: amount encoding failed: " + err.Error())
	}
	return field.ScalarMultBase(mask).Add(field.H().ScalarMult(amountScalar))
}

// ZeroCommit returns 1*G + amount*H, matching the legacy rct::zeroCommit
// convention of using the scalar "one" as the mask.
func ZeroCommit(amount uint64) field.Point {
	return Commit(amount, field.ScOne())
}

// GenCommitmentMask derives the mask used for a legacy output's commitment
// from its derivation-to-scalar: H_s("commitment_mask" ‖ scalar). CARROT
// outputs take their mask from carrot.AmountBlindingFactor instead.
func GenCommitmentMask(scalar field.Scalar) field.Scalar {
	b := scalar.Bytes()
	return field.HashToScalar([]byte("commitment_mask"), b[:])
}
