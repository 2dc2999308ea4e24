// Package ringsig implements CLSAG and TCLSAG (twin-generator CLSAG) ring
// signatures (spec.md §4.5, §4.6), including the aggregated key-image /
// commitment-image construction shared by both.
package ringsig

import (
	"salvium/field"
	"salvium/xerrors"
)

// hashRingPoints computes hash_to_point(P[i]) for every ring member, the
// per-row generator used for key images and the R component.
func hashRingPoints(ring []field.Point) []field.Point {
	out := make([]field.Point, len(ring))
	for i, p := range ring {
		pb := p.Bytes()
		out[i] = field.HashToPoint(pb[:])
	}
	return out
}

// KeyImage returns hash_to_point(pub)*secret, the key image a CLSAG/TCLSAG
// signature over a ring containing pub at secret's index will produce.
// Exported so the builder can compute it up front (to feed CARROT's
// input-context derivation) without signing the ring twice.
func KeyImage(pub field.Point, secret field.Scalar) field.Point {
	pb := pub.Bytes()
	return field.HashToPoint(pb[:]).ScalarMult(secret)
}

func commitmentDiffs(ringCommitments []field.Point, pseudoOut field.Point) []field.Point {
	out := make([]field.Point, len(ringCommitments))
	for i, c := range ringCommitments {
		out[i] = c.Sub(pseudoOut)
	}
	return out
}

func pointBytesAll(pts []field.Point) [][]byte {
	out := make([][]byte, len(pts))
	for i, p := range pts {
		b := p.Bytes()
		cp := make([]byte, 32)
		copy(cp, b[:])
		out[i] = cp
	}
	return out
}

// aggregationScalars returns (μ_P, μ_C) = H_s("CLSAG_agg_{0,1}" ‖ P ‖ C ‖ I
// ‖ D ‖ C').
func aggregationScalars(ring, ringCommitments []field.Point, keyImage, commitmentImage, pseudoOut field.Point) (muP, muC field.Scalar) {
	parts := make([][]byte, 0, len(ring)+len(ringCommitments)+3)
	parts = append(parts, pointBytesAll(ring)...)
	parts = append(parts, pointBytesAll(ringCommitments)...)
	ib := keyImage.Bytes()
	db := commitmentImage.Bytes()
	cb := pseudoOut.Bytes()
	parts = append(parts, ib[:], db[:], cb[:])

	muPParts := append([][]byte{[]byte("CLSAG_agg_0")}, parts...)
	muCParts := append([][]byte{[]byte("CLSAG_agg_1")}, parts...)
	muP = field.HashToScalar(muPParts...)
	muC = field.HashToScalar(muCParts...)
	return
}

// roundChallenge computes c_{i+1} = H_s("CLSAG_round" ‖ P ‖ C ‖ C' ‖ m ‖ L ‖ R).
func roundChallenge(ring, ringCommitments []field.Point, pseudoOut field.Point, message [32]byte, l, r field.Point) field.Scalar {
	parts := make([][]byte, 0, len(ring)+len(ringCommitments)+4)
	parts = append(parts, []byte("CLSAG_round"))
	parts = append(parts, pointBytesAll(ring)...)
	parts = append(parts, pointBytesAll(ringCommitments)...)
	cb := pseudoOut.Bytes()
	lb := l.Bytes()
	rb := r.Bytes()
	parts = append(parts, cb[:], message[:], lb[:], rb[:])
	return field.HashToScalar(parts...)
}

var invEight = func() field.Scalar {
	inv, err := field.ScEight().Invert()
	if err != nil {
		panic("ringsig: failed to invert 8: " + err.Error())
	}
	return inv
}()

func validateShapes(ring, ringCommitments []field.Point, realIndex int) error {
	n := len(ring)
	if n == 0 {
		return xerrors.New(xerrors.RingShapeError, "ring must have at least one member")
	}
	if len(ringCommitments) != n {
		return xerrors.New(xerrors.RingShapeError, "ring and commitment vectors must be the same length")
	}
	if realIndex < 0 || realIndex >= n {
		return xerrors.New(xerrors.RingShapeError, "real index out of range")
	}
	return nil
}
