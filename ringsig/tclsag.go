package ringsig

import (
	"salvium/field"
	"salvium/xerrors"
)

// TCLSAGSignature is the twin-generator CLSAG used for CARROT inputs
// (spec.md §3, §4.6): each row carries two response scalars, one over G
// and one over the TCLSAG-only generator T.
type TCLSAGSignature struct {
	Sx []field.Scalar
	Sy []field.Scalar
	C1 field.Scalar
	I  field.Point
	D  field.Point
}

// SignTCLSAG signs with real-row secrets (x, y) such that ring[realIndex]
// = x*G + y*T. Non-CARROT inputs being folded into a TCLSAG ring pass
// y = 0 (spec.md §4.6).
func SignTCLSAG(message [32]byte, ring, ringCommitments []field.Point, realIndex int, x, y, maskDiff field.Scalar, pseudoOut field.Point) (*TCLSAGSignature, error) {
	if err := validateShapes(ring, ringCommitments, realIndex); err != nil {
		return nil, err
	}
	n := len(ring)
	hp := hashRingPoints(ring)
	cdiff := commitmentDiffs(ringCommitments, pseudoOut)

	keyImage := hp[realIndex].ScalarMult(x)
	commitmentImageTrue := hp[realIndex].ScalarMult(maskDiff)
	commitmentImage := commitmentImageTrue.ScalarMult(invEight)

	muP, muC := aggregationScalars(ring, ringCommitments, keyImage, commitmentImage, pseudoOut)

	a := field.RandomScalar()
	b := field.RandomScalar()
	lReal := field.ScalarMultBase(a).Add(field.T().ScalarMult(b))
	rReal := hp[realIndex].ScalarMult(a)

	sx := make([]field.Scalar, n)
	sy := make([]field.Scalar, n)

	closing := func(cc field.Scalar) (field.Scalar, field.Scalar) {
		sxReal := a.Sub(cc.Mul(muP.Mul(x).Add(muC.Mul(maskDiff))))
		syReal := b.Sub(cc.Mul(muP.Mul(y)))
		return sxReal, syReal
	}

	if n == 1 {
		c1 := roundChallenge(ring, ringCommitments, pseudoOut, message, lReal, rReal)
		sx[0], sy[0] = closing(c1)
		return &TCLSAGSignature{Sx: sx, Sy: sy, C1: c1, I: keyImage, D: commitmentImage}, nil
	}

	c := roundChallenge(ring, ringCommitments, pseudoOut, message, lReal, rReal)
	var c1 field.Scalar
	current := (realIndex + 1) % n
	if current == 0 {
		c1 = c
	}
	for step := 0; step < n-1; step++ {
		sx[current] = field.RandomScalar()
		sy[current] = field.RandomScalar()

		cMuP := c.Mul(muP)
		cMuC := c.Mul(muC)
		li := field.ScalarMultBase(sx[current]).Add(field.T().ScalarMult(sy[current])).
			Add(ring[current].ScalarMult(cMuP)).Add(cdiff[current].ScalarMult(cMuC))
		ri := hp[current].ScalarMult(sx[current]).Add(keyImage.ScalarMult(cMuP)).Add(commitmentImageTrue.ScalarMult(cMuC))

		c = roundChallenge(ring, ringCommitments, pseudoOut, message, li, ri)
		next := (current + 1) % n
		if next == 0 {
			c1 = c
		}
		current = next
	}

	sx[realIndex], sy[realIndex] = closing(c)

	return &TCLSAGSignature{Sx: sx, Sy: sy, C1: c1, I: keyImage, D: commitmentImage}, nil
}

// VerifyTCLSAG reports whether sig is a valid TCLSAG over message.
func VerifyTCLSAG(message [32]byte, ring, ringCommitments []field.Point, pseudoOut field.Point, sig *TCLSAGSignature) error {
	n := len(ring)
	if n == 0 || len(ringCommitments) != n {
		return xerrors.New(xerrors.RingShapeError, "ring and commitment vectors must be the same non-zero length")
	}
	if len(sig.Sx) != n || len(sig.Sy) != n {
		return xerrors.New(xerrors.RingShapeError, "response vectors length does not match ring size")
	}

	hp := hashRingPoints(ring)
	cdiff := commitmentDiffs(ringCommitments, pseudoOut)
	commitmentImageTrue := sig.D.ScalarMult(field.ScEight())

	muP, muC := aggregationScalars(ring, ringCommitments, sig.I, sig.D, pseudoOut)

	c := sig.C1
	for i := 0; i < n; i++ {
		cMuP := c.Mul(muP)
		cMuC := c.Mul(muC)
		li := field.ScalarMultBase(sig.Sx[i]).Add(field.T().ScalarMult(sig.Sy[i])).
			Add(ring[i].ScalarMult(cMuP)).Add(cdiff[i].ScalarMult(cMuC))
		ri := hp[i].ScalarMult(sig.Sx[i]).Add(sig.I.ScalarMult(cMuP)).Add(commitmentImageTrue.ScalarMult(cMuC))
		c = roundChallenge(ring, ringCommitments, pseudoOut, message, li, ri)
	}

	if !c.Equal(sig.C1) {
		return xerrors.New(xerrors.SignatureFailure, "TCLSAG closing challenge does not match c1")
	}
	return nil
}
