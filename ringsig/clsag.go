package ringsig

import (
	"salvium/field"
	"salvium/xerrors"
)

// CLSAGSignature is a single-generator CLSAG ring signature (spec.md §3,
// §4.5). D is stored pre-multiplied by ⅛, per the on-chain convention;
// verification multiplies it back by 8 to recover the true commitment
// image.
type CLSAGSignature struct {
	S  []field.Scalar
	C1 field.Scalar
	I  field.Point
	D  field.Point
}

// SignCLSAG produces a CLSAG ring signature over message, proving
// knowledge of spendSecret (the discrete log of ring[realIndex]) and
// maskDiff = mask - pseudoMask (the real row's commitment difference
// opening), without revealing realIndex.
func SignCLSAG(message [32]byte, ring, ringCommitments []field.Point, realIndex int, spendSecret, maskDiff field.Scalar, pseudoOut field.Point) (*CLSAGSignature, error) {
	if err := validateShapes(ring, ringCommitments, realIndex); err != nil {
		return nil, err
	}
	n := len(ring)
	hp := hashRingPoints(ring)
	cdiff := commitmentDiffs(ringCommitments, pseudoOut)

	keyImage := hp[realIndex].ScalarMult(spendSecret)
	commitmentImageTrue := hp[realIndex].ScalarMult(maskDiff)
	commitmentImage := commitmentImageTrue.ScalarMult(invEight)

	muP, muC := aggregationScalars(ring, ringCommitments, keyImage, commitmentImage, pseudoOut)

	alpha := field.RandomScalar()
	lReal := field.ScalarMultBase(alpha)
	rReal := hp[realIndex].ScalarMult(alpha)

	s := make([]field.Scalar, n)

	if n == 1 {
		c1 := roundChallenge(ring, ringCommitments, pseudoOut, message, lReal, rReal)
		closing := muP.Mul(spendSecret).Add(muC.Mul(maskDiff))
		s[0] = alpha.Sub(c1.Mul(closing))
		return &CLSAGSignature{S: s, C1: c1, I: keyImage, D: commitmentImage}, nil
	}

	c := roundChallenge(ring, ringCommitments, pseudoOut, message, lReal, rReal)
	var c1 field.Scalar
	current := (realIndex + 1) % n
	if current == 0 {
		c1 = c
	}
	for step := 0; step < n-1; step++ {
		s[current] = field.RandomScalar()

		cMuP := c.Mul(muP)
		cMuC := c.Mul(muC)
		li := field.ScalarMultBase(s[current]).Add(ring[current].ScalarMult(cMuP)).Add(cdiff[current].ScalarMult(cMuC))
		ri := hp[current].ScalarMult(s[current]).Add(keyImage.ScalarMult(cMuP)).Add(commitmentImageTrue.ScalarMult(cMuC))

		c = roundChallenge(ring, ringCommitments, pseudoOut, message, li, ri)
		next := (current + 1) % n
		if next == 0 {
			c1 = c
		}
		current = next
	}

	closing := muP.Mul(spendSecret).Add(muC.Mul(maskDiff))
	s[realIndex] = alpha.Sub(c.Mul(closing))

	return &CLSAGSignature{S: s, C1: c1, I: keyImage, D: commitmentImage}, nil
}

// VerifyCLSAG reports whether sig is a valid CLSAG over message for the
// given ring/ringCommitments/pseudoOut.
func VerifyCLSAG(message [32]byte, ring, ringCommitments []field.Point, pseudoOut field.Point, sig *CLSAGSignature) error {
	n := len(ring)
	if n == 0 || len(ringCommitments) != n {
		return xerrors.New(xerrors.RingShapeError, "ring and commitment vectors must be the same non-zero length")
	}
	if len(sig.S) != n {
		return xerrors.New(xerrors.RingShapeError, "response vector length does not match ring size")
	}

	hp := hashRingPoints(ring)
	cdiff := commitmentDiffs(ringCommitments, pseudoOut)
	commitmentImageTrue := sig.D.ScalarMult(field.ScEight())

	muP, muC := aggregationScalars(ring, ringCommitments, sig.I, sig.D, pseudoOut)

	c := sig.C1
	for i := 0; i < n; i++ {
		cMuP := c.Mul(muP)
		cMuC := c.Mul(muC)
		li := field.ScalarMultBase(sig.S[i]).Add(ring[i].ScalarMult(cMuP)).Add(cdiff[i].ScalarMult(cMuC))
		ri := hp[i].ScalarMult(sig.S[i]).Add(sig.I.ScalarMult(cMuP)).Add(commitmentImageTrue.ScalarMult(cMuC))
		c = roundChallenge(ring, ringCommitments, pseudoOut, message, li, ri)
	}

	if !c.Equal(sig.C1) {
		return xerrors.New(xerrors.SignatureFailure, "CLSAG closing challenge does not match c1")
	}
	return nil
}
