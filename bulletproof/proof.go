package bulletproof

import (
	"math/bits"

	"salvium/commitment"
	"salvium/field"
	"salvium/xerrors"
)

// Proof is an aggregated Bulletproofs+-style range proof over m
// commitments, padded internally to the next power of two (spec.md
// §3's BulletproofPlus wire shape).
type Proof struct {
	V      []field.Point
	A      field.Point
	A1     field.Point
	B      field.Point
	R1     field.Scalar
	S1     field.Scalar
	D1     field.Scalar
	L      []field.Point
	R      []field.Point
}

// Prove builds an aggregated range proof that every amounts[j] lies in
// [0, 2^64) under commitment V[j] = masks[j]*G + amounts[j]*H.
func Prove(amounts []uint64, masks []field.Scalar) (*Proof, error) {
	m := len(amounts)
	if m == 0 || m != len(masks) {
		return nil, xerrors.New(xerrors.InvalidInput, "bulletproof: amounts and masks must be the same non-zero length")
	}
	mPad := nextPow2(m)
	n := BitsPerValue * mPad

	V := make([]field.Point, m)
	for j := range amounts {
		V[j] = commitment.Commit(amounts[j], masks[j])
	}

	Gi, Hi := ensureGenerators(n)

	aL := make([]field.Scalar, n)
	aR := make([]field.Scalar, n)
	one := field.ScOne()
	for j := 0; j < mPad; j++ {
		var amt uint64
		if j < m {
			amt = amounts[j]
		}
		bitVec := bitsOf(amt)
		for k := 0; k < BitsPerValue; k++ {
			aL[j*BitsPerValue+k] = bitVec[k]
			aR[j*BitsPerValue+k] = bitVec[k].Sub(one)
		}
	}

	alpha := field.RandomScalar()
	A := field.ScalarMultBase(alpha).Add(field.MultiScalarMult(aL, Gi)).Add(field.MultiScalarMult(aR, Hi))

	tr := newTranscript("bulletproof+")
	tr.absorbPoints(V)
	tr.absorbPoint(A)
	y := tr.challenge("y")
	z := tr.challenge("z")

	yInv, err := y.Invert()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.InvalidInput, err, "bulletproof: degenerate y challenge")
	}

	alpha1 := field.RandomScalar()
	tau1 := field.RandomScalar()
	A1 := field.ScalarMultBase(alpha1)
	B := field.ScalarMultBase(tau1)
	tr.absorbPoint(A1)
	tr.absorbPoint(B)
	e := tr.challenge("e")

	yPow := powers(y, n)
	yInvPow := powers(yInv, n)
	zPow := powers(z, mPad+2)[2:] // zPow[j] = z^(2+j)

	aLHat := make([]field.Scalar, n)
	aRHat := make([]field.Scalar, n)
	HiPrime := make([]field.Point, n)
	for i := 0; i < n; i++ {
		j := i / BitsPerValue
		k := i % BitsPerValue
		twoK, _ := field.ScalarFromUint64(uint64(1) << uint(k))
		z2d := zPow[j].Mul(twoK)

		aLHat[i] = aL[i].Sub(z)
		aRHat[i] = yPow[i].Mul(aR[i].Add(z)).Add(z2d)
		HiPrime[i] = Hi[i].ScalarMult(yInvPow[i])
	}

	tauX := field.ScZero()
	for j := 0; j < m; j++ {
		tauX = tauX.Add(zPow[j].Mul(masks[j]))
	}

	d1 := alpha.Add(e.Mul(alpha1)).Add(e.Mul(tauX)).Add(e.Mul(e).Mul(tau1))

	U := field.H().ScalarMult(e)

	a := aLHat
	b := aRHat
	G := Gi
	H := HiPrime
	var L, R []field.Point

	for len(a) > 1 {
		half := len(a) / 2
		aLo, aHi := a[:half], a[half:]
		bLo, bHi := b[:half], b[half:]
		gLo, gHi := G[:half], G[half:]
		hLo, hHi := H[:half], H[half:]

		cL := innerProduct(aLo, bHi)
		cR := innerProduct(aHi, bLo)

		Lk := field.MultiScalarMult(aLo, gHi).Add(field.MultiScalarMult(bHi, hLo)).Add(U.ScalarMult(cL))
		Rk := field.MultiScalarMult(aHi, gLo).Add(field.MultiScalarMult(bLo, hHi)).Add(U.ScalarMult(cR))
		L = append(L, Lk)
		R = append(R, Rk)

		tr.absorbPoint(Lk)
		tr.absorbPoint(Rk)
		u := tr.challenge("ipa")
		uInv, err := u.Invert()
		if err != nil {
			return nil, xerrors.Wrap(xerrors.InvalidInput, err, "bulletproof: degenerate round challenge")
		}

		newA := make([]field.Scalar, half)
		newB := make([]field.Scalar, half)
		newG := make([]field.Point, half)
		newH := make([]field.Point, half)
		for i := 0; i < half; i++ {
			newA[i] = aLo[i].Add(u.Mul(aHi[i]))
			newB[i] = bLo[i].Add(uInv.Mul(bHi[i]))
			newG[i] = gLo[i].Add(gHi[i].ScalarMult(uInv))
			newH[i] = hLo[i].Add(hHi[i].ScalarMult(u))
		}
		a, b, G, H = newA, newB, newG, newH
	}

	return &Proof{
		V: V, A: A, A1: A1, B: B,
		R1: a[0], S1: b[0], D1: d1,
		L: L, R: R,
	}, nil
}

// Verify reports whether proof is a valid aggregated range proof for V.
func Verify(V []field.Point, proof *Proof) error {
	diff, err := finalDiff(V, proof)
	if err != nil {
		return err
	}
	if !diff.Equal(field.IdentityPoint()) {
		return xerrors.New(xerrors.RangeProofFailure, "bulletproof+ final multi-scalar check failed")
	}
	return nil
}

// BatchVerify verifies a batch of aggregated range proofs in one combined
// check (spec.md §4.7): each proof's final multi-scalar-multiplication
// equation is reduced to a "difference point" that is the identity iff the
// proof is valid, and the batch sums those differences with independent
// random weights before comparing the sum to the identity. A single
// invalid proof escapes detection only if its weight happens to cancel
// against the others, which a fresh random weight per proof makes
// negligible.
func BatchVerify(Vs [][]field.Point, proofs []*Proof) error {
	if len(Vs) != len(proofs) {
		return xerrors.New(xerrors.InvalidInput, "bulletproof: commitment and proof slice length mismatch")
	}
	if len(proofs) == 0 {
		return xerrors.New(xerrors.InvalidInput, "bulletproof: empty batch")
	}

	acc := field.IdentityPoint()
	for idx, proof := range proofs {
		diff, err := finalDiff(Vs[idx], proof)
		if err != nil {
			return xerrors.Wrap(xerrors.RangeProofFailure, err, "bulletproof: batch member failed to reduce")
		}
		w := field.RandomScalar()
		acc = acc.Add(diff.ScalarMult(w))
	}
	if !acc.Equal(field.IdentityPoint()) {
		return xerrors.New(xerrors.RangeProofFailure, "bulletproof+ batch check failed")
	}
	return nil
}

// finalDiff folds proof's inner-product rounds starting from the public
// commitment P0 (see reduceCommitment) and returns P_folded minus the
// claimed opening G[0]*r1 + H[0]*s1 + U*(r1*s1). A valid proof reduces
// this to the identity point.
func finalDiff(V []field.Point, proof *Proof) (field.Point, error) {
	p0, U, G, H, tr, err := reduceCommitment(V, proof)
	if err != nil {
		return field.Point{}, err
	}

	P := p0
	for k := 0; k < len(proof.L); k++ {
		tr.absorbPoint(proof.L[k])
		tr.absorbPoint(proof.R[k])
		u := tr.challenge("ipa")
		uInv, err := u.Invert()
		if err != nil {
			return field.Point{}, xerrors.Wrap(xerrors.InvalidInput, err, "bulletproof: degenerate round challenge")
		}
		half := len(G) / 2
		gLo, gHi := G[:half], G[half:]
		hLo, hHi := H[:half], H[half:]
		newG := make([]field.Point, half)
		newH := make([]field.Point, half)
		for i := 0; i < half; i++ {
			newG[i] = gLo[i].Add(gHi[i].ScalarMult(uInv))
			newH[i] = hLo[i].Add(hHi[i].ScalarMult(u))
		}
		P = P.Add(proof.L[k].ScalarMult(uInv)).Add(proof.R[k].ScalarMult(u))
		G, H = newG, newH
	}

	if len(G) != 1 || len(H) != 1 {
		return field.Point{}, xerrors.New(xerrors.RangeProofFailure, "bulletproof: round count does not match commitment count")
	}

	rhs := G[0].ScalarMult(proof.R1).Add(H[0].ScalarMult(proof.S1)).Add(U.ScalarMult(proof.R1.Mul(proof.S1)))
	return P.Sub(rhs), nil
}

// reduceCommitment recomputes the transcript challenges y, z, e and
// collapses the secret-dependent quantities of Prove's A, A1, B, d1 and
// the per-output commitments V into the single public commitment P0 that
// the inner-product rounds (L, R) are folding. Because aL, aR and the
// masks are never visible to the verifier, P0 is built from the algebraic
// identity:
//
//	<aLHat,Gi> + <aRHat,Hi'> = A + z*(Σ Hi - Σ Gi) + Σ z^(2+j)*2^k*y^-i*Hi[i]
//	<aLHat,aRHat>            = delta(y,z) + Σ_j z^(2+j)*amount_j
//
// and amount_j*H is recovered from the public commitment V[j] = mask_j*G +
// amount_j*H via tauX (folded into d1 together with alpha/alpha1/tau1), so
// every alpha-dependent term cancels and only public values remain.
func reduceCommitment(V []field.Point, proof *Proof) (p0, U field.Point, G, H []field.Point, tr *transcript, err error) {
	m := len(V)
	if m == 0 {
		return field.Point{}, field.Point{}, nil, nil, nil, xerrors.New(xerrors.InvalidInput, "bulletproof: empty commitment vector")
	}
	mPad := nextPow2(m)
	n := BitsPerValue * mPad
	expectedRounds := bits.Len(uint(n)) - 1
	if len(proof.L) != expectedRounds || len(proof.R) != expectedRounds {
		return field.Point{}, field.Point{}, nil, nil, nil, xerrors.New(xerrors.RangeProofFailure, "bulletproof: round count does not match commitment count")
	}

	Gi, Hi := ensureGenerators(n)

	tr = newTranscript("bulletproof+")
	tr.absorbPoints(V)
	tr.absorbPoint(proof.A)
	y := tr.challenge("y")
	z := tr.challenge("z")

	yInv, err := y.Invert()
	if err != nil {
		return field.Point{}, field.Point{}, nil, nil, nil, xerrors.Wrap(xerrors.InvalidInput, err, "bulletproof: degenerate y challenge")
	}

	tr.absorbPoint(proof.A1)
	tr.absorbPoint(proof.B)
	e := tr.challenge("e")

	yPow := powers(y, n)
	yInvPow := powers(yInv, n)
	zPow := powers(z, mPad+2)[2:] // zPow[j] = z^(2+j)

	HiPrime := make([]field.Point, n)
	sum1Gi := field.IdentityPoint()
	sum1Hi := field.IdentityPoint()
	weightedHi := field.IdentityPoint()
	for i := 0; i < n; i++ {
		j := i / BitsPerValue
		k := i % BitsPerValue
		HiPrime[i] = Hi[i].ScalarMult(yInvPow[i])
		sum1Gi = sum1Gi.Add(Gi[i])
		sum1Hi = sum1Hi.Add(Hi[i])

		twoK, _ := field.ScalarFromUint64(uint64(1) << uint(k))
		coeff := zPow[j].Mul(twoK).Mul(yInvPow[i])
		weightedHi = weightedHi.Add(Hi[i].ScalarMult(coeff))
	}

	sumY := sumScalars(yPow)
	sumZAll := sumScalars(zPow)
	maxBit, _ := field.ScalarFromUint64(^uint64(0)) // 2^64 - 1
	zSq := z.Mul(z)
	deltaYZ := z.Sub(zSq).Mul(sumY).Sub(z.Mul(maxBit).Mul(sumZAll))

	vWeighted := field.IdentityPoint()
	for j := 0; j < m; j++ {
		vWeighted = vWeighted.Add(V[j].ScalarMult(zPow[j]))
	}

	p0 = proof.A.
		Add(sum1Hi.ScalarMult(z)).
		Sub(sum1Gi.ScalarMult(z)).
		Add(weightedHi).
		Add(field.H().ScalarMult(e.Mul(deltaYZ))).
		Add(vWeighted.ScalarMult(e)).
		Sub(field.ScalarMultBase(proof.D1)).
		Add(proof.A1.ScalarMult(e)).
		Add(proof.B.ScalarMult(e.Mul(e)))

	U = field.H().ScalarMult(e)

	return p0, U, Gi, HiPrime, tr, nil
}
