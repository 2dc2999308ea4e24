package ringsig

import (
	"testing"

	"github.com/stretchr/testify/require"

	"salvium/commitment"
	"salvium/field"
)

// buildTCLSAGRing mirrors buildCLSAGRing but gives the real row a
// twin-generator public key x*G + y*T, exercising the CARROT branch
// where y is non-zero.
func buildTCLSAGRing(t *testing.T, n, realIndex int, carrot bool) (ring, ringCommitments []field.Point, x, y, maskDiff field.Scalar, pseudoOut field.Point) {
	t.Helper()
	ring = make([]field.Point, n)
	ringCommitments = make([]field.Point, n)

	x = field.RandomScalar()
	if carrot {
		y = field.RandomScalar()
	} else {
		y = field.ScZero()
	}
	ring[realIndex] = field.ScalarMultBase(x).Add(field.T().ScalarMult(y))

	const amount = uint64(3_500_000)
	realMask := field.RandomScalar()
	pseudoMask := field.RandomScalar()
	ringCommitments[realIndex] = commitment.Commit(amount, realMask)
	pseudoOut = commitment.Commit(amount, pseudoMask)
	maskDiff = realMask.Sub(pseudoMask)

	for i := 0; i < n; i++ {
		if i == realIndex {
			continue
		}
		ring[i] = field.ScalarMultBase(field.RandomScalar()).Add(field.T().ScalarMult(field.RandomScalar()))
		ringCommitments[i] = commitment.Commit(uint64(2000+i), field.RandomScalar())
	}
	return
}

func TestTCLSAGCorrectness(t *testing.T) {
	message := field.Keccak256([]byte("tclsag test message"))
	for _, n := range []int{1, 2, 11, 16} {
		for ell := 0; ell < n; ell++ {
			for _, carrot := range []bool{true, false} {
				ring, ringCommitments, x, y, maskDiff, pseudoOut := buildTCLSAGRing(t, n, ell, carrot)
				sig, err := SignTCLSAG(message, ring, ringCommitments, ell, x, y, maskDiff, pseudoOut)
				require.NoError(t, err)
				require.NoError(t, VerifyTCLSAG(message, ring, ringCommitments, pseudoOut, sig))
			}
		}
	}
}

func TestTCLSAGSoundness(t *testing.T) {
	const n = 11
	message := field.Keccak256([]byte("tclsag soundness message"))
	ring, ringCommitments, x, y, maskDiff, pseudoOut := buildTCLSAGRing(t, n, 6, true)
	sig, err := SignTCLSAG(message, ring, ringCommitments, 6, x, y, maskDiff, pseudoOut)
	require.NoError(t, err)
	require.NoError(t, VerifyTCLSAG(message, ring, ringCommitments, pseudoOut, sig))

	t.Run("flip c1", func(t *testing.T) {
		bad := *sig
		c1b := bad.C1.Bytes()
		c1b[0] ^= 0x01
		flipped, err := field.ScalarFromCanonicalBytes(c1b)
		require.NoError(t, err)
		bad.C1 = flipped
		require.Error(t, VerifyTCLSAG(message, ring, ringCommitments, pseudoOut, &bad))
	})

	t.Run("flip sy", func(t *testing.T) {
		bad := *sig
		bad.Sy = append([]field.Scalar(nil), sig.Sy...)
		syb := bad.Sy[0].Bytes()
		syb[0] ^= 0x01
		flipped, err := field.ScalarFromCanonicalBytes(syb)
		require.NoError(t, err)
		bad.Sy[0] = flipped
		require.Error(t, VerifyTCLSAG(message, ring, ringCommitments, pseudoOut, &bad))
	})

	t.Run("flip ring member", func(t *testing.T) {
		badRing := append([]field.Point(nil), ring...)
		badRing[0] = field.ScalarMultBase(field.RandomScalar())
		require.Error(t, VerifyTCLSAG(message, badRing, ringCommitments, pseudoOut, sig))
	})
}

func TestTCLSAGNonCarrotZeroY(t *testing.T) {
	message := field.Keccak256([]byte("tclsag non-carrot message"))
	ring, ringCommitments, x, y, maskDiff, pseudoOut := buildTCLSAGRing(t, 5, 2, false)
	require.True(t, y.IsZero())
	sig, err := SignTCLSAG(message, ring, ringCommitments, 2, x, y, maskDiff, pseudoOut)
	require.NoError(t, err)
	require.NoError(t, VerifyTCLSAG(message, ring, ringCommitments, pseudoOut, sig))
}
