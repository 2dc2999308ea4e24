package bulletproof

import (
	"testing"

	"github.com/stretchr/testify/require"

	"salvium/field"
)

func randomMasks(n int) []field.Scalar {
	out := make([]field.Scalar, n)
	for i := range out {
		out[i] = field.RandomScalar()
	}
	return out
}

func TestProveVerifyRoundTrip(t *testing.T) {
	cases := [][]uint64{
		{0},
		{1},
		{7_000_000, 250_000_000},
		{1, 2, 3, 4},
		{0, 1, 1<<63 - 1, 1234567890},
		make([]uint64, 16),
	}
	for i := range cases[len(cases)-1] {
		cases[len(cases)-1][i] = uint64(i) * 1_000_003
	}

	for _, amounts := range cases {
		masks := randomMasks(len(amounts))
		proof, err := Prove(amounts, masks)
		require.NoError(t, err)
		require.NoError(t, Verify(proof.V, proof))
	}
}

func TestProveRejectsMismatchedLengths(t *testing.T) {
	_, err := Prove([]uint64{1, 2}, randomMasks(1))
	require.Error(t, err)

	_, err = Prove(nil, nil)
	require.Error(t, err)
}

func TestVerifySoundness(t *testing.T) {
	amounts := []uint64{5_000_000, 9_999, 42}
	masks := randomMasks(len(amounts))
	proof, err := Prove(amounts, masks)
	require.NoError(t, err)
	require.NoError(t, Verify(proof.V, proof))

	flipScalar := func(s field.Scalar) field.Scalar {
		b := s.Bytes()
		b[0] ^= 0x01
		flipped, err := field.ScalarFromCanonicalBytes(b)
		require.NoError(t, err)
		return flipped
	}
	flipPoint := func(p field.Point) field.Point {
		return p.Add(field.BasePoint())
	}

	t.Run("tamper A", func(t *testing.T) {
		bad := *proof
		bad.A = flipPoint(proof.A)
		require.Error(t, Verify(bad.V, &bad))
	})
	t.Run("tamper A1", func(t *testing.T) {
		bad := *proof
		bad.A1 = flipPoint(proof.A1)
		require.Error(t, Verify(bad.V, &bad))
	})
	t.Run("tamper B", func(t *testing.T) {
		bad := *proof
		bad.B = flipPoint(proof.B)
		require.Error(t, Verify(bad.V, &bad))
	})
	t.Run("tamper r1", func(t *testing.T) {
		bad := *proof
		bad.R1 = flipScalar(proof.R1)
		require.Error(t, Verify(bad.V, &bad))
	})
	t.Run("tamper s1", func(t *testing.T) {
		bad := *proof
		bad.S1 = flipScalar(proof.S1)
		require.Error(t, Verify(bad.V, &bad))
	})
	t.Run("tamper d1", func(t *testing.T) {
		bad := *proof
		bad.D1 = flipScalar(proof.D1)
		require.Error(t, Verify(bad.V, &bad))
	})
	t.Run("tamper L0", func(t *testing.T) {
		bad := *proof
		bad.L = append([]field.Point(nil), proof.L...)
		bad.L[0] = flipPoint(proof.L[0])
		require.Error(t, Verify(bad.V, &bad))
	})
	t.Run("tamper R0", func(t *testing.T) {
		bad := *proof
		bad.R = append([]field.Point(nil), proof.R...)
		bad.R[0] = flipPoint(proof.R[0])
		require.Error(t, Verify(bad.V, &bad))
	})
	t.Run("tamper V", func(t *testing.T) {
		badV := append([]field.Point(nil), proof.V...)
		badV[0] = flipPoint(proof.V[0])
		require.Error(t, Verify(badV, proof))
	})
}

func TestBatchVerify(t *testing.T) {
	var Vs [][]field.Point
	var proofs []*Proof
	for _, amounts := range [][]uint64{
		{1, 2},
		{3},
		{4, 5, 6, 7},
	} {
		masks := randomMasks(len(amounts))
		proof, err := Prove(amounts, masks)
		require.NoError(t, err)
		Vs = append(Vs, proof.V)
		proofs = append(proofs, proof)
	}
	require.NoError(t, BatchVerify(Vs, proofs))

	bad := *proofs[1]
	bad.R1 = bad.R1.Add(field.ScOne())
	badProofs := append([]*Proof(nil), proofs...)
	badProofs[1] = &bad
	require.Error(t, BatchVerify(Vs, badProofs))
}

func TestBatchVerifyRejectsLengthMismatch(t *testing.T) {
	proof, err := Prove([]uint64{1}, randomMasks(1))
	require.NoError(t, err)
	require.Error(t, BatchVerify([][]field.Point{proof.V, proof.V}, []*Proof{proof}))
	require.Error(t, BatchVerify(nil, nil))
}
