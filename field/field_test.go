package field

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScalarRingLaws(t *testing.T) {
	for i := 0; i < 50; i++ {
		a := RandomScalar()
		b := RandomScalar()
		c := RandomScalar()

		lhs := a.Add(b).Mul(c)
		rhs := a.Mul(c).Add(b.Mul(c))
		require.True(t, lhs.Equal(rhs), "(a+b)*c != a*c+b*c")

		if !a.IsZero() {
			inv, err := a.Invert()
			require.NoError(t, err)
			require.True(t, a.Mul(inv).Equal(ScOne()))
		}

		require.True(t, a.Add(b).Sub(b).Equal(a))
	}
}

func TestInvertZeroFails(t *testing.T) {
	_, err := ScZero().Invert()
	require.Error(t, err)
}

func TestScalarCanonicalRejection(t *testing.T) {
	// ℓ itself, the smallest non-canonical encoding.
	nonCanonical := [32]byte{
		0xed, 0xd3, 0xf5, 0x5c, 0x1a, 0x63, 0x12, 0x58,
		0xd6, 0x9c, 0xf7, 0xa2, 0xde, 0xf9, 0xde, 0x14,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x10,
	}
	_, err := ScalarFromCanonicalBytes(nonCanonical)
	require.Error(t, err)
}

func TestPointAddSubRoundTrip(t *testing.T) {
	a := RandomScalar()
	b := RandomScalar()
	pa := ScalarMultBase(a)
	pb := ScalarMultBase(b)

	sum := pa.Add(pb)
	back := sum.Sub(pb)
	require.True(t, back.Equal(pa))
}

func TestScalarMultBaseMatchesGeneratorLoop(t *testing.T) {
	three, _ := ScalarFromUint64(3)
	viaMult := ScalarMultBase(three)
	viaAdd := BasePoint().Add(BasePoint()).Add(BasePoint())
	require.True(t, viaMult.Equal(viaAdd))
}

func TestHashToPointDeterministicAndOnCurve(t *testing.T) {
	p1 := HashToPoint([]byte("hello"))
	p2 := HashToPoint([]byte("hello"))
	require.True(t, p1.Equal(p2))

	p3 := HashToPoint([]byte("world"))
	require.False(t, p1.Equal(p3))

	// Round-trips through its own compressed encoding.
	b := p1.Bytes()
	decoded, err := PointFromBytes(b)
	require.NoError(t, err)
	require.True(t, decoded.Equal(p1))
}

func TestHashToScalarDeterministic(t *testing.T) {
	s1 := HashToScalar([]byte("a"), []byte("b"))
	s2 := HashToScalar([]byte("a"), []byte("b"))
	require.True(t, s1.Equal(s2))

	s3 := HashToScalar([]byte("ab"))
	require.False(t, s1.Equal(s3))
}

func TestGeneratorsAreDistinctAndStable(t *testing.T) {
	require.False(t, H().Equal(BasePoint()))
	require.False(t, T().Equal(H()))
	require.True(t, H().Equal(H()))
	require.True(t, T().Equal(T()))
}
