package field

import (
	"filippo.io/edwards25519"

	"salvium/xerrors"
)

// Point is an edwards25519 point. PointFromBytes accepts only canonical
// encodings of points on the curve; it does not check membership in the
// prime-order subgroup.
type Point struct {
	p edwards25519.Point
}

var basePoint = func() Point {
	var pt Point
	pt.p = *edwards25519.NewGeneratorPoint()
	return pt
}()

var identityPoint = func() Point {
	var pt Point
	pt.p = *edwards25519.NewIdentityPoint()
	return pt
}()

// BasePoint returns the subgroup generator G.
func BasePoint() Point { return basePoint }

// IdentityPoint returns the group identity element.
func IdentityPoint() Point { return identityPoint }

// PointFromBytes decodes a compressed point, rejecting non-canonical
// encodings.
func PointFromBytes(b [32]byte) (Point, error) {
	var out Point
	if _, err := out.p.SetBytes(b[:]); err != nil {
		return Point{}, xerrors.Wrap(xerrors.InvalidInput, err, "invalid point encoding")
	}
	// SetBytes also accepts non-canonical encodings of valid points.
	if out.Bytes() != b {
		return Point{}, xerrors.New(xerrors.InvalidInput, "non-canonical point encoding")
	}
	return out, nil
}

// Bytes returns the compressed 32-byte encoding, sign bit in the high bit
// of byte 31.
func (p Point) Bytes() [32]byte {
	var out [32]byte
	copy(out[:], p.p.Bytes())
	return out
}

// Equal reports whether two points are the same group element.
func (p Point) Equal(q Point) bool {
	return p.p.Equal(&q.p) == 1
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	var out Point
	out.p.Add(&p.p, &q.p)
	return out
}

// Sub returns p - q (implemented as p + (-q), matching spec.md §4.1's
// "point_sub via negation" definition).
func (p Point) Sub(q Point) Point {
	var out Point
	out.p.Subtract(&p.p, &q.p)
	return out
}

// Negate returns -p (flips the curve's sign convention).
func (p Point) Negate() Point {
	var out Point
	out.p.Negate(&p.p)
	return out
}

// ScalarMult returns s*p.
func (p Point) ScalarMult(s Scalar) Point {
	var out Point
	out.p.ScalarMult(&s.s, &p.p)
	return out
}

// ScalarMultBase returns s*G.
func ScalarMultBase(s Scalar) Point {
	var out Point
	out.p.ScalarBaseMult(&s.s)
	return out
}

// MultiScalarMult returns Σ scalars[i]*points[i]. Panics if the slices have
// unequal length, mirroring filippo.io/edwards25519's own contract.
func MultiScalarMult(scalars []Scalar, points []Point) Point {
	if len(scalars) != len(points) {
		panic("field: MultiScalarMult length mismatch")
	}
	ss := make([]*edwards25519.Scalar, len(scalars))
	pp := make([]*edwards25519.Point, len(points))
	for i := range scalars {
		ss[i] = &scalars[i].s
		pp[i] = &points[i].p
	}
	var out Point
	out.p.VarTimeMultiScalarMult(ss, pp)
	return out
}

// ClearCofactor returns 8*p, clearing the cofactor of a point that may not
// lie in the prime-order subgroup (used by hash-to-point, spec.md §4.1).
func (p Point) ClearCofactor() Point {
	return p.ScalarMult(ScEight())
}
