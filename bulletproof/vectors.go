package bulletproof

import "salvium/field"

func bitsOf(amount uint64) [BitsPerValue]field.Scalar {
	var out [BitsPerValue]field.Scalar
	for i := 0; i < BitsPerValue; i++ {
		bit := (amount >> uint(i)) & 1
		s, _ := field.ScalarFromUint64(bit)
		out[i] = s
	}
	return out
}

func powers(base field.Scalar, n int) []field.Scalar {
	out := make([]field.Scalar, n)
	cur := field.ScOne()
	for i := 0; i < n; i++ {
		out[i] = cur
		cur = cur.Mul(base)
	}
	return out
}

func sumScalars(s []field.Scalar) field.Scalar {
	sum := field.ScZero()
	for _, v := range s {
		sum = sum.Add(v)
	}
	return sum
}

func sumPoints(p []field.Point) field.Point {
	sum := field.IdentityPoint()
	for _, v := range p {
		sum = sum.Add(v)
	}
	return sum
}

func innerProduct(a, b []field.Scalar) field.Scalar {
	sum := field.ScZero()
	for i := range a {
		sum = sum.Add(a[i].Mul(b[i]))
	}
	return sum
}

func scaleGenerators(pts []field.Point, scale []field.Scalar) []field.Point {
	out := make([]field.Point, len(pts))
	for i, p := range pts {
		out[i] = p.ScalarMult(scale[i])
	}
	return out
}
