package serialize

import (
	"salvium/field"
	"salvium/types"
	"salvium/varint"
	"salvium/xerrors"
)

// cursor reads the Encode* functions' wire format back out in the same
// order it was written, failing closed on any truncated or malformed input
// rather than panicking.
type cursor struct {
	b []byte
}

func (c *cursor) readByte() (byte, error) {
	if len(c.b) < 1 {
		return 0, xerrors.New(xerrors.InvalidInput, "unexpected end of input reading a byte")
	}
	v := c.b[0]
	c.b = c.b[1:]
	return v, nil
}

func (c *cursor) readN(n int) ([]byte, error) {
	if len(c.b) < n {
		return nil, xerrors.New(xerrors.InvalidInput, "unexpected end of input reading a fixed-length field")
	}
	out := c.b[:n]
	c.b = c.b[n:]
	return out, nil
}

func (c *cursor) readVarint() (uint64, error) {
	v, n := varint.Decode(c.b)
	if n <= 0 {
		return 0, xerrors.New(xerrors.InvalidInput, "malformed varint")
	}
	c.b = c.b[n:]
	return v, nil
}

func (c *cursor) read32() ([32]byte, error) {
	var out [32]byte
	b, err := c.readN(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func (c *cursor) readAssetType() (types.AssetType, error) {
	var out types.AssetType
	b, err := c.readN(8)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func (c *cursor) readPoint() (field.Point, error) {
	b, err := c.read32()
	if err != nil {
		return field.Point{}, err
	}
	p, err := field.PointFromBytes(b)
	if err != nil {
		return field.Point{}, xerrors.Wrap(xerrors.InvalidInput, err, "malformed point encoding")
	}
	return p, nil
}

func (c *cursor) readScalar() (field.Scalar, error) {
	b, err := c.read32()
	if err != nil {
		return field.Scalar{}, err
	}
	s, err := field.ScalarFromCanonicalBytes(b)
	if err != nil {
		return field.Scalar{}, err
	}
	return s, nil
}
