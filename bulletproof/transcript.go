package bulletproof

import "salvium/field"

// transcript is a simple Fiat-Shamir transcript: every absorbed value
// folds into a running digest, and each derived challenge also folds
// itself back in, so no two challenges in a single proof are ever
// derived from the same state.
type transcript struct {
	state [32]byte
}

func newTranscript(label string) *transcript {
	return &transcript{state: field.Keccak256([]byte(label))}
}

func (t *transcript) absorbPoint(p field.Point) {
	b := p.Bytes()
	t.state = field.Keccak256(t.state[:], b[:])
}

func (t *transcript) absorbPoints(ps []field.Point) {
	for _, p := range ps {
		t.absorbPoint(p)
	}
}

func (t *transcript) absorbScalar(s field.Scalar) {
	b := s.Bytes()
	t.state = field.Keccak256(t.state[:], b[:])
}

// challenge derives the next scalar from the transcript state and tag,
// then folds the derived value back into the state so a later
// challenge can never collide with an earlier one.
func (t *transcript) challenge(tag string) field.Scalar {
	c := field.HashToScalar(t.state[:], []byte(tag))
	cb := c.Bytes()
	t.state = field.Keccak256(t.state[:], cb[:])
	return c
}
