package serialize

import (
	"salvium/bulletproof"
	"salvium/field"
	"salvium/ringsig"
	"salvium/types"
	"salvium/varint"
	"salvium/xerrors"
)

// EncodeBulletproof serializes a single Bulletproofs+ proof: A, A1, B, r1,
// s1, d1, varint L.len, L[...], R[...] (spec.md §4.9).
func EncodeBulletproof(p *bulletproof.Proof) []byte {
	var out []byte
	ab := p.A.Bytes()
	a1b := p.A1.Bytes()
	bb := p.B.Bytes()
	r1b := p.R1.Bytes()
	s1b := p.S1.Bytes()
	d1b := p.D1.Bytes()
	out = append(out, ab[:]...)
	out = append(out, a1b[:]...)
	out = append(out, bb[:]...)
	out = append(out, r1b[:]...)
	out = append(out, s1b[:]...)
	out = append(out, d1b[:]...)
	out = varint.Encode(out, uint64(len(p.L)))
	for _, l := range p.L {
		lb := l.Bytes()
		out = append(out, lb[:]...)
	}
	for _, r := range p.R {
		rb := r.Bytes()
		out = append(out, rb[:]...)
	}
	return out
}

// DecodeBulletproof is the inverse of EncodeBulletproof. The proof's V
// vector is never part of the wire encoding (it is the per-output
// commitment list, already available to any caller as RctBase.OutPk), so
// the decoded Proof carries a nil V; ParseTransaction fills it in from the
// rct-base it has already decoded.
func DecodeBulletproof(c *cursor) (*bulletproof.Proof, error) {
	p := &bulletproof.Proof{}
	var err error
	if p.A, err = c.readPoint(); err != nil {
		return nil, err
	}
	if p.A1, err = c.readPoint(); err != nil {
		return nil, err
	}
	if p.B, err = c.readPoint(); err != nil {
		return nil, err
	}
	if p.R1, err = c.readScalar(); err != nil {
		return nil, err
	}
	if p.S1, err = c.readScalar(); err != nil {
		return nil, err
	}
	if p.D1, err = c.readScalar(); err != nil {
		return nil, err
	}
	n, err := c.readVarint()
	if err != nil {
		return nil, err
	}
	p.L = make([]field.Point, n)
	for i := range p.L {
		if p.L[i], err = c.readPoint(); err != nil {
			return nil, err
		}
	}
	p.R = make([]field.Point, n)
	for i := range p.R {
		if p.R[i], err = c.readPoint(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// DecodeCLSAG is the inverse of EncodeCLSAG; ringSize is the input's ring
// size R (its S vector has no length of its own on the wire).
func DecodeCLSAG(c *cursor, ringSize int) (*ringsig.CLSAGSignature, error) {
	sig := &ringsig.CLSAGSignature{S: make([]field.Scalar, ringSize)}
	var err error
	for i := range sig.S {
		if sig.S[i], err = c.readScalar(); err != nil {
			return nil, err
		}
	}
	if sig.C1, err = c.readScalar(); err != nil {
		return nil, err
	}
	if sig.I, err = c.readPoint(); err != nil {
		return nil, err
	}
	if sig.D, err = c.readPoint(); err != nil {
		return nil, err
	}
	return sig, nil
}

// DecodeTCLSAG is the inverse of EncodeTCLSAG; ringSize is the input's ring
// size R.
func DecodeTCLSAG(c *cursor, ringSize int) (*ringsig.TCLSAGSignature, error) {
	sig := &ringsig.TCLSAGSignature{Sx: make([]field.Scalar, ringSize), Sy: make([]field.Scalar, ringSize)}
	var err error
	for i := range sig.Sx {
		if sig.Sx[i], err = c.readScalar(); err != nil {
			return nil, err
		}
	}
	for i := range sig.Sy {
		if sig.Sy[i], err = c.readScalar(); err != nil {
			return nil, err
		}
	}
	if sig.C1, err = c.readScalar(); err != nil {
		return nil, err
	}
	if sig.I, err = c.readPoint(); err != nil {
		return nil, err
	}
	if sig.D, err = c.readPoint(); err != nil {
		return nil, err
	}
	return sig, nil
}

// EncodeCLSAG serializes a CLSAG signature: s[0..R), c1, I, D.
func EncodeCLSAG(sig *ringsig.CLSAGSignature) []byte {
	var out []byte
	for _, s := range sig.S {
		sb := s.Bytes()
		out = append(out, sb[:]...)
	}
	c1b := sig.C1.Bytes()
	ib := sig.I.Bytes()
	db := sig.D.Bytes()
	out = append(out, c1b[:]...)
	out = append(out, ib[:]...)
	out = append(out, db[:]...)
	return out
}

// EncodeTCLSAG serializes a TCLSAG signature: sx[0..R), sy[0..R), c1, I, D.
func EncodeTCLSAG(sig *ringsig.TCLSAGSignature) []byte {
	var out []byte
	for _, s := range sig.Sx {
		sb := s.Bytes()
		out = append(out, sb[:]...)
	}
	for _, s := range sig.Sy {
		sb := s.Bytes()
		out = append(out, sb[:]...)
	}
	c1b := sig.C1.Bytes()
	ib := sig.I.Bytes()
	db := sig.D.Bytes()
	out = append(out, c1b[:]...)
	out = append(out, ib[:]...)
	out = append(out, db[:]...)
	return out
}

// EncodeRctPrunable serializes the rct-prunable section (spec.md §4.9):
// a varint count of Bulletproofs+ proofs (always 1), the proof itself,
// one ring signature per input (CLSAG below the CARROT fork, TCLSAG at
// and above it), and the bare pseudo-out vector (no length prefix, the
// count is implicit from the input count).
func EncodeRctPrunable(p *types.RctPrunable) ([]byte, error) {
	if p.BulletproofPlus == nil {
		return nil, xerrors.New(xerrors.InvalidInput, "rct-prunable requires a bulletproof")
	}
	useTCLSAG := len(p.TCLSAGs) > 0
	if useTCLSAG && len(p.CLSAGs) > 0 {
		return nil, xerrors.New(xerrors.InvalidInput, "rct-prunable cannot mix CLSAG and TCLSAG")
	}
	numSigs := len(p.CLSAGs)
	if useTCLSAG {
		numSigs = len(p.TCLSAGs)
	}
	if numSigs != len(p.PseudoOuts) {
		return nil, xerrors.New(xerrors.InvalidInput, "signature count must match pseudo-out count")
	}

	var out []byte
	out = varint.Encode(out, 1)
	out = append(out, EncodeBulletproof(p.BulletproofPlus)...)

	if useTCLSAG {
		for _, sig := range p.TCLSAGs {
			out = append(out, EncodeTCLSAG(sig)...)
		}
	} else {
		for _, sig := range p.CLSAGs {
			out = append(out, EncodeCLSAG(sig)...)
		}
	}

	for _, po := range p.PseudoOuts {
		pb := po.Bytes()
		out = append(out, pb[:]...)
	}
	return out, nil
}

// DecodeRctPrunable is the inverse of EncodeRctPrunable. ringSizes supplies
// each input's ring size R in input order (the section is otherwise
// self-describing only down to "how many signatures", not "how long is
// each one"); useTCLSAG picks CLSAG vs TCLSAG per spec.md §4.9 the same
// way the builder does, from the already-decoded RctBase.Type.
func DecodeRctPrunable(data []byte, ringSizes []int, useTCLSAG bool) (*types.RctPrunable, []byte, error) {
	c := &cursor{b: data}

	numBP, err := c.readVarint()
	if err != nil {
		return nil, nil, xerrors.Wrap(xerrors.InvalidInput, err, "decode bulletproof count")
	}
	if numBP != 1 {
		return nil, nil, xerrors.New(xerrors.InvalidInput, "rct-prunable must carry exactly one bulletproof")
	}
	bp, err := DecodeBulletproof(c)
	if err != nil {
		return nil, nil, xerrors.Wrap(xerrors.InvalidInput, err, "decode bulletproof")
	}

	p := &types.RctPrunable{BulletproofPlus: bp}
	if useTCLSAG {
		p.TCLSAGs = make([]*ringsig.TCLSAGSignature, len(ringSizes))
		for i, n := range ringSizes {
			if p.TCLSAGs[i], err = DecodeTCLSAG(c, n); err != nil {
				return nil, nil, xerrors.Wrap(xerrors.InvalidInput, err, "decode TCLSAG")
			}
		}
	} else {
		p.CLSAGs = make([]*ringsig.CLSAGSignature, len(ringSizes))
		for i, n := range ringSizes {
			if p.CLSAGs[i], err = DecodeCLSAG(c, n); err != nil {
				return nil, nil, xerrors.Wrap(xerrors.InvalidInput, err, "decode CLSAG")
			}
		}
	}

	p.PseudoOuts = make(types.PseudoOuts, len(ringSizes))
	for i := range p.PseudoOuts {
		if p.PseudoOuts[i], err = c.readPoint(); err != nil {
			return nil, nil, xerrors.Wrap(xerrors.InvalidInput, err, "decode pseudo-out")
		}
	}

	return p, c.b, nil
}
