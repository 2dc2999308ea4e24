package serialize

import (
	"salvium/field"
	"salvium/prproof"
	"salvium/types"
	"salvium/varint"
	"salvium/xerrors"
)

// EncodeRctBase serializes the rct-base section (spec.md §4.9): 1-byte
// type, varint fee, 8 bytes of ecdhInfo per output, 32 bytes of outPk per
// output, p_r, and (for RctSalviumOne) the salvium_data trailer.
func EncodeRctBase(b *types.RctBase) ([]byte, error) {
	if len(b.EcdhInfo) != len(b.OutPk) {
		return nil, xerrors.New(xerrors.InvalidInput, "ecdhInfo and outPk must have equal length")
	}
	var out []byte
	out = append(out, byte(b.Type))
	out = varint.Encode(out, b.Fee)
	for _, e := range b.EcdhInfo {
		out = append(out, e[:]...)
	}
	for _, pk := range b.OutPk {
		pb := pk.Bytes()
		out = append(out, pb[:]...)
	}
	prb := b.Pr.Bytes()
	out = append(out, prb[:]...)

	if b.Type == types.RctSalviumOne {
		if b.SalviumData == nil {
			return nil, xerrors.New(xerrors.InvalidInput, "RctSalviumOne requires salvium_data")
		}
		rb := b.SalviumData.PRProof.R.Bytes()
		z1b := b.SalviumData.PRProof.Z1.Bytes()
		z2b := b.SalviumData.PRProof.Z2.Bytes()
		out = append(out, rb[:]...)
		out = append(out, z1b[:]...)
		out = append(out, z2b[:]...)
		out = append(out, b.SalviumData.SAProof[:]...)
	}
	return out, nil
}

// DecodeRctBase is the inverse of EncodeRctBase. numOutputs comes from the
// already-decoded TxPrefix.Vout, since the ecdhInfo/outPk vectors carry no
// length of their own on the wire.
func DecodeRctBase(data []byte, numOutputs int) (*types.RctBase, []byte, error) {
	c := &cursor{b: data}
	b := &types.RctBase{}

	typeByte, err := c.readByte()
	if err != nil {
		return nil, nil, xerrors.Wrap(xerrors.InvalidInput, err, "decode rct type")
	}
	b.Type = types.RctType(typeByte)

	if b.Fee, err = c.readVarint(); err != nil {
		return nil, nil, xerrors.Wrap(xerrors.InvalidInput, err, "decode fee")
	}

	b.EcdhInfo = make([][8]byte, numOutputs)
	for i := range b.EcdhInfo {
		e, err := c.readN(8)
		if err != nil {
			return nil, nil, xerrors.Wrap(xerrors.InvalidInput, err, "decode ecdhInfo")
		}
		copy(b.EcdhInfo[i][:], e)
	}

	b.OutPk = make([]field.Point, numOutputs)
	for i := range b.OutPk {
		if b.OutPk[i], err = c.readPoint(); err != nil {
			return nil, nil, xerrors.Wrap(xerrors.InvalidInput, err, "decode outPk")
		}
	}

	if b.Pr, err = c.readPoint(); err != nil {
		return nil, nil, xerrors.Wrap(xerrors.InvalidInput, err, "decode p_r")
	}

	if b.Type == types.RctSalviumOne {
		r, err := c.readPoint()
		if err != nil {
			return nil, nil, xerrors.Wrap(xerrors.InvalidInput, err, "decode pr_proof R")
		}
		z1, err := c.readScalar()
		if err != nil {
			return nil, nil, xerrors.Wrap(xerrors.InvalidInput, err, "decode pr_proof z1")
		}
		z2, err := c.readScalar()
		if err != nil {
			return nil, nil, xerrors.Wrap(xerrors.InvalidInput, err, "decode pr_proof z2")
		}
		sa, err := c.readN(96)
		if err != nil {
			return nil, nil, xerrors.Wrap(xerrors.InvalidInput, err, "decode sa_proof")
		}
		salviumData := &types.SalviumData{PRProof: prproof.Proof{R: r, Z1: z1, Z2: z2}}
		copy(salviumData.SAProof[:], sa)
		b.SalviumData = salviumData
	}

	return b, c.b, nil
}
