package serialize

import (
	"salvium/field"
	"salvium/types"
	"salvium/xerrors"
)

// EncodeTransaction concatenates the prefix, rct-base and rct-prunable
// sections into one wire blob (spec.md §4.9), the unit ParseTransaction
// inverts.
func EncodeTransaction(tx *types.Transaction) ([]byte, error) {
	prefixBytes, err := EncodeTxPrefix(&tx.Prefix)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.InvalidInput, err, "encode prefix")
	}
	rctBaseBytes, err := EncodeRctBase(&tx.RctBase)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.InvalidInput, err, "encode rct base")
	}
	prunableBytes, err := EncodeRctPrunable(&tx.Prunable)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.InvalidInput, err, "encode rct prunable")
	}
	out := make([]byte, 0, len(prefixBytes)+len(rctBaseBytes)+len(prunableBytes))
	out = append(out, prefixBytes...)
	out = append(out, rctBaseBytes...)
	out = append(out, prunableBytes...)
	return out, nil
}

// ParseTransaction is the inverse of EncodeTransaction: it decodes the
// prefix, rct-base and rct-prunable sections in order, using each earlier
// section's already-decoded shape (output count, input count, per-input
// ring size, rct type) to resolve the later sections' externally-supplied
// lengths (spec.md §8 scenario 2's "round-trips through serialize→parse
// byte-for-byte").
func ParseTransaction(data []byte) (*types.Transaction, error) {
	prefix, rest, err := DecodeTxPrefix(data)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.InvalidInput, err, "parse prefix")
	}

	rctBase, rest, err := DecodeRctBase(rest, len(prefix.Vout))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.InvalidInput, err, "parse rct base")
	}

	ringSizes := make([]int, len(prefix.Vin))
	for i, in := range prefix.Vin {
		ringSizes[i] = len(in.KeyOffsets)
	}
	useTCLSAG := rctBase.Type == types.RctSalviumOne

	prunable, rest, err := DecodeRctPrunable(rest, ringSizes, useTCLSAG)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.InvalidInput, err, "parse rct prunable")
	}
	if len(rest) != 0 {
		return nil, xerrors.New(xerrors.InvalidInput, "trailing bytes after transaction")
	}

	prunable.BulletproofPlus.V = append([]field.Point(nil), rctBase.OutPk...)

	return &types.Transaction{Prefix: *prefix, RctBase: *rctBase, Prunable: *prunable}, nil
}
