// Package builder assembles a signed Transaction from a caller-selected
// set of owned inputs (already paired with their decoy rings) and a list
// of destinations (spec.md §4.12). It orchestrates every lower-layer
// package: commitment masks, legacy or CARROT output derivation,
// Bulletproofs+ range proving, CLSAG/TCLSAG ring signing, and the
// wire-format hash chain the signatures are computed over.
//
// The teacher's consensus/engine.go builds blocks, not transactions, so
// there is no teacher orchestration function to generalize; this package
// follows the teacher's error-propagation style (plain early returns, no
// panics on caller-reachable bad input) while the assembly steps
// themselves are grounded in spec.md §4.9/§4.12.
package builder

import (
	"encoding/binary"
	"sort"

	"salvium/bulletproof"
	"salvium/carrot"
	"salvium/commitment"
	"salvium/field"
	"salvium/keyderivation"
	"salvium/params"
	"salvium/prproof"
	"salvium/ringsig"
	"salvium/serialize"
	"salvium/types"
	"salvium/xerrors"
)

// Destination is one payment target the builder will create an output
// for.
type Destination struct {
	SpendPub  field.Point
	ViewPub   field.Point
	Amount    uint64
	AssetType types.AssetType
	PaymentID [8]byte
	IsChange  bool
}

// Params is the full input to Build: the selected owned inputs (with
// their decoy rings already attached), the payment destinations, and the
// transaction-family metadata spec.md §4.9's prefix carries.
type Params struct {
	TxType               types.TxType
	Fork                 params.ForkVersion
	Inputs               []types.Input
	Destinations         []Destination
	Fee                  uint64
	AmountBurnt          uint64
	SourceAssetType      types.AssetType
	DestAssetType        types.AssetType
	AmountSlippageLimit  uint64
	UnlockTime           uint64
}

// StakeParams builds a STAKE transaction: the full input value minus fee
// is locked via AmountBurnt, with a single change output returning any
// remainder to the staker (spec.md §4.12, §8 scenario 3).
type StakeParams struct {
	Fork         params.ForkVersion
	Inputs       []types.Input
	StakeAmount  uint64
	Fee          uint64
	Change       Destination
	AssetType    types.AssetType
}

// BuildStake reuses Build's orchestration with TxType=Stake, the staked
// amount routed through AmountBurnt rather than a destination, and the
// default stake lock period as unlock time.
func BuildStake(p StakeParams) (*types.Transaction, error) {
	return Build(Params{
		TxType:          types.TxTypeStake,
		Fork:            p.Fork,
		Inputs:          p.Inputs,
		Destinations:    []Destination{p.Change},
		Fee:             p.Fee,
		AmountBurnt:     p.StakeAmount,
		SourceAssetType: p.AssetType,
		DestAssetType:   p.AssetType,
		UnlockTime:      params.StakeLockPeriodDefault,
	})
}

// BurnParams builds a BURN transaction: BurnAmount leaves circulation via
// AmountBurnt with the destination asset forced to the reserved BURN asset
// type (spec.md §8 scenario 4).
type BurnParams struct {
	Fork            params.ForkVersion
	Inputs          []types.Input
	BurnAmount      uint64
	Fee             uint64
	Change          Destination
	SourceAssetType types.AssetType
}

// BuildBurn reuses Build's orchestration with TxType=Burn, DestAssetType
// forced to types.AssetBurn, and a single change output.
func BuildBurn(p BurnParams) (*types.Transaction, error) {
	return Build(Params{
		TxType:          types.TxTypeBurn,
		Fork:            p.Fork,
		Inputs:          p.Inputs,
		Destinations:    []Destination{p.Change},
		Fee:             p.Fee,
		AmountBurnt:     p.BurnAmount,
		SourceAssetType: p.SourceAssetType,
		DestAssetType:   types.AssetBurn,
	})
}

// ConvertParams builds a CONVERT transaction: ConvertAmount moves from
// SourceAssetType to DestAssetType via AmountBurnt, with a single change
// output in the source asset.
type ConvertParams struct {
	Fork            params.ForkVersion
	Inputs          []types.Input
	ConvertAmount   uint64
	Fee             uint64
	Change          Destination
	SourceAssetType types.AssetType
	DestAssetType   types.AssetType
}

// BuildConvert reuses Build's orchestration with TxType=Convert.
func BuildConvert(p ConvertParams) (*types.Transaction, error) {
	return Build(Params{
		TxType:          types.TxTypeConvert,
		Fork:            p.Fork,
		Inputs:          p.Inputs,
		Destinations:    []Destination{p.Change},
		Fee:             p.Fee,
		AmountBurnt:     p.ConvertAmount,
		SourceAssetType: p.SourceAssetType,
		DestAssetType:   p.DestAssetType,
	})
}

// AuditParams builds an AUDIT transaction: the audited amount is disclosed
// through AmountBurnt with no destinations at all (spec.md §8 scenario 5 —
// `vout.len == 0`), and UnlockTime is overloaded to carry the disclosure's
// target block height per spec.md §4.12's "required return address" note.
type AuditParams struct {
	Fork         params.ForkVersion
	Inputs       []types.Input
	AuditAmount  uint64
	Fee          uint64
	UnlockHeight uint64
	AssetType    types.AssetType
	Disclosure   types.AuditDisclosure
}

// BuildAudit reuses Build's orchestration with TxType=Audit and an empty
// destination list; the resulting transaction carries p.Disclosure in its
// prefix for the validator to check the shape of (SPEC_FULL.md §9
// decision 3).
func BuildAudit(p AuditParams) (*types.Transaction, error) {
	tx, err := Build(Params{
		TxType:          types.TxTypeAudit,
		Fork:            p.Fork,
		Inputs:          p.Inputs,
		Destinations:    nil,
		Fee:             p.Fee,
		AmountBurnt:     p.AuditAmount,
		SourceAssetType: p.AssetType,
		DestAssetType:   p.AssetType,
		UnlockTime:      p.UnlockHeight,
	})
	if err != nil {
		return nil, err
	}
	tx.Prefix.AuditDisclosure = &p.Disclosure
	return tx, nil
}

type builtOutput struct {
	record        types.TxOutputRecord
	commitment    field.Point
	mask          field.Scalar
	amount        uint64
	amountKey     field.Scalar
	isChange      bool
	destSpendPub  field.Point
}

// Build assembles and signs a Transaction for params (spec.md §4.12).
func Build(p Params) (*types.Transaction, error) {
	if len(p.Inputs) == 0 {
		return nil, xerrors.New(xerrors.InvalidInput, "builder: at least one input is required")
	}
	if len(p.Destinations) == 0 && p.TxType != types.TxTypeAudit {
		return nil, xerrors.New(xerrors.InvalidInput, "builder: at least one destination is required")
	}
	for i := range p.Inputs {
		if err := p.Inputs[i].Validate(); err != nil {
			return nil, xerrors.Wrap(xerrors.RingShapeError, err, "builder: input shape")
		}
	}

	if err := checkBalance(p); err != nil {
		return nil, err
	}

	useCarrot := p.Fork >= params.ForkCarrot
	rctType := types.RctBulletproofPlus
	if useCarrot {
		rctType = types.RctSalviumOne
	}

	rawKeyImages := make([]field.Point, len(p.Inputs))
	for i, in := range p.Inputs {
		rawKeyImages[i] = ringsig.KeyImage(in.PublicKey, in.SecretKey)
	}

	// spec.md §4.12 step 5: inputs are sorted by key image, descending
	// memcmp, before the rest of assembly proceeds.
	inOrder := make([]int, len(p.Inputs))
	for i := range inOrder {
		inOrder[i] = i
	}
	sort.Slice(inOrder, func(a, b int) bool {
		ba := rawKeyImages[inOrder[a]].Bytes()
		bb := rawKeyImages[inOrder[b]].Bytes()
		for k := 0; k < 32; k++ {
			if ba[k] != bb[k] {
				return ba[k] > bb[k]
			}
		}
		return false
	})
	inputs := make([]types.Input, len(p.Inputs))
	keyImages := make([]field.Point, len(p.Inputs))
	for newIdx, oldIdx := range inOrder {
		inputs[newIdx] = p.Inputs[oldIdx]
		keyImages[newIdx] = rawKeyImages[oldIdx]
	}
	p.Inputs = inputs

	inputContext := carrot.InputContext(carrot.InputContextRingCT, keyImages[0].Bytes())

	outputs, deShared, err := buildOutputs(p.Destinations, useCarrot, inputContext)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(outputs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ba := outputs[order[a]].record.OutputPublicKey.Bytes()
		bb := outputs[order[b]].record.OutputPublicKey.Bytes()
		for k := 0; k < 32; k++ {
			if ba[k] != bb[k] {
				return ba[k] < bb[k]
			}
		}
		return false
	})
	sorted := make([]builtOutput, len(outputs))
	for newIdx, oldIdx := range order {
		sorted[newIdx] = outputs[oldIdx]
	}

	pseudoMasks, err := balancePseudoMasks(p.Inputs, sorted)
	if err != nil {
		return nil, err
	}
	pseudoOuts := make(types.PseudoOuts, len(p.Inputs))
	maskDiffs := make([]field.Scalar, len(p.Inputs))
	for i, in := range p.Inputs {
		pseudoOuts[i] = commitment.Commit(in.Amount, pseudoMasks[i])
		maskDiffs[i] = in.Mask.Sub(pseudoMasks[i])
	}

	amounts := make([]uint64, len(sorted))
	masks := make([]field.Scalar, len(sorted))
	for i, o := range sorted {
		amounts[i] = o.amount
		masks[i] = o.mask
	}
	var bp *bulletproof.Proof
	if len(sorted) > 0 {
		bp, err = bulletproof.Prove(amounts, masks)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.RangeProofFailure, err, "builder: range proof")
		}
	}

	vin := make([]types.TxInputRecord, len(p.Inputs))
	for i, in := range p.Inputs {
		vin[i] = types.TxInputRecord{
			Type:       0,
			Amount:     0,
			AssetType:  in.AssetType,
			KeyOffsets: relativeOffsets(in.RingIndices),
			KeyImage:   keyImages[i],
		}
	}

	vout := make([]types.TxOutputRecord, len(sorted))
	ecdhInfo := make([][8]byte, len(sorted))
	outPk := make([]field.Point, len(sorted))
	amountKeys := make([]field.Scalar, len(sorted))
	changeOutputKey := field.IdentityPoint()
	changeIndex := 0
	hasChange := false
	for i, o := range sorted {
		vout[i] = o.record
		outPk[i] = o.commitment
		amountKeys[i] = o.amountKey
		copy(ecdhInfo[i][:], o.record.EncryptedAmount[:])
		if o.isChange {
			changeOutputKey = o.record.OutputPublicKey
			changeIndex = i
			hasChange = true
		}
	}

	returnList, changeMask := serialize.ComputeReturnAddresses(amountKeys, deShared, changeOutputKey, changeIndex, hasChange)

	extra := []types.ExtraField{
		{Tag: types.ExtraTagTxPubkey, Data: txPubkeyBytes(deShared)},
	}

	prefix := &types.TxPrefix{
		Version:              uint64(p.Fork),
		UnlockTime:           p.UnlockTime,
		TxType:               p.TxType,
		AmountBurnt:          p.AmountBurnt,
		SourceAssetType:      p.SourceAssetType,
		DestinationAssetType: p.DestAssetType,
		AmountSlippageLimit:  p.AmountSlippageLimit,
		Vin:                  vin,
		Vout:                 vout,
		Extra:                extra,
		ReturnAddress: &types.ReturnAddressData{
			List:       returnList,
			ChangeMask: changeMask,
		},
	}

	var salviumData *types.SalviumData
	pr := field.IdentityPoint()
	if useCarrot {
		// p_r attests to Δ = Σ pseudoMasks - Σ outputMasks (spec.md §4.8),
		// not to deShared: balancePseudoMasks already forces Δ to zero, so
		// this reduces to proving knowledge of the identity's own mask, but
		// it must still be the real Δ rather than an unrelated scalar.
		delta := field.ScZero()
		for _, m := range pseudoMasks {
			delta = delta.Add(m)
		}
		for _, m := range masks {
			delta = delta.Sub(m)
		}
		prProof := prproof.Generate(delta)
		pr = prproof.PR(delta)
		salviumData = &types.SalviumData{PRProof: prProof}
	}

	rctBase := types.RctBase{
		Type:        rctType,
		Fee:         p.Fee,
		EcdhInfo:    ecdhInfo,
		OutPk:       outPk,
		Pr:          pr,
		SalviumData: salviumData,
	}

	prefixBytes, err := serialize.EncodeTxPrefix(prefix)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.InvalidInput, err, "builder: encode prefix")
	}
	prefixHash := serialize.PrefixHash(prefixBytes)

	rctBaseBytes, err := serialize.EncodeRctBase(&rctBase)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.InvalidInput, err, "builder: encode rct base")
	}
	message := serialize.PreMLSAGMessage(prefixHash, rctBaseBytes, bp)

	prunable := types.RctPrunable{BulletproofPlus: bp, PseudoOuts: pseudoOuts}
	if useCarrot {
		sigs := make([]*ringsig.TCLSAGSignature, len(p.Inputs))
		for i, in := range p.Inputs {
			sig, err := ringsig.SignTCLSAG(message, in.Ring, in.RingCommitments, in.RealIndex, in.SecretKey, in.YSecret, maskDiffs[i], pseudoOuts[i])
			if err != nil {
				return nil, xerrors.Wrap(xerrors.SignatureFailure, err, "builder: sign TCLSAG")
			}
			sigs[i] = sig
		}
		prunable.TCLSAGs = sigs
	} else {
		sigs := make([]*ringsig.CLSAGSignature, len(p.Inputs))
		for i, in := range p.Inputs {
			sig, err := ringsig.SignCLSAG(message, in.Ring, in.RingCommitments, in.RealIndex, in.SecretKey, maskDiffs[i], pseudoOuts[i])
			if err != nil {
				return nil, xerrors.Wrap(xerrors.SignatureFailure, err, "builder: sign CLSAG")
			}
			sigs[i] = sig
		}
		prunable.CLSAGs = sigs
	}

	return &types.Transaction{Prefix: *prefix, RctBase: rctBase, Prunable: prunable}, nil
}

func checkBalance(p Params) error {
	var inTotal uint64
	for _, in := range p.Inputs {
		next := inTotal + in.Amount
		if next < inTotal {
			return xerrors.New(xerrors.Overflow, "builder: input amount sum overflow")
		}
		inTotal = next
	}
	var outTotal uint64
	for _, d := range p.Destinations {
		next := outTotal + d.Amount
		if next < outTotal {
			return xerrors.New(xerrors.Overflow, "builder: output amount sum overflow")
		}
		outTotal = next
	}
	need := outTotal + p.Fee + p.AmountBurnt
	if need < outTotal {
		return xerrors.New(xerrors.Overflow, "builder: fee/burnt amount sum overflow")
	}
	if inTotal != need {
		return xerrors.New(xerrors.InsufficientFunds, "builder: inputs do not balance against outputs, fee and burnt amount")
	}
	return nil
}

// buildOutputs derives every destination's one-time output, using the
// CARROT pipeline at and above the CARROT fork and the legacy
// derive_public_key pipeline below it. It returns the shared per-tx
// ephemeral/tx-secret scalar alongside the outputs: CARROT's d_e under
// useCarrot, or the legacy tx secret r otherwise (both serialize
// identically as a single tx-pubkey extra field).
func buildOutputs(dests []Destination, useCarrot bool, inputContext [33]byte) ([]builtOutput, field.Scalar, error) {
	out := make([]builtOutput, len(dests))

	if !useCarrot {
		r := field.RandomScalar()
		for i, d := range dests {
			deriv := keyderivation.Derivation(r, d.ViewPub)
			ko := keyderivation.DerivePublicKey(deriv, uint64(i), d.SpendPub)
			scalar := keyderivation.DerivationToScalar(deriv, uint64(i))
			mask := commitment.GenCommitmentMask(scalar)
			commit := commitment.Commit(d.Amount, mask)
			viewTag := keyderivation.ViewTag(deriv, uint64(i))

			scalarBytes := scalar.Bytes()
			var encAmount [8]byte
			var amtBytes [8]byte
			binary.LittleEndian.PutUint64(amtBytes[:], d.Amount)
			for k := 0; k < 8; k++ {
				encAmount[k] = amtBytes[k] ^ scalarBytes[k]
			}

			out[i] = builtOutput{
				record: types.TxOutputRecord{
					Amount:          0,
					TargetType:      types.TargetToTaggedKey,
					OutputPublicKey: ko,
					AssetType:       d.AssetType,
					ViewTag:         viewTag,
					EncryptedAmount: encAmount,
				},
				commitment:   commit,
				mask:         mask,
				amount:       d.Amount,
				amountKey:    scalar,
				isChange:     d.IsChange,
				destSpendPub: d.SpendPub,
			}
			out[i].record.EncryptedAmount = encAmount
		}
		return out, r, nil
	}

	de := field.RandomScalar()
	deBase := carrot.EphemeralPubkey(de, field.BasePoint())

	for i, d := range dests {
		enoteType := carrot.EnoteTypePayment
		if d.IsChange {
			enoteType = carrot.EnoteTypeChange
		}

		ssr := carrot.SharedSecret(de, d.ViewPub)
		sctx := carrot.ContextualSecret(ssr, deBase, inputContext)

		mask := carrot.AmountBlindingFactor(sctx, d.Amount, d.SpendPub, enoteType)
		commit := commitment.Commit(d.Amount, mask)
		kg, kt := carrot.OneTimeExtensions(sctx, commit)
		ko := carrot.OneTimeAddress(d.SpendPub, kg, kt)

		var anchor [16]byte
		if d.IsChange {
			anchor = carrot.SpecialAnchor(deBase, inputContext, ko, sctx)
		} else {
			anchorScalar := field.RandomScalar()
			anchorBytes := anchorScalar.Bytes()
			copy(anchor[:], anchorBytes[:16])
		}

		viewTag := carrot.ViewTag3(ssr, inputContext, ko)
		encAnchor := carrot.EncryptAnchor(anchor, sctx, ko)
		encAmount := carrot.EncryptAmount(d.Amount, sctx, ko)

		out[i] = builtOutput{
			record: types.TxOutputRecord{
				Amount:               0,
				TargetType:           types.TargetToCarrotV1,
				OutputPublicKey:      ko,
				AssetType:            d.AssetType,
				CarrotViewTag:        viewTag,
				EncryptedAnchor:      encAnchor,
				EncryptedAmount:      encAmount,
			},
			commitment:   commit,
			mask:         mask,
			amount:       d.Amount,
			amountKey:    sctx,
			isChange:     d.IsChange,
			destSpendPub: d.SpendPub,
		}
	}
	return out, de, nil
}

// balancePseudoMasks assigns a random pseudo-out mask to every input but
// the last, then solves the last for Σ pseudoMask = Σ outMask so the
// commitment sums balance exactly (spec.md §3).
func balancePseudoMasks(inputs []types.Input, outputs []builtOutput) ([]field.Scalar, error) {
	masks := make([]field.Scalar, len(inputs))
	sum := field.ScZero()
	for i := 0; i < len(inputs)-1; i++ {
		masks[i] = field.RandomScalar()
		sum = sum.Add(masks[i])
	}
	outSum := field.ScZero()
	for _, o := range outputs {
		outSum = outSum.Add(o.mask)
	}
	masks[len(inputs)-1] = outSum.Sub(sum)
	return masks, nil
}

func relativeOffsets(indices []uint64) []uint64 {
	out := make([]uint64, len(indices))
	var prev uint64
	for i, idx := range indices {
		if i == 0 {
			out[i] = idx
		} else {
			out[i] = idx - prev
		}
		prev = idx
	}
	return out
}

func txPubkeyBytes(r field.Scalar) []byte {
	p := field.ScalarMultBase(r)
	b := p.Bytes()
	return b[:]
}

