package validator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"salvium/builder"
	"salvium/commitment"
	"salvium/field"
	"salvium/params"
	"salvium/ringsig"
	"salvium/types"
)

func buildInput(t *testing.T, n, realIndex int, amount uint64, asset types.AssetType) types.Input {
	t.Helper()
	secret := field.RandomScalar()
	pub := field.ScalarMultBase(secret)
	mask := field.RandomScalar()
	realCommit := commitment.Commit(amount, mask)

	ring := make([]field.Point, n)
	ringCommitments := make([]field.Point, n)
	indices := make([]uint64, n)
	for i := 0; i < n; i++ {
		if i == realIndex {
			ring[i] = pub
			ringCommitments[i] = realCommit
		} else {
			ring[i] = field.ScalarMultBase(field.RandomScalar())
			ringCommitments[i] = commitment.Commit(uint64(100+i), field.RandomScalar())
		}
		indices[i] = uint64(i * 2)
	}

	return types.Input{
		SecretKey:       secret,
		PublicKey:       pub,
		Amount:          amount,
		Mask:            mask,
		AssetType:       asset,
		Ring:            ring,
		RingCommitments: ringCommitments,
		RingIndices:     indices,
		RealIndex:       realIndex,
		YSecret:         field.ScZero(),
	}
}

func dest(amount uint64, asset types.AssetType, isChange bool) builder.Destination {
	return builder.Destination{
		SpendPub:  field.ScalarMultBase(field.RandomScalar()),
		ViewPub:   field.ScalarMultBase(field.RandomScalar()),
		Amount:    amount,
		AssetType: asset,
		IsChange:  isChange,
	}
}

// vinOrder returns inputs rearranged into tx.Prefix.Vin order. The builder
// sorts inputs by key image, and Validate expects its resolved inputs in
// that same order.
func vinOrder(t *testing.T, tx *types.Transaction, inputs []types.Input) []types.Input {
	t.Helper()
	out := make([]types.Input, len(tx.Prefix.Vin))
	for i, vin := range tx.Prefix.Vin {
		for _, in := range inputs {
			if ringsig.KeyImage(in.PublicKey, in.SecretKey).Equal(vin.KeyImage) {
				out[i] = in
			}
		}
	}
	return out
}

func buildValidLegacyTx(t *testing.T) (*types.Transaction, []types.Input) {
	t.Helper()
	asset := types.AssetSAL
	in1 := buildInput(t, params.RingSizeLegacy, 1, 1_000_000_000, asset)
	in2 := buildInput(t, params.RingSizeLegacy, 6, 500_000_000, asset)
	inputs := []types.Input{in1, in2}

	tx, err := builder.Build(builder.Params{
		TxType:          types.TxTypeTransfer,
		Fork:            params.ForkRingCT,
		Inputs:          inputs,
		Destinations:    []builder.Destination{dest(1_200_000_000, asset, false), dest(249_950_000, asset, true)},
		Fee:             50_000,
		SourceAssetType: asset,
		DestAssetType:   asset,
	})
	require.NoError(t, err)
	return tx, vinOrder(t, tx, inputs)
}

func TestValidateAcceptsWellFormedLegacyTransfer(t *testing.T) {
	tx, inputs := buildValidLegacyTx(t)
	res := Validate(tx, inputs, Context{Fork: params.ForkRingCT})
	require.True(t, res.Valid, "%+v", res.Errors)
	require.Equal(t, StageAccepted, res.Stage)
}

func TestValidateRejectsTamperedCLSAGByte(t *testing.T) {
	tx, inputs := buildValidLegacyTx(t)

	bad := *tx.Prunable.CLSAGs[0]
	c1b := bad.C1.Bytes()
	c1b[0] ^= 0x01
	flipped, err := field.ScalarFromCanonicalBytes(c1b)
	require.NoError(t, err)
	bad.C1 = flipped
	tx.Prunable.CLSAGs[0] = &bad

	res := Validate(tx, inputs, Context{Fork: params.ForkRingCT})
	require.False(t, res.Valid)
	require.Equal(t, StageRejected, res.Stage)

	found := false
	for _, e := range res.Errors {
		if e.Kind.String() == "signature_failure" && e.Input == 0 {
			found = true
		}
	}
	require.True(t, found, "%+v", res.Errors)
}

func TestValidateRejectsForkMismatch(t *testing.T) {
	tx, inputs := buildValidLegacyTx(t)
	// CARROT fork requires the SalviumOne rct type; this tx is BulletproofPlus/CLSAG.
	res := Validate(tx, inputs, Context{Fork: params.ForkCarrot})
	require.False(t, res.Valid)
	foundFork := false
	for _, e := range res.Errors {
		if e.Kind.String() == "fork_violation" {
			foundFork = true
		}
	}
	require.True(t, foundFork, "%+v", res.Errors)
}

func TestValidateRejectsUnbalancedCommitments(t *testing.T) {
	tx, inputs := buildValidLegacyTx(t)
	tx.RctBase.Fee++ // desync the commitment balance without redoing the proof
	res := Validate(tx, inputs, Context{Fork: params.ForkRingCT})
	require.False(t, res.Valid)
}

func TestValidateRejectsEmptyVin(t *testing.T) {
	tx, inputs := buildValidLegacyTx(t)
	tx.Prefix.Vin = nil
	res := Validate(tx, inputs, Context{Fork: params.ForkRingCT})
	require.False(t, res.Valid)
	require.Equal(t, StageRejected, res.Stage)
}

func TestValidateAcceptsCarrotTransfer(t *testing.T) {
	asset := types.AssetSAL
	in1 := buildInput(t, params.RingSizeCarrot, 0, 1_000_000_000, asset)
	in2 := buildInput(t, params.RingSizeCarrot, 15, 500_000_000, asset)
	inputs := []types.Input{in1, in2}

	tx, err := builder.Build(builder.Params{
		TxType:          types.TxTypeTransfer,
		Fork:            params.ForkCarrot,
		Inputs:          inputs,
		Destinations:    []builder.Destination{dest(1_200_000_000, asset, false), dest(249_950_000, asset, true)},
		Fee:             50_000,
		SourceAssetType: asset,
		DestAssetType:   asset,
	})
	require.NoError(t, err)

	res := Validate(tx, vinOrder(t, tx, inputs), Context{Fork: params.ForkCarrot})
	require.True(t, res.Valid, "%+v", res.Errors)
	require.Equal(t, StageAccepted, res.Stage)
}

func TestValidateRejectsTamperedPr(t *testing.T) {
	asset := types.AssetSAL
	in1 := buildInput(t, params.RingSizeCarrot, 0, 1_000_000_000, asset)
	in2 := buildInput(t, params.RingSizeCarrot, 15, 500_000_000, asset)
	inputs := []types.Input{in1, in2}

	tx, err := builder.Build(builder.Params{
		TxType:          types.TxTypeTransfer,
		Fork:            params.ForkCarrot,
		Inputs:          inputs,
		Destinations:    []builder.Destination{dest(1_200_000_000, asset, false), dest(249_950_000, asset, true)},
		Fee:             50_000,
		SourceAssetType: asset,
		DestAssetType:   asset,
	})
	require.NoError(t, err)

	// p_r must be the identity for any balanced transaction; swapping in an
	// unrelated non-identity point must be caught even though every other
	// commitment and signature in the transaction is still untouched.
	tx.RctBase.Pr = field.ScalarMultBase(field.RandomScalar())

	res := Validate(tx, inputs, Context{Fork: params.ForkCarrot})
	require.False(t, res.Valid)
}

func TestValidateRejectsBurnWithZeroAmountBurnt(t *testing.T) {
	asset := types.AssetSAL
	in1 := buildInput(t, params.RingSizeLegacy, 0, 1_000_000_000, asset)
	inputs := []types.Input{in1}

	tx, err := builder.Build(builder.Params{
		TxType:          types.TxTypeBurn,
		Fork:            params.ForkRingCT,
		Inputs:          inputs,
		Destinations:    []builder.Destination{dest(999_950_000, asset, true)},
		Fee:             50_000,
		AmountBurnt:     0, // invalid: burn requires a non-zero burnt amount
		SourceAssetType: asset,
		DestAssetType:   asset,
	})
	require.NoError(t, err)

	res := Validate(tx, inputs, Context{Fork: params.ForkRingCT})
	require.False(t, res.Valid)
}
