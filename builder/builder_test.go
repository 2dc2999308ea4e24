package builder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"salvium/commitment"
	"salvium/field"
	"salvium/params"
	"salvium/prproof"
	"salvium/ringsig"
	"salvium/types"
	"salvium/validator"
)

// buildInput fabricates an owned ring input of ring size n with the real
// row at realIndex, mirroring spec.md §8 scenario 1's shape: a random
// decoy ring, the real one-time key/commitment opening to amount, and a
// strictly ascending set of ring indices.
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

func randomDestination(amount uint64, asset types.AssetType, isChange bool) Destination {
	return Destination{
		SpendPub:  field.ScalarMultBase(field.RandomScalar()),
		ViewPub:   field.ScalarMultBase(field.RandomScalar()),
		Amount:    amount,
		AssetType: asset,
		IsChange:  isChange,
	}
}

func TestBuildLegacyTransferRoundTrip(t *testing.T) {
	asset := types.AssetSAL
	in1 := buildInput(t, params.RingSizeLegacy, 3, 1_000_000_000, asset)
	in2 := buildInput(t, params.RingSizeLegacy, 7, 500_000_000, asset)

	dest := randomDestination(1_200_000_000, asset, false)
	change := randomDestination(249_950_000, asset, true)

	p := Params{
		TxType:          types.TxTypeTransfer,
		Fork:            params.ForkRingCT,
		Inputs:          []types.Input{in1, in2},
		Destinations:    []Destination{dest, change},
		Fee:             50_000,
		SourceAssetType: asset,
		DestAssetType:   asset,
	}

	tx, err := Build(p)
	require.NoError(t, err)
	require.Len(t, tx.Prunable.CLSAGs, 2)
	require.Empty(t, tx.Prunable.TCLSAGs)
	require.Len(t, tx.Prunable.CLSAGs[0].S, params.RingSizeLegacy)
	require.NotNil(t, tx.Prunable.BulletproofPlus)
	require.Len(t, tx.Prunable.BulletproofPlus.V, 2)

	// Σ pseudoOuts - Σ outPk = fee*H
	left := field.IdentityPoint()
	for _, po := range tx.Prunable.PseudoOuts {
		left = left.Add(po)
	}
	right := field.IdentityPoint()
	for _, pk := range tx.RctBase.OutPk {
		right = right.Add(pk)
	}
	feeScalar, err := field.ScalarFromUint64(p.Fee)
	require.NoError(t, err)
	right = right.Add(field.H().ScalarMult(feeScalar))
	require.True(t, left.Equal(right))

	inputs := vinOrder(t, tx, []types.Input{in1, in2})
	res := validator.Validate(tx, inputs, validator.Context{Fork: params.ForkRingCT})
	require.True(t, res.Valid, "%+v", res.Errors)
	require.Equal(t, validator.StageAccepted, res.Stage)
}

func TestBuildCarrotTransferRoundTrip(t *testing.T) {
	asset := types.AssetSAL
	in1 := buildInput(t, params.RingSizeCarrot, 2, 1_000_000_000, asset)
	in2 := buildInput(t, params.RingSizeCarrot, 9, 500_000_000, asset)

	dest := randomDestination(1_200_000_000, asset, false)
	change := randomDestination(249_950_000, asset, true)

	p := Params{
		TxType:          types.TxTypeTransfer,
		Fork:            params.ForkCarrot,
		Inputs:          []types.Input{in1, in2},
		Destinations:    []Destination{dest, change},
		Fee:             50_000,
		SourceAssetType: asset,
		DestAssetType:   asset,
	}

	tx, err := Build(p)
	require.NoError(t, err)
	require.Len(t, tx.Prunable.TCLSAGs, 2)
	require.Empty(t, tx.Prunable.CLSAGs)
	require.Equal(t, types.RctSalviumOne, tx.RctBase.Type)
	require.NotNil(t, tx.RctBase.SalviumData)

	// p_r commits to Δ = Σ pseudoMasks - Σ outputMasks, which the builder's
	// own pseudo-out balancing always forces to zero.
	require.True(t, tx.RctBase.Pr.Equal(field.IdentityPoint()))
	require.NoError(t, prproof.Verify(tx.RctBase.Pr, tx.RctBase.SalviumData.PRProof))

	// outputs must be sorted by one-time key ascending.
	for i := 1; i < len(tx.Prefix.Vout); i++ {
		a := tx.Prefix.Vout[i-1].OutputPublicKey.Bytes()
		b := tx.Prefix.Vout[i].OutputPublicKey.Bytes()
		require.True(t, lessOrEqualBytes(a, b))
		require.Equal(t, types.TargetToCarrotV1, tx.Prefix.Vout[i].TargetType)
	}

	inputs := vinOrder(t, tx, []types.Input{in1, in2})
	res := validator.Validate(tx, inputs, validator.Context{Fork: params.ForkCarrot})
	require.True(t, res.Valid, "%+v", res.Errors)
	require.Equal(t, validator.StageAccepted, res.Stage)
}

func TestBuildRejectsImbalancedAmounts(t *testing.T) {
	asset := types.AssetSAL
	in1 := buildInput(t, params.RingSizeLegacy, 0, 1_000_000_000, asset)
	dest := randomDestination(999_999_999, asset, false)

	p := Params{
		TxType:          types.TxTypeTransfer,
		Fork:            params.ForkRingCT,
		Inputs:          []types.Input{in1},
		Destinations:    []Destination{dest},
		Fee:             2, // deliberately does not balance (in=1e9, out+fee=1e9+1)
		SourceAssetType: asset,
		DestAssetType:   asset,
	}
	_, err := Build(p)
	require.Error(t, err)
}

func TestBuildRejectsEmptyInputsOrDestinations(t *testing.T) {
	asset := types.AssetSAL
	in1 := buildInput(t, params.RingSizeLegacy, 0, 1_000, asset)
	dest := randomDestination(1_000, asset, false)

	_, err := Build(Params{Destinations: []Destination{dest}})
	require.Error(t, err)

	_, err = Build(Params{Inputs: []types.Input{in1}})
	require.Error(t, err)
}

func TestBuildStakeRoundTrip(t *testing.T) {
	asset := types.AssetSAL
	in1 := buildInput(t, params.RingSizeLegacy, 4, 100_000_000_000, asset)
	fee := uint64(50_000)
	stakeAmount := 100_000_000_000 - fee
	change := randomDestination(0, asset, true)

	tx, err := BuildStake(StakeParams{
		Fork:        params.ForkRingCT,
		Inputs:      []types.Input{in1},
		StakeAmount: stakeAmount,
		Fee:         fee,
		Change:      change,
		AssetType:   asset,
	})
	require.NoError(t, err)
	require.Equal(t, types.TxTypeStake, tx.Prefix.TxType)
	require.Equal(t, stakeAmount, tx.Prefix.AmountBurnt)
	require.Len(t, tx.Prefix.Vout, 1)
	require.Equal(t, params.StakeLockPeriodDefault, tx.Prefix.UnlockTime)

	res := validator.Validate(tx, []types.Input{in1}, validator.Context{Fork: params.ForkRingCT})
	require.True(t, res.Valid, "%+v", res.Errors)
	require.Equal(t, validator.StageAccepted, res.Stage)
}

func TestBuildAuditRoundTrip(t *testing.T) {
	asset := types.AssetSAL
	fee := uint64(1_000)
	auditAmount := uint64(42_000_000_000)
	in1 := buildInput(t, params.RingSizeLegacy, 2, auditAmount+fee, asset)

	tx, err := BuildAudit(AuditParams{
		Fork:         params.ForkAudit,
		Inputs:       []types.Input{in1},
		AuditAmount:  auditAmount,
		Fee:          fee,
		UnlockHeight: 12345,
		AssetType:    asset,
		Disclosure: types.AuditDisclosure{
			ViewSecretKey:  field.RandomScalar(),
			SpendPublicKey: field.ScalarMultBase(field.RandomScalar()),
		},
	})
	require.NoError(t, err)
	require.Empty(t, tx.Prefix.Vout)
	require.Nil(t, tx.Prunable.BulletproofPlus)
	require.NotNil(t, tx.Prefix.AuditDisclosure)

	res := validator.Validate(tx, []types.Input{in1}, validator.Context{Fork: params.ForkAudit})
	require.True(t, res.Valid, "%+v", res.Errors)
	require.Equal(t, validator.StageAccepted, res.Stage)
}

// vinOrder returns inputs rearranged into tx.Prefix.Vin order. Build sorts
// inputs by key image, and validator.Validate expects its resolved inputs
// in that same order.
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

func lessOrEqualBytes(a, b [32]byte) bool {
	for i := 0; i < 32; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return true
}
