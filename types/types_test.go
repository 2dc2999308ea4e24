package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"salvium/field"
	"salvium/xerrors"
)

func sampleInput() Input {
	pub := field.ScalarMultBase(field.RandomScalar())
	return Input{
		PublicKey:       pub,
		Ring:            []field.Point{field.ScalarMultBase(field.RandomScalar()), pub, field.ScalarMultBase(field.RandomScalar())},
		RingCommitments: make([]field.Point, 3),
		RingIndices:     []uint64{0, 2, 5},
		RealIndex:       1,
	}
}

func TestInputValidateAccepts(t *testing.T) {
	in := sampleInput()
	require.NoError(t, in.Validate())
}

func TestInputValidateRejectsLengthMismatch(t *testing.T) {
	in := sampleInput()
	in.RingCommitments = in.RingCommitments[:2]
	require.Error(t, in.Validate())
}

func TestInputValidateRejectsRealIndexOutOfRange(t *testing.T) {
	in := sampleInput()
	in.RealIndex = 99
	require.Error(t, in.Validate())
}

func TestInputValidateRejectsMismatchedPublicKey(t *testing.T) {
	in := sampleInput()
	in.PublicKey = field.ScalarMultBase(field.RandomScalar())
	require.Error(t, in.Validate())
}

func TestInputValidateRejectsUnsortedIndices(t *testing.T) {
	in := sampleInput()
	in.RingIndices = []uint64{0, 5, 2}
	require.Error(t, in.Validate())
}

func TestValidationResultAddError(t *testing.T) {
	res := ValidationResult{Valid: true}
	res.AddError(xerrors.RingShapeError, 1, "bad ring shape")

	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	require.Equal(t, xerrors.RingShapeError, res.Errors[0].Kind)
	require.Equal(t, 1, res.Errors[0].Input)
}
