package xerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	e := New(InvalidInput, "bad scalar")
	require.Equal(t, "invalid_input: bad scalar", e.Error())

	at := At(SignatureFailure, 2, "closure mismatch")
	require.Equal(t, "signature_failure[input 2]: closure mismatch", at.Error())
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	wrapped := Wrap(RangeProofFailure, cause, "verify failed")
	require.ErrorIs(t, wrapped, cause)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "fork_violation", ForkViolation.String())
	require.Equal(t, "unknown", Kind(999).String())
}

func TestNewf(t *testing.T) {
	e := Newf(Overflow, "sum %d exceeds 64 bits", 42)
	require.Equal(t, "overflow: sum 42 exceeds 64 bits", e.Error())
}
