package keyderivation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"salvium/field"
)

func TestDeriveRoundTrip(t *testing.T) {
	viewSecret := field.RandomScalar()
	viewPub := field.ScalarMultBase(viewSecret)
	spendSecret := field.RandomScalar()
	spendPub := field.ScalarMultBase(spendSecret)

	txSecret := field.RandomScalar()
	txPub := field.ScalarMultBase(txSecret)

	// Sender side: D = 8*r*A.
	dSender := Derivation(txSecret, viewPub)
	// Receiver side: D = 8*a*R.
	dReceiver := Derivation(viewSecret, txPub)
	require.True(t, dSender.Equal(dReceiver))

	outPub := DerivePublicKey(dReceiver, 0, spendPub)
	outSecret := DeriveSecretKey(dReceiver, 0, spendSecret)

	require.True(t, field.ScalarMultBase(outSecret).Equal(outPub))
}

func TestViewTagDeterministic(t *testing.T) {
	d := field.ScalarMultBase(field.RandomScalar())
	require.Equal(t, ViewTag(d, 5), ViewTag(d, 5))
}

func TestDerivationToScalarVariesByIndex(t *testing.T) {
	d := field.ScalarMultBase(field.RandomScalar())
	require.False(t, DerivationToScalar(d, 0).Equal(DerivationToScalar(d, 1)))
}
