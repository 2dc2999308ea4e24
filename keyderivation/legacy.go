// Package keyderivation implements the legacy CryptoNote-mode one-time
// output key derivation (spec.md §4.3): D = 8·a·R, derive_public_key,
// derive_secret_key, and the 1-byte view tag.
package keyderivation

import (
	"salvium/field"
	"salvium/varint"
)

// Derivation computes D = 8·secret·pub, used both by the receiver
// (secret=view secret a, pub=tx public key R) and, for subaddresses, by the
// sender (secret=tx secret r, pub=subaddress spend key C_sub).
func Derivation(secret field.Scalar, pub field.Point) field.Point {
	return pub.ScalarMult(secret).ClearCofactor()
}

// DerivationToScalar returns H_s(D ‖ varint(i)).
func DerivationToScalar(d field.Point, index uint64) field.Scalar {
	db := d.Bytes()
	idx := varint.Encode(nil, index)
	return field.HashToScalar(db[:], idx)
}

// DerivePublicKey returns H_s(D,i)·G + B, the recipient's one-time output
// public key.
func DerivePublicKey(d field.Point, index uint64, spendPub field.Point) field.Point {
	hs := DerivationToScalar(d, index)
	return field.ScalarMultBase(hs).Add(spendPub)
}

// DeriveSecretKey returns H_s(D,i) + b, the one-time output secret key
// known only to the owner of spend secret b.
func DeriveSecretKey(d field.Point, index uint64, spendSecret field.Scalar) field.Scalar {
	hs := DerivationToScalar(d, index)
	return hs.Add(spendSecret)
}

// ViewTag returns the first byte of keccak("view_tag" ‖ D ‖ varint(i)),
// letting receivers cheaply filter outputs before full ECDH.
func ViewTag(d field.Point, index uint64) byte {
	db := d.Bytes()
	idx := varint.Encode(nil, index)
	digest := field.Keccak256([]byte("view_tag"), db[:], idx)
	return digest[0]
}

// SubaddressSpendKey returns D_i = B + H_s(a ‖ i)·G, the derived spend
// public key for subaddress index i (major/minor packed by the caller into
// a single index per the wire convention).
func SubaddressSpendKey(viewSecret field.Scalar, spendPub field.Point, index uint64) field.Point {
	idx := varint.Encode(nil, index)
	as := viewSecret.Bytes()
	hs := field.HashToScalar([]byte("SubAddr"), as[:], idx)
	return spendPub.Add(field.ScalarMultBase(hs))
}
