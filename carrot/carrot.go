// Package carrot implements the CARROT enote derivation pipeline (spec.md
// §4.4): ephemeral keys, shared secrets, one-time address extensions,
// amount blinding, view tags, anchor/amount/payment-id encryption, and the
// self-send special anchor.
//
// The spec describes the ephemeral-key and shared-secret steps as
// "X25519-style". This engine performs them as ordinary edwards25519
// scalar multiplications rather than converting to/from the birationally
// equivalent Curve25519 Montgomery form: the engine never needs to
// interoperate with an external X25519 implementation (no collaborator in
// spec.md §6 performs raw X25519), and the scalar-multiplication step is
// cryptographically equivalent for this engine's own derivation/encryption
// round trip. See DESIGN.md.
package carrot

import (
	"encoding/binary"

	"salvium/field"
)

// EnoteType distinguishes how an output's amount commitment mask is
// derived and, for self-sends, how the anchor is recovered.
type EnoteType byte

const (
	EnoteTypePayment   EnoteType = 0
	EnoteTypeChange    EnoteType = 1
	EnoteTypeSelfSpend EnoteType = 2
)

// InputContextPrefix tags whether an input context binds to a spent key
// image (ring-CT) or a coinbase height.
type InputContextPrefix byte

const (
	InputContextRingCT  InputContextPrefix = 'R'
	InputContextCoinbase InputContextPrefix = 'C'
)

// InputContext builds the 33-byte domain-separating tag for a CARROT
// output: prefix ‖ 32-byte key image (ring-CT) or prefix ‖ 8-byte LE
// height ‖ 24 zero bytes (coinbase).
func InputContext(prefix InputContextPrefix, keyImageOrHeight [32]byte) [33]byte {
	var out [33]byte
	out[0] = byte(prefix)
	copy(out[1:], keyImageOrHeight[:])
	return out
}

// CoinbaseInputContext builds the coinbase variant directly from a height.
func CoinbaseInputContext(height uint64) [33]byte {
	var body [32]byte
	binary.LittleEndian.PutUint64(body[:8], height)
	return InputContext(InputContextCoinbase, body)
}

// EphemeralPrivateKey derives d_e = H_s("sending key normal" ‖ anchor ‖
// inputContext ‖ K_s ‖ paymentId).
func EphemeralPrivateKey(anchor [16]byte, inputContext [33]byte, destSpendPub field.Point, paymentID [8]byte) field.Scalar {
	ks := destSpendPub.Bytes()
	return field.HashToScalar(
		[]byte("Carrot sending key normal"),
		anchor[:], inputContext[:], ks[:], paymentID[:],
	)
}

// EphemeralPubkey returns D_e = d_e·B for a main address, or d_e·K_s for a
// subaddress whose spend pubkey is K_s.
func EphemeralPubkey(de field.Scalar, base field.Point) field.Point {
	return base.ScalarMult(de)
}

// SharedSecret returns s_sr = d_e·K_v, the X25519-style ECDH shared point
// between the ephemeral private key and the destination's view pubkey.
func SharedSecret(de field.Scalar, destViewPub field.Point) field.Point {
	return destViewPub.ScalarMult(de)
}

// ContextualSecret returns s_ctx = H_s("sender-receiver secret" ‖ s_sr ‖
// D_e ‖ inputContext).
func ContextualSecret(ssr, de field.Point, inputContext [33]byte) field.Scalar {
	ssrB := ssr.Bytes()
	deB := de.Bytes()
	return field.HashToScalar(
		[]byte("Carrot sender-receiver secret"),
		ssrB[:], deB[:], inputContext[:],
	)
}

// OneTimeExtensions returns (k_g, k_t), the scalar extensions added to the
// destination spend key to form the one-time output key.
func OneTimeExtensions(sctx field.Scalar, amountCommitment field.Point) (kg, kt field.Scalar) {
	sctxB := sctx.Bytes()
	caB := amountCommitment.Bytes()
	kg = field.HashToScalar([]byte("ko G"), sctxB[:], caB[:])
	kt = field.HashToScalar([]byte("ko T"), sctxB[:], caB[:])
	return
}

// OneTimeAddress returns K_o = K_s + k_g·G + k_t·T.
func OneTimeAddress(destSpendPub field.Point, kg, kt field.Scalar) field.Point {
	return destSpendPub.Add(field.ScalarMultBase(kg)).Add(field.T().ScalarMult(kt))
}

// AmountBlindingFactor returns the Pedersen mask H_s("amount blinding" ‖
// s_ctx ‖ amount ‖ K_s ‖ enoteType).
func AmountBlindingFactor(sctx field.Scalar, amount uint64, destSpendPub field.Point, enoteType EnoteType) field.Scalar {
	sctxB := sctx.Bytes()
	ksB := destSpendPub.Bytes()
	var amtB [8]byte
	binary.LittleEndian.PutUint64(amtB[:], amount)
	return field.HashToScalar(
		[]byte("amount blinding"),
		sctxB[:], amtB[:], ksB[:], []byte{byte(enoteType)},
	)
}

// ViewTag3 returns the first 3 bytes of H("view tag" ‖ s_sr ‖ inputContext
// ‖ K_o).
func ViewTag3(ssr field.Point, inputContext [33]byte, ko field.Point) [3]byte {
	ssrB := ssr.Bytes()
	koB := ko.Bytes()
	digest := field.Keccak256([]byte("view tag"), ssrB[:], inputContext[:], koB[:])
	var out [3]byte
	copy(out[:], digest[:3])
	return out
}

// keystream derives a symmetric, self-inverse XOR keystream of length n
// from s_ctx and K_o, tagged by label so anchor/amount/payment-id each get
// an independent stream.
func keystream(label string, sctx field.Scalar, ko field.Point, n int) []byte {
	sctxB := sctx.Bytes()
	koB := ko.Bytes()
	out := make([]byte, 0, n)
	for counter := uint32(0); len(out) < n; counter++ {
		var ctr [4]byte
		binary.LittleEndian.PutUint32(ctr[:], counter)
		block := field.Keccak256([]byte(label), sctxB[:], koB[:], ctr[:])
		out = append(out, block[:]...)
	}
	return out[:n]
}

func xorBytes(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

// EncryptAnchor XOR's the 16-byte anchor with its dedicated keystream. It
// is its own inverse: decryption calls the same function.
func EncryptAnchor(anchor [16]byte, sctx field.Scalar, ko field.Point) [16]byte {
	ks := keystream("enc_anchor", sctx, ko, 16)
	var out [16]byte
	xorBytes(out[:], anchor[:], ks)
	return out
}

// EncryptAmount XOR's the 8-byte little-endian amount with its dedicated
// keystream.
func EncryptAmount(amount uint64, sctx field.Scalar, ko field.Point) [8]byte {
	var amtB [8]byte
	binary.LittleEndian.PutUint64(amtB[:], amount)
	ks := keystream("enc_amount", sctx, ko, 8)
	var out [8]byte
	xorBytes(out[:], amtB[:], ks)
	return out
}

// DecryptAmount is the inverse of EncryptAmount.
func DecryptAmount(enc [8]byte, sctx field.Scalar, ko field.Point) uint64 {
	ks := keystream("enc_amount", sctx, ko, 8)
	var out [8]byte
	xorBytes(out[:], enc[:], ks)
	return binary.LittleEndian.Uint64(out[:])
}

// EncryptPaymentID XOR's the 8-byte payment ID with its dedicated
// keystream.
func EncryptPaymentID(pid [8]byte, sctx field.Scalar, ko field.Point) [8]byte {
	ks := keystream("enc_payment_id", sctx, ko, 8)
	var out [8]byte
	xorBytes(out[:], pid[:], ks)
	return out
}

// SpecialAnchor computes the self-send anchor H_b("special anchor" ‖ D_e ‖
// inputContext ‖ K_o ‖ k_vi) truncated to 16 bytes, letting the receiver
// recognize its own change using only the view-incoming key.
func SpecialAnchor(de field.Point, inputContext [33]byte, ko field.Point, viewIncomingKey field.Scalar) [16]byte {
	deB := de.Bytes()
	koB := ko.Bytes()
	kviB := viewIncomingKey.Bytes()
	digest := field.Keccak256([]byte("special anchor"), deB[:], inputContext[:], koB[:], kviB[:])
	var out [16]byte
	copy(out[:], digest[:16])
	return out
}
