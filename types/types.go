// Package types collects the wire-level data model for the transaction
// engine (spec.md §3): one-time outputs in both legacy and CARROT shape,
// ring inputs, the pseudo-output vector, the tagged-variant transaction
// (prefix / rct-base / rct-prunable), and the stake-lifecycle record a
// StakeStore persists. It plays the role the teacher's
// own types package plays (a single place every other package imports
// shared data shapes from), generalized from the teacher's block/UTXO
// model to this engine's confidential-transaction model.
package types

import (
	"encoding/hex"
	"strings"

	"salvium/bulletproof"
	"salvium/carrot"
	"salvium/field"
	"salvium/prproof"
	"salvium/ringsig"
	"salvium/xerrors"
)

// Hash is a 32-byte keccak digest: a transaction hash, a stake-record key,
// or a block height reference passed through from the daemon collaborator.
type Hash [32]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether h is the all-zero hash (used as "no value" for
// optional hash fields such as StakeRecord.ReturnTxHash).
func (h Hash) IsZero() bool { return h == Hash{} }

// TxType is the transaction-family discriminant (SPEC_FULL.md §3). A
// legacy non-RingCT format is explicitly out of scope (spec.md §1); there
// is deliberately no "below v2" variant here.
type TxType int

const (
	TxTypeUnset TxType = iota
	TxTypeTransfer
	TxTypeStake
	TxTypeBurn
	TxTypeConvert
	TxTypeAudit
	TxTypeMiner
	TxTypeProtocol
)

func (t TxType) String() string {
	switch t {
	case TxTypeTransfer:
		return "transfer"
	case TxTypeStake:
		return "stake"
	case TxTypeBurn:
		return "burn"
	case TxTypeConvert:
		return "convert"
	case TxTypeAudit:
		return "audit"
	case TxTypeMiner:
		return "miner"
	case TxTypeProtocol:
		return "protocol"
	default:
		return "unset"
	}
}

// RctType is the ring-confidential-transaction format discriminant.
type RctType int

const (
	RctNull RctType = iota
	RctCLSAG
	RctBulletproofPlus
	RctSalviumOne // CARROT: TCLSAG + Bulletproofs+ + pr_proof
)

// AssetType is a fixed 8-byte asset identifier, NUL-padded.
type AssetType [8]byte

func assetType(s string) AssetType {
	var out AssetType
	copy(out[:], s)
	return out
}

// Known asset types (spec.md §4.13's asset-pair legality rules).
var (
	AssetSAL  = assetType("SAL1")
	AssetVSD  = assetType("VSD1")
	AssetBurn = assetType("BURN")
)

func (a AssetType) String() string {
	return strings.TrimRight(string(a[:]), "\x00")
}

// Equal reports whether two asset types are the same 8-byte identifier.
func (a AssetType) Equal(b AssetType) bool { return a == b }

// EnoteType re-exports carrot.EnoteType: the transaction-level data model
// and the CARROT derivation pipeline share one enum (spec.md §4.4).
type EnoteType = carrot.EnoteType

const (
	EnoteTypePayment   = carrot.EnoteTypePayment
	EnoteTypeChange    = carrot.EnoteTypeChange
	EnoteTypeSelfSpend = carrot.EnoteTypeSelfSpend
)

// OneTimeOutput is a legacy (pre-CARROT) one-time output as built by the
// output-creator and consumed once by the sender's signature assembly
// (spec.md §3).
type OneTimeOutput struct {
	OutputPublicKey field.Point
	TxPublicKey     field.Point
	Commitment      field.Point
	EncryptedAmount [8]byte
	Mask            field.Scalar
	Derivation      [32]byte
	ViewTag         byte
}

// CarrotOutput is a CARROT-mode output. TxPublicKey is the single
// ephemeral public key D_e shared across every output of the transaction;
// it is duplicated onto each CarrotOutput for the serializer's convenience,
// not because the protocol derives a distinct one per output.
type CarrotOutput struct {
	OutputPublicKey      field.Point
	TxPublicKey          field.Point // D_e, shared per-transaction
	Commitment           field.Point
	EncryptedAmount      [8]byte
	Mask                 field.Scalar
	CarrotViewTag        [3]byte
	EncryptedJanusAnchor [16]byte
	EnoteType            EnoteType
}

// Input is an owned one-time output plus the decoy ring it will be spent
// through (spec.md §3). Ring, RingCommitments and RingIndices must all
// have equal length R; RingIndices must be strictly ascending and
// ring[RealIndex] must equal PublicKey.
type Input struct {
	SecretKey   field.Scalar
	PublicKey   field.Point
	Amount      uint64
	Mask        field.Scalar
	AssetType   AssetType
	Ring        []field.Point
	RingCommitments []field.Point
	RingIndices []uint64
	RealIndex   int
	// IsCarrot marks whether this input's one-time key has a T-generator
	// component (a CARROT destination); TCLSAG inputs whose source output
	// predates CARROT fold in with YSecret = 0 (spec.md §4.6).
	IsCarrot  bool
	YSecret   field.Scalar
	KeyImage  field.Point
}

// Validate checks the shape invariants spec.md §3 lists for Input,
// returning a RingShapeError describing the first violation found.
func (in *Input) Validate() error {
	n := len(in.Ring)
	if n != len(in.RingCommitments) || n != len(in.RingIndices) {
		return xerrors.New(xerrors.RingShapeError, "ring, ringCommitments and ringIndices must have equal length")
	}
	if in.RealIndex < 0 || in.RealIndex >= n {
		return xerrors.New(xerrors.RingShapeError, "realIndex out of range")
	}
	if !in.Ring[in.RealIndex].Equal(in.PublicKey) {
		return xerrors.New(xerrors.RingShapeError, "ring[realIndex] does not equal publicKey")
	}
	for i := 1; i < n; i++ {
		if in.RingIndices[i] <= in.RingIndices[i-1] {
			return xerrors.New(xerrors.RingShapeError, "ringIndices must be strictly ascending")
		}
	}
	return nil
}

// PseudoOuts is the per-input commitment vector that closes the
// transaction's commitment sum (spec.md §3): Σ PseudoOuts = Σ outPk +
// fee*H.
type PseudoOuts []field.Point

// (For STAKE/BURN/CONVERT/AUDIT transactions, AmountBurnt leaves the
// confidential domain the same way the fee does, so the full invariant is
// Σ PseudoOuts = Σ outPk + (fee+AmountBurnt)*H.)

// TxInputRecord is the serialized-prefix shape of a spent input (spec.md
// §4.9 point 4): a 1-byte type tag, the (always-zero in RingCT) amount,
// the asset type, ascending relative key offsets, and the key image.
type TxInputRecord struct {
	Type       byte
	Amount     uint64
	AssetType  AssetType
	KeyOffsets []uint64
	KeyImage   field.Point
}

// TxOutputTargetType is the 1-byte output-target discriminant (spec.md
// §4.9 point 5).
type TxOutputTargetType byte

const (
	TargetToKey       TxOutputTargetType = 0
	TargetToTaggedKey TxOutputTargetType = 1
	TargetToCarrotV1  TxOutputTargetType = 2
)

// TxOutputRecord is the serialized-prefix shape of an output.
// CarrotViewTag/EncryptedAnchor are populated only when TargetType is
// TargetToCarrotV1; ViewTag is populated only for TargetToTaggedKey.
type TxOutputRecord struct {
	Amount          uint64
	TargetType      TxOutputTargetType
	OutputPublicKey field.Point
	AssetType       AssetType
	ViewTag         byte
	CarrotViewTag   [3]byte
	EncryptedAnchor [16]byte
}

// ExtraField is one tag-length-value tuple of tx-extra (spec.md §4.9
// point 6). Known tags: 0x01 tx pubkey, 0x02 payment-id nonce, 0x04
// additional pubkeys.
type ExtraField struct {
	Tag  byte
	Data []byte
}

const (
	ExtraTagTxPubkey         byte = 0x01
	ExtraTagNonce            byte = 0x02
	ExtraTagAdditionalPubkey byte = 0x04
)

// ReturnAddressData carries the version- and type-conditional trailing
// prefix fields (spec.md §4.9 point 7): the v3+ per-destination return
// address list and change mask, or the legacy single return
// address/pubkey pair, or a stake transaction's opaque protocol payload.
type ReturnAddressData struct {
	List                []field.Point // F[i], one per destination
	ChangeMask          []byte        // one byte per destination
	LegacyReturnAddress field.Point
	LegacyReturnPubkey  field.Point
	HasLegacy           bool
	ProtocolTxData      []byte
}

// TxPrefix is the unsigned, version-gated body of a transaction (spec.md
// §4.9 points 1-7).
type TxPrefix struct {
	Version              uint64
	UnlockTime           uint64
	TxType               TxType
	AmountBurnt          uint64
	SourceAssetType      AssetType
	DestinationAssetType AssetType
	AmountSlippageLimit  uint64
	Vin                  []TxInputRecord
	Vout                 []TxOutputRecord
	Extra                []ExtraField
	ReturnAddress        *ReturnAddressData
	AuditDisclosure      *AuditDisclosure
}

// SalviumData is the rct-base trailer carried by rctType >= RctSalviumOne
// (spec.md §4.9): the return-address Schnorr proof and a reserved
// self-spend audit proof, zeroed unless the CARROT self-spend case
// populates it.
type SalviumData struct {
	PRProof prproof.Proof
	SAProof [96]byte
}

// RctBase is the fee/commitment-visible section of the rct layout
// (spec.md §4.9).
type RctBase struct {
	Type        RctType
	Fee         uint64
	EcdhInfo    [][8]byte
	OutPk       []field.Point
	Pr          field.Point
	SalviumData *SalviumData
}

// RctPrunable is the signature-bearing section of the rct layout: one
// aggregated Bulletproofs+ proof (nil when the transaction has no
// outputs), one ring signature per input (CLSAG
// below the CARROT fork, TCLSAG at and above it), and the pseudo-out
// vector.
type RctPrunable struct {
	BulletproofPlus *bulletproof.Proof
	CLSAGs          []*ringsig.CLSAGSignature
	TCLSAGs         []*ringsig.TCLSAGSignature
	PseudoOuts      PseudoOuts
}

// Transaction is the fully assembled, consensus-shaped value the builder
// emits and the validator consumes (spec.md §3, §4.12, §4.13).
type Transaction struct {
	Prefix   TxPrefix
	RctBase  RctBase
	Prunable RctPrunable
}

// AuditDisclosure is the reserved AUDIT-family payload (SPEC_FULL.md §9's
// Open Question #3): the validator checks only that an AUDIT transaction
// carries one and never interprets its fields.
type AuditDisclosure struct {
	ViewSecretKey  field.Scalar
	SpendPublicKey field.Point
}

// StakeStatus is a StakeRecord's lifecycle state.
type StakeStatus int

const (
	StakeLocked StakeStatus = iota
	StakeReturned
)

func (s StakeStatus) String() string {
	if s == StakeReturned {
		return "returned"
	}
	return "locked"
}

// StakeRecord tracks one STAKE transaction's return lifecycle (spec.md
// §3, §6). Neither the builder nor the validator creates or updates one:
// BuildStake returns only the transaction, and Validate does not match
// PROTOCOL return outputs against stake records.
type StakeRecord struct {
	StakeTxHash     Hash
	StakeHeight     uint64
	AmountStaked    uint64
	ChangeOutputKey field.Point
	Status          StakeStatus
	ReturnTxHash    Hash
	ReturnHeight    uint64
	ReturnAmount    uint64
}

// ValidationError is one accumulated validation failure, tagged with the
// input/output index it applies to (or -1 when transaction-wide).
type ValidationError struct {
	Kind  xerrors.Kind
	Input int
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Input >= 0 {
		return e.Kind.String() + ": " + e.Msg
	}
	return e.Kind.String() + ": " + e.Msg
}

// ValidationResult accumulates every error found across a single
// transaction's validation pass (spec.md §8: "accumulates all detected
// errors... not just the first").
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// AddError appends a validation failure and marks the result invalid.
func (r *ValidationResult) AddError(kind xerrors.Kind, input int, msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Kind: kind, Input: input, Msg: msg})
}
