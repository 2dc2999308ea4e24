// Package xerrors defines the typed error kinds the transaction engine
// returns to its callers. The core never logs and never retries; every
// failure is surfaced as one of these kinds so a caller can format or
// branch on it without string matching.
package xerrors

import "fmt"

// Kind enumerates the error categories named in the engine's design.
type Kind int

const (
	// InvalidInput covers malformed scalars/points, wrong lengths,
	// non-canonical encodings, and zero-scalar inversion attempts.
	InvalidInput Kind = iota
	// InsufficientFunds is returned by the builder's balance check.
	InsufficientFunds
	// RingShapeError covers wrong ring size, duplicate key images, and
	// unsorted key images or offsets.
	RingShapeError
	// ForkViolation is a (tx-type, version, rct-type, asset-pair,
	// output-shape) tuple illegal for the given fork.
	ForkViolation
	// SignatureFailure covers CLSAG/TCLSAG closure mismatches and
	// pr_proof Schnorr failures.
	SignatureFailure
	// RangeProofFailure is a Bulletproof+ verification failure.
	RangeProofFailure
	// FeeShortfall is a fee below the tolerant requirement.
	FeeShortfall
	// Overflow is a 64-bit amount sum overflow.
	Overflow
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case InsufficientFunds:
		return "insufficient_funds"
	case RingShapeError:
		return "ring_shape_error"
	case ForkViolation:
		return "fork_violation"
	case SignatureFailure:
		return "signature_failure"
	case RangeProofFailure:
		return "range_proof_failure"
	case FeeShortfall:
		return "fee_shortfall"
	case Overflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// Error is the structured error value returned across the engine's API
// boundary. Input identifies the offending input/output index when one
// applies; it is -1 when the error is not input-specific.
type Error struct {
	Kind  Kind
	Input int
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Input >= 0 {
		return fmt.Sprintf("%s[input %d]: %s", e.Kind, e.Input, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error not tied to a specific input index.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Input: -1, Msg: msg}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Input: -1, Msg: fmt.Sprintf(format, args...)}
}

// At builds an Error tied to a specific input/output index.
func At(kind Kind, input int, msg string) *Error {
	return &Error{Kind: kind, Input: input, Msg: msg}
}

// Wrap builds an Error wrapping an underlying cause.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Input: -1, Msg: msg, Err: err}
}
