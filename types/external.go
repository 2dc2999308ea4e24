package types

import "salvium/field"

// OutputRef identifies a single chain output the daemon collaborator is
// asked to resolve into a ring member (spec.md §6). Amount is always 0 for
// RingCT-era outputs; Index is the asset-type-local global output index.
type OutputRef struct {
	Amount uint64
	Index  uint64
}

// OutputKeyMask is the daemon's answer to a GetOuts lookup: the one-time
// public key and commitment of a single chain output.
type OutputKeyMask struct {
	Key  field.Point
	Mask field.Point
}

// DaemonOutputDistribution is the remote-node collaborator shape spec.md
// §6 names for the decoy selector's cumulative-offsets input. The core
// never calls this itself; the caller resolves it and hands the
// resulting slice to the decoy package.
type DaemonOutputDistribution interface {
	GetOutputDistribution(asset AssetType, cumulative bool) ([]uint64, error)
}

// DaemonOuts is the remote-node collaborator shape spec.md §6 names for
// resolving decoy/real output indices into ring members.
type DaemonOuts interface {
	GetOuts(refs []OutputRef, asset AssetType) ([]OutputKeyMask, error)
}

// StakeFilter narrows a GetStakes query. A zero-value field matches any
// value for that field; Status is matched only when MatchStatus is set,
// so callers can still ask for every status without a sentinel value.
type StakeFilter struct {
	MinHeight   uint64
	MaxHeight   uint64 // 0 means "no upper bound"
	Status      StakeStatus
	MatchStatus bool
}

// Matches reports whether rec satisfies f.
func (f StakeFilter) Matches(rec StakeRecord) bool {
	if rec.StakeHeight < f.MinHeight {
		return false
	}
	if f.MaxHeight != 0 && rec.StakeHeight > f.MaxHeight {
		return false
	}
	if f.MatchStatus && rec.Status != f.Status {
		return false
	}
	return true
}

// StakeStore is the stake-lifecycle storage collaborator spec.md §6
// names: a pure data store with no chain I/O. The builder and validator
// do not call it.
type StakeStore interface {
	PutStake(StakeRecord) error
	GetStake(hash Hash) (StakeRecord, error)
	GetStakes(filter StakeFilter) ([]StakeRecord, error)
	MarkStakeReturned(hash Hash, returnTxHash Hash, returnHeight uint64, returnAmount uint64) error
	DeleteStakesAbove(height uint64) error
}
