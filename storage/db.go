// Package storage implements the stake-lifecycle storage collaborator
// spec.md §6 names (types.StakeStore), backed by an embedded BadgerDB
// instance.
//
// This is a direct adaptation of the teacher's block/transaction
// BadgerDB layer (github.com/dgraph-io/badger/v3, same
// badger.DefaultOptions/txn.Update/txn.View idiom and silence-by-default
// logger knob) repurposed from storing blocks and transactions to
// storing StakeRecord values keyed by stake transaction hash. There is no
// secondary index: GetStakes and DeleteStakesAbove iterate over every
// stored stake record.
package storage

import (
	"encoding/hex"
	"encoding/json"
	"strconv"

	"github.com/dgraph-io/badger/v3"

	"salvium/field"
	"salvium/types"
	"salvium/xerrors"
)

// Store wraps a BadgerDB instance as a types.StakeStore.
type Store struct {
	db *badger.DB
}

var _ types.StakeStore = (*Store)(nil)

// Open opens or creates a BadgerDB database at path for stake-record
// storage.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // the core never logs; the storage collaborator doesn't either

	db, err := badger.Open(opts)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.InvalidInput, err, "storage: open badger database")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// stakeRecordWire is the persisted JSON shape spec.md §6 requires: 64-bit
// integers as base-10 strings (so large amounts survive round-trips
// through JSON's float64-by-default numeric type) and optional 32-byte
// keys as nullable hex.
type stakeRecordWire struct {
	StakeTxHash     string  `json:"stake_tx_hash"`
	StakeHeight     string  `json:"stake_height"`
	AmountStaked    string  `json:"amount_staked"`
	ChangeOutputKey string  `json:"change_output_key"`
	Status          string  `json:"status"`
	ReturnTxHash    *string `json:"return_tx_hash"`
	ReturnHeight    string  `json:"return_height"`
	ReturnAmount    string  `json:"return_amount"`
}

func encodeStakeRecord(r types.StakeRecord) ([]byte, error) {
	w := stakeRecordWire{
		StakeTxHash:     r.StakeTxHash.String(),
		StakeHeight:     strconv.FormatUint(r.StakeHeight, 10),
		AmountStaked:    strconv.FormatUint(r.AmountStaked, 10),
		ChangeOutputKey: hex.EncodeToString(pointBytes(r.ChangeOutputKey)),
		Status:          r.Status.String(),
		ReturnHeight:    strconv.FormatUint(r.ReturnHeight, 10),
		ReturnAmount:    strconv.FormatUint(r.ReturnAmount, 10),
	}
	if !r.ReturnTxHash.IsZero() {
		s := r.ReturnTxHash.String()
		w.ReturnTxHash = &s
	}
	return json.Marshal(w)
}

func decodeStakeRecord(data []byte) (types.StakeRecord, error) {
	var w stakeRecordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return types.StakeRecord{}, xerrors.Wrap(xerrors.InvalidInput, err, "storage: decode stake record")
	}
	var r types.StakeRecord
	if err := decodeHash(w.StakeTxHash, &r.StakeTxHash); err != nil {
		return types.StakeRecord{}, err
	}
	height, err := strconv.ParseUint(w.StakeHeight, 10, 64)
	if err != nil {
		return types.StakeRecord{}, xerrors.Wrap(xerrors.InvalidInput, err, "storage: decode stake height")
	}
	r.StakeHeight = height
	amount, err := strconv.ParseUint(w.AmountStaked, 10, 64)
	if err != nil {
		return types.StakeRecord{}, xerrors.Wrap(xerrors.InvalidInput, err, "storage: decode staked amount")
	}
	r.AmountStaked = amount
	if err := decodePoint(w.ChangeOutputKey, &r.ChangeOutputKey); err != nil {
		return types.StakeRecord{}, err
	}
	if w.Status == "returned" {
		r.Status = types.StakeReturned
	} else {
		r.Status = types.StakeLocked
	}
	if w.ReturnTxHash != nil {
		if err := decodeHash(*w.ReturnTxHash, &r.ReturnTxHash); err != nil {
			return types.StakeRecord{}, err
		}
	}
	returnHeight, err := strconv.ParseUint(w.ReturnHeight, 10, 64)
	if err != nil {
		return types.StakeRecord{}, xerrors.Wrap(xerrors.InvalidInput, err, "storage: decode return height")
	}
	r.ReturnHeight = returnHeight
	returnAmount, err := strconv.ParseUint(w.ReturnAmount, 10, 64)
	if err != nil {
		return types.StakeRecord{}, xerrors.Wrap(xerrors.InvalidInput, err, "storage: decode return amount")
	}
	r.ReturnAmount = returnAmount
	return r, nil
}

func decodeHash(s string, out *types.Hash) error {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return xerrors.New(xerrors.InvalidInput, "storage: malformed stake hash hex")
	}
	copy(out[:], b)
	return nil
}

const stakeKeyPrefix = 's'

func stakeKey(hash types.Hash) []byte {
	key := make([]byte, 33)
	key[0] = stakeKeyPrefix
	copy(key[1:], hash[:])
	return key
}

// PutStake writes rec, overwriting any prior record with the same
// StakeTxHash.
func (s *Store) PutStake(rec types.StakeRecord) error {
	data, err := encodeStakeRecord(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(stakeKey(rec.StakeTxHash), data)
	})
}

// GetStake retrieves the stake record keyed by hash.
func (s *Store) GetStake(hash types.Hash) (types.StakeRecord, error) {
	var rec types.StakeRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(stakeKey(hash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := decodeStakeRecord(val)
			if err != nil {
				return err
			}
			rec = decoded
			return nil
		})
	})
	if err != nil {
		return types.StakeRecord{}, err
	}
	return rec, nil
}

// GetStakes returns every stake record matching filter, in ascending
// StakeTxHash order (Badger's natural key order under the stake
// prefix).
func (s *Store) GetStakes(filter types.StakeFilter) ([]types.StakeRecord, error) {
	var out []types.StakeRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{stakeKeyPrefix}
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte{stakeKeyPrefix}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				rec, err := decodeStakeRecord(val)
				if err != nil {
					return err
				}
				if filter.Matches(rec) {
					out = append(out, rec)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkStakeReturned transitions an existing stake record to StakeReturned
// and records the protocol transaction that closed it.
func (s *Store) MarkStakeReturned(hash types.Hash, returnTxHash types.Hash, returnHeight uint64, returnAmount uint64) error {
	rec, err := s.GetStake(hash)
	if err != nil {
		return err
	}
	rec.Status = types.StakeReturned
	rec.ReturnTxHash = returnTxHash
	rec.ReturnHeight = returnHeight
	rec.ReturnAmount = returnAmount
	return s.PutStake(rec)
}

// DeleteStakesAbove removes every stake record with StakeHeight > height,
// the reorg-rollback operation the builder's chain-sync caller performs
// (the engine itself never reorgs; it only deletes what it is told to).
func (s *Store) DeleteStakesAbove(height uint64) error {
	stale, err := s.GetStakes(types.StakeFilter{MinHeight: height + 1})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, rec := range stale {
			if err := txn.Delete(stakeKey(rec.StakeTxHash)); err != nil {
				return err
			}
		}
		return nil
	})
}

func pointBytes(p field.Point) []byte {
	b := p.Bytes()
	return b[:]
}

func decodePoint(s string, out *field.Point) error {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return xerrors.New(xerrors.InvalidInput, "storage: malformed point hex")
	}
	var arr [32]byte
	copy(arr[:], b)
	p, err := field.PointFromBytes(arr)
	if err != nil {
		return xerrors.Wrap(xerrors.InvalidInput, err, "storage: decode point")
	}
	*out = p
	return nil
}
