package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"salvium/field"
	"salvium/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "stakes"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleStake(hash byte, height uint64) types.StakeRecord {
	var h types.Hash
	h[0] = hash
	return types.StakeRecord{
		StakeTxHash:     h,
		StakeHeight:     height,
		AmountStaked:    100_000_000_000,
		ChangeOutputKey: field.ScalarMultBase(field.RandomScalar()),
		Status:          types.StakeLocked,
	}
}

func TestPutAndGetStake(t *testing.T) {
	s := openTestStore(t)
	rec := sampleStake(1, 1000)
	require.NoError(t, s.PutStake(rec))

	got, err := s.GetStake(rec.StakeTxHash)
	require.NoError(t, err)
	require.Equal(t, rec.StakeTxHash, got.StakeTxHash)
	require.Equal(t, rec.StakeHeight, got.StakeHeight)
	require.Equal(t, rec.AmountStaked, got.AmountStaked)
	require.True(t, rec.ChangeOutputKey.Equal(got.ChangeOutputKey))
	require.Equal(t, types.StakeLocked, got.Status)
}

func TestMarkStakeReturned(t *testing.T) {
	s := openTestStore(t)
	rec := sampleStake(2, 500)
	require.NoError(t, s.PutStake(rec))

	var returnHash types.Hash
	returnHash[0] = 0xAA
	require.NoError(t, s.MarkStakeReturned(rec.StakeTxHash, returnHash, 600, 99_000_000_000))

	got, err := s.GetStake(rec.StakeTxHash)
	require.NoError(t, err)
	require.Equal(t, types.StakeReturned, got.Status)
	require.Equal(t, returnHash, got.ReturnTxHash)
	require.Equal(t, uint64(600), got.ReturnHeight)
	require.Equal(t, uint64(99_000_000_000), got.ReturnAmount)
}

func TestGetStakesFilter(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.PutStake(sampleStake(1, 100)))
	require.NoError(t, s.PutStake(sampleStake(2, 200)))
	require.NoError(t, s.PutStake(sampleStake(3, 300)))

	all, err := s.GetStakes(types.StakeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	above150, err := s.GetStakes(types.StakeFilter{MinHeight: 150})
	require.NoError(t, err)
	require.Len(t, above150, 2)

	bounded, err := s.GetStakes(types.StakeFilter{MinHeight: 150, MaxHeight: 250})
	require.NoError(t, err)
	require.Len(t, bounded, 1)
}

func TestDeleteStakesAbove(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.PutStake(sampleStake(1, 100)))
	require.NoError(t, s.PutStake(sampleStake(2, 200)))
	require.NoError(t, s.PutStake(sampleStake(3, 300)))

	require.NoError(t, s.DeleteStakesAbove(150))

	remaining, err := s.GetStakes(types.StakeFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, uint64(100), remaining[0].StakeHeight)
}

func TestGetStakeMissingReturnsError(t *testing.T) {
	s := openTestStore(t)
	var missing types.Hash
	missing[0] = 0xFF
	_, err := s.GetStake(missing)
	require.Error(t, err)
}
