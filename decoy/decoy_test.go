package decoy

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// realisticOffsets builds a cumulative output-count array with roughly
// uniform output density across 2000 blocks.
func realisticOffsets(blocks int, perBlock uint64) []uint64 {
	offsets := make([]uint64, blocks)
	var cum uint64
	for i := 0; i < blocks; i++ {
		cum += perBlock
		offsets[i] = cum
	}
	return offsets
}

func TestSelectDecoysShapeAndExclusion(t *testing.T) {
	offsets := realisticOffsets(2000, 4)
	numRctOutputs := offsets[len(offsets)-1]
	avgOutputTime := AverageOutputTime(numRctOutputs)

	realIndex := numRctOutputs / 2
	exclude := map[uint64]bool{realIndex + 1: true, realIndex + 2: true}

	ring, err := SelectDecoysFrom(rand.Reader, offsets, realIndex, 16, exclude, avgOutputTime)
	require.NoError(t, err)
	require.Len(t, ring, 16)

	found := false
	seen := map[uint64]bool{}
	for i, idx := range ring {
		require.False(t, exclude[idx], "ring must exclude excluded indices")
		require.False(t, seen[idx], "ring must not contain duplicates")
		seen[idx] = true
		if idx == realIndex {
			found = true
		}
		if i > 0 {
			require.Less(t, ring[i-1], ring[i], "ring must be sorted ascending")
		}
	}
	require.True(t, found, "ring must contain the real index")
}

func TestPickDistributionWithinBounds(t *testing.T) {
	offsets := realisticOffsets(2000, 4)
	numRctOutputs := offsets[len(offsets)-1]
	avgOutputTime := AverageOutputTime(numRctOutputs)

	for i := 0; i < 2000; i++ {
		idx, err := pick(rand.Reader, offsets, avgOutputTime)
		require.NoError(t, err)
		if idx == badPick {
			continue
		}
		require.GreaterOrEqual(t, idx, int64(0))
		require.Less(t, idx, int64(numRctOutputs))
	}
}
