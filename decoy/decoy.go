// Package decoy implements the gamma-distributed output-age decoy
// selector (spec.md §4.10): it samples a plausible "how long ago was this
// output created" duration from a gamma distribution fit to real spend
// patterns, converts it to an output index via the chain's cumulative
// output-distribution array, and repeats until a full, duplicate-free
// ring is assembled.
//
// The teacher repo has no decoy-selection analogue (it has no ring
// signatures at all in its own transaction model); this component is
// grounded directly in spec.md §4.10's algorithm description, drawing its
// CSPRNG discipline from the same injected-reader pattern field/scalar.go
// uses for RandomScalarFrom (spec.md §9's "Secure RNG" redesign note).
package decoy

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"math"
	"sort"

	"salvium/params"
	"salvium/xerrors"
)

// badPick is the sentinel returned internally when a sampled duration
// maps past the end of the known output distribution.
const badPick = -1

func uniformFloat64(r io.Reader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(buf[:])
	return float64(v>>11) / float64(uint64(1)<<53), nil
}

func uniformInt(r io.Reader, n uint64) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	f, err := uniformFloat64(r)
	if err != nil {
		return 0, err
	}
	v := uint64(f * float64(n))
	if v >= n {
		v = n - 1
	}
	return v, nil
}

func standardNormal(r io.Reader) (float64, error) {
	u1, err := uniformFloat64(r)
	if err != nil {
		return 0, err
	}
	u2, err := uniformFloat64(r)
	if err != nil {
		return 0, err
	}
	if u1 < 1e-300 {
		u1 = 1e-300
	}
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2), nil
}

// gammaSample draws from Gamma(shape, scale) via the Marsaglia-Tsang
// squeeze method (spec.md §4.10 step 1), shape >= 1 only (the engine's
// fixed shape=19.28 always satisfies this).
func gammaSample(r io.Reader, shape, scale float64) (float64, error) {
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		x, err := standardNormal(r)
		if err != nil {
			return 0, err
		}
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u, err := uniformFloat64(r)
		if err != nil {
			return 0, err
		}
		if u <= 0 {
			u = 1e-300
		}
		x2 := x * x
		if u < 1-0.0331*x2*x2 {
			return d * v * scale, nil
		}
		if math.Log(u) < 0.5*x2+d*(1-v+math.Log(v)) {
			return d * v * scale, nil
		}
	}
}

// pick draws one candidate output index (spec.md §4.10 steps 1-5): a
// gamma-distributed duration is exponentiated into "seconds ago", folded
// against the unlock/recent-spend windows, converted to an output-count
// offset from the chain tip, and mapped into the containing block via the
// cumulative output-distribution array, with a uniformly random choice of
// output within that block.
func pick(r io.Reader, offsets []uint64, averageOutputTime float64) (int64, error) {
	numRctOutputs := uint64(0)
	if len(offsets) > 0 {
		numRctOutputs = offsets[len(offsets)-1]
	}
	if numRctOutputs == 0 {
		return badPick, nil
	}

	g, err := gammaSample(r, params.GammaShape, params.GammaScale)
	if err != nil {
		return 0, err
	}
	x := math.Exp(g)

	if x > params.DefaultUnlockTime {
		x -= params.DefaultUnlockTime
	} else {
		windowSeconds := float64(params.RecentSpendWindowBlocks * params.DifficultyTargetSeconds)
		u, err := uniformFloat64(r)
		if err != nil {
			return 0, err
		}
		x = u * windowSeconds
	}

	offset := uint64(x / averageOutputTime)
	if offset >= numRctOutputs {
		return badPick, nil
	}

	targetIndex := numRctOutputs - 1 - offset

	blockIdx := sort.Search(len(offsets), func(i int) bool { return offsets[i] > targetIndex })
	if blockIdx >= len(offsets) {
		return badPick, nil
	}
	blockStart := uint64(0)
	if blockIdx > 0 {
		blockStart = offsets[blockIdx-1]
	}
	blockEnd := offsets[blockIdx]
	within, err := uniformInt(r, blockEnd-blockStart)
	if err != nil {
		return 0, err
	}
	return int64(blockStart + within), nil
}

// SelectDecoys assembles a full ring of ringSize indices, including
// realIndex, drawn from the gamma picker and deduplicated against
// excludeSet (spec.md §4.10): it retries up to 100*ringSize times,
// accumulating distinct picks into a sorted set, and returns the sorted
// index list once it reaches ringSize members. averageOutputTime is the
// caller-computed target*blocksInYear/outputsInYear estimate (spec.md
// §4.10 step 3).
func SelectDecoys(offsets []uint64, realIndex uint64, ringSize int, excludeSet map[uint64]bool, averageOutputTime float64) ([]uint64, error) {
	return SelectDecoysFrom(rand.Reader, offsets, realIndex, ringSize, excludeSet, averageOutputTime)
}

// SelectDecoysFrom is SelectDecoys with an injected randomness source, so
// callers (including tests) can substitute a deterministic seeded
// generator (spec.md §9).
func SelectDecoysFrom(r io.Reader, offsets []uint64, realIndex uint64, ringSize int, excludeSet map[uint64]bool, averageOutputTime float64) ([]uint64, error) {
	if ringSize <= 0 {
		return nil, xerrors.New(xerrors.RingShapeError, "ring size must be positive")
	}
	if averageOutputTime <= 0 {
		return nil, xerrors.New(xerrors.InvalidInput, "averageOutputTime must be positive")
	}

	chosen := map[uint64]bool{realIndex: true}
	maxRetries := params.DecoyRetryMultiplier * ringSize
	for attempt := 0; len(chosen) < ringSize && attempt < maxRetries; attempt++ {
		idx, err := pick(r, offsets, averageOutputTime)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.InvalidInput, err, "decoy: randomness source failed")
		}
		if idx == badPick {
			continue
		}
		u := uint64(idx)
		if excludeSet != nil && excludeSet[u] {
			continue
		}
		chosen[u] = true
	}

	if len(chosen) < ringSize {
		return nil, xerrors.New(xerrors.RingShapeError, "decoy: exhausted retries before filling the ring")
	}

	out := make([]uint64, 0, ringSize)
	for idx := range chosen {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// AverageOutputTime estimates the mean seconds between outputs from the
// tail of the chain (spec.md §4.10 step 3): target seconds per block
// times blocks-per-year divided by outputs-per-year.
func AverageOutputTime(outputsInYear uint64) float64 {
	if outputsInYear == 0 {
		return params.DifficultyTargetSeconds
	}
	return float64(params.DifficultyTargetSeconds) * params.BlocksInYear / float64(outputsInYear)
}
