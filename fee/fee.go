// Package fee implements the transaction size/weight estimator and the
// 2021 dynamic per-byte fee rule (spec.md §4.11). Weight differs from raw
// serialized size by a "bulletproof clawback": an aggregated Bulletproofs+
// proof is cheaper per output than `numOutputs` independent proofs would
// be, and the clawback credits that saving back so multi-output
// transactions aren't charged as if they paid for unaggregated proofs.
//
// The teacher repo has no fee model of its own (its Transaction.Fee field
// is a bare visible uint64 the caller sets directly); this component is
// grounded in spec.md §4.11's formulas rather than in teacher code.
package fee

import (
	"math/bits"

	"salvium/params"
	"salvium/xerrors"
)

// bpBase and the log2(pad) term in bpSize together model the per-output
// marginal cost a single aggregated Bulletproofs+ proof saves versus one
// proof per output (spec.md §4.11).
const bpBase = 32 * (6 + 14) / 2

func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

func log2(n int) int {
	return bits.Len(uint(n)) - 1
}

func bpSize(pad int) int {
	return 32 * (6 + 2*(6+log2(pad)))
}

// bulletproofClawback returns the weight credit for aggregating
// numOutputs range proofs into one Bulletproofs+ proof (spec.md §4.11):
// zero when numOutputs <= 2, since the clawback only applies once
// aggregation actually saves space over two independent proofs.
func bulletproofClawback(numOutputs int) uint64 {
	if numOutputs <= 2 {
		return 0
	}
	pad := nextPow2(numOutputs)
	raw := bpBase*pad - bpSize(pad)
	if raw <= 0 {
		return 0
	}
	return uint64(raw) * 4 / 5
}

// EstimateSize returns the estimated serialized byte size of a
// transaction with the given shape, summing the prefix, rct-base and
// rct-prunable contributions described in spec.md §4.9.
func EstimateSize(numInputs, numOutputs, ringSize, extraSize int) uint64 {
	// Prefix: per-input (type + asset + keyOffsets + key image), per-output
	// (amount + target + pubkey + asset + view-tag/anchor), plus extra.
	perInput := 1 + 8 + ringSize + 32  // keyOffsets approximated at 1 varint byte each
	perOutput := 9 + 1 + 32 + 8 + 3 + 16 // worst case: CARROT view tag + encrypted anchor
	prefixSize := 8 + numInputs*perInput + numOutputs*perOutput + extraSize

	// rct-base: type + fee + ecdhInfo(8/output) + outPk(32/output) + p_r.
	rctBaseSize := 1 + 9 + numOutputs*8 + numOutputs*32 + 32

	// rct-prunable: one aggregated Bulletproofs+ proof sized for
	// numOutputs, one ring signature per input, one pseudo-out per input.
	pad := nextPow2(numOutputs)
	if pad == 0 {
		pad = 1
	}
	bpProofSize := bpSize(pad)
	perSig := ringSize*32 + 32 + 32 + 32 // s[]/sx[]+sy[] approximated at one scalar row + c1 + I + D
	prunableSize := 1 + bpProofSize + numInputs*perSig + numInputs*32

	return uint64(prefixSize + rctBaseSize + prunableSize)
}

// EstimateWeight returns the fee-relevant weight: estimated size minus the
// bulletproof aggregation clawback (spec.md §4.11).
func EstimateWeight(numInputs, numOutputs, ringSize, extraSize int) uint64 {
	size := EstimateSize(numInputs, numOutputs, ringSize, extraSize)
	clawback := bulletproofClawback(numOutputs)
	if clawback >= size {
		return 0
	}
	return size - clawback
}

// PerByteFee computes the 2021-scaling dynamic per-byte fee (spec.md
// §4.11): max(minFeePerByte, (DYNAMIC_FEE_PER_KB_BASE/1024) *
// BASE_REWARD/currentBlockReward) * priorityMultiplier.
func PerByteFee(minFeePerByte uint64, currentBlockReward uint64, priority params.Priority) (uint64, error) {
	if currentBlockReward == 0 {
		return 0, xerrors.New(xerrors.InvalidInput, "currentBlockReward must be non-zero")
	}
	scaled := (params.DynamicFeePerKBBase2021 / 1024) * params.BaseRewardReference / currentBlockReward
	base := minFeePerByte
	if scaled > base {
		base = scaled
	}
	return base * priority.Multiplier(), nil
}

// Quantize rounds fee up to the next multiple of
// 10^params.FeeQuantizationDecimals.
func Quantize(fee uint64) uint64 {
	var step uint64 = 1
	for i := 0; i < params.FeeQuantizationDecimals; i++ {
		step *= 10
	}
	if fee%step == 0 {
		return fee
	}
	return (fee/step + 1) * step
}

// Compute returns the final quantized fee for a transaction of the given
// shape at the given priority.
func Compute(numInputs, numOutputs, ringSize, extraSize int, minFeePerByte, currentBlockReward uint64, priority params.Priority) (uint64, error) {
	perByte, err := PerByteFee(minFeePerByte, currentBlockReward, priority)
	if err != nil {
		return 0, err
	}
	weight := EstimateWeight(numInputs, numOutputs, ringSize, extraSize)
	return Quantize(weight * perByte), nil
}
