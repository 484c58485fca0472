// Package whirlpool implements the family-E (tick-based AMM with adaptive
// fee) quoter, grounded on the Raydium CLMM tick-walking control flow
// (_examples/nick199910-SolRoute/pkg/pool/raydium/clmmPool.go) for traversal,
// and on Meteora DLMM's adaptive-fee state shape
// (_examples/nick199910-SolRoute/pkg/pool/meteora/price.go) applied to a
// tick index instead of a bin index, per SPEC_FULL §3/§4.4.5.
package whirlpool

import (
	"math/big"

	"cosmossdk.io/math"
	"github.com/solroute-arb/arbengine/internal/quote/raydiumclmm"
	"lukechampine.com/uint128"
)

const (
	tickGroupSize = 64 // ticks per adaptive-fee tick-group, mirrors DLMM's bin granularity
	maxSteps      = 100
)

// Tick reuses the CLMM tick shape (signed net-liquidity at an index).
type Tick = raydiumclmm.Tick

// AdaptiveFeeOracle carries the adaptive-fee constants and counters, the
// family-E analogue of Meteora DLMM's static+variable parameter pair.
type AdaptiveFeeOracle struct {
	BaseFeeRate              uint32 // parts per 10^6
	FilterPeriod             uint32
	DecayPeriod              uint32
	ReductionFactor          uint32
	VariableFeeControl       uint32
	MaxVolatilityAccumulator uint32
	TickGroupIndexReference  int32
	VolatilityReference      uint32
	VolatilityAccumulator    uint32
	LastReferenceUpdateTime  int64
	MajorSwapTimestamp       int64
}

// Static is the pool's time-invariant projection.
type Static struct {
	TickSpacing      uint16
	FeeTierIndexSeed uint16
}

// Dynamic is the pool's live projection.
type Dynamic struct {
	SqrtPriceX64     uint128.Uint128
	Liquidity        uint128.Uint128
	TickCurrentIndex int32
	Ticks            []Tick
	Oracle           AdaptiveFeeOracle
}

func tickGroup(tick int32) int32 {
	if tick >= 0 {
		return tick / tickGroupSize
	}
	return -((-tick + tickGroupSize - 1) / tickGroupSize)
}

// updateOracle applies the filter/decay volatility-reference rules (the same
// shape as Meteora DLMM's UpdateReferences, generalized to tick groups) and
// folds the distance from the reference tick-group into the accumulator,
// bounded by MaxVolatilityAccumulator.
func updateOracle(o AdaptiveFeeOracle, tickCurrent int32, nowTimestamp int64) AdaptiveFeeOracle {
	elapsed := nowTimestamp - o.LastReferenceUpdateTime
	group := tickGroup(tickCurrent)
	if uint32(elapsed) >= o.FilterPeriod {
		o.TickGroupIndexReference = group
		if uint32(elapsed) < o.DecayPeriod {
			o.VolatilityReference = o.VolatilityReference * o.ReductionFactor / 10_000
		} else {
			o.VolatilityReference = 0
		}
	}
	delta := group - o.TickGroupIndexReference
	if delta < 0 {
		delta = -delta
	}
	acc := o.VolatilityReference + uint32(delta)*10_000
	if acc > o.MaxVolatilityAccumulator {
		acc = o.MaxVolatilityAccumulator
	}
	o.VolatilityAccumulator = acc
	o.LastReferenceUpdateTime = nowTimestamp
	return o
}

// adaptiveFeeRate computes the per-step fee rate from the base rate plus the
// oracle's variable component, hard-bounded at 100% (10^6 parts-per-million).
func adaptiveFeeRate(o AdaptiveFeeOracle) uint32 {
	variable := uint64(o.VolatilityAccumulator) * uint64(o.VariableFeeControl) / 1_000_000
	total := uint64(o.BaseFeeRate) + variable
	if total > 1_000_000 {
		total = 1_000_000
	}
	return uint32(total)
}

// Quote implements SPEC_FULL §4.4.5: identical control flow to family B
// (raydiumclmm.SwapStep/NextTick/SqrtPriceAtTick, reused unchanged), but the
// fee rate at each step is recomputed from the adaptive-fee oracle.
func Quote(s Static, d Dynamic, aToB bool, amountIn math.Int, nowTimestamp int64) (math.Int, bool) {
	if !amountIn.IsPositive() || d.SqrtPriceX64.IsZero() {
		return math.ZeroInt(), false
	}
	zeroForOne := aToB

	remaining := new(big.Int).SetUint64(amountIn.Uint64())
	sqrtPriceCurrent := raydiumclmm.ToBig(d.SqrtPriceX64)
	liquidity := raydiumclmm.ToBig(d.Liquidity)
	tickCurrent := d.TickCurrentIndex
	totalOut := big.NewInt(0)
	oracle := d.Oracle

	for step := 0; step < maxSteps && remaining.Sign() > 0; step++ {
		oracle = updateOracle(oracle, tickCurrent, nowTimestamp)
		feeRate := adaptiveFeeRate(oracle)

		t, ok := raydiumclmm.NextTick(d.Ticks, tickCurrent, zeroForOne)
		if !ok {
			if liquidity.Sign() == 0 {
				break
			}
			return math.ZeroInt(), false
		}
		sqrtPriceTarget := raydiumclmm.SqrtPriceAtTick(t.Index)

		in, out, _, next := raydiumclmm.SwapStep(sqrtPriceCurrent, sqrtPriceTarget, liquidity, remaining, feeRate, zeroForOne)
		remaining.Sub(remaining, in)
		totalOut.Add(totalOut, out)
		sqrtPriceCurrent = next

		if next.Cmp(sqrtPriceTarget) == 0 {
			tickCurrent = t.Index
			delta := new(big.Int).Set(t.LiquidityNet)
			if zeroForOne {
				delta.Neg(delta)
			}
			liquidity.Add(liquidity, delta)
			if liquidity.Sign() < 0 {
				return math.ZeroInt(), false
			}
		}
	}
	if !totalOut.IsUint64() {
		return math.ZeroInt(), false
	}
	return math.NewIntFromUint64(totalOut.Uint64()), true
}
