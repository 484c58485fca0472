// Package raydiumclmm implements the family-B (concentrated liquidity with
// tick arrays) quoter, grounded on
// _examples/nick199910-SolRoute/pkg/pool/raydium/{clmmPool.go,clmm_tickerarray.go},
// rewritten to walk an in-memory tick set (no RPC) per SPEC_FULL §4.4.2.
package raydiumclmm

import (
	"math/big"

	"cosmossdk.io/math"
	"lukechampine.com/uint128"
)

const (
	q64        = 64
	feeDenom   = 1_000_000
	maxSteps   = 100 // safety cap on the swap-step loop
)

// Tick is one initialised tick record: signed net-liquidity delta applied
// when price crosses it while moving in the direction away from the tick.
type Tick struct {
	Index        int32
	LiquidityNet *big.Int
}

// Static is the pool's time-invariant projection.
type Static struct {
	FeeRate uint32 // parts per 10^6, e.g. 2500 == 0.25%
}

// Dynamic is the pool's live projection: current price/liquidity/tick plus
// the full set of known initialised ticks, sorted ascending by Index.
type Dynamic struct {
	SqrtPriceX64 uint128.Uint128
	Liquidity    uint128.Uint128
	TickCurrent  int32
	Ticks        []Tick
}

func ToBig(u uint128.Uint128) *big.Int {
	b := new(big.Int).SetUint64(u.Hi)
	b.Lsh(b, 64)
	b.Or(b, new(big.Int).SetUint64(u.Lo))
	return b
}

// nextTick finds the next initialised tick strictly beyond `from` in the
// swap direction (zeroForOne moves price down / ticks decreasing).
func NextTick(ticks []Tick, from int32, zeroForOne bool) (Tick, bool) {
	if zeroForOne {
		for i := len(ticks) - 1; i >= 0; i-- {
			if ticks[i].Index < from {
				return ticks[i], true
			}
		}
		return Tick{}, false
	}
	for _, t := range ticks {
		if t.Index > from {
			return t, true
		}
	}
	return Tick{}, false
}

// sqrtPriceAtTick approximates 1.0001^(tick/2) in Q64.64 using repeated
// squaring on a fixed-point base, matching the standard CL tick-to-price
// conversion used across Raydium/Orca-style pools.
func SqrtPriceAtTick(tick int32) *big.Int {
	base := new(big.Float).SetPrec(200).Sqrt(big.NewFloat(1.0001))
	pow := new(big.Float).SetPrec(200).SetInt64(1)
	abs := tick
	neg := abs < 0
	if neg {
		abs = -abs
	}
	b := new(big.Float).SetPrec(200).Copy(base)
	e := abs
	for e > 0 {
		if e&1 == 1 {
			pow.Mul(pow, b)
		}
		b.Mul(b, b)
		e >>= 1
	}
	if neg {
		one := big.NewFloat(1)
		pow.Quo(one, pow)
	}
	shift := new(big.Float).SetPrec(200).SetMantExp(big.NewFloat(1), q64)
	pow.Mul(pow, shift)
	out, _ := pow.Int(nil)
	return out
}

// swapStep consumes as much of [sqrtPriceCurrent, sqrtPriceTarget] as
// remainingIn allows at the given liquidity, returning amountIn consumed,
// amountOut produced, the fee charged, and the resulting sqrt price.
func SwapStep(sqrtPriceCurrent, sqrtPriceTarget, liquidity, remainingIn *big.Int, feeRate uint32, zeroForOne bool) (amountIn, amountOut, fee, sqrtPriceNext *big.Int) {
	feeRateBig := big.NewInt(int64(feeRate))
	denom := big.NewInt(feeDenom)

	// Max input consumable to move price the full distance to target,
	// per the standard CL formulas (SPEC_FULL §4.4.2):
	//   delta_a = L*(sqrtHi-sqrtLo)/(sqrtHi*sqrtLo)   (token being sold when zeroForOne)
	//   delta_b = L*(sqrtHi-sqrtLo)                   (token being sold otherwise)
	var sqrtHi, sqrtLo *big.Int
	if sqrtPriceCurrent.Cmp(sqrtPriceTarget) >= 0 {
		sqrtHi, sqrtLo = sqrtPriceCurrent, sqrtPriceTarget
	} else {
		sqrtHi, sqrtLo = sqrtPriceTarget, sqrtPriceCurrent
	}
	diff := new(big.Int).Sub(sqrtHi, sqrtLo)

	var maxIn *big.Int
	if zeroForOne {
		num := new(big.Int).Mul(liquidity, diff)
		num.Lsh(num, q64)
		prod := new(big.Int).Mul(sqrtHi, sqrtLo)
		if prod.Sign() == 0 {
			maxIn = big.NewInt(0)
		} else {
			maxIn = new(big.Int).Quo(num, prod)
		}
	} else {
		maxIn = new(big.Int).Mul(liquidity, diff)
		maxIn.Rsh(maxIn, q64)
	}

	// gross input needed to net maxIn after fee: maxIn / (1 - feeRate)
	maxInWithFee := new(big.Int).Mul(maxIn, denom)
	maxInWithFee.Quo(maxInWithFee, new(big.Int).Sub(denom, feeRateBig))

	if remainingIn.Cmp(maxInWithFee) >= 0 {
		// Full step: consume maxInWithFee, land exactly on target.
		fee = new(big.Int).Sub(maxInWithFee, maxIn)
		amountIn = maxIn
		sqrtPriceNext = new(big.Int).Set(sqrtPriceTarget)
	} else {
		// Partial step: consume all of remainingIn.
		fee = new(big.Int).Mul(remainingIn, feeRateBig)
		fee.Add(fee, big.NewInt(feeDenom-1))
		fee.Quo(fee, denom)
		amountIn = new(big.Int).Sub(remainingIn, fee)

		if zeroForOne {
			// 1/sqrtNext = 1/sqrtCurrent + amountIn/L  (Q64.64)
			invCur := new(big.Int).Lsh(big.NewInt(1), 2*q64)
			invCur.Quo(invCur, sqrtPriceCurrent)
			term := new(big.Int).Lsh(amountIn, q64)
			if liquidity.Sign() != 0 {
				term.Quo(term, liquidity)
			}
			invNext := new(big.Int).Add(invCur, term)
			sqrtPriceNext = new(big.Int).Lsh(big.NewInt(1), 2*q64)
			if invNext.Sign() != 0 {
				sqrtPriceNext.Quo(sqrtPriceNext, invNext)
			}
		} else {
			delta := new(big.Int).Lsh(amountIn, q64)
			if liquidity.Sign() != 0 {
				delta.Quo(delta, liquidity)
			}
			sqrtPriceNext = new(big.Int).Add(sqrtPriceCurrent, delta)
		}
	}

	if zeroForOne {
		// amountOut = L*(sqrtCurrent - sqrtNext)
		d := new(big.Int).Sub(sqrtPriceCurrent, sqrtPriceNext)
		amountOut = new(big.Int).Mul(liquidity, d)
		amountOut.Rsh(amountOut, q64)
	} else {
		num := new(big.Int).Mul(liquidity, new(big.Int).Sub(sqrtPriceNext, sqrtPriceCurrent))
		num.Lsh(num, q64)
		prod := new(big.Int).Mul(sqrtPriceNext, sqrtPriceCurrent)
		if prod.Sign() == 0 {
			amountOut = big.NewInt(0)
		} else {
			amountOut = new(big.Int).Quo(num, prod)
		}
	}
	return amountIn, amountOut, fee, sqrtPriceNext
}

// Quote implements SPEC_FULL §4.4.2. Returns false if no liquidity is
// available in the swap direction or the starting state is invalid.
func Quote(s Static, d Dynamic, aToB bool, amountIn math.Int) (math.Int, bool) {
	if !amountIn.IsPositive() || d.SqrtPriceX64.IsZero() {
		return math.ZeroInt(), false
	}
	zeroForOne := aToB

	remaining := new(big.Int).SetUint64(amountIn.Uint64())
	sqrtPriceCurrent := ToBig(d.SqrtPriceX64)
	liquidity := ToBig(d.Liquidity)
	tickCurrent := d.TickCurrent
	totalOut := big.NewInt(0)

	for step := 0; step < maxSteps && remaining.Sign() > 0; step++ {
		t, ok := NextTick(d.Ticks, tickCurrent, zeroForOne)
		var sqrtPriceTarget *big.Int
		if !ok {
			if liquidity.Sign() == 0 {
				break
			}
			return math.ZeroInt(), false
		}
		sqrtPriceTarget = SqrtPriceAtTick(t.Index)

		in, out, _, next := SwapStep(sqrtPriceCurrent, sqrtPriceTarget, liquidity, remaining, s.FeeRate, zeroForOne)
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
