// Package meteoradlmm implements the family-C (bin-based liquidity) quoter,
// grounded on
// _examples/nick199910-SolRoute/pkg/pool/meteora/{dlmm.go,bin_array.go,price.go},
// rewritten to walk an in-memory bin set (no RPC) per SPEC_FULL §4.4.3.
package meteoradlmm

import (
	"math/big"

	"cosmossdk.io/math"
)

const (
	basisPointMax = 10_000
	maxSteps      = 200
)

// Bin is one bin's live token balances.
type Bin struct {
	ID      int32
	AmountX uint64
	AmountY uint64
}

// StaticParameters are the pair's fixed, process-lifetime fee constants.
type StaticParameters struct {
	BaseFactor               uint16
	FilterPeriod             uint16
	DecayPeriod              uint16
	ReductionFactor          uint16
	VariableFeeControl       uint32
	MaxVolatilityAccumulator uint32
	ProtocolShare            uint16
	BaseFeePowerFactor       uint8
}

// VariableParameters are the pair's adaptive-fee counters.
type VariableParameters struct {
	VolatilityAccumulator uint32
	VolatilityReference   uint32
	IndexReference        int32
	LastUpdateTimestamp   int64
}

// Status mirrors the pair's enabled/disabled/permission gate.
type Status uint8

const (
	StatusEnabled Status = iota
	StatusDisabled
)

// PairType distinguishes permissionless pairs (always swappable while
// enabled) from permission pairs (gated by ActivationPoint).
type PairType uint8

const (
	PairTypePermissionless PairType = iota
	PairTypePermission
)

// ActivationType selects whether ActivationPoint is a slot or a unix
// timestamp for permission pairs.
type ActivationType uint8

const (
	ActivationBySlot ActivationType = iota
	ActivationByTimestamp
)

// Static is the pool's time-invariant projection.
type Static struct {
	BinStep        uint16
	Params         StaticParameters
	PairType       PairType
	ActivationType ActivationType
	ActivationPoint uint64
}

// Dynamic is the pool's live projection.
type Dynamic struct {
	ActiveID    int32
	Status      Status
	VParams     VariableParameters
	Bins        []Bin // sorted ascending by ID; the caller supplies the
	// contiguous window actually needed for this swap (its own bin arrays).
}

// binPrice computes a bin's price as (1+binStep/10000)^(id) in Q64.64,
// fixed-point bin pricing.
func binPrice(binStep uint16, id int32) *big.Float {
	base := new(big.Float).SetPrec(200).Quo(
		new(big.Float).SetInt64(int64(basisPointMax)+int64(binStep)),
		new(big.Float).SetInt64(basisPointMax),
	)
	pow := new(big.Float).SetPrec(200).SetInt64(1)
	abs := id
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
	return pow
}

// updateReferences applies the elapsed-time-based volatility-reference decay
// rules, per SPEC_FULL §4.4.3.
func updateReferences(s Static, v VariableParameters, activeID int32, nowTimestamp int64) VariableParameters {
	elapsed := nowTimestamp - v.LastUpdateTimestamp
	out := v
	if elapsed >= int64(s.Params.FilterPeriod) {
		out.IndexReference = activeID
		if elapsed < int64(s.Params.DecayPeriod) {
			reduced := uint32(uint64(v.VolatilityAccumulator) * uint64(s.Params.ReductionFactor) / basisPointMax)
			out.VolatilityReference = reduced
		} else {
			out.VolatilityReference = 0
		}
	}
	out.LastUpdateTimestamp = nowTimestamp
	return out
}

// updateVolatilityAccumulator folds the distance from IndexReference into
// VolatilityAccumulator, bounded by MaxVolatilityAccumulator.
func updateVolatilityAccumulator(s Static, v *VariableParameters, activeID int32) {
	delta := activeID - v.IndexReference
	if delta < 0 {
		delta = -delta
	}
	acc := v.VolatilityReference + uint32(delta)*basisPointMax
	if acc > s.Params.MaxVolatilityAccumulator {
		acc = s.Params.MaxVolatilityAccumulator
	}
	v.VolatilityAccumulator = acc
}

// feeRateBps computes the combined base+variable fee in basis points (times
// 10^9 precision as an integer numerator over 1e9), per SPEC_FULL §4.4.3.
func feeRateNumerator(s Static, v VariableParameters) *big.Int {
	base := new(big.Int).SetUint64(uint64(s.Params.BaseFactor) * uint64(s.BinStep))
	for i := uint8(0); i < s.Params.BaseFeePowerFactor; i++ {
		base.Mul(base, big.NewInt(10))
	}
	varTerm := new(big.Int).SetUint64(uint64(v.VolatilityAccumulator) * uint64(s.BinStep))
	varTerm.Mul(varTerm, varTerm)
	varTerm.Mul(varTerm, big.NewInt(int64(s.Params.VariableFeeControl)))
	num := new(big.Int).Mul(varTerm, big.NewInt(1))
	den := new(big.Int).Exp(big.NewInt(10), big.NewInt(11), nil)
	ceil := new(big.Int).Add(num, new(big.Int).Sub(den, big.NewInt(1)))
	variableFee := ceil.Quo(ceil, den)

	total := new(big.Int).Mul(base, big.NewInt(1_000_000))
	total.Add(total, new(big.Int).Mul(variableFee, big.NewInt(1_000_000)))
	return total // parts per 10^6 scaled further by binStep's own 10^-4 scale baked into `base`
}

func findBin(bins []Bin, id int32) (Bin, bool) {
	for _, b := range bins {
		if b.ID == id {
			return b, true
		}
	}
	return Bin{}, false
}

// Quote implements SPEC_FULL §4.4.3: walk bins from ActiveID in the swap
// direction, consuming liquidity per bin net of the adaptive fee, until the
// input is exhausted or liquidity runs out. nowTimestamp/nowSlot drive the
// activation gate and the reference-volatility decay.
func Quote(s Static, d Dynamic, swapForY bool, amountIn math.Int, nowTimestamp int64, nowSlot uint64) (math.Int, bool) {
	if !amountIn.IsPositive() {
		return math.ZeroInt(), false
	}
	if d.Status != StatusEnabled {
		return math.ZeroInt(), false
	}
	if s.PairType == PairTypePermission {
		point := nowTimestamp
		if s.ActivationType == ActivationBySlot {
			point = int64(nowSlot)
		}
		if uint64(point) < s.ActivationPoint {
			return math.ZeroInt(), false
		}
	}

	vparams := updateReferences(s, d.VParams, d.ActiveID, nowTimestamp)

	remaining := new(big.Int).SetUint64(amountIn.Uint64())
	totalOut := big.NewInt(0)
	activeID := d.ActiveID

	for step := 0; step < maxSteps && remaining.Sign() > 0; step++ {
		bin, ok := findBin(d.Bins, activeID)
		if !ok {
			break
		}
		updateVolatilityAccumulator(s, &vparams, activeID)
		feeNum := feeRateNumerator(s, vparams) // per-1e6, pre-scaled by 1e4 in base term

		price := binPrice(s.BinStep, activeID)

		var maxOutAmt uint64
		if swapForY {
			maxOutAmt = bin.AmountY
		} else {
			maxOutAmt = bin.AmountX
		}
		if maxOutAmt == 0 {
			activeID = advance(activeID, swapForY)
			continue
		}

		maxOutF := new(big.Float).SetUint64(maxOutAmt)
		var maxInF *big.Float
		if swapForY {
			maxInF = new(big.Float).Quo(maxOutF, price)
		} else {
			maxInF = new(big.Float).Mul(maxOutF, price)
		}
		maxIn := new(big.Int)
		maxInF.Int(maxIn)
		maxIn.Add(maxIn, big.NewInt(1)) // round up

		denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil) // 1e6(base-scale) * 1e6(fee-scale)
		maxInWithFee := new(big.Int).Mul(maxIn, new(big.Int).Add(denom, feeNum))
		maxInWithFee.Quo(maxInWithFee, denom)

		var consumedIn, consumedOut *big.Int
		if remaining.Cmp(maxInWithFee) >= 0 {
			consumedIn = maxInWithFee
			consumedOut = new(big.Int).SetUint64(maxOutAmt)
		} else {
			fee := new(big.Int).Mul(remaining, feeNum)
			fee.Quo(fee, new(big.Int).Add(denom, feeNum))
			net := new(big.Int).Sub(remaining, fee)
			consumedIn = remaining
			var outF *big.Float
			if swapForY {
				outF = new(big.Float).Mul(new(big.Float).SetInt(net), price)
			} else {
				outF = new(big.Float).Quo(new(big.Float).SetInt(net), price)
			}
			consumedOut = new(big.Int)
			outF.Int(consumedOut)
		}

		remaining.Sub(remaining, consumedIn)
		totalOut.Add(totalOut, consumedOut)
		if remaining.Sign() > 0 {
			activeID = advance(activeID, swapForY)
		}
	}

	if totalOut.Sign() == 0 || !totalOut.IsUint64() {
		return math.ZeroInt(), false
	}
	return math.NewIntFromUint64(totalOut.Uint64()), true
}

func advance(id int32, swapForY bool) int32 {
	if swapForY {
		return id - 1
	}
	return id + 1
}
