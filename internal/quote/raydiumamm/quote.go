// Package raydiumamm implements the family-A (constant-product) quoter and
// static/dynamic state decoder. Grounded on
// _examples/nick199910-SolRoute/pkg/pool/raydium/ammPool.go, rewritten to
// read reserves from the account cache instead of issuing a live RPC call
// per quote, per SPEC_FULL §4.4: quoters are pure functions of cached state.
package raydiumamm

import (
	"encoding/binary"

	"cosmossdk.io/math"
)

// Static is the time-invariant projection of a Raydium AMM pool account.
type Static struct {
	FeeNumerator   uint64
	FeeDenominator uint64
	CoinMint       [32]byte
	PcMint         [32]byte
	CoinVault      [32]byte
	PcVault        [32]byte
}

// Dynamic is the market-changing projection: live vault reserves and
// pending-PnL owed, read off the coin/pc vault token accounts.
type Dynamic struct {
	CoinVaultAmount uint64
	PcVaultAmount   uint64
	CoinNeedTakePnl uint64
	PcNeedTakePnl   uint64
}

// DecodeDynamic reads a little-endian uint64 reserve amount from a vault
// token-account projection sliced to its amount field (offset 64, per SPL
// token account layout), reading the same raw offset used in
// cpmmPool.go's Quote.
func DecodeDynamic(vaultAmountBytes []byte) (uint64, bool) {
	if len(vaultAmountBytes) != 8 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(vaultAmountBytes), true
}

// Quote implements SPEC_FULL §4.4.1: fee taken from the input, floor-divided
// constant-product output. Returns false ("no path") if the computed output
// would drain the pool or inputAmount is non-positive.
func Quote(s Static, d Dynamic, aToB bool, amountIn math.Int) (math.Int, bool) {
	if !amountIn.IsPositive() {
		return math.ZeroInt(), false
	}
	reserveIn := math.NewIntFromUint64(d.CoinVaultAmount).Sub(math.NewIntFromUint64(d.CoinNeedTakePnl))
	reserveOut := math.NewIntFromUint64(d.PcVaultAmount).Sub(math.NewIntFromUint64(d.PcNeedTakePnl))
	if !aToB {
		reserveIn, reserveOut = reserveOut, reserveIn
	}
	if reserveIn.IsNegative() || reserveOut.IsNegative() || reserveOut.IsZero() {
		return math.ZeroInt(), false
	}

	feeNum := math.NewIntFromUint64(s.FeeNumerator)
	feeDen := math.NewIntFromUint64(s.FeeDenominator)
	if feeDen.IsZero() {
		return math.ZeroInt(), false
	}
	fee := amountIn.Mul(feeNum).Quo(feeDen)
	amountInWithFee := amountIn.Sub(fee)
	if !amountInWithFee.IsPositive() {
		return math.ZeroInt(), false
	}

	denom := reserveIn.Add(amountInWithFee)
	out := reserveOut.Mul(amountInWithFee).Quo(denom)
	if out.GTE(reserveOut) {
		return math.ZeroInt(), false
	}
	return out, true
}
