// Package raydiumcpmm implements the family-D (constant-product with
// creator fee) quoter. Grounded on
// _examples/nick199910-SolRoute/pkg/pool/raydium/cpmmPool.go, generalized
// per SPEC_FULL §3/§4.4.4: the pool's static projection now carries only
// PoolCreator plus the two vault/mint keys, while lp_fee_bps/protocol_fee_bps
// live on a separate AmmConfig account (two typed structs joined by the
// AmmConfig pubkey — see SPEC_FULL's Open-Question resolution #2, avoiding
// a single combined-buffer-with-hard-coded-offsets approach).
package raydiumcpmm

import "cosmossdk.io/math"

// Static is the pool's time-invariant projection.
type Static struct {
	CoinMint [32]byte
	PcMint   [32]byte
	Creator  [32]byte
}

// AmmConfig is the sibling fee-configuration account's decoded fields.
type AmmConfig struct {
	LpFeeBps       uint64
	ProtocolFeeBps uint64
}

// Dynamic is the live vault reserves, same shape as family A.
type Dynamic struct {
	CoinVaultAmount uint64
	PcVaultAmount   uint64
}

// Quote implements SPEC_FULL §4.4.4: combined lp+protocol basis-point fee,
// ceil-rounded off the input, floor-divided constant-product output.
func Quote(s Static, cfg AmmConfig, d Dynamic, aToB bool, amountIn math.Int) (math.Int, bool) {
	if !amountIn.IsPositive() {
		return math.ZeroInt(), false
	}
	reserveIn := math.NewIntFromUint64(d.CoinVaultAmount)
	reserveOut := math.NewIntFromUint64(d.PcVaultAmount)
	if !aToB {
		reserveIn, reserveOut = reserveOut, reserveIn
	}
	if reserveOut.IsZero() {
		return math.ZeroInt(), false
	}

	totalFeeBps := math.NewIntFromUint64(cfg.LpFeeBps + cfg.ProtocolFeeBps)
	bpsDen := math.NewInt(10_000)
	feeNumerator := amountIn.Mul(totalFeeBps)
	fee := feeNumerator.Quo(bpsDen)
	if !feeNumerator.Mod(bpsDen).IsZero() {
		fee = fee.Add(math.OneInt())
	}
	inEff := amountIn.Sub(fee)
	if !inEff.IsPositive() {
		return math.ZeroInt(), false
	}

	denom := reserveIn.Add(inEff)
	out := reserveOut.Mul(inEff).Quo(denom)
	if out.GTE(reserveOut) {
		return math.ZeroInt(), false
	}
	return out, true
}
