package graph

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/solroute-arb/arbengine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	mintA = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	mintB = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	poolX = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	poolY = solana.MustPublicKeyFromBase58("CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK")
)

func twoPoolEntries() []types.ManifestEntry {
	return []types.ManifestEntry{
		{Pool: poolX, MintA: mintA, MintB: mintB, Family: types.DexRaydiumAMM},
		{Pool: poolY, MintA: mintA, MintB: mintB, Family: types.DexRaydiumCLMM},
	}
}

func TestBuildFormsCycleBetweenTwoPools(t *testing.T) {
	g := Build(twoPoolEntries(), map[solana.PublicKey]bool{mintA: true})
	cycles := g.CyclesForPool(poolX)
	require.Len(t, cycles, 2) // poolX as first leg, and as second leg
}

func TestBuildDropsCyclesOutsideFollowMints(t *testing.T) {
	g := Build(twoPoolEntries(), map[solana.PublicKey]bool{})
	assert.Empty(t, g.CyclesForPool(poolX))
}

func TestSearchPicksProfitableCycle(t *testing.T) {
	g := Build(twoPoolEntries(), map[solana.PublicKey]bool{mintA: true})

	quote := func(family types.DexFamily, pool solana.PublicKey, inMint solana.PublicKey, amountIn math.Int) (math.Int, bool) {
		// every leg returns 10% more than it received
		return amountIn.MulRaw(11).QuoRaw(10), true
	}

	result, ok := Search(context.Background(), g, quote, poolX, mintA, math.NewInt(1000), math.ZeroInt())
	require.True(t, ok)
	assert.True(t, result.Profit.IsPositive())
}

func TestSearchReturnsFalseWhenNoCycleClearsMinProfit(t *testing.T) {
	g := Build(twoPoolEntries(), map[solana.PublicKey]bool{mintA: true})

	quote := func(family types.DexFamily, pool solana.PublicKey, inMint solana.PublicKey, amountIn math.Int) (math.Int, bool) {
		return amountIn, true // break-even, never beats minProfit > 0
	}

	_, ok := Search(context.Background(), g, quote, poolX, mintA, math.NewInt(1000), math.NewInt(1))
	assert.False(t, ok)
}

func TestSearchReturnsFalseForUnknownPool(t *testing.T) {
	g := Build(twoPoolEntries(), map[solana.PublicKey]bool{mintA: true})
	quote := func(types.DexFamily, solana.PublicKey, solana.PublicKey, math.Int) (math.Int, bool) {
		return math.ZeroInt(), false
	}
	_, ok := Search(context.Background(), g, quote, solana.PublicKey{}, mintA, math.NewInt(1000), math.ZeroInt())
	assert.False(t, ok)
}

func TestPreferMultiPointSearchOnlyFlagsRaydiumAMMPair(t *testing.T) {
	g := Build(twoPoolEntries(), map[solana.PublicKey]bool{mintA: true})
	assert.True(t, g.PreferMultiPointSearch(types.DexRaydiumAMM, types.DexRaydiumAMM))
	assert.False(t, g.PreferMultiPointSearch(types.DexRaydiumAMM, types.DexRaydiumCLMM))
	assert.False(t, g.PreferMultiPointSearch(types.DexRaydiumCLMM, types.DexRaydiumCLMM))
}

func bothRaydiumAMMEntries() []types.ManifestEntry {
	return []types.ManifestEntry{
		{Pool: poolX, MintA: mintA, MintB: mintB, Family: types.DexRaydiumAMM},
		{Pool: poolY, MintA: mintA, MintB: mintB, Family: types.DexRaydiumAMM},
	}
}

// TestSearchRefinesAmountForTernaryCandidatePair exercises
// PreferMultiPointSearch's live consumer: a cycle whose legs are both
// constant-product pools, probed with a full constant-product (x*y=k) quote
// function instead of the linear stand-ins above. Requesting the engine's
// full amountIn against these reserves would realize a loss (heavy price
// impact on pool X outweighs pool Y's 5% edge), but the profit curve peaks
// at a much smaller split, which ternarySearchAmount should find.
func TestSearchRefinesAmountForTernaryCandidatePair(t *testing.T) {
	g := Build(bothRaydiumAMMEntries(), map[solana.PublicKey]bool{mintA: true})

	quote := func(family types.DexFamily, pool solana.PublicKey, inMint solana.PublicKey, amountIn math.Int) (math.Int, bool) {
		var reserveIn, reserveOut math.Int
		switch pool {
		case poolX:
			reserveIn, reserveOut = math.NewInt(1_000_000), math.NewInt(1_000_000)
		case poolY:
			reserveIn, reserveOut = math.NewInt(1_000_000), math.NewInt(1_050_000)
		default:
			return math.ZeroInt(), false
		}
		if !amountIn.IsPositive() {
			return math.ZeroInt(), false
		}
		return reserveOut.Mul(amountIn).Quo(reserveIn.Add(amountIn)), true
	}

	requested := math.NewInt(2_000_000)
	result, ok := Search(context.Background(), g, quote, poolX, mintA, requested, math.ZeroInt())
	require.True(t, ok)
	assert.True(t, result.Profit.IsPositive())
	assert.True(t, result.AmountIn.LT(requested))
}
