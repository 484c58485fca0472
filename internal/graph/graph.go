// Package graph implements the two-hop path graph and route search.
package graph

import (
	"context"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/solroute-arb/arbengine/internal/types"
	"golang.org/x/sync/errgroup"
)

// Graph is immutable after Build: mint/pool arenas plus the pool-indexed
// two-hop cycle set.
type Graph struct {
	mints     []solana.PublicKey
	mintIndex map[solana.PublicKey]int
	poolKeys  []solana.PublicKey
	poolIndex map[solana.PublicKey]int
	byPool    map[int][]types.TwoHopCycle

	// pairsPreferringMultiPoint marks DEX-family pairs (both legs) for which
	// a ternary-search refinement over the split point is valid instead of a
	// single fixed-amount_in quote (both constant-product, no tick/bin
	// walking).
	pairsPreferringMultiPoint map[[2]types.DexFamily]bool
}

func mintIdx(idx map[solana.PublicKey]int, mints *[]solana.PublicKey, key solana.PublicKey) int {
	if i, ok := idx[key]; ok {
		return i
	}
	i := len(*mints)
	idx[key] = i
	*mints = append(*mints, key)
	return i
}

// Build constructs the graph from the pool manifest and the follow_mints
// whitelist. Pools whose mints are both outside
// followMints still get arena slots; only cycles whose swapped-through mint
// is in followMints are retained.
func Build(entries []types.ManifestEntry, followMints map[solana.PublicKey]bool) *Graph {
	g := &Graph{
		mintIndex:                 make(map[solana.PublicKey]int),
		poolIndex:                 make(map[solana.PublicKey]int),
		byPool:                    make(map[int][]types.TwoHopCycle),
		pairsPreferringMultiPoint: make(map[[2]types.DexFamily]bool),
	}
	g.pairsPreferringMultiPoint[[2]types.DexFamily{types.DexRaydiumAMM, types.DexRaydiumAMM}] = true

	edges := make([]types.Edge, 0, len(entries)*2)
	for _, e := range entries {
		pIdx := len(g.poolKeys)
		g.poolIndex[e.Pool] = pIdx
		g.poolKeys = append(g.poolKeys, e.Pool)

		a := mintIdx(g.mintIndex, &g.mints, e.MintA)
		b := mintIdx(g.mintIndex, &g.mints, e.MintB)

		edges = append(edges,
			types.Edge{Family: e.Family, Pool: pIdx, InMint: a, OutMint: b, PoolKey: e.Pool, InMintKey: e.MintA, OutMintKey: e.MintB},
			types.Edge{Family: e.Family, Pool: pIdx, InMint: b, OutMint: a, PoolKey: e.Pool, InMintKey: e.MintB, OutMintKey: e.MintA},
		)
	}

	for _, e1 := range edges {
		for _, e2 := range edges {
			if e1.Pool == e2.Pool {
				continue
			}
			if e1.OutMint != e2.InMint || e1.InMint != e2.OutMint {
				continue
			}
			if !followMints[g.mints[e1.InMint]] {
				continue
			}
			cyc := types.TwoHopCycle{First: e1, Second: e2}
			g.byPool[e1.Pool] = append(g.byPool[e1.Pool], cyc)
			g.byPool[e2.Pool] = append(g.byPool[e2.Pool], cyc)
		}
	}
	return g
}

// MintIndex returns the dense index assigned to a mint key, if known.
func (g *Graph) MintIndex(mint solana.PublicKey) (int, bool) {
	i, ok := g.mintIndex[mint]
	return i, ok
}

// PoolIndex returns the dense index assigned to a pool key, if known.
func (g *Graph) PoolIndex(pool solana.PublicKey) (int, bool) {
	i, ok := g.poolIndex[pool]
	return i, ok
}

// CyclesForPool returns every cycle touching pool, in either leg position.
func (g *Graph) CyclesForPool(pool solana.PublicKey) []types.TwoHopCycle {
	idx, ok := g.poolIndex[pool]
	if !ok {
		return nil
	}
	return g.byPool[idx]
}

// PreferMultiPointSearch reports whether the (leg1,leg2) family pair is a
// candidate for the ternary-search refinement instead of a single
// fixed-amount quote (both constant-product with no tick/bin traversal).
func (g *Graph) PreferMultiPointSearch(leg1, leg2 types.DexFamily) bool {
	return g.pairsPreferringMultiPoint[[2]types.DexFamily{leg1, leg2}]
}

// QuoteFunc quotes one edge traversal: given the pool key, the input mint,
// and the input amount, it returns the output amount, or false if no path is
// available. Quoters are pure functions of cached state, no I/O.
type QuoteFunc func(family types.DexFamily, pool solana.PublicKey, inMint solana.PublicKey, amountIn math.Int) (math.Int, bool)

// Result is a profitable two-hop route ready for instruction assembly.
type Result struct {
	Cycle types.TwoHopCycle
	// AmountIn is the actual leg-one input amount this result was quoted at.
	// Equal to the caller's requested amountIn unless PreferMultiPointSearch
	// refined it via ternarySearchAmount.
	AmountIn   math.Int
	FirstOut   math.Int
	SecondOut  math.Int
	Profit     math.Int
	IsPositive bool
}

// Search partitions the trigger pool's cycles into positive/reverse, quotes
// each, and retains the best-profit winner. Deterministic given a snapshot
// of the cache (the quote func closes over one).
func Search(ctx context.Context, g *Graph, quote QuoteFunc, triggerPool solana.PublicKey, arbMint solana.PublicKey, amountIn, minProfit math.Int) (*Result, bool) {
	cycles := g.CyclesForPool(triggerPool)
	if len(cycles) == 0 {
		return nil, false
	}

	var positive, reverse []types.TwoHopCycle
	for _, c := range cycles {
		if c.First.PoolKey == triggerPool {
			positive = append(positive, c)
		} else {
			reverse = append(reverse, c)
		}
	}

	posBest, posOK := searchPositive(g, quote, positive, arbMint, amountIn, minProfit)
	revBest, revOK := searchReverse(ctx, g, quote, reverse, arbMint, amountIn, minProfit)

	switch {
	case posOK && revOK:
		if posBest.Profit.GT(revBest.Profit) {
			return posBest, true
		}
		return revBest, true
	case posOK:
		return posBest, true
	case revOK:
		return revBest, true
	default:
		return nil, false
	}
}

// firstLegOut memoizes the first-leg quote per distinct edge so every
// positive cycle sharing the trigger pool's leg only pays for one quote
// call, the shared-prefix performance pattern every positive cycle benefits
// from. Cycles flagged by PreferMultiPointSearch skip the memo, since their
// chosen input amount is refined per-cycle rather than fixed at amountIn.
func searchPositive(g *Graph, quote QuoteFunc, cycles []types.TwoHopCycle, arbMint solana.PublicKey, amountIn, minProfit math.Int) (*Result, bool) {
	if len(cycles) == 0 {
		return nil, false
	}
	firstLegOut := make(map[solana.PublicKey]math.Int)
	var best *Result
	for _, c := range cycles {
		if g.PreferMultiPointSearch(c.First.Family, c.Second.Family) {
			if r, ok := evalTernary(quote, c, arbMint, amountIn, minProfit, true); ok {
				if best == nil || r.Profit.GT(best.Profit) {
					best = r
				}
			}
			continue
		}
		out1, ok := firstLegOut[c.First.PoolKey]
		if !ok {
			v, ok2 := quote(c.First.Family, c.First.PoolKey, arbMint, amountIn)
			if !ok2 {
				continue
			}
			out1 = v
			firstLegOut[c.First.PoolKey] = v
		}
		out2, ok := quote(c.Second.Family, c.Second.PoolKey, c.Second.InMintKey, out1)
		if !ok {
			continue
		}
		if out2.LT(amountIn.Add(minProfit)) || !out2.GT(out1) {
			continue
		}
		profit := out2.Sub(amountIn)
		if best == nil || profit.GT(best.Profit) {
			best = &Result{Cycle: c, AmountIn: amountIn, FirstOut: out1, SecondOut: out2, Profit: profit, IsPositive: true}
		}
	}
	return best, best != nil
}

// searchReverse quotes both legs of every reverse-set cycle concurrently,
// retaining the best-profit winner using the same rule as the positive set.
// Cycles flagged by PreferMultiPointSearch are refined by evalTernary
// instead of quoted at the fixed amountIn.
func searchReverse(ctx context.Context, g *Graph, quote QuoteFunc, cycles []types.TwoHopCycle, arbMint solana.PublicKey, amountIn, minProfit math.Int) (*Result, bool) {
	if len(cycles) == 0 {
		return nil, false
	}
	results := make([]*Result, len(cycles))
	eg, _ := errgroup.WithContext(ctx)
	for i, c := range cycles {
		i, c := i, c
		eg.Go(func() error {
			if g.PreferMultiPointSearch(c.First.Family, c.Second.Family) {
				results[i], _ = evalTernary(quote, c, arbMint, amountIn, minProfit, false)
				return nil
			}
			out1, ok := quote(c.First.Family, c.First.PoolKey, arbMint, amountIn)
			if !ok {
				return nil
			}
			out2, ok := quote(c.Second.Family, c.Second.PoolKey, c.Second.InMintKey, out1)
			if !ok {
				return nil
			}
			if out2.LT(amountIn.Add(minProfit)) || !out2.GT(out1) {
				return nil
			}
			results[i] = &Result{Cycle: c, AmountIn: amountIn, FirstOut: out1, SecondOut: out2, Profit: out2.Sub(amountIn), IsPositive: false}
			return nil
		})
	}
	_ = eg.Wait()

	var best *Result
	for _, r := range results {
		if r == nil {
			continue
		}
		if best == nil || r.Profit.GT(best.Profit) {
			best = r
		}
	}
	return best, best != nil
}

// evalTernary refines a ternary-search-eligible cycle's input amount over
// (0, amountIn] and builds its Result if the refined point clears minProfit.
// Both legs are plain constant-product swaps, so the second leg's output is
// monotone-concave in the first leg's input, and the profit-maximizing split
// can be found with O(log) quote calls instead of accepting whatever
// amountIn yields.
func evalTernary(quote QuoteFunc, c types.TwoHopCycle, arbMint, amountIn, minProfit math.Int, isPositive bool) (*Result, bool) {
	x, out1, out2, profit, ok := ternarySearchAmount(quote, c, arbMint, amountIn)
	if !ok || out2.LT(x.Add(minProfit)) || !out2.GT(out1) {
		return nil, false
	}
	return &Result{Cycle: c, AmountIn: x, FirstOut: out1, SecondOut: out2, Profit: profit, IsPositive: isPositive}, true
}

// ternarySearchIterations bounds the refinement to a handful of quote calls;
// each iteration roughly halves the remaining search interval.
const ternarySearchIterations = 24

// profitAt quotes both legs of c at input x and returns the realized profit
// (second-leg output minus x), or ok=false if either leg fails to quote.
func profitAt(quote QuoteFunc, c types.TwoHopCycle, arbMint, x math.Int) (out1, out2, profit math.Int, ok bool) {
	out1, ok = quote(c.First.Family, c.First.PoolKey, arbMint, x)
	if !ok {
		return math.ZeroInt(), math.ZeroInt(), math.ZeroInt(), false
	}
	out2, ok = quote(c.Second.Family, c.Second.PoolKey, c.Second.InMintKey, out1)
	if !ok {
		return math.ZeroInt(), math.ZeroInt(), math.ZeroInt(), false
	}
	return out1, out2, out2.Sub(x), true
}

// ternarySearchAmount narrows the candidate input amount within (0, amountIn]
// toward the profit-maximizing split, assuming the cycle's profit curve is
// unimodal over that range. Returns the best (x, out1, out2, profit) quadruple
// observed across every probe, falling back to amountIn itself if no probe
// inside the interior succeeds.
func ternarySearchAmount(quote QuoteFunc, c types.TwoHopCycle, arbMint, amountIn math.Int) (x, out1, out2, profit math.Int, ok bool) {
	lo, hi := math.OneInt(), amountIn
	if hi.LT(lo) {
		lo, hi = amountIn, amountIn
	}

	bestX, bestOut1, bestOut2, bestProfit, bestOK := amountIn, math.ZeroInt(), math.ZeroInt(), math.ZeroInt(), false
	consider := func(cx math.Int) {
		o1, o2, p, ok := profitAt(quote, c, arbMint, cx)
		if !ok {
			return
		}
		if !bestOK || p.GT(bestProfit) {
			bestX, bestOut1, bestOut2, bestProfit, bestOK = cx, o1, o2, p, true
		}
	}

	for i := 0; i < ternarySearchIterations; i++ {
		span := hi.Sub(lo)
		if span.LTE(math.OneInt()) {
			break
		}
		m1 := lo.Add(span.QuoRaw(3))
		m2 := hi.Sub(span.QuoRaw(3))
		_, _, p1, ok1 := profitAt(quote, c, arbMint, m1)
		_, _, p2, ok2 := profitAt(quote, c, arbMint, m2)
		switch {
		case ok1 && ok2 && p1.GTE(p2):
			hi = m2
		case ok1 && ok2:
			lo = m1
		case ok1:
			hi = m2
		case ok2:
			lo = m1
		default:
			// Neither interior probe quoted; narrow toward amountIn's end of
			// the interval rather than stalling.
			lo = m1
		}
	}

	consider(lo)
	consider(hi)
	consider(amountIn)
	return bestX, bestOut1, bestOut2, bestProfit, bestOK
}
