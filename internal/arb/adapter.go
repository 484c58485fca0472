// Package arb wires the graph search to live cache state and dispatches
// profitable routes to the instruction builder and executor (C7), grounded
// on _examples/original_source/bin/arb/src/arb_bot.rs's per-transaction
// pipeline.
package arb

import (
	"encoding/binary"
	"math/big"
	"sort"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/solroute-arb/arbengine/internal/cache"
	"github.com/solroute-arb/arbengine/internal/quote/meteoradlmm"
	"github.com/solroute-arb/arbengine/internal/quote/raydiumamm"
	"github.com/solroute-arb/arbengine/internal/quote/raydiumclmm"
	"github.com/solroute-arb/arbengine/internal/quote/raydiumcpmm"
	"github.com/solroute-arb/arbengine/internal/quote/whirlpool"
	"github.com/solroute-arb/arbengine/internal/types"
	"lukechampine.com/uint128"
)

// PoolRegistry is the bootstrap-populated, read-only index from pool key to
// its manifest row, giving the adapter the sibling account keys (vaults,
// amm config, oracle, tick/bin arrays) a quote needs beside the pool's own
// cached bytes.
type PoolRegistry struct {
	byPool map[solana.PublicKey]types.ManifestEntry
}

// NewPoolRegistry indexes entries by pool key.
func NewPoolRegistry(entries []types.ManifestEntry) *PoolRegistry {
	r := &PoolRegistry{byPool: make(map[solana.PublicKey]types.ManifestEntry, len(entries))}
	for _, e := range entries {
		r.byPool[e.Pool] = e
	}
	return r
}

// Entry returns the manifest row for a pool key, if known.
func (r *PoolRegistry) Entry(pool solana.PublicKey) (types.ManifestEntry, bool) {
	e, ok := r.byPool[pool]
	return e, ok
}

func u64At(b []byte, off int) uint64 {
	if off+8 > len(b) {
		return 0
	}
	return binary.LittleEndian.Uint64(b[off : off+8])
}

func u32At(b []byte, off int) uint32 {
	if off+4 > len(b) {
		return 0
	}
	return binary.LittleEndian.Uint32(b[off : off+4])
}

func u16At(b []byte, off int) uint16 {
	if off+2 > len(b) {
		return 0
	}
	return binary.LittleEndian.Uint16(b[off : off+2])
}

func i32At(b []byte, off int) int32 { return int32(u32At(b, off)) }
func i64At(b []byte, off int) int64 { return int64(u64At(b, off)) }

func bytes32At(b []byte, off int) [32]byte {
	var out [32]byte
	if off+32 <= len(b) {
		copy(out[:], b[off:off+32])
	}
	return out
}

// QuoteDispatcher builds a graph.QuoteFunc closed over a cache snapshot and
// the pool registry, decoding each family's typed Static/Dynamic view from
// the cache's raw projections and delegating to its pure Quote function, per
// SPEC_FULL §4.4/§4.5.
type QuoteDispatcher struct {
	Cache *cache.Cache
	Pools *PoolRegistry
	// Now returns the unix timestamp quoters that consult an adaptive-fee
	// oracle need (whirlpool); sourced from the cached clock account by the
	// caller, never time.Now(), so a dispatcher run is reproducible against
	// one cache snapshot.
	Now int64
}

// Quote implements graph.QuoteFunc.
func (d *QuoteDispatcher) Quote(family types.DexFamily, pool solana.PublicKey, inMint solana.PublicKey, amountIn math.Int) (math.Int, bool) {
	entry, ok := d.Pools.byPool[pool]
	if !ok {
		return math.ZeroInt(), false
	}
	aToB := inMint == entry.MintA

	switch family {
	case types.DexRaydiumAMM:
		return d.quoteRaydiumAMM(entry, aToB, amountIn)
	case types.DexRaydiumCPMM:
		return d.quoteRaydiumCPMM(entry, aToB, amountIn)
	case types.DexRaydiumCLMM:
		return d.quoteRaydiumCLMM(entry, aToB, amountIn)
	case types.DexMeteoraDLMM:
		return d.quoteMeteoraDLMM(entry, aToB, amountIn)
	case types.DexWhirlpool:
		return d.quoteWhirlpool(entry, aToB, amountIn)
	default:
		return math.ZeroInt(), false
	}
}

func (d *QuoteDispatcher) quoteRaydiumAMM(e types.ManifestEntry, aToB bool, amountIn math.Int) (math.Int, bool) {
	static, ok := d.Cache.Static(e.Pool)
	if !ok || len(static) < 144 {
		return math.ZeroInt(), false
	}
	s := raydiumamm.Static{
		FeeNumerator:   u64At(static, 0),
		FeeDenominator: u64At(static, 8),
		CoinMint:       bytes32At(static, 16),
		PcMint:         bytes32At(static, 48),
		CoinVault:      bytes32At(static, 80),
		PcVault:        bytes32At(static, 112),
	}
	poolDyn, ok := d.Cache.Dynamic(e.Pool)
	if !ok || len(poolDyn) < 16 {
		return math.ZeroInt(), false
	}
	coinVaultDyn, ok := d.Cache.Dynamic(e.VaultA)
	if !ok {
		return math.ZeroInt(), false
	}
	pcVaultDyn, ok := d.Cache.Dynamic(e.VaultB)
	if !ok {
		return math.ZeroInt(), false
	}
	coinAmount, ok := raydiumamm.DecodeDynamic(coinVaultDyn)
	if !ok {
		return math.ZeroInt(), false
	}
	pcAmount, ok := raydiumamm.DecodeDynamic(pcVaultDyn)
	if !ok {
		return math.ZeroInt(), false
	}
	dyn := raydiumamm.Dynamic{
		CoinVaultAmount: coinAmount,
		PcVaultAmount:   pcAmount,
		CoinNeedTakePnl: u64At(poolDyn, 0),
		PcNeedTakePnl:   u64At(poolDyn, 8),
	}
	return raydiumamm.Quote(s, dyn, aToB, amountIn)
}

func (d *QuoteDispatcher) quoteRaydiumCPMM(e types.ManifestEntry, aToB bool, amountIn math.Int) (math.Int, bool) {
	if e.AmmConfig == nil {
		return math.ZeroInt(), false
	}
	static, ok := d.Cache.Static(e.Pool)
	if !ok || len(static) < 96 {
		return math.ZeroInt(), false
	}
	s := raydiumcpmm.Static{
		CoinMint: bytes32At(static, 0),
		PcMint:   bytes32At(static, 32),
		Creator:  bytes32At(static, 64),
	}
	cfgStatic, ok := d.Cache.Static(*e.AmmConfig)
	if !ok || len(cfgStatic) < 16 {
		return math.ZeroInt(), false
	}
	cfg := raydiumcpmm.AmmConfig{
		LpFeeBps:       u64At(cfgStatic, 0),
		ProtocolFeeBps: u64At(cfgStatic, 8),
	}
	coinVaultDyn, ok := d.Cache.Dynamic(e.VaultA)
	if !ok {
		return math.ZeroInt(), false
	}
	pcVaultDyn, ok := d.Cache.Dynamic(e.VaultB)
	if !ok {
		return math.ZeroInt(), false
	}
	coinAmount, ok := raydiumamm.DecodeDynamic(coinVaultDyn)
	if !ok {
		return math.ZeroInt(), false
	}
	pcAmount, ok := raydiumamm.DecodeDynamic(pcVaultDyn)
	if !ok {
		return math.ZeroInt(), false
	}
	dyn := raydiumcpmm.Dynamic{CoinVaultAmount: coinAmount, PcVaultAmount: pcAmount}
	return raydiumcpmm.Quote(s, cfg, dyn, aToB, amountIn)
}

func bigFromInt64(v int64) *big.Int { return big.NewInt(v) }

// tickRecordSize is the byte width of one encoded tick (int32 index, int64
// signed liquidity-net delta) within a tick-array account's dynamic
// projection.
const tickRecordSize = 12

func decodeTicks(accounts [][]byte) []raydiumclmm.Tick {
	var out []raydiumclmm.Tick
	for _, data := range accounts {
		for off := 0; off+tickRecordSize <= len(data); off += tickRecordSize {
			idx := i32At(data, off)
			net := i64At(data, off+4)
			out = append(out, raydiumclmm.Tick{Index: idx, LiquidityNet: bigFromInt64(net)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (d *QuoteDispatcher) relatedDynamics(related []solana.PublicKey) [][]byte {
	out := make([][]byte, 0, len(related))
	for _, key := range related {
		if data, ok := d.Cache.Dynamic(key); ok {
			out = append(out, data)
		}
	}
	return out
}

func (d *QuoteDispatcher) quoteRaydiumCLMM(e types.ManifestEntry, aToB bool, amountIn math.Int) (math.Int, bool) {
	if e.AmmConfig == nil {
		return math.ZeroInt(), false
	}
	cfgStatic, ok := d.Cache.Static(*e.AmmConfig)
	if !ok || len(cfgStatic) < 4 {
		return math.ZeroInt(), false
	}
	s := raydiumclmm.Static{FeeRate: u32At(cfgStatic, 0)}

	dyn, ok := d.Cache.Dynamic(e.Pool)
	if !ok || len(dyn) < 36 {
		return math.ZeroInt(), false
	}
	ticks := decodeTicks(d.relatedDynamics(e.RelatedAccounts))
	dd := raydiumclmm.Dynamic{
		SqrtPriceX64: uint128.FromBytes(dyn[0:16]),
		Liquidity:    uint128.FromBytes(dyn[16:32]),
		TickCurrent:  i32At(dyn, 32),
		Ticks:        ticks,
	}
	return raydiumclmm.Quote(s, dd, aToB, amountIn)
}

func (d *QuoteDispatcher) quoteWhirlpool(e types.ManifestEntry, aToB bool, amountIn math.Int) (math.Int, bool) {
	static, ok := d.Cache.Static(e.Pool)
	if !ok || len(static) < 4 {
		return math.ZeroInt(), false
	}
	s := whirlpool.Static{
		TickSpacing:      u16At(static, 0),
		FeeTierIndexSeed: u16At(static, 2),
	}

	dyn, ok := d.Cache.Dynamic(e.Pool)
	if !ok || len(dyn) < 36 {
		return math.ZeroInt(), false
	}
	ticks := decodeTicks(d.relatedDynamics(e.RelatedAccounts))

	var oracle whirlpool.AdaptiveFeeOracle
	if e.Oracle != nil {
		if od, ok := d.Cache.Dynamic(*e.Oracle); ok && len(od) >= 52 {
			oracle = whirlpool.AdaptiveFeeOracle{
				BaseFeeRate:              u32At(od, 0),
				FilterPeriod:             u32At(od, 4),
				DecayPeriod:              u32At(od, 8),
				ReductionFactor:          u32At(od, 12),
				VariableFeeControl:       u32At(od, 16),
				MaxVolatilityAccumulator: u32At(od, 20),
				TickGroupIndexReference:  i32At(od, 24),
				VolatilityReference:      u32At(od, 28),
				VolatilityAccumulator:    u32At(od, 32),
				LastReferenceUpdateTime:  i64At(od, 36),
				MajorSwapTimestamp:       i64At(od, 44),
			}
		}
	}

	dd := whirlpool.Dynamic{
		SqrtPriceX64:     uint128.FromBytes(dyn[0:16]),
		Liquidity:        uint128.FromBytes(dyn[16:32]),
		TickCurrentIndex: i32At(dyn, 32),
		Ticks:            ticks,
		Oracle:           oracle,
	}
	return whirlpool.Quote(s, dd, aToB, amountIn, d.Now)
}

// binRecordSize is the byte width of one encoded bin (int32 ID, two uint64
// token amounts) within a bin-array account's dynamic projection.
const binRecordSize = 20

func decodeBins(accounts [][]byte) []meteoradlmm.Bin {
	var out []meteoradlmm.Bin
	for _, data := range accounts {
		for off := 0; off+binRecordSize <= len(data); off += binRecordSize {
			out = append(out, meteoradlmm.Bin{
				ID:      i32At(data, off),
				AmountX: u64At(data, off+4),
				AmountY: u64At(data, off+12),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *QuoteDispatcher) quoteMeteoraDLMM(e types.ManifestEntry, aToB bool, amountIn math.Int) (math.Int, bool) {
	static, ok := d.Cache.Static(e.Pool)
	if !ok || len(static) < 31 {
		return math.ZeroInt(), false
	}
	s := meteoradlmm.Static{
		BinStep: u16At(static, 0),
		Params: meteoradlmm.StaticParameters{
			BaseFactor:               u16At(static, 2),
			FilterPeriod:             u16At(static, 4),
			DecayPeriod:              u16At(static, 6),
			ReductionFactor:          u16At(static, 8),
			VariableFeeControl:       u32At(static, 10),
			MaxVolatilityAccumulator: u32At(static, 14),
			ProtocolShare:            u16At(static, 18),
			BaseFeePowerFactor:       static[20],
		},
		PairType:        meteoradlmm.PairType(static[21]),
		ActivationType:  meteoradlmm.ActivationType(static[22]),
		ActivationPoint: u64At(static, 23),
	}

	dyn, ok := d.Cache.Dynamic(e.Pool)
	if !ok || len(dyn) < 25 {
		return math.ZeroInt(), false
	}
	bins := decodeBins(d.relatedDynamics(e.RelatedAccounts))
	dd := meteoradlmm.Dynamic{
		ActiveID: i32At(dyn, 0),
		Status:   meteoradlmm.Status(dyn[4]),
		VParams: meteoradlmm.VariableParameters{
			VolatilityAccumulator: u32At(dyn, 5),
			VolatilityReference:   u32At(dyn, 9),
			IndexReference:        i32At(dyn, 13),
			LastUpdateTimestamp:   i64At(dyn, 17),
		},
		Bins: bins,
	}
	swapForY := aToB
	return meteoradlmm.Quote(s, dd, swapForY, amountIn, d.Now, 0)
}
