// Package bootstrap wires the pool manifest, the slice-projection schema
// registry, the account-relation registry, and the account cache together
// at process start, grounded on
// _examples/original_source/bin/arb/src/arb_bot.rs's startup sequence
// (load pools -> register schemas -> bulk-fetch accounts -> build relation
// graph) and on the byte layouts of
// _examples/nick199910-SolRoute/pkg/pool/{raydium,meteora}/*.go's pool
// structs.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/solroute-arb/arbengine/internal/cache"
	"github.com/solroute-arb/arbengine/internal/relation"
	"github.com/solroute-arb/arbengine/internal/slice"
	"github.com/solroute-arb/arbengine/internal/solclient"
	"github.com/solroute-arb/arbengine/internal/types"
	"github.com/solroute-arb/arbengine/internal/logging"
)

var log = logging.For("bootstrap")

// Canonical mainnet program ids for the four families the pool structs
// target. No declaration site for these RAYDIUM_*_PROGRAM_ID /
// MeteoraProgramID identifiers was found anywhere in the retrieved pack
// (see DESIGN.md); these are the real, public mainnet addresses those
// identifiers name.
var (
	RaydiumAMMProgramID  = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	RaydiumCLMMProgramID = solana.MustPublicKeyFromBase58("CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK")
	RaydiumCPMMProgramID = solana.MustPublicKeyFromBase58("CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C")
	MeteoraDLMMProgramID = solana.MustPublicKeyFromBase58("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo")
	// WhirlpoolStyleProgramID is family E's program id. Family E has no
	// on-chain counterpart (SPEC_FULL's Open-Question resolution #3 invents
	// it as a tick-based AMM with an adaptive-fee oracle); there is no real
	// mainnet address to ground this on, so this is a placeholder
	// manifest-owner id, documented as ungrounded in DESIGN.md.
	WhirlpoolStyleProgramID = solana.MustPublicKeyFromBase58("WhirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")

	// SysvarClockPubkey is the well-known Solana clock sysvar account.
	SysvarClockPubkey = solana.MustPublicKeyFromBase58("SysvarC1ock11111111111111111111111111111111")
)

// familyByOwner resolves a manifest entry's owning program to a DexFamily.
var familyByOwner = map[solana.PublicKey]types.DexFamily{
	RaydiumAMMProgramID:     types.DexRaydiumAMM,
	RaydiumCLMMProgramID:    types.DexRaydiumCLMM,
	RaydiumCPMMProgramID:    types.DexRaydiumCPMM,
	MeteoraDLMMProgramID:    types.DexMeteoraDLMM,
	WhirlpoolStyleProgramID: types.DexWhirlpool,
}

// ResolveFamilies fills in Family on every manifest entry from its Owner
// program id, since ManifestEntry.Family is tagged json:"-" and is never
// populated by config.LoadManifest's JSON decode. Entries whose owner isn't
// a known program are dropped, silently skipping pools that aren't
// recognized.
func ResolveFamilies(entries []types.ManifestEntry) []types.ManifestEntry {
	out := entries[:0]
	for _, e := range entries {
		family, ok := familyByOwner[e.Owner]
		if !ok {
			log.WithField("owner", e.Owner.String()).Warn("bootstrap: unrecognized pool owner, dropping")
			continue
		}
		e.Family = family
		out = append(out, e)
	}
	return out
}

// vaultSchema projects the 8-byte amount field off an SPL token (or
// token-2022) account, a layout fixed by the SPL token program across every
// family.
var vaultSchema = slice.NewSchema(slice.Interval{Start: 64, End: 72})

// RegisterSchemas installs every (family, account type, kind) schema the
// ingestion and bootstrap paths need. Offsets below are hand-derived from
// each family's on-chain struct field order; see DESIGN.md for the
// per-family derivation and the tick/bin-array compact-record caveat.
func RegisterSchemas(r *slice.Registry) {
	// Vault (SPL token account amount field) is shared by every family.
	for _, f := range []types.DexFamily{types.DexRaydiumAMM, types.DexRaydiumCLMM, types.DexRaydiumCPMM, types.DexMeteoraDLMM, types.DexWhirlpool} {
		r.Register(f, types.AccountVault, slice.Static, vaultSchema)
		r.Register(f, types.AccountVault, slice.Dynamic, vaultSchema)
	}

	// Family A: Raydium AMM (pkg/pool/raydium/ammPool.go AMMPool).
	r.Register(types.DexRaydiumAMM, types.AccountPool, slice.Static, slice.NewSchema(
		slice.Interval{Start: 176, End: 184}, // SwapFeeNumerator
		slice.Interval{Start: 184, End: 192}, // SwapFeeDenominator
		slice.Interval{Start: 400, End: 432}, // BaseMint (CoinMint)
		slice.Interval{Start: 432, End: 464}, // QuoteMint (PcMint)
		slice.Interval{Start: 336, End: 368}, // BaseVault (CoinVault)
		slice.Interval{Start: 368, End: 400}, // QuoteVault (PcVault)
	))
	r.Register(types.DexRaydiumAMM, types.AccountPool, slice.Dynamic, slice.NewSchema(
		slice.Interval{Start: 192, End: 200}, // BaseNeedTakePnl (CoinNeedTakePnl)
		slice.Interval{Start: 200, End: 208}, // QuoteNeedTakePnl (PcNeedTakePnl)
	))

	// Family D: Raydium CPMM (pkg/pool/raydium/cpmmPool.go CPMMPool, offsets
	// relative to the account data after the 8-byte anchor discriminator).
	r.Register(types.DexRaydiumCPMM, types.AccountPool, slice.Static, slice.NewSchema(
		slice.Interval{Start: 160, End: 192}, // Token0Mint
		slice.Interval{Start: 192, End: 224}, // Token1Mint
		slice.Interval{Start: 32, End: 64},   // PoolCreator
	))
	// CPMMPool has no per-swap mutable pool-account fields the quoter needs
	// beyond the vaults and AmmConfig, so its pool dynamic projection is
	// empty (zero-length schema, still registered so Project never errors).
	r.Register(types.DexRaydiumCPMM, types.AccountPool, slice.Dynamic, slice.NewSchema())
	r.Register(types.DexRaydiumCPMM, types.AccountAmmConfig, slice.Static, slice.NewSchema(
		slice.Interval{Start: 0, End: 8}, // LpFeeBps (AmmConfig's own layout, see DESIGN.md)
		slice.Interval{Start: 8, End: 16}, // ProtocolFeeBps
	))

	// Family B: Raydium CLMM (pkg/pool/raydium/clmmPool.go CLMMPool, offsets
	// relative to data after the 8-byte discriminator). FeeRate is not a
	// raw CLMMPool field; it's read from the sibling AmmConfig account.
	r.Register(types.DexRaydiumCLMM, types.AccountPool, slice.Static, slice.NewSchema())
	r.Register(types.DexRaydiumCLMM, types.AccountPool, slice.Dynamic, slice.NewSchema(
		slice.Interval{Start: 245, End: 261}, // SqrtPriceX64
		slice.Interval{Start: 229, End: 245}, // Liquidity
		slice.Interval{Start: 261, End: 265}, // TickCurrent
	))
	r.Register(types.DexRaydiumCLMM, types.AccountAmmConfig, slice.Static, slice.NewSchema(
		slice.Interval{Start: 0, End: 4}, // FeeRate
	))
	// Tick-array accounts project down from the real ~150+ byte-per-tick
	// on-chain record (clmm_tickerarray.go) into a compact 12-byte
	// (index int32, liquidityNet int64) application record; see DESIGN.md.
	r.Register(types.DexRaydiumCLMM, types.AccountTickArray, slice.Static, slice.NewSchema())
	r.Register(types.DexRaydiumCLMM, types.AccountTickArray, slice.Dynamic, tickArraySchema())

	// Family E: Whirlpool-style (no on-chain counterpart; offsets chosen by
	// analogy to CLMM's sqrt-price/tick-current layout and documented as
	// ungrounded in DESIGN.md).
	r.Register(types.DexWhirlpool, types.AccountPool, slice.Static, slice.NewSchema(
		slice.Interval{Start: 0, End: 2}, // TickSpacing
		slice.Interval{Start: 2, End: 4}, // FeeTierIndexSeed
	))
	r.Register(types.DexWhirlpool, types.AccountPool, slice.Dynamic, slice.NewSchema(
		slice.Interval{Start: 0, End: 16},  // SqrtPriceX64
		slice.Interval{Start: 16, End: 32}, // Liquidity
		slice.Interval{Start: 32, End: 36}, // TickCurrentIndex
	))
	r.Register(types.DexWhirlpool, types.AccountOracle, slice.Static, slice.NewSchema())
	r.Register(types.DexWhirlpool, types.AccountOracle, slice.Dynamic, slice.NewSchema(
		slice.Interval{Start: 0, End: 4},   // BaseFeeRate
		slice.Interval{Start: 4, End: 8},   // FilterPeriod
		slice.Interval{Start: 8, End: 12},  // DecayPeriod
		slice.Interval{Start: 12, End: 16}, // ReductionFactor
		slice.Interval{Start: 16, End: 20}, // VariableFeeControl
		slice.Interval{Start: 20, End: 24}, // MaxVolatilityAccumulator
		slice.Interval{Start: 24, End: 28}, // TickGroupIndexReference
		slice.Interval{Start: 28, End: 32}, // VolatilityReference
		slice.Interval{Start: 32, End: 36}, // VolatilityAccumulator
		slice.Interval{Start: 36, End: 44}, // LastReferenceUpdateTime
		slice.Interval{Start: 44, End: 52}, // MajorSwapTimestamp
	))
	r.Register(types.DexRaydiumCLMM, types.AccountOracle, slice.Static, slice.NewSchema())
	r.Register(types.DexWhirlpool, types.AccountTickArray, slice.Static, slice.NewSchema())
	r.Register(types.DexWhirlpool, types.AccountTickArray, slice.Dynamic, tickArraySchema())

	// Family C: Meteora DLMM (pkg/pool/meteora/dlmm.go MeteoraDlmmPool,
	// fully Borsh-packed, no implicit padding).
	r.Register(types.DexMeteoraDLMM, types.AccountPool, slice.Static, slice.NewSchema(
		slice.Interval{Start: 80, End: 82}, // BinStep
		slice.Interval{Start: 8, End: 10},   // BaseFactor
		slice.Interval{Start: 10, End: 12},  // FilterPeriod
		slice.Interval{Start: 12, End: 14},  // DecayPeriod
		slice.Interval{Start: 14, End: 16},  // ReductionFactor
		slice.Interval{Start: 16, End: 20},  // VariableFeeControl
		slice.Interval{Start: 20, End: 24},  // MaxVolatilityAccumulator
		slice.Interval{Start: 32, End: 34},  // ProtocolShare
		slice.Interval{Start: 34, End: 35},  // BaseFeePowerFactor
		slice.Interval{Start: 75, End: 76},  // PairType
		slice.Interval{Start: 86, End: 87},  // ActivationType
		slice.Interval{Start: 800, End: 808}, // ActivationPoint
	))
	r.Register(types.DexMeteoraDLMM, types.AccountPool, slice.Dynamic, slice.NewSchema(
		slice.Interval{Start: 76, End: 80}, // ActiveId
		slice.Interval{Start: 82, End: 83}, // Status
		slice.Interval{Start: 40, End: 44}, // VolatilityAccumulator
		slice.Interval{Start: 44, End: 48}, // VolatilityReference
		slice.Interval{Start: 48, End: 52}, // IndexReference
		slice.Interval{Start: 56, End: 64}, // LastUpdateTimestamp
	))
	// Bin-array accounts project down from the real per-bin on-chain record
	// (bin_array.go's Bin struct carries price, fee-growth, and reward
	// accumulators) into a compact 20-byte (id int32, amountX, amountY
	// uint64) application record; see DESIGN.md.
	r.Register(types.DexMeteoraDLMM, types.AccountBinArray, slice.Static, slice.NewSchema())
	r.Register(types.DexMeteoraDLMM, types.AccountBinArray, slice.Dynamic, binArraySchema())

	// The global clock sysvar, shared by every family via Cache.Clock().
	for _, f := range []types.DexFamily{types.DexRaydiumAMM, types.DexRaydiumCLMM, types.DexRaydiumCPMM, types.DexMeteoraDLMM, types.DexWhirlpool} {
		r.Register(f, types.AccountClock, slice.Dynamic, slice.NewSchema(slice.Interval{Start: 0, End: types.ClockAccountDataSize}))
	}
}

// tickArrayMaxRecords bounds how many compact 12-byte tick records one
// related tick-array account projects, matching the on-chain per-account
// tick-array capacity (clmm_tickerarray.go).
const tickArrayMaxRecords = 60

func tickArraySchema() slice.Schema {
	intervals := make([]slice.Interval, 0, tickArrayMaxRecords)
	const recordSize = 12
	const headerSkip = 8 // discriminator
	for i := 0; i < tickArrayMaxRecords; i++ {
		start := headerSkip + i*recordSize
		intervals = append(intervals, slice.Interval{Start: start, End: start + recordSize})
	}
	return slice.NewSchema(intervals...)
}

const binArrayMaxRecords = 70

func binArraySchema() slice.Schema {
	intervals := make([]slice.Interval, 0, binArrayMaxRecords)
	const recordSize = 20
	const headerSkip = 8
	for i := 0; i < binArrayMaxRecords; i++ {
		start := headerSkip + i*recordSize
		intervals = append(intervals, slice.Interval{Start: start, End: start + recordSize})
	}
	return slice.NewSchema(intervals...)
}

// accountBatchSize is the Solana RPC getMultipleAccounts request cap.
const accountBatchSize = 100

// Populate bulk-fetches every account a manifest needs (pools, vaults, amm
// configs, oracles, related tick/bin arrays, plus the clock sysvar), decodes
// each through schemas, and writes the projections into c. Pools whose own
// account fails to fetch or decode are dropped from the returned manifest,
// pruning pools that can't be resolved rather than crashing.
func Populate(ctx context.Context, client *solclient.Client, schemas *slice.Registry, c *cache.Cache, entries []types.ManifestEntry) ([]types.ManifestEntry, error) {
	keys := collectKeys(entries)
	keys = append(keys, SysvarClockPubkey)

	blobs := make(map[solana.PublicKey][]byte, len(keys))
	for i := 0; i < len(keys); i += accountBatchSize {
		end := i + accountBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[i:end]
		resp, err := client.GetMultipleAccountsWithOpts(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: fetch accounts: %w", err)
		}
		for j, acct := range resp.Value {
			if acct == nil {
				continue
			}
			blobs[batch[j]] = acct.Data.GetBinary()
		}
	}

	if data, ok := blobs[SysvarClockPubkey]; ok {
		c.UpsertDynamic(SysvarClockPubkey, data)
	}

	kept := entries[:0]
	for _, e := range entries {
		poolData, ok := blobs[e.Pool]
		if !ok {
			log.WithField("pool", e.Pool.String()).Warn("bootstrap: pool account missing, dropping")
			continue
		}
		staticSchema, _ := schemas.Lookup(e.Family, types.AccountPool, slice.Static)
		dynSchema, _ := schemas.Lookup(e.Family, types.AccountPool, slice.Dynamic)
		c.UpsertStatic(e.Pool, slice.Project(staticSchema, poolData))
		c.UpsertDynamic(e.Pool, slice.Project(dynSchema, poolData))

		projectVault(c, schemas, e.Family, e.VaultA, blobs)
		projectVault(c, schemas, e.Family, e.VaultB, blobs)

		if e.AmmConfig != nil {
			if data, ok := blobs[*e.AmmConfig]; ok {
				s, _ := schemas.Lookup(e.Family, types.AccountAmmConfig, slice.Static)
				c.UpsertStatic(*e.AmmConfig, slice.Project(s, data))
			}
		}
		if e.Oracle != nil {
			if data, ok := blobs[*e.Oracle]; ok {
				s, _ := schemas.Lookup(e.Family, types.AccountOracle, slice.Dynamic)
				c.UpsertDynamic(*e.Oracle, slice.Project(s, data))
			}
		}
		atype := types.AccountTickArray
		if e.Family == types.DexMeteoraDLMM {
			atype = types.AccountBinArray
		}
		dynSchema, _ = schemas.Lookup(e.Family, atype, slice.Dynamic)
		for _, related := range e.RelatedAccounts {
			if data, ok := blobs[related]; ok {
				c.UpsertDynamic(related, slice.Project(dynSchema, data))
			}
		}

		if alt := e.AddressLookupTableAddress; alt != nil {
			c.UpsertALT(e.Pool, resolveALT(blobs, *alt))
		}

		kept = append(kept, e)
	}
	return kept, nil
}

func projectVault(c *cache.Cache, schemas *slice.Registry, family types.DexFamily, vault solana.PublicKey, blobs map[solana.PublicKey][]byte) {
	data, ok := blobs[vault]
	if !ok {
		return
	}
	s, _ := schemas.Lookup(family, types.AccountVault, slice.Dynamic)
	c.UpsertDynamic(vault, slice.Project(s, data))
}

// resolveALT decodes an address-lookup-table account's address list. The
// ALT wire format (a fixed 56-byte header followed by packed 32-byte
// addresses) is the same across every program, per solana-go's
// addresslookuptable package.
func resolveALT(blobs map[solana.PublicKey][]byte, altKey solana.PublicKey) []solana.PublicKey {
	data, ok := blobs[altKey]
	if !ok || len(data) <= 56 {
		return nil
	}
	body := data[56:]
	n := len(body) / 32
	out := make([]solana.PublicKey, 0, n)
	for i := 0; i < n; i++ {
		var pk solana.PublicKey
		copy(pk[:], body[i*32:(i+1)*32])
		out = append(out, pk)
	}
	return out
}

func collectKeys(entries []types.ManifestEntry) []solana.PublicKey {
	seen := make(map[solana.PublicKey]bool)
	var keys []solana.PublicKey
	add := func(k solana.PublicKey) {
		if k.IsZero() || seen[k] {
			return
		}
		seen[k] = true
		keys = append(keys, k)
	}
	for _, e := range entries {
		add(e.Pool)
		add(e.VaultA)
		add(e.VaultB)
		if e.AmmConfig != nil {
			add(*e.AmmConfig)
		}
		if e.Oracle != nil {
			add(*e.Oracle)
		}
		if e.AddressLookupTableAddress != nil {
			add(*e.AddressLookupTableAddress)
		}
		for _, related := range e.RelatedAccounts {
			add(related)
		}
	}
	return keys
}

// BuildRelations populates a fresh relation registry from entries, after
// ResolveFamilies and Populate have run.
func BuildRelations(entries []types.ManifestEntry) *relation.Registry {
	reg := relation.New()
	for _, e := range entries {
		reg.AddPool(e.Pool, e.Family)
		reg.AddVaults(e.VaultA, e.VaultB, e.Pool, e.Family)
		if e.AmmConfig != nil {
			reg.AddDerived(*e.AmmConfig, e.Family, types.AccountAmmConfig, e.Pool)
		}
		if e.Oracle != nil {
			reg.AddDerived(*e.Oracle, e.Family, types.AccountOracle, e.Pool)
		}
		atype := types.AccountTickArray
		if e.Family == types.DexMeteoraDLMM {
			atype = types.AccountBinArray
		}
		for _, related := range e.RelatedAccounts {
			reg.AddDerived(related, e.Family, atype, e.Pool)
		}
	}
	reg.RegisterDefault(RaydiumCLMMProgramID, types.DexRaydiumCLMM, types.AccountTickArray)
	reg.RegisterDefault(MeteoraDLMMProgramID, types.DexMeteoraDLMM, types.AccountBinArray)
	reg.RegisterDefault(WhirlpoolStyleProgramID, types.DexWhirlpool, types.AccountTickArray)
	return reg
}
