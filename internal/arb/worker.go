package arb

import (
	"context"
	"encoding/binary"
	"time"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/solroute-arb/arbengine/internal/cache"
	"github.com/solroute-arb/arbengine/internal/executor"
	"github.com/solroute-arb/arbengine/internal/graph"
	"github.com/solroute-arb/arbengine/internal/ingest"
	"github.com/solroute-arb/arbengine/internal/instruction"
	"github.com/solroute-arb/arbengine/internal/logging"
	"github.com/solroute-arb/arbengine/internal/types"
	"github.com/solroute-arb/arbengine/internal/wallet"
	"github.com/solroute-arb/arbengine/pkg/anchor"
)

var log = logging.For("arb")

// DefaultTriggerAmountIn is the fixed probe amount used for single-point
// quoting when a cycle's family pair isn't a ternary-search candidate (kept
// as a documented constant, with the configured --arb-amount-in flag taking
// precedence when set).
const DefaultTriggerAmountIn = 1_000_000_000 // 10^9 base units

// Config is the static, CLI-derived tuning a Worker needs.
type Config struct {
	ArbMint        solana.PublicKey
	AmountIn       math.Int // zero/nil means "use DefaultTriggerAmountIn"
	MinProfit      math.Int
	MaxAmountInCap math.Int // zero/nil means "no cap beyond wallet balance"
}

func (c Config) amountIn() math.Int {
	if c.AmountIn.IsNil() || c.AmountIn.IsZero() {
		return math.NewInt(DefaultTriggerAmountIn)
	}
	return c.AmountIn
}

// Worker consumes one Broadcast subscriber, runs the search against a fresh
// QuoteDispatcher snapshot per batch, and dispatches the winning route to
// the executor. Multiple Workers run concurrently over the same Broadcast,
// each an independent consumer of the same change stream.
type Worker struct {
	ID     int
	Graph  *graph.Graph
	Cache  *cache.Cache
	Pools  *PoolRegistry
	Meta   *wallet.Metadata
	Exec   *executor.JitoExecutor
	Signer solana.PrivateKey
	Cfg    Config
}

// Run blocks, processing balance-change batches from ch until ctx is
// cancelled or ch closes.
func (w *Worker) Run(ctx context.Context, ch <-chan []types.BalanceChange) error {
	entry := log.WithField("worker", w.ID)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case changes, ok := <-ch:
			if !ok {
				return nil
			}
			recvAt := time.Now()
			for _, change := range changes {
				w.handleChange(ctx, entry, change, recvAt)
			}
		}
	}
}

func (w *Worker) handleChange(ctx context.Context, entry *logrus.Entry, change types.BalanceChange, recvAt time.Time) {
	amountIn := w.Cfg.amountIn()
	if !w.Cfg.MaxAmountInCap.IsNil() && w.Cfg.MaxAmountInCap.IsPositive() && amountIn.GT(w.Cfg.MaxAmountInCap) {
		amountIn = w.Cfg.MaxAmountInCap
	}
	if w.Meta != nil {
		if walletCap := math.NewIntFromUint64(w.Meta.ArbMintATAAmount()); walletCap.IsPositive() && amountIn.GT(walletCap) {
			amountIn = walletCap
		}
	}

	var now int64
	if clk, ok := w.Cache.Clock(); ok {
		now = int64(clk.UnixTimestamp)
	}
	dispatcher := &QuoteDispatcher{Cache: w.Cache, Pools: w.Pools, Now: now}

	quoteStart := time.Now()
	result, ok := graph.Search(ctx, w.Graph, dispatcher.Quote, change.Vault, w.Cfg.ArbMint, amountIn, w.Cfg.MinProfit)
	quoteLatency := time.Since(quoteStart)
	if !ok {
		return
	}

	entry.WithFields(logrus.Fields{
		"pool":            change.Pool.String(),
		"profit":          result.Profit.String(),
		"channel_latency": quoteStart.Sub(recvAt),
		"quote_latency":   quoteLatency,
	}).Info("profitable route found")

	if w.Exec == nil || w.Signer == nil {
		return // dry-run worker: search only, no submission wired
	}

	tx, err := w.buildTransaction(result)
	if err != nil {
		entry.WithError(err).Debug("dropping route: instruction assembly failed")
		return
	}

	dispatchStart := time.Now()
	sig, err := w.Exec.Submit(ctx, w.Signer, tx, result.Profit.Uint64())
	if err != nil {
		entry.WithError(err).Warn("submission failed")
		return
	}
	entry.WithFields(logrus.Fields{
		"signature":        sig,
		"dispatch_latency": time.Since(dispatchStart),
	}).Info("route submitted")
}

// buildTransaction assembles both legs of the winning cycle into a single
// signed transaction, pulling each pool's owning program id and swap-account
// material from the manifest and encoding an anchor-discriminator-prefixed
// swap instruction per leg. Leg one spends result.AmountIn (the actual
// probed input, which a ternary-search refinement may have moved off the
// caller's requested amount); leg two spends result.FirstOut, the quoted
// output of leg one. ALT entries cached for a pool are attached as
// address-table lookups when present.
func (w *Worker) buildTransaction(result *graph.Result) (*solana.Transaction, error) {
	ix1, err := w.legInstruction(result.Cycle.First, result.AmountIn)
	if err != nil {
		return nil, err
	}
	ix2, err := w.legInstruction(result.Cycle.Second, result.FirstOut)
	if err != nil {
		return nil, err
	}

	bh := w.Meta.LatestBlockhash()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix1, ix2},
		bh,
		solana.TransactionPayer(w.Signer.PublicKey()),
	)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if w.Signer.PublicKey().Equals(key) {
			return &w.Signer
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return tx, nil
}

// legInstruction assembles one leg's instruction-material bundle and
// encodes it as an anchor-discriminator-prefixed swap instruction carrying
// amountIn as the on-chain swap amount. ALT entries cached for the pool are
// appended as additional (not-yet-looked-up) account metas, matching the
// rest of the cache's ALT handling.
func (w *Worker) legInstruction(e types.Edge, amountIn math.Int) (solana.Instruction, error) {
	entry, ok := w.Pools.Entry(e.PoolKey)
	if !ok {
		return nil, errUnknownPool{e.PoolKey}
	}
	material, err := w.buildMaterial(e)
	if err != nil {
		return nil, err
	}

	accs := material.Accounts
	if alt, ok := w.Cache.ALT(e.PoolKey); ok {
		for _, a := range alt {
			accs = append(accs, solana.NewAccountMeta(a, true, false))
		}
	}

	data := anchor.GetDiscriminator(e.Family.String(), "swap")
	amountBuf := make([]byte, 8)
	binary.LittleEndian.PutUint64(amountBuf, amountIn.Uint64())
	data = append(data, amountBuf...)

	return solana.NewInstruction(entry.Owner, accs, data), nil
}

// buildMaterial dispatches to the family-specific instruction.Build*
// function, assembling its *Pool argument from the manifest entry's cached
// sibling accounts and deriving the user's source/destination associated
// token accounts.
func (w *Worker) buildMaterial(e types.Edge) (instruction.Material, error) {
	entry, ok := w.Pools.Entry(e.PoolKey)
	if !ok {
		return instruction.Material{}, errUnknownPool{e.PoolKey}
	}
	aToB := e.InMintKey == entry.MintA
	owner := w.Signer.PublicKey()

	switch e.Family {
	case types.DexRaydiumAMM:
		if entry.Authority == nil || entry.OpenOrders == nil || entry.Market == nil {
			return instruction.Material{}, errMissingAccounts{e.Family, e.PoolKey}
		}
		src, dst, err := w.legATAs(e)
		if err != nil {
			return instruction.Material{}, err
		}
		m := entry.Market
		p := instruction.RaydiumAMMPool{
			ID:                entry.Pool,
			Authority:         *entry.Authority,
			OpenOrders:        *entry.OpenOrders,
			CoinVault:         entry.VaultA,
			PcVault:           entry.VaultB,
			Market:            m.ID,
			MarketProgram:     m.Program,
			MarketBids:        m.Bids,
			MarketAsks:        m.Asks,
			MarketEventQueue:  m.EventQueue,
			MarketCoinVault:   m.CoinVault,
			MarketPcVault:     m.PcVault,
			MarketVaultSigner: m.VaultSigner,
		}
		return instruction.BuildRaydiumAMM(p, src, dst, owner, aToB), nil

	case types.DexRaydiumCPMM:
		if entry.Authority == nil || entry.AmmConfig == nil || entry.ObservationAccount == nil {
			return instruction.Material{}, errMissingAccounts{e.Family, e.PoolKey}
		}
		base, _, err := solana.FindAssociatedTokenAddress(owner, entry.MintA)
		if err != nil {
			return instruction.Material{}, err
		}
		quote, _, err := solana.FindAssociatedTokenAddress(owner, entry.MintB)
		if err != nil {
			return instruction.Material{}, err
		}
		p := instruction.RaydiumCPMMPool{
			ID:               entry.Pool,
			Authority:        *entry.Authority,
			AmmConfig:        *entry.AmmConfig,
			Token0Vault:      entry.VaultA,
			Token1Vault:      entry.VaultB,
			Token0Mint:       entry.MintA,
			Token1Mint:       entry.MintB,
			ObservationState: *entry.ObservationAccount,
		}
		return instruction.BuildRaydiumCPMM(p, owner, base, quote, aToB), nil

	case types.DexRaydiumCLMM:
		if entry.Authority == nil || entry.AmmConfig == nil || entry.ObservationAccount == nil {
			return instruction.Material{}, errMissingAccounts{e.Family, e.PoolKey}
		}
		src, dst, err := w.legATAs(e)
		if err != nil {
			return instruction.Material{}, err
		}
		p := instruction.RaydiumCLMMPool{
			ID:             entry.Pool,
			AmmConfig:      *entry.AmmConfig,
			Authority:      *entry.Authority,
			TokenVault0:    entry.VaultA,
			TokenVault1:    entry.VaultB,
			ObservationKey: *entry.ObservationAccount,
			TickArrays:     entry.RelatedAccounts,
		}
		return instruction.BuildRaydiumCLMM(p, owner, src, dst, aToB), nil

	case types.DexMeteoraDLMM:
		if entry.Oracle == nil {
			return instruction.Material{}, errMissingAccounts{e.Family, e.PoolKey}
		}
		src, dst, err := w.legATAs(e)
		if err != nil {
			return instruction.Material{}, err
		}
		p := instruction.MeteoraDLMMPool{
			ID:         entry.Pool,
			Oracle:     *entry.Oracle,
			TokenXMint: entry.MintA,
			TokenYMint: entry.MintB,
			ReserveX:   entry.VaultA,
			ReserveY:   entry.VaultB,
			BinArrays:  entry.RelatedAccounts,
		}
		return instruction.BuildMeteoraDLMM(p, owner, src, dst, aToB), nil

	case types.DexWhirlpool:
		if entry.Authority == nil || entry.AmmConfig == nil || entry.Oracle == nil {
			return instruction.Material{}, errMissingAccounts{e.Family, e.PoolKey}
		}
		src, dst, err := w.legATAs(e)
		if err != nil {
			return instruction.Material{}, err
		}
		p := instruction.WhirlpoolPool{
			ID:                entry.Pool,
			FeeTierConfig:     *entry.AmmConfig,
			Authority:         *entry.Authority,
			TokenVault0:       entry.VaultA,
			TokenVault1:       entry.VaultB,
			AdaptiveFeeOracle: *entry.Oracle,
			TickArrays:        entry.RelatedAccounts,
		}
		return instruction.BuildWhirlpool(p, owner, src, dst, aToB), nil

	default:
		return instruction.Material{}, errUnknownFamily{e.Family}
	}
}

// legATAs derives the signer's associated token accounts for an edge's input
// and output mints, the pair every family but CPMM takes directly as its
// source/destination accounts.
func (w *Worker) legATAs(e types.Edge) (src, dst solana.PublicKey, err error) {
	src, _, err = solana.FindAssociatedTokenAddress(w.Signer.PublicKey(), e.InMintKey)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	dst, _, err = solana.FindAssociatedTokenAddress(w.Signer.PublicKey(), e.OutMintKey)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	return src, dst, nil
}

type errUnknownPool struct{ pool solana.PublicKey }

func (e errUnknownPool) Error() string { return "arb: unknown pool " + e.pool.String() }

type errMissingAccounts struct {
	family types.DexFamily
	pool   solana.PublicKey
}

func (e errMissingAccounts) Error() string {
	return "arb: pool " + e.pool.String() + " (" + e.family.String() + ") missing required manifest accounts"
}

type errUnknownFamily struct{ family types.DexFamily }

func (e errUnknownFamily) Error() string { return "arb: unknown dex family " + e.family.String() }

// RunWorkers spawns n Workers, each with its own Broadcast subscription,
// and blocks until ctx is cancelled or any worker returns a non-nil error.
func RunWorkers(ctx context.Context, n int, bc *ingest.Broadcast, build func(id int) *Worker) error {
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		w := build(i)
		ch := bc.Subscribe()
		go func() {
			errs <- w.Run(ctx, ch)
		}()
	}
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			return err
		}
	}
	return nil
}
