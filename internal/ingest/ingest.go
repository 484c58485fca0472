// Package ingest implements the ingestion pipeline (C6): subscription,
// processor workers, and balance-change extraction. Grounded on
// _examples/original_source/bin/arb/src/arb_bot.rs (bootstrap/task shape)
// and bin/router/src/arbitrage/message_collector.rs (ping interval, account
// vs transaction event shape).
package ingest

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/solroute-arb/arbengine/internal/cache"
	"github.com/solroute-arb/arbengine/internal/logging"
	"github.com/solroute-arb/arbengine/internal/relation"
	"github.com/solroute-arb/arbengine/internal/slice"
	"github.com/solroute-arb/arbengine/internal/types"
)

var log = logging.For("ingest")

// AccountUpdate is one pushed account-data change.
type AccountUpdate struct {
	Owner solana.PublicKey
	Key   solana.PublicKey
	Data  []byte
}

// TokenBalance is one entry of a transaction's pre/post token-balance list.
type TokenBalance struct {
	AccountIndex int
	Mint         solana.PublicKey
	Owner        solana.PublicKey
	UIAmount     uint64
}

// TransactionUpdate is one pushed transaction, carrying both account keys
// (message account_keys plus loaded lookup-table addresses) and its
// pre/post token balances, the raw material for balance-change extraction.
type TransactionUpdate struct {
	AccountKeys []solana.PublicKey
	Pre, Post   []TokenBalance
	SentAt      time.Time // monotonic send instant, for end-to-end latency
}

// Subscriber is the push-subscription transport the ingestion task consumes
// from. The core never imports a concrete Geyser/gRPC SDK; production
// wiring (internal/ingest/grpc_subscriber.go) implements this over a plain
// gRPC dial, matching SPEC_FULL's DOMAIN STACK grpc wiring.
type Subscriber interface {
	// Run blocks, delivering updates to the two channels until ctx is
	// cancelled or the upstream connection closes (in which case it returns
	// a non-nil error — fatal per SPEC_FULL §7).
	Run(ctx context.Context, accounts chan<- AccountUpdate, txs chan<- TransactionUpdate) error
}

// Pipeline owns the cache, relation registry, and slice registry needed to
// turn raw pushed updates into cache writes and balance-change events.
type Pipeline struct {
	Cache     *cache.Cache
	Relations *relation.Registry
	Schemas   *slice.Registry

	accounts chan AccountUpdate
	txs      chan TransactionUpdate
}

// NewPipeline constructs a Pipeline with the given raw-channel capacity.
func NewPipeline(c *cache.Cache, rel *relation.Registry, schemas *slice.Registry, rawCapacity int) *Pipeline {
	return &Pipeline{
		Cache:     c,
		Relations: rel,
		Schemas:   schemas,
		accounts:  make(chan AccountUpdate, rawCapacity),
		txs:       make(chan TransactionUpdate, rawCapacity),
	}
}

// RawChannels exposes the raw inbound channels a Subscriber pushes into.
func (p *Pipeline) RawChannels() (chan<- AccountUpdate, chan<- TransactionUpdate) {
	return p.accounts, p.txs
}

// Broadcast is a bounded, lossy-on-full fan-out of resolved BalanceChange
// batches to every arb worker, per SPEC_FULL §4.6/§5.
type Broadcast struct {
	mu   chan struct{} // 1-buffered mutex substitute to guard subs under concurrent Subscribe/Send
	subs []chan []types.BalanceChange
	cap  int
}

// NewBroadcast builds a broadcast with the given per-subscriber capacity.
func NewBroadcast(capacity int) *Broadcast {
	b := &Broadcast{mu: make(chan struct{}, 1), cap: capacity}
	b.mu <- struct{}{}
	return b
}

// Subscribe registers a new receiver; safe to call before or after Send
// starts.
func (b *Broadcast) Subscribe() <-chan []types.BalanceChange {
	<-b.mu
	defer func() { b.mu <- struct{}{} }()
	ch := make(chan []types.BalanceChange, b.cap)
	b.subs = append(b.subs, ch)
	return ch
}

// Send fans out changes to every subscriber. If a subscriber's channel is
// full, its oldest buffered message is dropped and the send retried up to
// three times before the sender gives up silently for that subscriber, per
// SPEC_FULL §4.6's channel-full policy.
func (b *Broadcast) Send(changes []types.BalanceChange) {
	<-b.mu
	subs := append([]chan []types.BalanceChange(nil), b.subs...)
	b.mu <- struct{}{}

	for _, ch := range subs {
		sent := false
		for attempt := 0; attempt < 3 && !sent; attempt++ {
			select {
			case ch <- changes:
				sent = true
			default:
				select {
				case <-ch:
				default:
				}
			}
		}
		if !sent {
			log.Debug("dropped balance-change batch: receiver channel full after retries")
		}
	}
}

// RunProcessors starts n processor workers consuming p.accounts/p.txs,
// writing resolved account projections to the cache and forwarding
// resolved balance changes to bc. Blocks until ctx is cancelled or a
// channel closes.
func (p *Pipeline) RunProcessors(ctx context.Context, n int, bc *Broadcast) error {
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			errs <- p.processorLoop(ctx, bc)
		}()
	}
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) processorLoop(ctx context.Context, bc *Broadcast) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case au, ok := <-p.accounts:
			if !ok {
				return nil // upstream closed: fatal at the caller's supervision level
			}
			p.handleAccount(au)
		case tu, ok := <-p.txs:
			if !ok {
				return nil
			}
			changes := ExtractBalanceChanges(p.Relations, tu)
			if len(changes) == 0 {
				continue // transactions with no resolvable balance change are dropped
			}
			bc.Send(changes)
		}
	}
}

func (p *Pipeline) handleAccount(au AccountUpdate) {
	mapping, ok := p.Relations.Resolve(au.Owner, au.Key)
	if !ok {
		log.WithField("key", au.Key.String()).Debug("dropping account update: unresolvable")
		return
	}
	projected, err := p.Schemas.Project(mapping.Family, mapping.Type, slice.Dynamic, au.Data)
	if err != nil {
		log.WithError(err).WithField("key", au.Key.String()).Debug("dropping account update: projection failed")
		return
	}
	p.Cache.UpsertDynamic(au.Key, projected)
}

// ExtractBalanceChanges implements SPEC_FULL §4.6's balance-change
// extraction: zip pre/post token balances by account index, resolve each
// changed vault through the relation registry, and emit a BalanceChange.
// Satisfies P8: changes are emitted only for registered vault accounts.
func ExtractBalanceChanges(rel *relation.Registry, tu TransactionUpdate) []types.BalanceChange {
	postByIndex := make(map[int]TokenBalance, len(tu.Post))
	for _, tb := range tu.Post {
		postByIndex[tb.AccountIndex] = tb
	}

	var out []types.BalanceChange
	for _, pre := range tu.Pre {
		post, ok := postByIndex[pre.AccountIndex]
		if !ok || post.UIAmount == pre.UIAmount {
			continue
		}
		if pre.AccountIndex >= len(tu.AccountKeys) {
			continue
		}
		vaultKey := tu.AccountKeys[pre.AccountIndex]
		mapping, ok := rel.Resolve(solana.PublicKey{}, vaultKey)
		if !ok || mapping.Type != types.AccountVault {
			continue
		}
		out = append(out, types.BalanceChange{
			Pool:         mapping.Pool,
			Vault:        vaultKey,
			Family:       mapping.Family,
			Change:       int64(post.UIAmount) - int64(pre.UIAmount),
			AccountIndex: pre.AccountIndex,
		})
	}
	return out
}
