// Package cache implements the account cache (C1): a sharded dynamic-bytes
// store for market-changing account projections, a read-mostly static-bytes
// store for time-invariant projections, and a pool->ALT-entries store.
// Grounded on _examples/original_source/bin/arb/src/dex/global_cache.rs's
// DashMap-sharded design; translated to Go's idiomatic shard-array-of-
// sync.RWMutex pattern (no sharded-map library appears anywhere in the
// example corpus, so this one component is stdlib sync — see DESIGN.md).
package cache

import (
	"hash/maphash"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/solroute-arb/arbengine/internal/types"
)

const shardCount = 128

type shard struct {
	mu   sync.RWMutex
	data map[solana.PublicKey][]byte
}

// Cache holds the dynamic (sharded), static, and ALT projections for every
// known account, plus a dedicated clock fast-path.
type Cache struct {
	dynamic  [shardCount]*shard
	staticMu sync.RWMutex
	static   map[solana.PublicKey][]byte
	altMu    sync.RWMutex
	alt      map[solana.PublicKey][]solana.PublicKey
	seed     maphash.Seed
	clockKey solana.PublicKey
}

// New returns an empty cache. clockKey is the well-known sysvar clock
// account's public key, used by Clock() as a dedicated fast path.
func New(clockKey solana.PublicKey) *Cache {
	c := &Cache{
		static: make(map[solana.PublicKey][]byte),
		alt:    make(map[solana.PublicKey][]solana.PublicKey),
		seed:   maphash.MakeSeed(),
		clockKey: clockKey,
	}
	for i := range c.dynamic {
		c.dynamic[i] = &shard{data: make(map[solana.PublicKey][]byte)}
	}
	return c
}

func (c *Cache) shardFor(key solana.PublicKey) *shard {
	var h maphash.Hash
	h.SetSeed(c.seed)
	_, _ = h.Write(key[:])
	return c.dynamic[h.Sum64()%uint64(shardCount)]
}

// UpsertStatic inserts or replaces a static projection. Bootstrap-only.
func (c *Cache) UpsertStatic(key solana.PublicKey, data []byte) {
	c.staticMu.Lock()
	defer c.staticMu.Unlock()
	c.static[key] = data
}

// UpsertDynamic replaces a dynamic projection atomically and returns the
// previous bytes, if any. Safe under concurrent writers to different keys;
// writers to the same key are serialized by that key's shard lock, and
// readers never observe a torn value.
func (c *Cache) UpsertDynamic(key solana.PublicKey, data []byte) (prev []byte, had bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had = s.data[key]
	s.data[key] = data
	return prev, had
}

// UpsertALT inserts a pool's address-lookup-table entries, only if non-empty.
func (c *Cache) UpsertALT(pool solana.PublicKey, entries []solana.PublicKey) {
	if len(entries) == 0 {
		return
	}
	c.altMu.Lock()
	defer c.altMu.Unlock()
	c.alt[pool] = entries
}

// ALT returns the cached address-lookup-table entries for a pool.
func (c *Cache) ALT(pool solana.PublicKey) ([]solana.PublicKey, bool) {
	c.altMu.RLock()
	defer c.altMu.RUnlock()
	v, ok := c.alt[pool]
	return v, ok
}

// Static returns the raw static projection bytes for a key.
func (c *Cache) Static(key solana.PublicKey) ([]byte, bool) {
	c.staticMu.RLock()
	defer c.staticMu.RUnlock()
	v, ok := c.static[key]
	return v, ok
}

// Dynamic returns the raw dynamic projection bytes for a key.
func (c *Cache) Dynamic(key solana.PublicKey) ([]byte, bool) {
	s := c.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Decoder is implemented by every per-family typed view so Load can build it
// generically from the cache's static+dynamic projections.
type Decoder[T any] interface {
	FromCache(static, dynamic []byte) (T, bool)
}

// Load decodes a typed view T for key by handing its static and dynamic
// projections to dec. Returns false (no error) on any missing precondition:
// missing static, missing dynamic, or wrong length (the decoder's job to
// check). Side-effect-free on success or failure.
func Load[T any](c *Cache, key solana.PublicKey, dec Decoder[T]) (T, bool) {
	var zero T
	static, _ := c.Static(key)
	dynamic, ok := c.Dynamic(key)
	if !ok {
		return zero, false
	}
	return dec.FromCache(static, dynamic)
}

// Clock decodes the global clock account via the dedicated fast path.
func (c *Cache) Clock() (types.Clock, bool) {
	data, ok := c.Dynamic(c.clockKey)
	if !ok {
		return types.Clock{}, false
	}
	return types.DecodeClock(data)
}

// MintTransferFee decodes the optional token-2022 transfer-fee extension
// carried on a mint's static projection, via the supplied decode function
// (token-2022 extension-TLV parsing lives in internal/wallet, which owns the
// SPL-token-2022 account layout).
func (c *Cache) MintTransferFee(mint solana.PublicKey, decode func([]byte) (types.TransferFeeConfig, bool)) (types.TransferFeeConfig, bool) {
	data, ok := c.Static(mint)
	if !ok {
		return types.TransferFeeConfig{}, false
	}
	return decode(data)
}

// TokenProgram returns the token-2022 program id iff mint is known to the
// static cache (i.e. was registered as a token-2022 mint at bootstrap), else
// the classic SPL token program id.
func (c *Cache) TokenProgram(mint solana.PublicKey) solana.PublicKey {
	if _, ok := c.Static(mint); ok {
		return types.Token2022ProgramID
	}
	return solana.TokenProgramID
}
