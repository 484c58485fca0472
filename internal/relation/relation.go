// Package relation implements the account-relation registry (C3): a
// process-wide, read-mostly map built once at bootstrap from the pool
// manifest, resolving an incoming (owner_program, account_key) to the
// (dex_family, account_type[, pool_key]) the ingestion path needs in order
// to project and cache it. Grounded on
// _examples/original_source/bin/arb/src/account_relation.rs.
package relation

import (
	"github.com/gagliardetto/solana-go"
	"github.com/solroute-arb/arbengine/internal/types"
)

// Mapping is what a lookup resolves to.
type Mapping struct {
	Family types.DexFamily
	Type   types.AccountType
	Pool   solana.PublicKey // zero value when Type == AccountPool (the key itself is the pool)
}

// Registry is populated once at bootstrap (see Build) and never mutated
// afterward; concurrent reads require no locking.
type Registry struct {
	byKey          map[solana.PublicKey]Mapping
	defaultForType map[solana.PublicKey]defaultEntry // owner program -> default account type
}

type defaultEntry struct {
	family types.DexFamily
	atype  types.AccountType
}

// New returns an empty registry; use Build to populate it from a manifest.
func New() *Registry {
	return &Registry{
		byKey:          make(map[solana.PublicKey]Mapping),
		defaultForType: make(map[solana.PublicKey]defaultEntry),
	}
}

// RegisterDefault sets the "owner program with an unknown key is presumed to
// be X" fallback for a DEX family's program id, per SPEC_FULL §4.3 step 2
// (e.g. Raydium CLMM's program defaults unknown keys to tick-array; Meteora
// DLMM's program defaults unknown keys to bin-array).
func (r *Registry) RegisterDefault(owner solana.PublicKey, family types.DexFamily, atype types.AccountType) {
	r.defaultForType[owner] = defaultEntry{family, atype}
}

// AddPool records pool_key -> (family, Pool).
func (r *Registry) AddPool(pool solana.PublicKey, family types.DexFamily) {
	r.byKey[pool] = Mapping{Family: family, Type: types.AccountPool}
}

// AddVaults records both vault_a and vault_b -> (family, Vault, pool).
func (r *Registry) AddVaults(vaultA, vaultB, pool solana.PublicKey, family types.DexFamily) {
	r.byKey[vaultA] = Mapping{Family: family, Type: types.AccountVault, Pool: pool}
	r.byKey[vaultB] = Mapping{Family: family, Type: types.AccountVault, Pool: pool}
}

// AddDerived records a derived key (bitmap extension, AMM config, oracle)
// mapped to a specific account type, tied back to its owning pool.
func (r *Registry) AddDerived(key solana.PublicKey, family types.DexFamily, atype types.AccountType, pool solana.PublicKey) {
	r.byKey[key] = Mapping{Family: family, Type: atype, Pool: pool}
}

// Resolve implements the §4.3 lookup algorithm:
//  1. exact key match;
//  2. owner-program default account type;
//  3. otherwise, not found.
func (r *Registry) Resolve(owner, accountKey solana.PublicKey) (Mapping, bool) {
	if m, ok := r.byKey[accountKey]; ok {
		return m, true
	}
	if d, ok := r.defaultForType[owner]; ok {
		return Mapping{Family: d.family, Type: d.atype}, true
	}
	return Mapping{}, false
}
