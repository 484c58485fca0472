package relation

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/solroute-arb/arbengine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKeys = []solana.PublicKey{
	solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112"),
	solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"),
	solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"),
	solana.MustPublicKeyFromBase58("CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"),
	solana.MustPublicKeyFromBase58("CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C"),
	solana.MustPublicKeyFromBase58("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo"),
	solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"),
}

var nextTestKey int

func randKey() solana.PublicKey {
	k := testKeys[nextTestKey%len(testKeys)]
	nextTestKey++
	return k
}

func TestResolveExactKeyTakesPriorityOverDefault(t *testing.T) {
	r := New()
	owner := randKey()
	pool := randKey()
	r.AddPool(pool, types.DexRaydiumCLMM)
	r.RegisterDefault(owner, types.DexRaydiumCLMM, types.AccountTickArray)

	m, ok := r.Resolve(owner, pool)
	require.True(t, ok)
	assert.Equal(t, types.AccountPool, m.Type)
	assert.Equal(t, types.DexRaydiumCLMM, m.Family)
}

func TestResolveFallsBackToOwnerDefault(t *testing.T) {
	r := New()
	owner := randKey()
	r.RegisterDefault(owner, types.DexMeteoraDLMM, types.AccountBinArray)

	unknownKey := randKey()
	m, ok := r.Resolve(owner, unknownKey)
	require.True(t, ok)
	assert.Equal(t, types.AccountBinArray, m.Type)
	assert.Equal(t, types.DexMeteoraDLMM, m.Family)
}

func TestResolveUnknownReturnsFalse(t *testing.T) {
	r := New()
	_, ok := r.Resolve(randKey(), randKey())
	assert.False(t, ok)
}

func TestAddVaultsBindsBothVaultsToPool(t *testing.T) {
	r := New()
	pool, vaultA, vaultB := randKey(), randKey(), randKey()
	r.AddVaults(vaultA, vaultB, pool, types.DexRaydiumAMM)

	for _, v := range []solana.PublicKey{vaultA, vaultB} {
		m, ok := r.Resolve(solana.PublicKey{}, v)
		require.True(t, ok)
		assert.Equal(t, types.AccountVault, m.Type)
		assert.Equal(t, pool, m.Pool)
	}
}

func TestAddDerivedTracksOwningPool(t *testing.T) {
	r := New()
	pool, cfg := randKey(), randKey()
	r.AddDerived(cfg, types.DexRaydiumCPMM, types.AccountAmmConfig, pool)

	m, ok := r.Resolve(solana.PublicKey{}, cfg)
	require.True(t, ok)
	assert.Equal(t, types.AccountAmmConfig, m.Type)
	assert.Equal(t, pool, m.Pool)
}
