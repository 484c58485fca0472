package bootstrap

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/solroute-arb/arbengine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFamiliesTagsKnownOwners(t *testing.T) {
	entries := []types.ManifestEntry{
		{Pool: solana.PublicKey{1}, Owner: RaydiumAMMProgramID},
		{Pool: solana.PublicKey{2}, Owner: MeteoraDLMMProgramID},
	}
	out := ResolveFamilies(entries)
	require.Len(t, out, 2)
	assert.Equal(t, types.DexRaydiumAMM, out[0].Family)
	assert.Equal(t, types.DexMeteoraDLMM, out[1].Family)
}

func TestResolveFamiliesDropsUnrecognizedOwner(t *testing.T) {
	entries := []types.ManifestEntry{
		{Pool: solana.PublicKey{1}, Owner: solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")},
		{Pool: solana.PublicKey{2}, Owner: RaydiumCPMMProgramID},
	}
	out := ResolveFamilies(entries)
	require.Len(t, out, 1)
	assert.Equal(t, types.DexRaydiumCPMM, out[0].Family)
}

func TestResolveALTParsesPackedAddressesAfterHeader(t *testing.T) {
	altKey := solana.PublicKey{9}
	var addr1, addr2 solana.PublicKey
	addr1[0] = 1
	addr2[0] = 2

	data := make([]byte, 56+64)
	copy(data[56:88], addr1[:])
	copy(data[88:120], addr2[:])
	blobs := map[solana.PublicKey][]byte{altKey: data}

	out := resolveALT(blobs, altKey)
	require.Len(t, out, 2)
	assert.Equal(t, addr1, out[0])
	assert.Equal(t, addr2, out[1])
}

func TestResolveALTReturnsNilForMissingOrShortData(t *testing.T) {
	assert.Nil(t, resolveALT(map[solana.PublicKey][]byte{}, solana.PublicKey{1}))

	altKey := solana.PublicKey{2}
	blobs := map[solana.PublicKey][]byte{altKey: make([]byte, 10)}
	assert.Nil(t, resolveALT(blobs, altKey))
}

func TestBuildRelationsWiresPoolVaultsAndDefaults(t *testing.T) {
	pool := solana.PublicKey{1}
	vaultA := solana.PublicKey{2}
	vaultB := solana.PublicKey{3}
	entries := []types.ManifestEntry{
		{Pool: pool, VaultA: vaultA, VaultB: vaultB, Family: types.DexRaydiumAMM},
	}
	reg := BuildRelations(entries)

	m, ok := reg.Resolve(solana.PublicKey{}, pool)
	require.True(t, ok)
	assert.Equal(t, types.AccountPool, m.Type)

	m, ok = reg.Resolve(solana.PublicKey{}, vaultA)
	require.True(t, ok)
	assert.Equal(t, types.AccountVault, m.Type)
	assert.Equal(t, pool, m.Pool)

	unknownTickArray := solana.PublicKey{99}
	m, ok = reg.Resolve(RaydiumCLMMProgramID, unknownTickArray)
	require.True(t, ok)
	assert.Equal(t, types.AccountTickArray, m.Type)
}

func TestCollectKeysDedupsAndSkipsZero(t *testing.T) {
	pool := solana.PublicKey{1}
	vault := solana.PublicKey{2}
	entries := []types.ManifestEntry{
		{Pool: pool, VaultA: vault, VaultB: vault},
		{Pool: pool, VaultA: vault},
	}
	keys := collectKeys(entries)
	assert.Len(t, keys, 2) // pool + vault, deduped
}
