package instruction

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/solroute-arb/arbengine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b58 string) solana.PublicKey { return solana.MustPublicKeyFromBase58(b58) }

var (
	userOwner = key("So11111111111111111111111111111111111111112")
	userIn    = key("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	userOut   = key("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
)

func TestBuildRaydiumAMMProducesSeventeenAccounts(t *testing.T) {
	m := BuildRaydiumAMM(RaydiumAMMPool{}, userIn, userOut, userOwner, true)
	assert.Equal(t, types.DexRaydiumAMM, m.Family)
	assert.Len(t, m.Accounts, 17)
	assert.True(t, m.Accounts[len(m.Accounts)-1].IsSigner)
}

func TestBuildRaydiumCPMMSwapsVaultsAndMintsOnDirection(t *testing.T) {
	p := RaydiumCPMMPool{Token0Vault: key("CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"), Token1Vault: key("CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C")}
	aToB := BuildRaydiumCPMM(p, userOwner, userIn, userOut, true)
	bToA := BuildRaydiumCPMM(p, userOwner, userIn, userOut, false)
	require.Len(t, aToB.Accounts, 13)
	require.Len(t, bToA.Accounts, 13)
	assert.NotEqual(t, aToB.Accounts[4].PublicKey, bToA.Accounts[4].PublicKey)
}

func TestBuildRaydiumCLMMAppendsTickArraysAsRemaining(t *testing.T) {
	arrays := []solana.PublicKey{key("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo"), key("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")}
	m := BuildRaydiumCLMM(RaydiumCLMMPool{TickArrays: arrays}, userOwner, userIn, userOut, true)
	assert.Equal(t, 2, m.RemainingAccounts)
	assert.Len(t, m.Accounts, 9+2)
	assert.Equal(t, arrays[0], m.Accounts[9].PublicKey)
}

func TestBuildMeteoraDLMMIncludesMemoProgram(t *testing.T) {
	m := BuildMeteoraDLMM(MeteoraDLMMPool{}, userOwner, userIn, userOut, true)
	found := false
	for _, a := range m.Accounts {
		if a.PublicKey.Equals(memoProgramID) {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBuildWhirlpoolAppendsTickArraysAfterOracle(t *testing.T) {
	arrays := []solana.PublicKey{key("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo")}
	m := BuildWhirlpool(WhirlpoolPool{TickArrays: arrays}, userOwner, userIn, userOut, true)
	assert.Equal(t, types.DexWhirlpool, m.Family)
	assert.Equal(t, 1, m.RemainingAccounts)
	assert.Equal(t, arrays[0], m.Accounts[len(m.Accounts)-1].PublicKey)
}
