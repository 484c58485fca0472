package ingest

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/solroute-arb/arbengine/internal/relation"
	"github.com/solroute-arb/arbengine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	vaultKey = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	otherKey = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	poolKey  = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
)

func TestExtractBalanceChangesEmitsOnlyRegisteredVaultMoves(t *testing.T) {
	rel := relation.New()
	rel.AddVaults(vaultKey, otherKey, poolKey, types.DexRaydiumAMM)

	tu := TransactionUpdate{
		AccountKeys: []solana.PublicKey{vaultKey},
		Pre:         []TokenBalance{{AccountIndex: 0, UIAmount: 100}},
		Post:        []TokenBalance{{AccountIndex: 0, UIAmount: 150}},
		SentAt:      time.Now(),
	}

	changes := ExtractBalanceChanges(rel, tu)
	require.Len(t, changes, 1)
	assert.Equal(t, int64(50), changes[0].Change)
	assert.Equal(t, poolKey, changes[0].Pool)
	assert.Equal(t, vaultKey, changes[0].Vault)
}

func TestExtractBalanceChangesSkipsUnchangedBalances(t *testing.T) {
	rel := relation.New()
	rel.AddVaults(vaultKey, otherKey, poolKey, types.DexRaydiumAMM)

	tu := TransactionUpdate{
		AccountKeys: []solana.PublicKey{vaultKey},
		Pre:         []TokenBalance{{AccountIndex: 0, UIAmount: 100}},
		Post:        []TokenBalance{{AccountIndex: 0, UIAmount: 100}},
	}
	assert.Empty(t, ExtractBalanceChanges(rel, tu))
}

func TestExtractBalanceChangesSkipsUnregisteredKeys(t *testing.T) {
	rel := relation.New()
	tu := TransactionUpdate{
		AccountKeys: []solana.PublicKey{vaultKey},
		Pre:         []TokenBalance{{AccountIndex: 0, UIAmount: 100}},
		Post:        []TokenBalance{{AccountIndex: 0, UIAmount: 150}},
	}
	assert.Empty(t, ExtractBalanceChanges(rel, tu))
}

func TestExtractBalanceChangesIgnoresOutOfRangeIndex(t *testing.T) {
	rel := relation.New()
	rel.AddVaults(vaultKey, otherKey, poolKey, types.DexRaydiumAMM)
	tu := TransactionUpdate{
		AccountKeys: nil,
		Pre:         []TokenBalance{{AccountIndex: 0, UIAmount: 100}},
		Post:        []TokenBalance{{AccountIndex: 0, UIAmount: 150}},
	}
	assert.Empty(t, ExtractBalanceChanges(rel, tu))
}

func TestBroadcastSendDeliversToSubscribers(t *testing.T) {
	b := NewBroadcast(4)
	ch := b.Subscribe()
	changes := []types.BalanceChange{{Vault: vaultKey, Change: 10}}
	b.Send(changes)

	select {
	case got := <-ch:
		assert.Equal(t, changes, got)
	case <-time.After(time.Second):
		t.Fatal("expected a delivered batch")
	}
}

func TestBroadcastSendDropsOldestWhenFull(t *testing.T) {
	b := NewBroadcast(1)
	ch := b.Subscribe()
	b.Send([]types.BalanceChange{{Change: 1}})
	b.Send([]types.BalanceChange{{Change: 2}})

	got := <-ch
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].Change)
}
