package cache

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/solroute-arb/arbengine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	clockKey = solana.MustPublicKeyFromBase58("SysvarC1ock11111111111111111111111111111111")
	poolKey  = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
)

func TestUpsertAndReadDynamic(t *testing.T) {
	c := New(clockKey)
	prev, had := c.UpsertDynamic(poolKey, []byte{1, 2, 3})
	assert.Nil(t, prev)
	assert.False(t, had)

	got, ok := c.Dynamic(poolKey)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, got)

	prev, had = c.UpsertDynamic(poolKey, []byte{4, 5})
	assert.True(t, had)
	assert.Equal(t, []byte{1, 2, 3}, prev)
}

func TestStaticReadMissingReturnsFalse(t *testing.T) {
	c := New(clockKey)
	_, ok := c.Static(poolKey)
	assert.False(t, ok)
}

func TestUpsertALTIgnoresEmpty(t *testing.T) {
	c := New(clockKey)
	c.UpsertALT(poolKey, nil)
	_, ok := c.ALT(poolKey)
	assert.False(t, ok)

	entries := []solana.PublicKey{{1}, {2}}
	c.UpsertALT(poolKey, entries)
	got, ok := c.ALT(poolKey)
	require.True(t, ok)
	assert.Equal(t, entries, got)
}

func TestClockDecodesFromDedicatedKey(t *testing.T) {
	c := New(clockKey)
	data := make([]byte, types.ClockAccountDataSize)
	data[0] = 42
	c.UpsertDynamic(clockKey, data)

	clock, ok := c.Clock()
	require.True(t, ok)
	assert.Equal(t, uint64(42), clock.Slot)
}

func TestClockMissingReturnsFalse(t *testing.T) {
	c := New(clockKey)
	_, ok := c.Clock()
	assert.False(t, ok)
}

func TestTokenProgramDefaultsToClassicSPL(t *testing.T) {
	c := New(clockKey)
	mint := solana.PublicKey{7}
	assert.Equal(t, solana.TokenProgramID, c.TokenProgram(mint))

	c.UpsertStatic(mint, []byte{1})
	assert.Equal(t, types.Token2022ProgramID, c.TokenProgram(mint))
}

func TestMintTransferFeeDelegatesToDecoder(t *testing.T) {
	c := New(clockKey)
	mint := solana.PublicKey{7}
	c.UpsertStatic(mint, []byte{1, 2})

	cfg, ok := c.MintTransferFee(mint, func(b []byte) (types.TransferFeeConfig, bool) {
		return types.TransferFeeConfig{TransferFeeBasisPoints: uint16(b[0])}, true
	})
	require.True(t, ok)
	assert.Equal(t, uint16(1), cfg.TransferFeeBasisPoints)
}
