package raydiumamm

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
)

func TestQuoteConstantProductWithFee(t *testing.T) {
	s := Static{FeeNumerator: 25, FeeDenominator: 10_000}
	d := Dynamic{CoinVaultAmount: 1_000_000, PcVaultAmount: 1_000_000}

	out, ok := Quote(s, d, true, math.NewInt(1_000))
	assert.True(t, ok)
	// fee = 1000*25/10000 = 2, inWithFee = 998, out = 1_000_000*998/1_000_998
	assert.Equal(t, math.NewInt(997), out)
}

func TestQuoteSubtractsNeedTakePnlFromReserves(t *testing.T) {
	s := Static{FeeNumerator: 0, FeeDenominator: 10_000}
	d := Dynamic{CoinVaultAmount: 1_000_000, PcVaultAmount: 1_000_000, CoinNeedTakePnl: 500_000, PcNeedTakePnl: 0}

	out, ok := Quote(s, d, true, math.NewInt(1_000))
	assert.True(t, ok)
	// effective reserveIn = 500_000, reserveOut = 1_000_000
	assert.Equal(t, math.NewInt(1_000_000).Mul(math.NewInt(1000)).Quo(math.NewInt(501_000)), out)
}

func TestQuoteRejectsNonPositiveAmount(t *testing.T) {
	s := Static{FeeNumerator: 25, FeeDenominator: 10_000}
	d := Dynamic{CoinVaultAmount: 1_000_000, PcVaultAmount: 1_000_000}
	_, ok := Quote(s, d, true, math.ZeroInt())
	assert.False(t, ok)
}

func TestQuoteRejectsZeroFeeDenominator(t *testing.T) {
	s := Static{FeeNumerator: 25, FeeDenominator: 0}
	d := Dynamic{CoinVaultAmount: 1_000_000, PcVaultAmount: 1_000_000}
	_, ok := Quote(s, d, true, math.NewInt(1_000))
	assert.False(t, ok)
}

func TestQuoteDirectionIsSwappedForBToA(t *testing.T) {
	s := Static{FeeNumerator: 0, FeeDenominator: 10_000}
	d := Dynamic{CoinVaultAmount: 500_000, PcVaultAmount: 2_000_000}

	outAToB, ok := Quote(s, d, true, math.NewInt(1_000))
	assert.True(t, ok)
	outBToA, ok := Quote(s, d, false, math.NewInt(1_000))
	assert.True(t, ok)
	assert.NotEqual(t, outAToB, outBToA)
}

func TestDecodeDynamicRejectsWrongLength(t *testing.T) {
	_, ok := DecodeDynamic([]byte{1, 2, 3})
	assert.False(t, ok)
}

func TestDecodeDynamicParsesLittleEndian(t *testing.T) {
	amount, ok := DecodeDynamic([]byte{0x10, 0, 0, 0, 0, 0, 0, 0})
	assert.True(t, ok)
	assert.Equal(t, uint64(16), amount)
}
