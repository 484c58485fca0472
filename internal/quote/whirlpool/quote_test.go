package whirlpool

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"lukechampine.com/uint128"
)

func TestQuoteRejectsNonPositiveAmount(t *testing.T) {
	d := Dynamic{SqrtPriceX64: uint128.From64(1 << 32)}
	_, ok := Quote(Static{}, d, true, math.ZeroInt(), 0)
	assert.False(t, ok)
}

func TestQuoteRejectsZeroPrice(t *testing.T) {
	_, ok := Quote(Static{}, Dynamic{}, true, math.NewInt(1000), 0)
	assert.False(t, ok)
}

func TestQuoteReturnsZeroWhenNoTicksAndNoLiquidity(t *testing.T) {
	d := Dynamic{SqrtPriceX64: uint128.From64(1 << 32), Liquidity: uint128.From64(0)}
	out, ok := Quote(Static{}, d, true, math.NewInt(1000), 0)
	assert.True(t, ok)
	assert.True(t, out.IsZero())
}

func TestQuoteFailsWhenNoTickButLiquidityRemains(t *testing.T) {
	d := Dynamic{SqrtPriceX64: uint128.From64(1 << 32), Liquidity: uint128.From64(1_000_000)}
	_, ok := Quote(Static{}, d, true, math.NewInt(1000), 0)
	assert.False(t, ok)
}

func TestTickGroupRoundsTowardZeroConsistently(t *testing.T) {
	assert.Equal(t, int32(1), tickGroup(64))
	assert.Equal(t, int32(0), tickGroup(63))
	assert.Equal(t, int32(-1), tickGroup(-1))
}

func TestAdaptiveFeeRateCapsAtOneMillion(t *testing.T) {
	o := AdaptiveFeeOracle{BaseFeeRate: 900_000, VolatilityAccumulator: 1_000_000, VariableFeeControl: 1_000_000}
	assert.Equal(t, uint32(1_000_000), adaptiveFeeRate(o))
}

func TestAdaptiveFeeRateSumsBaseAndVariable(t *testing.T) {
	o := AdaptiveFeeOracle{BaseFeeRate: 1000, VolatilityAccumulator: 2000, VariableFeeControl: 500}
	// variable = 2000*500/1e6 = 1
	assert.Equal(t, uint32(1001), adaptiveFeeRate(o))
}
