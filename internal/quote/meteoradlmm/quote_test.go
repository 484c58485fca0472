package meteoradlmm

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
)

func baseStatic() Static {
	return Static{
		BinStep: 10,
		Params: StaticParameters{
			BaseFactor:               5000,
			FilterPeriod:             30,
			DecayPeriod:              600,
			ReductionFactor:          5000,
			VariableFeeControl:       40000,
			MaxVolatilityAccumulator: 350000,
		},
	}
}

func TestQuoteRejectsNonPositiveAmount(t *testing.T) {
	_, ok := Quote(baseStatic(), Dynamic{Status: StatusEnabled}, true, math.ZeroInt(), 0, 0)
	assert.False(t, ok)
}

func TestQuoteRejectsDisabledPair(t *testing.T) {
	_, ok := Quote(baseStatic(), Dynamic{Status: StatusDisabled}, true, math.NewInt(1000), 0, 0)
	assert.False(t, ok)
}

func TestQuoteRejectsPermissionPairBeforeActivation(t *testing.T) {
	s := baseStatic()
	s.PairType = PairTypePermission
	s.ActivationType = ActivationByTimestamp
	s.ActivationPoint = 1000
	_, ok := Quote(s, Dynamic{Status: StatusEnabled}, true, math.NewInt(1000), 500, 0)
	assert.False(t, ok)
}

func TestQuoteReturnsFalseWhenActiveBinMissing(t *testing.T) {
	d := Dynamic{Status: StatusEnabled, ActiveID: 5, Bins: nil}
	_, ok := Quote(baseStatic(), d, true, math.NewInt(1000), 0, 0)
	assert.False(t, ok)
}

func TestQuoteConsumesSingleBinFullyWhenAmplEnough(t *testing.T) {
	d := Dynamic{
		Status:   StatusEnabled,
		ActiveID: 0,
		Bins:     []Bin{{ID: 0, AmountX: 1_000_000, AmountY: 1_000_000}},
	}
	out, ok := Quote(baseStatic(), d, true, math.NewInt(10_000_000), 0, 0)
	assert.True(t, ok)
	assert.True(t, out.IsPositive())
	assert.True(t, out.LTE(math.NewInt(1_000_000)))
}

func TestFindBinReturnsFalseWhenAbsent(t *testing.T) {
	_, ok := findBin([]Bin{{ID: 1}}, 2)
	assert.False(t, ok)
}

func TestAdvanceMovesDownForSwapForY(t *testing.T) {
	assert.Equal(t, int32(4), advance(5, true))
	assert.Equal(t, int32(6), advance(5, false))
}
