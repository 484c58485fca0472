package types

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferFeeConfigExcludedAmountZeroBpsIsIdentity(t *testing.T) {
	c := TransferFeeConfig{}
	assert.Equal(t, uint64(1_000_000), c.ExcludedAmount(1_000_000))
}

func TestTransferFeeConfigExcludedAmountRoundsFeeUp(t *testing.T) {
	c := TransferFeeConfig{TransferFeeBasisPoints: 1, MaximumFee: 1_000_000}
	// 999 * 1 / 10000 = 0.0999 -> fee rounds up to 1
	assert.Equal(t, uint64(998), c.ExcludedAmount(999))
}

func TestTransferFeeConfigExcludedAmountCapsAtMaximumFee(t *testing.T) {
	c := TransferFeeConfig{TransferFeeBasisPoints: 10_000, MaximumFee: 5}
	assert.Equal(t, uint64(95), c.ExcludedAmount(100))
}

func TestTransferFeeConfigExcludedAmountNeverNegative(t *testing.T) {
	c := TransferFeeConfig{TransferFeeBasisPoints: 10_000, MaximumFee: 1_000_000}
	assert.Equal(t, uint64(0), c.ExcludedAmount(3))
}

func TestDecodeClockRejectsWrongLength(t *testing.T) {
	_, ok := DecodeClock(make([]byte, 10))
	assert.False(t, ok)
}

func TestDecodeClockParsesLittleEndianFields(t *testing.T) {
	data := make([]byte, ClockAccountDataSize)
	binary.LittleEndian.PutUint64(data[0:8], 100)
	binary.LittleEndian.PutUint64(data[8:16], 200)
	binary.LittleEndian.PutUint64(data[16:24], 3)
	binary.LittleEndian.PutUint64(data[24:32], 3)
	binary.LittleEndian.PutUint64(data[32:40], 1_700_000_000)

	clock, ok := DecodeClock(data)
	assert.True(t, ok)
	assert.Equal(t, uint64(100), clock.Slot)
	assert.Equal(t, uint64(200), clock.EpochStartTimestamp)
	assert.Equal(t, uint64(3), clock.Epoch)
	assert.Equal(t, uint64(3), clock.LeaderScheduleEpoch)
	assert.Equal(t, uint64(1_700_000_000), clock.UnixTimestamp)
}

func TestDexFamilyString(t *testing.T) {
	assert.Equal(t, "raydium-clmm", DexRaydiumCLMM.String())
	assert.Equal(t, "unknown", DexUnknown.String())
}
