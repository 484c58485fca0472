package slice

import (
	"testing"

	"github.com/solroute-arb/arbengine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectCopiesIntervalsInOrder(t *testing.T) {
	data := make([]byte, 16)
	for i := range data {
		data[i] = byte(i)
	}
	s := NewSchema(Interval{Start: 8, End: 16}, Interval{Start: 0, End: 4})
	out := Project(s, data)
	require.Len(t, out, 12)
	assert.Equal(t, data[8:16], out[0:8])
	assert.Equal(t, data[0:4], out[8:12])
}

func TestProjectZeroPadsPastInputLength(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	s := NewSchema(Interval{Start: 0, End: 4}, Interval{Start: 4, End: 8})
	out := Project(s, data)
	require.Len(t, out, 8)
	assert.Equal(t, []byte{1, 2, 3, 4, 0, 0, 0, 0}, out)
}

func TestProjectTotalityOnEmptyInput(t *testing.T) {
	s := NewSchema(Interval{Start: 0, End: 4}, Interval{Start: 100, End: 104})
	out := Project(s, nil)
	assert.Len(t, out, s.TotalLen)
	assert.Equal(t, make([]byte, 8), out)
}

func TestRegistryLookupAndProject(t *testing.T) {
	r := NewRegistry()
	s := NewSchema(Interval{Start: 0, End: 8})
	r.Register(types.DexRaydiumAMM, types.AccountPool, Static, s)

	got, ok := r.Lookup(types.DexRaydiumAMM, types.AccountPool, Static)
	require.True(t, ok)
	assert.Equal(t, s, got)

	_, ok = r.Lookup(types.DexRaydiumAMM, types.AccountPool, Dynamic)
	assert.False(t, ok)

	data := make([]byte, 8)
	data[0] = 42
	out, err := r.Project(types.DexRaydiumAMM, types.AccountPool, Static, data)
	require.NoError(t, err)
	assert.Equal(t, byte(42), out[0])
}

func TestRegistryProjectUnknownAccount(t *testing.T) {
	r := NewRegistry()
	_, err := r.Project(types.DexRaydiumCLMM, types.AccountPool, Static, nil)
	assert.ErrorIs(t, err, ErrUnknownAccount)
}
