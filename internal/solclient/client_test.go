package solclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(1)

	// First call consumes the initial burst token immediately.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rl.Wait(ctx))

	// Second call within the same second should still be waiting when a
	// short-lived context expires.
	shortCtx, shortCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer shortCancel()
	err := rl.Wait(shortCtx)
	assert.Error(t, err)
}

func TestRateLimiterRespectsCancelledContext(t *testing.T) {
	rl := NewRateLimiter(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := rl.Wait(ctx)
	assert.Error(t, err)
}
