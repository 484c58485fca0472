// Package solclient wraps the bootstrap bulk-account-fetch RPC calls with a
// rate limiter, grounded on _examples/nick199910-SolRoute/pkg/sol/{client.go,
// rpc_wrapper.go,rate_limiter.go}. Only the bootstrap bulk-fetch phase uses
// this wrapper: it is the one place the engine issues many RPC calls in a
// tight loop and risks tripping a provider's rate limit; the wallet
// metadata refreshers and executor's occasional calls go straight through
// gagliardetto/solana-go/rpc, keeping the same split between
// rate-limited bulk calls and ad hoc single calls.
package solclient

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"
)

// RateLimiter throttles bootstrap RPC calls to a fixed requests-per-second
// budget.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter builds a limiter allowing requestsPerSecond calls/sec with
// a burst of the same size.
func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)}
}

// Wait blocks until the limiter allows the next call.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// Client wraps *rpc.Client, rate-limiting the bulk account-fetch calls the
// bootstrap phase issues.
type Client struct {
	rpcClient   *rpc.Client
	rateLimiter *RateLimiter
}

// New builds a Client around an existing *rpc.Client at the given
// requests-per-second budget.
func New(rpcClient *rpc.Client, requestsPerSecond int) *Client {
	return &Client{rpcClient: rpcClient, rateLimiter: NewRateLimiter(requestsPerSecond)}
}

// GetMultipleAccountsWithOpts wraps the RPC call with rate limiting.
func (c *Client) GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	opts := &rpc.GetMultipleAccountsOpts{Commitment: rpc.CommitmentProcessed}
	return c.rpcClient.GetMultipleAccountsWithOpts(ctx, accounts, opts)
}
