package solana

import (
	"context"

	"solana-top-traders/internal/ratelimit"
)

// LimitedClient routes every call of an RPCClient through a shared rate gate.
type LimitedClient struct {
	inner RPCClient
	gate  *ratelimit.Gate
}

// NewLimitedClient wraps inner with gate.
func NewLimitedClient(inner RPCClient, gate *ratelimit.Gate) *LimitedClient {
	return &LimitedClient{inner: inner, gate: gate}
}

// GetTransaction retrieves a transaction by signature behind the gate.
func (c *LimitedClient) GetTransaction(ctx context.Context, signature string) (*Transaction, error) {
	return ratelimit.Do(ctx, c.gate, func(ctx context.Context) (*Transaction, error) {
		return c.inner.GetTransaction(ctx, signature)
	})
}

// GetSignaturesForAddress retrieves a signature page behind the gate.
func (c *LimitedClient) GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error) {
	return ratelimit.Do(ctx, c.gate, func(ctx context.Context) ([]SignatureInfo, error) {
		return c.inner.GetSignaturesForAddress(ctx, address, opts)
	})
}

// GetBalance retrieves an account balance behind the gate.
func (c *LimitedClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	return ratelimit.Do(ctx, c.gate, func(ctx context.Context) (uint64, error) {
		return c.inner.GetBalance(ctx, address)
	})
}

var _ RPCClient = (*LimitedClient)(nil)
