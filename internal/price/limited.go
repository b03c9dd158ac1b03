package price

import (
	"context"

	"github.com/shopspring/decimal"

	"solana-top-traders/internal/ratelimit"
)

// LimitedOracle routes price lookups through the shared rate gate.
type LimitedOracle struct {
	inner Oracle
	gate  *ratelimit.Gate
}

// NewLimitedOracle wraps inner with gate.
func NewLimitedOracle(inner Oracle, gate *ratelimit.Gate) *LimitedOracle {
	return &LimitedOracle{inner: inner, gate: gate}
}

// SpotPrice looks up the price behind the gate.
func (o *LimitedOracle) SpotPrice(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	return ratelimit.Do(ctx, o.gate, func(ctx context.Context) (decimal.Decimal, error) {
		return o.inner.SpotPrice(ctx, base, quote)
	})
}

var _ Oracle = (*LimitedOracle)(nil)
