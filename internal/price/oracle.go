// Package price provides the spot price used to convert SOL profit to USD.
package price

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable is returned when no usable price could be obtained.
var ErrPriceUnavailable = errors.New("price unavailable")

// Oracle returns the spot price of base quoted in quote.
type Oracle interface {
	SpotPrice(ctx context.Context, base, quote string) (decimal.Decimal, error)
}

// Symbol joins base and quote into an exchange pair symbol, e.g. SOLUSDT.
func Symbol(base, quote string) string {
	return strings.ToUpper(base) + strings.ToUpper(quote)
}
