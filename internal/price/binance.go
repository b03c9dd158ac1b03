package price

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"

	"solana-top-traders/internal/observability"
	"solana-top-traders/internal/ratelimit"
)

// Binance error codes that mean the caller is over its request weight.
const (
	codeTooManyRequests = -1003
	codeTooManyOrders   = -1015
)

// DefaultTimeout bounds a single price request.
const DefaultTimeout = 10 * time.Second

// BinanceOracle reads spot prices from the Binance public ticker.
type BinanceOracle struct {
	client *binance.Client
}

// BinanceOption configures BinanceOracle.
type BinanceOption func(*binance.Client)

// WithBaseURL points the oracle at a different REST endpoint.
func WithBaseURL(url string) BinanceOption {
	return func(c *binance.Client) {
		if url != "" {
			c.BaseURL = strings.TrimRight(url, "/")
		}
	}
}

// NewBinanceOracle creates an oracle. No API key is needed for ticker prices.
func NewBinanceOracle(opts ...BinanceOption) *BinanceOracle {
	client := binance.NewClient("", "")
	client.HTTPClient = &http.Client{
		Timeout:   DefaultTimeout,
		Transport: throttleTransport{next: http.DefaultTransport},
	}
	for _, opt := range opts {
		opt(client)
	}
	return &BinanceOracle{client: client}
}

// SpotPrice returns the last traded price for base/quote.
func (o *BinanceOracle) SpotPrice(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	symbol := Symbol(base, quote)

	prices, err := o.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, classifyBinanceError(symbol, err)
	}

	for _, p := range prices {
		if p == nil || p.Symbol != symbol {
			continue
		}
		v, err := decimal.NewFromString(p.Price)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: parse price %q: %v: %w", symbol, p.Price, err, ErrPriceUnavailable)
		}
		if !v.IsPositive() {
			return decimal.Zero, fmt.Errorf("%s: non-positive price %s: %w", symbol, v, ErrPriceUnavailable)
		}
		observability.RecordPriceLookup("binance")
		return v, nil
	}
	return decimal.Zero, fmt.Errorf("%s: symbol not in response: %w", symbol, ErrPriceUnavailable)
}

func classifyBinanceError(symbol string, err error) error {
	if errors.Is(err, ratelimit.ErrRateLimited) {
		return err
	}
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == codeTooManyRequests || apiErr.Code == codeTooManyOrders {
			return fmt.Errorf("%s: %v: %w", symbol, apiErr, ratelimit.ErrRateLimited)
		}
		return fmt.Errorf("%s: %v: %w", symbol, apiErr, ErrPriceUnavailable)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%s: %v: %w", symbol, err, ErrPriceUnavailable)
}

// throttleTransport turns HTTP 429 and 418 responses into ErrRateLimited
// before the Binance client tries to decode them.
type throttleTransport struct {
	next http.RoundTripper
}

func (t throttleTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusTeapot {
		resp.Body.Close()
		return nil, fmt.Errorf("binance status %d: %w", resp.StatusCode, ratelimit.ErrRateLimited)
	}
	return resp, nil
}

var _ Oracle = (*BinanceOracle)(nil)
