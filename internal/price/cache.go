package price

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"solana-top-traders/internal/observability"
)

// DefaultCacheTTL is how long a cached spot price stays valid.
const DefaultCacheTTL = 60 * time.Second

// CachedOracle serves prices from Redis and falls back to the wrapped oracle.
// Redis failures never fail a lookup; they are logged and bypassed.
type CachedOracle struct {
	client *redis.Client
	next   Oracle
	ttl    time.Duration
	prefix string
	logger *log.Logger
}

// CacheOptions contains configuration for creating a CachedOracle.
type CacheOptions struct {
	Client *redis.Client
	Next   Oracle
	TTL    time.Duration
	Prefix string
	Logger *log.Logger
}

// NewCachedOracle creates a Redis-backed price cache.
func NewCachedOracle(opts CacheOptions) *CachedOracle {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "price:"
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &CachedOracle{
		client: opts.Client,
		next:   opts.Next,
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
	}
}

// NewRedisClient creates a client for addr and checks it is reachable.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// SpotPrice returns the cached price when fresh, otherwise asks the wrapped
// oracle and stores the answer.
func (c *CachedOracle) SpotPrice(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	key := c.prefix + Symbol(base, quote)

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if v, perr := decimal.NewFromString(cached); perr == nil && v.IsPositive() {
			observability.RecordPriceLookup("cache")
			return v, nil
		}
		c.logger.Printf("Ignoring malformed cached price %s=%q", key, cached)
	case errors.Is(err, redis.Nil):
		// miss
	default:
		c.logger.Printf("Price cache read %s failed: %v", key, err)
	}

	v, err := c.next.SpotPrice(ctx, base, quote)
	if err != nil {
		return decimal.Zero, err
	}

	if err := c.client.Set(ctx, key, v.String(), c.ttl).Err(); err != nil {
		c.logger.Printf("Price cache write %s failed: %v", key, err)
	}
	return v, nil
}

var _ Oracle = (*CachedOracle)(nil)
