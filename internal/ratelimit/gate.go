// Package ratelimit provides the process-wide request gate shared by every
// component that talks to an external provider.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"solana-top-traders/internal/observability"
)

// Default configuration values.
const (
	DefaultInterval    = 100 * time.Millisecond
	DefaultBaseDelay   = 1 * time.Second
	DefaultMaxDelay    = 30 * time.Second
	DefaultMaxAttempts = 5
	DefaultBackoffMult = 2.0
)

// ErrRateLimited marks a provider response that asked the caller to slow down.
// Only errors matching it are retried by Gate.
var ErrRateLimited = errors.New("rate limited")

// BackoffFunc is notified before each backoff wait.
type BackoffFunc func(attempt int, wait time.Duration, err error)

// Gate spaces outbound calls by a fixed interval and retries rate-limited
// operations with exponential backoff. One Gate is shared by all callers.
type Gate struct {
	limiter     *rate.Limiter
	baseDelay   time.Duration
	maxDelay    time.Duration
	maxAttempts int
	backoffMult float64
	onBackoff   BackoffFunc
	sleep       func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	lastCall time.Time
}

// Option configures Gate.
type Option func(*Gate)

// WithInterval sets the minimum spacing between calls. Zero disables spacing.
func WithInterval(d time.Duration) Option {
	return func(g *Gate) {
		if d <= 0 {
			g.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		g.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithBaseDelay sets the first backoff delay.
func WithBaseDelay(d time.Duration) Option {
	return func(g *Gate) {
		g.baseDelay = d
	}
}

// WithMaxDelay caps a single backoff delay.
func WithMaxDelay(d time.Duration) Option {
	return func(g *Gate) {
		g.maxDelay = d
	}
}

// WithMaxAttempts sets the total number of attempts, first one included.
func WithMaxAttempts(n int) Option {
	return func(g *Gate) {
		g.maxAttempts = n
	}
}

// WithOnBackoff sets the backoff notification hook.
func WithOnBackoff(fn BackoffFunc) Option {
	return func(g *Gate) {
		g.onBackoff = fn
	}
}

// withSleep replaces the backoff sleeper. Used by tests.
func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Gate) {
		g.sleep = fn
	}
}

// NewGate creates a gate with the given options.
func NewGate(opts ...Option) *Gate {
	g := &Gate{
		limiter:     rate.NewLimiter(rate.Every(DefaultInterval), 1),
		baseDelay:   DefaultBaseDelay,
		maxDelay:    DefaultMaxDelay,
		maxAttempts: DefaultMaxAttempts,
		backoffMult: DefaultBackoffMult,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.maxAttempts < 1 {
		g.maxAttempts = 1
	}
	if g.maxDelay > 0 && g.baseDelay > g.maxDelay {
		g.baseDelay = g.maxDelay
	}
	return g
}

// Wait blocks until the next call slot is available.
func (g *Gate) Wait(ctx context.Context) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate gate: %w", err)
	}
	g.mu.Lock()
	g.lastCall = time.Now()
	g.mu.Unlock()
	return nil
}

// LastCall returns the time the most recent call slot was granted.
func (g *Gate) LastCall() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastCall
}

// Call runs op behind the gate. Rate-limited failures are retried with
// exponential backoff until the attempt cap; the last error is returned
// unmodified. Any other error is returned immediately.
func (g *Gate) Call(ctx context.Context, op func(ctx context.Context) error) error {
	delay := g.baseDelay
	var err error

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if attempt > 1 {
			if g.onBackoff != nil {
				g.onBackoff(attempt-1, delay, err)
			}
			observability.RecordRateLimitRetry()
			if serr := g.sleep(ctx, delay); serr != nil {
				return serr
			}
			delay = time.Duration(float64(delay) * g.backoffMult)
			if g.maxDelay > 0 && delay > g.maxDelay {
				delay = g.maxDelay
			}
		}

		if werr := g.Wait(ctx); werr != nil {
			return werr
		}

		err = op(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return err
		}
	}

	return err
}

// Do is Call for operations that produce a value.
func Do[T any](ctx context.Context, g *Gate, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := g.Call(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
