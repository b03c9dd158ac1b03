// Package classifier decides whether a fetched transaction is a trade and
// what it is worth in SOL.
package classifier

import (
	"github.com/shopspring/decimal"

	"solana-top-traders/internal/solana"
)

// DefaultDustThreshold is the smallest native balance change, in SOL, that
// counts towards trade value. Fee-only changes fall below it.
var DefaultDustThreshold = decimal.New(1, -3)

// TokenDelta is the signed change of one index-aligned token balance pair.
type TokenDelta struct {
	Owner string
	Mint  string
	Delta decimal.Decimal // display units
}

// Classifier holds the dust threshold used by TradeValue.
type Classifier struct {
	dust decimal.Decimal
}

// New creates a classifier. A non-positive threshold uses DefaultDustThreshold.
func New(dustThreshold decimal.Decimal) *Classifier {
	if !dustThreshold.IsPositive() {
		dustThreshold = DefaultDustThreshold
	}
	return &Classifier{dust: dustThreshold}
}

// DustThreshold returns the configured threshold in SOL.
func (c *Classifier) DustThreshold() decimal.Decimal {
	return c.dust
}

// IsTrade reports whether any qualifying token balance pair changed amount.
func (c *Classifier) IsTrade(tx *solana.Transaction) bool {
	if tx == nil || tx.Meta == nil {
		return false
	}
	pre, post := tx.Meta.PreTokenBalances, tx.Meta.PostTokenBalances
	if pre == nil || post == nil {
		return false
	}

	n := min(len(pre), len(post))
	for i := 0; i < n; i++ {
		if _, ok := pairDelta(pre[i], post[i]); ok {
			return true
		}
	}
	return false
}

// TradeValue sums |post - pre| in SOL over index-aligned native balance
// pairs whose change exceeds the dust threshold. Zero means the transaction
// should be rejected.
func (c *Classifier) TradeValue(tx *solana.Transaction) decimal.Decimal {
	total := decimal.Zero
	if tx == nil || tx.Meta == nil {
		return total
	}
	pre, post := tx.Meta.PreBalances, tx.Meta.PostBalances

	n := min(len(pre), len(post))
	for i := 0; i < n; i++ {
		diff := solana.LamportsToSOL(int64(post[i]) - int64(pre[i])).Abs()
		if diff.GreaterThan(c.dust) {
			total = total.Add(diff)
		}
	}
	return total
}

// TokenDeltas returns the nonzero changes of qualifying token balance pairs
// in index order. A transaction is a trade exactly when this is non-empty.
func TokenDeltas(tx *solana.Transaction) []TokenDelta {
	if tx == nil || tx.Meta == nil {
		return nil
	}
	pre, post := tx.Meta.PreTokenBalances, tx.Meta.PostTokenBalances

	var deltas []TokenDelta
	n := min(len(pre), len(post))
	for i := 0; i < n; i++ {
		if d, ok := pairDelta(pre[i], post[i]); ok {
			deltas = append(deltas, d)
		}
	}
	return deltas
}

// pairDelta qualifies one index-aligned pair: both sides carry an owner and
// a parseable amount, and the amount changed.
func pairDelta(pre, post solana.TokenBalance) (TokenDelta, bool) {
	if pre.Owner == "" || post.Owner == "" {
		return TokenDelta{}, false
	}
	before, ok := pre.Value()
	if !ok {
		return TokenDelta{}, false
	}
	after, ok := post.Value()
	if !ok {
		return TokenDelta{}, false
	}
	delta := after.Sub(before)
	if delta.IsZero() {
		return TokenDelta{}, false
	}

	mint := post.Mint
	if mint == "" {
		mint = pre.Mint
	}
	return TokenDelta{Owner: post.Owner, Mint: mint, Delta: delta}, true
}
