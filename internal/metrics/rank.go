package metrics

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"solana-top-traders/internal/domain"
	"solana-top-traders/internal/solana"
)

// Default ranking criteria.
const (
	DefaultMinTrades  = 3
	DefaultMinWinRate = 0.5
	DefaultTopK       = 10
)

// Criteria selects which ledger records qualify for the ranking.
type Criteria struct {
	MinTrades  int     // inclusive
	MinWinRate float64 // exclusive: win rate must be strictly greater
	K          int

	// ExcludeOffCurve drops program-derived owners such as pool vaults.
	ExcludeOffCurve bool
}

// DefaultCriteria returns trades >= 3, win rate > 0.5, top 10.
func DefaultCriteria() Criteria {
	return Criteria{
		MinTrades:  DefaultMinTrades,
		MinWinRate: DefaultMinWinRate,
		K:          DefaultTopK,
	}
}

// Qualifies reports whether rec passes the survivorship filter.
func (c Criteria) Qualifies(rec *domain.TraderRecord) bool {
	if rec.Trades < c.MinTrades || rec.Trades == 0 {
		return false
	}
	if !rec.Profit.IsPositive() {
		return false
	}
	if rec.WinRate() <= c.MinWinRate {
		return false
	}
	if c.ExcludeOffCurve && !solana.IsOnCurve(rec.Address) {
		return false
	}
	return true
}

// SelectTopTraders returns up to K qualifying records sorted by profit,
// highest first. Equal profits keep the ledger's first-seen order.
func SelectTopTraders(l *Ledger, c Criteria) []*domain.TraderRecord {
	var selected []*domain.TraderRecord
	for _, rec := range l.Records() {
		if c.Qualifies(rec) {
			selected = append(selected, rec)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Profit.GreaterThan(selected[j].Profit)
	})

	if c.K > 0 && len(selected) > c.K {
		selected = selected[:c.K]
	}
	return selected
}

// BalanceFetcher looks up a wallet's native balance in lamports.
type BalanceFetcher interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
}

// Enrich fills SOLBalance with one balance lookup per record and sets
// USDProfit = Profit × price.
func Enrich(ctx context.Context, traders []*domain.TraderRecord, balances BalanceFetcher, price decimal.Decimal) error {
	for _, rec := range traders {
		lamports, err := balances.GetBalance(ctx, rec.Address)
		if err != nil {
			return fmt.Errorf("get balance %s: %w", rec.Address, err)
		}
		rec.SOLBalance = solana.LamportsToSOL(int64(lamports))
		rec.USDProfit = rec.Profit.Mul(price)
	}
	return nil
}
