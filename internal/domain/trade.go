package domain

import "github.com/shopspring/decimal"

// TradeEvent is one wallet's balance change derived from a single transaction.
// It is never persisted; the ledger consumes it immediately.
type TradeEvent struct {
	Wallet      string
	NativeDelta decimal.Decimal // signed, display units
	GrossValue  decimal.Decimal // whole-transaction trade value in SOL, >= 0
	Timestamp   int64           // Unix ms
}

// TraderRecord holds cumulative trading statistics for one wallet within a window.
type TraderRecord struct {
	Address string

	Profit           decimal.Decimal // sum of signed deltas
	Trades           int             // balance-change events attributed
	TotalVolume      decimal.Decimal // sum of credited trade values, >= 0
	SuccessfulTrades int             // events with a positive delta
	AverageTradeSize decimal.Decimal // TotalVolume / Trades

	// Populated only for ranked wallets at report time.
	SOLBalance decimal.Decimal
	USDProfit  decimal.Decimal
}

// WinRate returns SuccessfulTrades / Trades, or 0 when there are no trades.
func (r *TraderRecord) WinRate() float64 {
	if r.Trades == 0 {
		return 0
	}
	return float64(r.SuccessfulTrades) / float64(r.Trades)
}

// Clone returns a copy safe to hand outside the ledger.
func (r *TraderRecord) Clone() *TraderRecord {
	c := *r
	return &c
}
