package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	"solana-top-traders/internal/domain"
)

// WindowReport is the ranked result of one window, either a periodic
// snapshot of the partial ledger or the final result.
type WindowReport struct {
	// Metadata
	RunID       string
	Address     string
	Period      string
	Window      time.Duration
	GeneratedAt time.Time
	Snapshot    bool

	// Price used for USD conversion
	PriceSymbol string
	Price       decimal.Decimal

	// Ranked traders, best first
	Traders []*domain.TraderRecord

	// Processing counters
	Stats      domain.WindowStats
	LedgerSize int
}

// TraderRow is one display row with every value already formatted.
type TraderRow struct {
	Rank           int    `json:"rank"`
	Address        string `json:"address"`
	ProfitSOL      string `json:"profit_sol"`
	BalanceSOL     string `json:"balance_sol"`
	ProfitUSD      string `json:"profit_usd"`
	Trades         int    `json:"trades"`
	WinRatePct     string `json:"win_rate_pct"`
	AvgTradeSize   string `json:"avg_trade_size"`
	TotalVolumeSOL string `json:"total_volume_sol"`
}

// Rows formats the report's traders for display.
func (r *WindowReport) Rows() []TraderRow {
	rows := make([]TraderRow, 0, len(r.Traders))
	for i, t := range r.Traders {
		rows = append(rows, TraderRow{
			Rank:           i + 1,
			Address:        t.Address,
			ProfitSOL:      t.Profit.StringFixed(4),
			BalanceSOL:     t.SOLBalance.StringFixed(4),
			ProfitUSD:      t.USDProfit.StringFixed(2),
			Trades:         t.Trades,
			WinRatePct:     decimal.NewFromFloat(t.WinRate() * 100).StringFixed(1),
			AvgTradeSize:   t.AverageTradeSize.StringFixed(4),
			TotalVolumeSOL: t.TotalVolume.StringFixed(4),
		})
	}
	return rows
}

// Kind returns "snapshot" or "final".
func (r *WindowReport) Kind() string {
	if r.Snapshot {
		return "snapshot"
	}
	return "final"
}

// Sink receives progress and reports from the window loop.
type Sink interface {
	// Status shows an overwritable progress line.
	Status(line string)
	// Snapshot receives a periodic view of the partial ledger.
	Snapshot(r *WindowReport) error
	// Final receives the completed, enriched window report.
	Final(r *WindowReport) error
}

// MultiSink fans out to several sinks. Every sink is called even when an
// earlier one fails; the first error is returned.
type MultiSink []Sink

// Status forwards line to every sink.
func (m MultiSink) Status(line string) {
	for _, s := range m {
		s.Status(line)
	}
}

// Snapshot forwards r to every sink.
func (m MultiSink) Snapshot(r *WindowReport) error {
	var first error
	for _, s := range m {
		if err := s.Snapshot(r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Final forwards r to every sink.
func (m MultiSink) Final(r *WindowReport) error {
	var first error
	for _, s := range m {
		if err := s.Final(r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var _ Sink = MultiSink(nil)
