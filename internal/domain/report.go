package domain

import "github.com/shopspring/decimal"

// RunRecord describes one invocation of the ranking pipeline.
type RunRecord struct {
	RunID       string
	Address     string // monitored program
	StartedAt   int64  // Unix ms
	PriceSymbol string
	Price       decimal.Decimal
	Attribution VolumeAttribution
}

// ReportRow is one ranked trader of a final window report.
// Primary key: (RunID, Period, Rank).
type ReportRow struct {
	RunID       string
	Period      string
	Rank        int
	GeneratedAt int64 // Unix ms

	Address          string
	Profit           decimal.Decimal
	Trades           int
	SuccessfulTrades int
	TotalVolume      decimal.Decimal
	AverageTradeSize decimal.Decimal
	SOLBalance       decimal.Decimal
	USDProfit        decimal.Decimal
}

// NewReportRow flattens a ranked record.
func NewReportRow(runID, period string, rank int, generatedAt int64, r *TraderRecord) *ReportRow {
	return &ReportRow{
		RunID:            runID,
		Period:           period,
		Rank:             rank,
		GeneratedAt:      generatedAt,
		Address:          r.Address,
		Profit:           r.Profit,
		Trades:           r.Trades,
		SuccessfulTrades: r.SuccessfulTrades,
		TotalVolume:      r.TotalVolume,
		AverageTradeSize: r.AverageTradeSize,
		SOLBalance:       r.SOLBalance,
		USDProfit:        r.USDProfit,
	}
}
