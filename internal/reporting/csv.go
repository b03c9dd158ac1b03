package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders ranked traders of every report as CSV, one row per trader.
func RenderCSV(reports []*WindowReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString("period,rank,address,profit_sol,balance_sol,profit_usd,")
	sb.WriteString("trades,win_rate_pct,avg_trade_size,total_volume_sol\n")

	// Rows
	for _, r := range reports {
		for _, row := range r.Rows() {
			sb.WriteString(fmt.Sprintf("%s,%d,%s,%s,%s,%s,%d,%s,%s,%s\n",
				r.Period,
				row.Rank,
				row.Address,
				row.ProfitSOL,
				row.BalanceSOL,
				row.ProfitUSD,
				row.Trades,
				row.WinRatePct,
				row.AvgTradeSize,
				row.TotalVolumeSOL,
			))
		}
	}

	return sb.String()
}
