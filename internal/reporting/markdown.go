package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders final window reports as a Markdown document.
func RenderMarkdown(reports []*WindowReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Top Traders Report\n\n")
	if len(reports) > 0 {
		first := reports[0]
		sb.WriteString(fmt.Sprintf("Generated: %s\n\n", first.GeneratedAt.UTC().Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("Program: `%s`\n\n", first.Address))
		if first.RunID != "" {
			sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", first.RunID))
		}
		sb.WriteString(fmt.Sprintf("Price: %s = %s\n\n", first.PriceSymbol, first.Price.StringFixed(4)))
	}

	for _, r := range reports {
		sb.WriteString(fmt.Sprintf("## %s\n\n", r.Period))

		rows := r.Rows()
		if len(rows) > 0 {
			sb.WriteString("| # | Address | Profit (SOL) | Balance (SOL) | Profit (USD) | Trades | Win Rate | Avg Trade Size |\n")
			sb.WriteString("|---|---------|--------------|---------------|--------------|--------|----------|----------------|\n")
			for _, row := range rows {
				sb.WriteString(fmt.Sprintf("| %d | `%s` | %s | %s | %s | %d | %s%% | %s |\n",
					row.Rank, row.Address, row.ProfitSOL, row.BalanceSOL, row.ProfitUSD,
					row.Trades, row.WinRatePct, row.AvgTradeSize))
			}
		} else {
			sb.WriteString("No qualifying traders.\n")
		}
		sb.WriteString("\n")

		// Window statistics
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Signatures Seen | %d |\n", r.Stats.SignaturesSeen))
		sb.WriteString(fmt.Sprintf("| Transactions Processed | %d |\n", r.Stats.TransactionsProcessed))
		sb.WriteString(fmt.Sprintf("| Trades Applied | %d |\n", r.Stats.TradesApplied))
		sb.WriteString(fmt.Sprintf("| Failed On Chain | %d |\n", r.Stats.FailedOnChain))
		sb.WriteString(fmt.Sprintf("| Skipped | %d |\n", r.Stats.Skipped))
		sb.WriteString(fmt.Sprintf("| Errors | %d |\n", r.Stats.Errors))
		sb.WriteString(fmt.Sprintf("| Wallets | %d |\n", r.LedgerSize))
		sb.WriteString(fmt.Sprintf("| Duration | %s |\n", r.Stats.Duration.Round(time.Millisecond)))
		sb.WriteString("\n")
	}

	return sb.String()
}
