package reporting

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// ConsoleSink renders status lines and tables to a terminal.
// Status lines overwrite each other with a carriage return.
type ConsoleSink struct {
	mu        sync.Mutex
	out       io.Writer
	statusLen int

	header  *color.Color
	gain    *color.Color
	loss    *color.Color
	dim     *color.Color
	warning *color.Color
}

// NewConsoleSink creates a console sink writing to out.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{
		out:     out,
		header:  color.New(color.FgCyan, color.Bold),
		gain:    color.New(color.FgGreen),
		loss:    color.New(color.FgRed),
		dim:     color.New(color.Faint),
		warning: color.New(color.FgYellow),
	}
}

// Status overwrites the current status line.
func (c *ConsoleSink) Status(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pad := ""
	if n := c.statusLen - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(c.out, "\r%s%s", line, pad)
	c.statusLen = len(line)
}

// Snapshot prints the intermediate ranking.
func (c *ConsoleSink) Snapshot(r *WindowReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endStatus()
	c.warning.Fprintf(c.out, "Intermediate results (%s, %d transactions processed)\n",
		r.Period, r.Stats.TransactionsProcessed)
	c.table(r)
	return nil
}

// Final prints the completed window ranking and its statistics.
func (c *ConsoleSink) Final(r *WindowReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endStatus()
	line := strings.Repeat("=", 120)
	c.header.Fprintln(c.out, line)
	c.header.Fprintf(c.out, "TOP TRADERS - %s  (%s = $%s)\n", r.Period, r.PriceSymbol, r.Price.StringFixed(2))
	c.header.Fprintln(c.out, line)
	c.table(r)
	c.dim.Fprintf(c.out, "signatures %d | processed %d | trades %d | failed on chain %d | skipped %d | errors %d | wallets %d | %s\n\n",
		r.Stats.SignaturesSeen, r.Stats.TransactionsProcessed, r.Stats.TradesApplied,
		r.Stats.FailedOnChain, r.Stats.Skipped, r.Stats.Errors, r.LedgerSize,
		r.Stats.Duration.Round(time.Millisecond))
	return nil
}

func (c *ConsoleSink) table(r *WindowReport) {
	rows := r.Rows()
	if len(rows) == 0 {
		c.dim.Fprintln(c.out, "No qualifying traders.")
		fmt.Fprintln(c.out)
		return
	}

	c.header.Fprintf(c.out, "%-4s %-44s %14s %14s %14s %7s %8s %12s\n",
		"#", "Address", "Profit (SOL)", "Balance (SOL)", "Profit (USD)", "Trades", "Win %", "Avg Size")
	for _, row := range rows {
		profit := c.gain
		if strings.HasPrefix(row.ProfitSOL, "-") {
			profit = c.loss
		}
		fmt.Fprintf(c.out, "%-4d %-44s ", row.Rank, row.Address)
		profit.Fprintf(c.out, "%14s", row.ProfitSOL)
		fmt.Fprintf(c.out, " %14s ", row.BalanceSOL)
		profit.Fprintf(c.out, "%14s", row.ProfitUSD)
		fmt.Fprintf(c.out, " %7d %8s %12s\n", row.Trades, row.WinRatePct, row.AvgTradeSize)
	}
	fmt.Fprintln(c.out)
}

// endStatus moves past a pending status line so tables start on a fresh line.
func (c *ConsoleSink) endStatus() {
	if c.statusLen > 0 {
		fmt.Fprintln(c.out)
		c.statusLen = 0
	}
}

var _ Sink = (*ConsoleSink)(nil)
