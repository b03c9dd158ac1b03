// Package orchestrator drives the per-window ranking loop.
// It coordinates: pagination → fetch → classification → ledger → ranking → sinks
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"solana-top-traders/internal/classifier"
	"solana-top-traders/internal/domain"
	"solana-top-traders/internal/ingestion"
	"solana-top-traders/internal/metrics"
	"solana-top-traders/internal/observability"
	"solana-top-traders/internal/price"
	"solana-top-traders/internal/ratelimit"
	"solana-top-traders/internal/reporting"
	"solana-top-traders/internal/solana"
)

// Default loop limits.
const (
	DefaultMaxPerPeriod  = 1000
	DefaultSnapshotEvery = 200
)

// Skip reasons used in logs and metrics.
const (
	skipFailedOnChain = "failed_on_chain"
	skipNotFound      = "not_found"
	skipNotTrade      = "not_trade"
	skipDust          = "dust"
	skipFetchError    = "fetch_error"
)

// WindowState is the working set of one window. It is created when the
// window starts and dropped when its final report has been emitted.
type WindowState struct {
	Window  domain.Window
	Ledger  *metrics.Ledger
	Stats   domain.WindowStats
	started time.Time

	lastSnapshot int // TransactionsProcessed at the last snapshot
}

func newWindowState(w domain.Window, attribution domain.VolumeAttribution) *WindowState {
	return &WindowState{
		Window:  w,
		Ledger:  metrics.NewLedger(attribution),
		started: time.Now(),
	}
}

// Orchestrator runs every configured window against one monitored address.
type Orchestrator struct {
	rpc        solana.RPCClient
	paginator  *ingestion.Paginator
	classifier *classifier.Classifier
	oracle     price.Oracle
	sink       reporting.Sink

	address     string
	runID       string
	windows     []domain.Window
	criteria    metrics.Criteria
	attribution domain.VolumeAttribution
	priceBase   string
	priceQuote  string

	maxPerPeriod  int
	snapshotEvery int
	logger        *log.Logger
}

// Options for creating Orchestrator.
type Options struct {
	// RPC must already be gated; the orchestrator issues calls strictly in sequence.
	RPC        solana.RPCClient
	Paginator  *ingestion.Paginator // Default: paginator over RPC with default limits
	Classifier *classifier.Classifier
	Oracle     price.Oracle
	Sink       reporting.Sink

	Address     string
	RunID       string
	Windows     []domain.Window // Default: 24h, 7d, 30d
	Criteria    metrics.Criteria
	Attribution domain.VolumeAttribution
	PriceBase   string // Default: SOL
	PriceQuote  string // Default: USDT

	MaxPerPeriod  int // Default: 1000
	SnapshotEvery int // Default: 200
	Logger        *log.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	paginator := opts.Paginator
	if paginator == nil {
		paginator = ingestion.NewPaginator(ingestion.PaginatorOptions{RPC: opts.RPC, Logger: logger})
	}

	cls := opts.Classifier
	if cls == nil {
		cls = classifier.New(classifier.DefaultDustThreshold)
	}

	sink := opts.Sink
	if sink == nil {
		sink = reporting.MultiSink(nil)
	}

	windows := opts.Windows
	if len(windows) == 0 {
		windows = domain.DefaultWindows()
	}

	criteria := opts.Criteria
	if criteria.K == 0 && criteria.MinTrades == 0 && criteria.MinWinRate == 0 {
		criteria = metrics.DefaultCriteria()
	}

	attribution := opts.Attribution
	if attribution == "" {
		attribution = domain.AttributionPerParticipantFull
	}

	priceBase := opts.PriceBase
	if priceBase == "" {
		priceBase = "SOL"
	}
	priceQuote := opts.PriceQuote
	if priceQuote == "" {
		priceQuote = "USDT"
	}

	maxPerPeriod := opts.MaxPerPeriod
	if maxPerPeriod <= 0 {
		maxPerPeriod = DefaultMaxPerPeriod
	}
	snapshotEvery := opts.SnapshotEvery
	if snapshotEvery <= 0 {
		snapshotEvery = DefaultSnapshotEvery
	}

	return &Orchestrator{
		rpc:           opts.RPC,
		paginator:     paginator,
		classifier:    cls,
		oracle:        opts.Oracle,
		sink:          sink,
		address:       opts.Address,
		runID:         opts.RunID,
		windows:       windows,
		criteria:      criteria,
		attribution:   attribution,
		priceBase:     priceBase,
		priceQuote:    priceQuote,
		maxPerPeriod:  maxPerPeriod,
		snapshotEvery: snapshotEvery,
		logger:        logger,
	}
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	RunID       string
	PriceSymbol string
	Price       decimal.Decimal
	Reports     []*reporting.WindowReport
}

// Run fetches the spot price once, then processes every window in order
// against the same now. Any window error aborts the run.
func (o *Orchestrator) Run(ctx context.Context, now time.Time) (*RunResult, error) {
	symbol := price.Symbol(o.priceBase, o.priceQuote)

	spot, err := o.oracle.SpotPrice(ctx, o.priceBase, o.priceQuote)
	if err != nil {
		return nil, fmt.Errorf("fetch %s price: %w", symbol, err)
	}
	o.logger.Printf("[orchestrator] %s = %s, monitoring %s over %d windows", symbol, spot, o.address, len(o.windows))

	result := &RunResult{RunID: o.runID, PriceSymbol: symbol, Price: spot}

	for _, w := range o.windows {
		report, err := o.runWindow(ctx, w, now, symbol, spot)
		if err != nil {
			return result, fmt.Errorf("window %s: %w", w.Label, err)
		}
		result.Reports = append(result.Reports, report)
	}

	observability.RecordRunCompleted(time.Now().Unix())
	return result, nil
}

// runWindow rebuilds one window from scratch and emits its final report.
func (o *Orchestrator) runWindow(ctx context.Context, w domain.Window, now time.Time, symbol string, spot decimal.Decimal) (*reporting.WindowReport, error) {
	state := newWindowState(w, o.attribution)
	o.logger.Printf("[orchestrator] window %s: start (cutoff %s)", w.Label, time.Unix(w.Cutoff(now), 0).UTC().Format(time.RFC3339))

	sigs, err := o.paginator.Paginate(ctx, o.address, w, now)
	if err != nil {
		return nil, err
	}
	if len(sigs) > o.maxPerPeriod {
		sigs = sigs[:o.maxPerPeriod]
	}
	state.Stats.SignaturesSeen = len(sigs)
	observability.RecordSignatures(w.Label, len(sigs))

	for _, sig := range sigs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if sig.Err != nil {
			state.Stats.FailedOnChain++
			observability.RecordTransactionSkipped(w.Label, skipFailedOnChain)
			continue
		}

		if err := o.processSignature(ctx, state, sig.Signature); err != nil {
			return nil, err
		}

		o.sink.Status(progressLine(state))

		if n := state.Stats.TransactionsProcessed; n > state.lastSnapshot && n%o.snapshotEvery == 0 {
			state.lastSnapshot = n
			o.emitSnapshot(state, symbol, spot)
		}
	}

	traders := metrics.SelectTopTraders(state.Ledger, o.criteria)
	if err := metrics.Enrich(ctx, traders, o.rpc, spot); err != nil {
		return nil, fmt.Errorf("enrich top traders: %w", err)
	}

	state.Stats.Duration = time.Since(state.started)
	report := o.buildReport(state, symbol, spot, traders, false)
	if err := o.sink.Final(report); err != nil {
		o.logger.Printf("[orchestrator] window %s: sink failed on final report: %v", w.Label, err)
	}

	observability.RecordWindowCompleted(w.Label, state.Stats.Duration.Seconds())
	o.logger.Printf("[orchestrator] window %s: done, %d signatures, %d processed, %d trades, %d wallets, %d ranked in %s",
		w.Label, state.Stats.SignaturesSeen, state.Stats.TransactionsProcessed, state.Stats.TradesApplied,
		state.Ledger.Len(), len(traders), state.Stats.Duration.Round(time.Millisecond))

	return report, nil
}

// processSignature fetches one transaction and applies it to the ledger.
// Only errors that should abort the run are returned.
func (o *Orchestrator) processSignature(ctx context.Context, state *WindowState, signature string) error {
	label := state.Window.Label

	tx, err := o.rpc.GetTransaction(ctx, signature)
	if err != nil {
		if isFatal(err) {
			return fmt.Errorf("get transaction %s: %w", signature, err)
		}
		state.Stats.Errors++
		observability.RecordTransactionSkipped(label, skipFetchError)
		o.logger.Printf("[orchestrator] window %s: skip %s: %v", label, signature, err)
		return nil
	}

	state.Stats.TransactionsProcessed++
	observability.RecordTransactionProcessed(label)

	if tx == nil || tx.Meta == nil {
		state.Stats.Skipped++
		observability.RecordTransactionSkipped(label, skipNotFound)
		o.logger.Printf("[orchestrator] window %s: skip %s: transaction or meta missing", label, signature)
		return nil
	}

	if !o.classifier.IsTrade(tx) {
		state.Stats.Skipped++
		observability.RecordTransactionSkipped(label, skipNotTrade)
		return nil
	}

	value := o.classifier.TradeValue(tx)
	if value.IsZero() {
		state.Stats.Skipped++
		observability.RecordTransactionSkipped(label, skipDust)
		return nil
	}

	events := state.Ledger.Apply(tx, value)
	state.Stats.TradesApplied += len(events)
	for range events {
		observability.RecordTradeApplied(label, state.Ledger.Len())
	}
	return nil
}

// emitSnapshot ranks the live partial ledger. Snapshots skip balance
// lookups so they cost no network calls; USD profit still uses the run price.
func (o *Orchestrator) emitSnapshot(state *WindowState, symbol string, spot decimal.Decimal) {
	traders := metrics.SelectTopTraders(state.Ledger, o.criteria)
	for _, t := range traders {
		t.USDProfit = t.Profit.Mul(spot)
	}

	state.Stats.Duration = time.Since(state.started)
	report := o.buildReport(state, symbol, spot, traders, true)
	if err := o.sink.Snapshot(report); err != nil {
		o.logger.Printf("[orchestrator] window %s: sink failed on snapshot: %v", state.Window.Label, err)
	}
	observability.RecordSnapshot()
}

func (o *Orchestrator) buildReport(state *WindowState, symbol string, spot decimal.Decimal, traders []*domain.TraderRecord, snapshot bool) *reporting.WindowReport {
	return &reporting.WindowReport{
		RunID:       o.runID,
		Address:     o.address,
		Period:      state.Window.Label,
		Window:      state.Window.Duration,
		GeneratedAt: time.Now(),
		Snapshot:    snapshot,
		PriceSymbol: symbol,
		Price:       spot,
		Traders:     traders,
		Stats:       state.Stats,
		LedgerSize:  state.Ledger.Len(),
	}
}

func progressLine(state *WindowState) string {
	return fmt.Sprintf("[%s] processed %d/%d | trades %d | wallets %d",
		state.Window.Label, state.Stats.TransactionsProcessed, state.Stats.SignaturesSeen,
		state.Stats.TradesApplied, state.Ledger.Len())
}

// isFatal reports whether a transaction fetch error must abort the run
// rather than skip the transaction. A provider failure on one transaction
// is skipped; rate limiting that outlasted the gate's retries is not.
func isFatal(err error) bool {
	return errors.Is(err, ratelimit.ErrRateLimited) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
