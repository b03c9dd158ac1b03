package reporting

import (
	"context"
	"fmt"
	"log"
	"sync"

	"solana-top-traders/internal/domain"
	"solana-top-traders/internal/observability"
	"solana-top-traders/internal/storage"
)

// ArchiveSink collects final reports, one row per ranked trader, and writes
// them to a ReportStore with the run header when Flush is called. A run that
// aborts before Flush leaves nothing in the store. Snapshots are not archived.
type ArchiveSink struct {
	mu      sync.Mutex
	ctx     context.Context
	store   storage.ReportStore
	backend string
	run     *domain.RunRecord
	rows    []*domain.ReportRow
	periods map[string]struct{}
	flushed bool
	logger  *log.Logger
}

// ArchiveOptions contains configuration for creating an ArchiveSink.
type ArchiveOptions struct {
	Store   storage.ReportStore
	Backend string // metrics label: memory, postgres or clickhouse
	Run     *domain.RunRecord
	Logger  *log.Logger
}

// NewArchiveSink creates an archive sink. ctx bounds the store call in Flush.
func NewArchiveSink(ctx context.Context, opts ArchiveOptions) *ArchiveSink {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	backend := opts.Backend
	if backend == "" {
		backend = "memory"
	}
	run := *opts.Run
	return &ArchiveSink{
		ctx:     ctx,
		store:   opts.Store,
		backend: backend,
		run:     &run,
		periods: make(map[string]struct{}),
		logger:  logger,
	}
}

// Status is a no-op.
func (a *ArchiveSink) Status(string) {}

// Snapshot is a no-op.
func (a *ArchiveSink) Snapshot(*WindowReport) error { return nil }

// Final buffers the ranked rows of r until Flush.
func (a *ArchiveSink) Final(r *WindowReport) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.flushed {
		return fmt.Errorf("archive %s: run %s already flushed", r.Period, a.run.RunID)
	}
	if _, seen := a.periods[r.Period]; seen {
		return fmt.Errorf("archive %s: %w", r.Period, storage.ErrDuplicateKey)
	}
	a.periods[r.Period] = struct{}{}

	// The price is only known once the run has fetched it.
	if a.run.Price.IsZero() {
		a.run.Price = r.Price
		a.run.PriceSymbol = r.PriceSymbol
	}

	generatedAt := r.GeneratedAt.UnixMilli()
	for i, t := range r.Traders {
		a.rows = append(a.rows, domain.NewReportRow(a.run.RunID, r.Period, i+1, generatedAt, t))
	}
	return nil
}

// Pending returns the number of buffered rows.
func (a *ArchiveSink) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.rows)
}

// Flush stores the run header and every buffered row in one step. Call it
// only after the run completed; it may succeed once.
func (a *ArchiveSink) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.flushed {
		return fmt.Errorf("archive run %s: already flushed", a.run.RunID)
	}
	if err := a.store.SaveReport(a.ctx, a.run, a.rows); err != nil {
		return fmt.Errorf("archive run %s: %w", a.run.RunID, err)
	}
	a.flushed = true

	observability.RecordReportRows(a.backend, len(a.rows))
	a.logger.Printf("[archive] stored run %s: %d rows in %d periods (%s)", a.run.RunID, len(a.rows), len(a.periods), a.backend)
	a.rows = nil
	return nil
}

var _ Sink = (*ArchiveSink)(nil)
