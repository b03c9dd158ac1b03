package storage

import (
	"context"

	"solana-top-traders/internal/domain"
)

// ReportStore archives final window reports. It is write-mostly: nothing in
// the pipeline reads it back into a ledger.
type ReportStore interface {
	// InsertRun records a run header. Returns ErrDuplicateKey if run_id exists.
	InsertRun(ctx context.Context, r *domain.RunRecord) error

	// GetRun retrieves a run by ID. Returns ErrNotFound if not exists.
	GetRun(ctx context.Context, runID string) (*domain.RunRecord, error)

	// InsertRows adds ranked rows atomically. Fails entire batch on any
	// duplicate (run_id, period, rank).
	InsertRows(ctx context.Context, rows []*domain.ReportRow) error

	// SaveReport records a run header together with all of its rows. Either
	// everything is stored or nothing is. Rows must carry the run's run_id.
	SaveReport(ctx context.Context, run *domain.RunRecord, rows []*domain.ReportRow) error

	// GetRows retrieves rows of a run ordered by generated_at, period, rank ASC.
	GetRows(ctx context.Context, runID string) ([]*domain.ReportRow, error)
}
