package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"solana-top-traders/internal/domain"
	"solana-top-traders/internal/storage"
)

// ReportStore implements storage.ReportStore using PostgreSQL.
// Amounts are NUMERIC columns written from decimal.Decimal and read back as text.
type ReportStore struct {
	pool *Pool
}

// NewReportStore creates a new ReportStore.
func NewReportStore(pool *Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ReportStore = (*ReportStore)(nil)

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// InsertRun records a run header. Returns ErrDuplicateKey if run_id exists.
func (s *ReportStore) InsertRun(ctx context.Context, r *domain.RunRecord) error {
	return insertRun(ctx, s.pool, r)
}

func insertRun(ctx context.Context, q execer, r *domain.RunRecord) error {
	query := `
		INSERT INTO runs (
			run_id, address, started_at, price_symbol, price, attribution
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`

	_, err := q.Exec(ctx, query,
		r.RunID, r.Address, r.StartedAt, r.PriceSymbol, r.Price, string(r.Attribution),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *ReportStore) GetRun(ctx context.Context, runID string) (*domain.RunRecord, error) {
	query := `
		SELECT run_id, address, started_at, price_symbol, price::text, attribution
		FROM runs
		WHERE run_id = $1
	`

	var (
		r           domain.RunRecord
		price       string
		attribution string
	)
	err := s.pool.QueryRow(ctx, query, runID).Scan(
		&r.RunID, &r.Address, &r.StartedAt, &r.PriceSymbol, &price, &attribution,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}

	r.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse run price: %w", err)
	}
	r.Attribution = domain.VolumeAttribution(attribution)
	return &r, nil
}

// InsertRows adds ranked rows atomically. Fails entire batch on any duplicate.
func (s *ReportStore) InsertRows(ctx context.Context, rows []*domain.ReportRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertRows(ctx, tx, rows); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// SaveReport inserts the run header and its rows in one transaction.
func (s *ReportStore) SaveReport(ctx context.Context, run *domain.RunRecord, rows []*domain.ReportRow) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}
	for _, r := range rows {
		if r == nil || r.RunID != run.RunID {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertRun(ctx, tx, run); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, rows); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insertRows(ctx context.Context, q execer, rows []*domain.ReportRow) error {
	query := `
		INSERT INTO report_rows (
			run_id, period, rank, generated_at,
			address, profit, trades, successful_trades,
			total_volume, average_trade_size, sol_balance, usd_profit
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12
		)
	`

	for _, r := range rows {
		_, err := q.Exec(ctx, query,
			r.RunID, r.Period, r.Rank, r.GeneratedAt,
			r.Address, r.Profit, r.Trades, r.SuccessfulTrades,
			r.TotalVolume, r.AverageTradeSize, r.SOLBalance, r.USDProfit,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			if isCheckViolation(err) {
				return fmt.Errorf("%w: %s rank %d: %v", storage.ErrInvalidInput, r.Period, r.Rank, err)
			}
			return fmt.Errorf("insert report row: %w", err)
		}
	}

	return nil
}

// GetRows retrieves rows of a run ordered by generated_at, period, rank ASC.
func (s *ReportStore) GetRows(ctx context.Context, runID string) ([]*domain.ReportRow, error) {
	query := `
		SELECT run_id, period, rank, generated_at,
			address, profit::text, trades, successful_trades,
			total_volume::text, average_trade_size::text, sol_balance::text, usd_profit::text
		FROM report_rows
		WHERE run_id = $1
		ORDER BY generated_at ASC, period ASC, rank ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query report rows: %w", err)
	}
	defer rows.Close()

	return scanReportRows(rows)
}

func scanReportRows(rows pgx.Rows) ([]*domain.ReportRow, error) {
	var result []*domain.ReportRow
	for rows.Next() {
		var (
			r                                              domain.ReportRow
			profit, volume, avgSize, balance, usdProfit string
		)
		err := rows.Scan(
			&r.RunID, &r.Period, &r.Rank, &r.GeneratedAt,
			&r.Address, &profit, &r.Trades, &r.SuccessfulTrades,
			&volume, &avgSize, &balance, &usdProfit,
		)
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}

		for _, f := range []struct {
			dst *decimal.Decimal
			src string
		}{
			{&r.Profit, profit},
			{&r.TotalVolume, volume},
			{&r.AverageTradeSize, avgSize},
			{&r.SOLBalance, balance},
			{&r.USDProfit, usdProfit},
		} {
			v, err := decimal.NewFromString(f.src)
			if err != nil {
				return nil, fmt.Errorf("parse amount %q: %w", f.src, err)
			}
			*f.dst = v
		}

		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}

	return result, nil
}
