package clickhouse

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-top-traders/internal/domain"
	"solana-top-traders/internal/storage"
)

// ReportStore implements storage.ReportStore using ClickHouse.
// Tables use ReplacingMergeTree, so uniqueness is checked before insert.
type ReportStore struct {
	conn *Conn
}

// NewReportStore creates a new ReportStore.
func NewReportStore(conn *Conn) *ReportStore {
	return &ReportStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ReportStore = (*ReportStore)(nil)

// InsertRun records a run header. Returns ErrDuplicateKey if run_id exists.
func (s *ReportStore) InsertRun(ctx context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}
	if err := s.checkRunAbsent(ctx, r.RunID); err != nil {
		return err
	}
	return s.sendRun(ctx, r)
}

func (s *ReportStore) checkRunAbsent(ctx context.Context, runID string) error {
	var count uint64
	err := s.conn.QueryRow(ctx, "SELECT count() FROM runs WHERE run_id = ?", runID).Scan(&count)
	if err != nil {
		return fmt.Errorf("check run: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}
	return nil
}

func (s *ReportStore) sendRun(ctx context.Context, r *domain.RunRecord) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO runs (run_id, address, started_at, price_symbol, price, attribution)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	if err := batch.Append(
		r.RunID, r.Address, uint64(r.StartedAt), r.PriceSymbol, r.Price, string(r.Attribution),
	); err != nil {
		return fmt.Errorf("append run: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *ReportStore) GetRun(ctx context.Context, runID string) (*domain.RunRecord, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT run_id, address, started_at, price_symbol, price, attribution
		FROM runs FINAL
		WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate run: %w", err)
		}
		return nil, storage.ErrNotFound
	}

	var (
		r           domain.RunRecord
		startedAt   uint64
		price       decimal.Decimal
		attribution string
	)
	if err := rows.Scan(&r.RunID, &r.Address, &startedAt, &r.PriceSymbol, &price, &attribution); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.StartedAt = int64(startedAt)
	r.Price = price
	r.Attribution = domain.VolumeAttribution(attribution)
	return &r, nil
}

// InsertRows adds ranked rows in one batch. Fails entire batch on any
// duplicate (run_id, period, rank), existing or intra-batch.
func (s *ReportStore) InsertRows(ctx context.Context, rows []*domain.ReportRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.checkRows(ctx, rows); err != nil {
		return err
	}
	return s.sendRows(ctx, rows)
}

// SaveReport checks the run and every row, then sends the rows before the
// header. ClickHouse has no transactions; readers treat a run as stored
// once its header exists, and a failed row batch leaves no header behind.
func (s *ReportStore) SaveReport(ctx context.Context, run *domain.RunRecord, rows []*domain.ReportRow) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}
	for _, r := range rows {
		if r == nil || r.RunID != run.RunID {
			return storage.ErrInvalidInput
		}
	}

	if err := s.checkRunAbsent(ctx, run.RunID); err != nil {
		return err
	}
	if len(rows) > 0 {
		if err := s.checkRows(ctx, rows); err != nil {
			return err
		}
		if err := s.sendRows(ctx, rows); err != nil {
			return err
		}
	}
	return s.sendRun(ctx, run)
}

// checkRows rejects invalid rows and keys already stored or repeated in rows.
func (s *ReportStore) checkRows(ctx context.Context, rows []*domain.ReportRow) error {
	batchKeys := make(map[string]struct{}, len(rows))
	runIDs := make(map[string]struct{})
	for _, r := range rows {
		if r == nil || r.RunID == "" || r.Period == "" || r.Rank < 1 {
			return storage.ErrInvalidInput
		}
		key := reportRowKey(r.RunID, r.Period, r.Rank)
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
		runIDs[r.RunID] = struct{}{}
	}

	for runID := range runIDs {
		existing, err := s.existingKeys(ctx, runID)
		if err != nil {
			return err
		}
		for key := range existing {
			if _, clash := batchKeys[key]; clash {
				return storage.ErrDuplicateKey
			}
		}
	}
	return nil
}

func (s *ReportStore) sendRows(ctx context.Context, rows []*domain.ReportRow) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO report_rows (
			run_id, period, rank, generated_at,
			address, profit, trades, successful_trades,
			total_volume, average_trade_size, sol_balance, usd_profit
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		err := batch.Append(
			r.RunID, r.Period, uint16(r.Rank), uint64(r.GeneratedAt),
			r.Address, r.Profit, uint32(r.Trades), uint32(r.SuccessfulTrades),
			r.TotalVolume, r.AverageTradeSize, r.SOLBalance, r.USDProfit,
		)
		if err != nil {
			return fmt.Errorf("append report row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetRows retrieves rows of a run ordered by generated_at, period, rank ASC.
func (s *ReportStore) GetRows(ctx context.Context, runID string) ([]*domain.ReportRow, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT run_id, period, rank, generated_at,
			address, profit, trades, successful_trades,
			total_volume, average_trade_size, sol_balance, usd_profit
		FROM report_rows FINAL
		WHERE run_id = ?
		ORDER BY generated_at ASC, period ASC, rank ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query report rows: %w", err)
	}
	defer rows.Close()

	var result []*domain.ReportRow
	for rows.Next() {
		var (
			r                 domain.ReportRow
			rank              uint16
			generatedAt       uint64
			trades, successes uint32
		)
		err := rows.Scan(
			&r.RunID, &r.Period, &rank, &generatedAt,
			&r.Address, &r.Profit, &trades, &successes,
			&r.TotalVolume, &r.AverageTradeSize, &r.SOLBalance, &r.USDProfit,
		)
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		r.Rank = int(rank)
		r.GeneratedAt = int64(generatedAt)
		r.Trades = int(trades)
		r.SuccessfulTrades = int(successes)
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}
	return result, nil
}

func (s *ReportStore) existingKeys(ctx context.Context, runID string) (map[string]struct{}, error) {
	rows, err := s.conn.Query(ctx, "SELECT period, rank FROM report_rows WHERE run_id = ?", runID)
	if err != nil {
		return nil, fmt.Errorf("query existing rows: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var (
			period string
			rank   uint16
		)
		if err := rows.Scan(&period, &rank); err != nil {
			return nil, fmt.Errorf("scan existing row: %w", err)
		}
		keys[reportRowKey(runID, period, int(rank))] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate existing rows: %w", err)
	}
	return keys, nil
}

func reportRowKey(runID, period string, rank int) string {
	return fmt.Sprintf("%s|%s|%d", runID, period, rank)
}
