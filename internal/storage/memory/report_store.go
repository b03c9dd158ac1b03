package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"solana-top-traders/internal/domain"
	"solana-top-traders/internal/storage"
)

// ReportStore is an in-memory implementation of storage.ReportStore.
type ReportStore struct {
	mu   sync.RWMutex
	runs map[string]*domain.RunRecord
	rows map[string]*domain.ReportRow // keyed by run_id|period|rank
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{
		runs: make(map[string]*domain.RunRecord),
		rows: make(map[string]*domain.ReportRow),
	}
}

// Compile-time interface check.
var _ storage.ReportStore = (*ReportStore)(nil)

func rowKey(r *domain.ReportRow) string {
	return r.RunID + "|" + r.Period + "|" + strconv.Itoa(r.Rank)
}

// InsertRun records a run header. Returns ErrDuplicateKey if run_id exists.
func (s *ReportStore) InsertRun(_ context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.runs[r.RunID] = &copy
	return nil
}

// GetRun retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *ReportStore) GetRun(_ context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *r
	return &copy, nil
}

// InsertRows adds ranked rows atomically. Fails entire batch on any duplicate.
func (s *ReportStore) InsertRows(_ context.Context, rows []*domain.ReportRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRowsLocked(rows); err != nil {
		return err
	}
	s.putRowsLocked(rows)
	return nil
}

// SaveReport stores the run header and its rows in one step.
func (s *ReportStore) SaveReport(_ context.Context, run *domain.RunRecord, rows []*domain.ReportRow) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}
	for _, r := range rows {
		if r == nil || r.RunID != run.RunID {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}
	if err := s.checkRowsLocked(rows); err != nil {
		return err
	}

	copy := *run
	s.runs[run.RunID] = &copy
	s.putRowsLocked(rows)
	return nil
}

// checkRowsLocked validates rows and rejects keys already stored or repeated
// within the batch. Caller holds mu.
func (s *ReportStore) checkRowsLocked(rows []*domain.ReportRow) error {
	batchKeys := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r == nil || r.RunID == "" || r.Period == "" || r.Rank < 1 {
			return storage.ErrInvalidInput
		}
		key := rowKey(r)
		if _, exists := s.rows[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}
	return nil
}

func (s *ReportStore) putRowsLocked(rows []*domain.ReportRow) {
	for _, r := range rows {
		copy := *r
		s.rows[rowKey(r)] = &copy
	}
}

// GetRows retrieves rows of a run ordered by generated_at, period, rank ASC.
func (s *ReportStore) GetRows(_ context.Context, runID string) ([]*domain.ReportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ReportRow
	for _, r := range s.rows {
		if r.RunID == runID {
			copy := *r
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].GeneratedAt != result[j].GeneratedAt {
			return result[i].GeneratedAt < result[j].GeneratedAt
		}
		if result[i].Period != result[j].Period {
			return result[i].Period < result[j].Period
		}
		return result[i].Rank < result[j].Rank
	})

	return result, nil
}
