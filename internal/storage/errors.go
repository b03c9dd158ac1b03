package storage

import "errors"

// Report archive errors. Archived runs and rows are write-once.
var (
	// ErrNotFound is returned when a run does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a run_id or a (run_id, period, rank)
	// row is written twice.
	ErrDuplicateKey = errors.New("duplicate key: archived reports are write-once")

	// ErrInvalidInput is returned for rows that break the report table constraints,
	// such as a zero rank or more successful trades than trades.
	ErrInvalidInput = errors.New("invalid input")
)
