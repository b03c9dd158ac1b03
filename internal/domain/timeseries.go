package domain

import (
	"fmt"
	"time"
)

// Window is a trailing time interval evaluated independently of other windows.
type Window struct {
	Label    string        `yaml:"label"`
	Duration time.Duration `yaml:"duration"`
}

// DefaultWindows returns the 24h, 7d and 30d windows.
func DefaultWindows() []Window {
	return []Window{
		{Label: "24h", Duration: 24 * time.Hour},
		{Label: "7d", Duration: 7 * 24 * time.Hour},
		{Label: "30d", Duration: 30 * 24 * time.Hour},
	}
}

// Cutoff returns the oldest Unix second still inside the window relative to now.
func (w Window) Cutoff(now time.Time) int64 {
	return now.Add(-w.Duration).Unix()
}

// Validate checks label and duration.
func (w Window) Validate() error {
	if w.Label == "" {
		return fmt.Errorf("window label is required")
	}
	if w.Duration <= 0 {
		return fmt.Errorf("window %s: duration must be positive", w.Label)
	}
	return nil
}

// WindowStats counts what happened while processing one window.
type WindowStats struct {
	SignaturesSeen        int
	TransactionsProcessed int
	TradesApplied         int
	FailedOnChain         int // signatures whose transaction failed on chain
	Skipped               int // malformed or non-trade transactions
	Errors                int // fetch/classify failures
	Duration              time.Duration
}
