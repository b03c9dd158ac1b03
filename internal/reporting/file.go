package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSink collects final reports and writes report.md and report.csv to a
// directory on Close. Snapshots and status lines are ignored.
type FileSink struct {
	mu      sync.Mutex
	dir     string
	reports []*WindowReport
}

// NewFileSink creates a sink writing into dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Status is a no-op.
func (f *FileSink) Status(string) {}

// Snapshot is a no-op.
func (f *FileSink) Snapshot(*WindowReport) error { return nil }

// Final records r for output.
func (f *FileSink) Final(r *WindowReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, r)
	return nil
}

// Close writes the collected reports.
func (f *FileSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	mdPath := filepath.Join(f.dir, "report.md")
	if err := os.WriteFile(mdPath, []byte(RenderMarkdown(f.reports)), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}

	csvPath := filepath.Join(f.dir, "report.csv")
	if err := os.WriteFile(csvPath, []byte(RenderCSV(f.reports)), 0o644); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	return nil
}

var _ Sink = (*FileSink)(nil)
