package ingestion

import (
	"context"
	"fmt"
	"log"
	"time"

	"solana-top-traders/internal/domain"
	"solana-top-traders/internal/solana"
)

// Default pagination limits.
const (
	DefaultPageSize     = 50
	DefaultMaxPerWindow = 800
)

// Paginator walks the signature history of an address backwards in time.
type Paginator struct {
	rpc          solana.RPCClient
	pageSize     int
	maxPerWindow int
	logger       *log.Logger
}

// PaginatorOptions contains configuration for creating a Paginator.
type PaginatorOptions struct {
	RPC          solana.RPCClient
	PageSize     int
	MaxPerWindow int
	Logger       *log.Logger
}

// NewPaginator creates a new signature paginator.
func NewPaginator(opts PaginatorOptions) *Paginator {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	maxPerWindow := opts.MaxPerWindow
	if maxPerWindow <= 0 {
		maxPerWindow = DefaultMaxPerWindow
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Paginator{
		rpc:          opts.RPC,
		pageSize:     pageSize,
		maxPerWindow: maxPerWindow,
		logger:       logger,
	}
}

// Paginate returns the signatures of address that fall inside window as seen
// from now, newest first, capped at the per-window limit.
//
// The walk stops on an empty page, on the first page holding an entry older
// than the window boundary, or when the per-window cap is reached. A
// signature without a block time counts as timestamp 0 and therefore ends
// the walk.
func (p *Paginator) Paginate(ctx context.Context, address string, window domain.Window, now time.Time) ([]solana.SignatureInfo, error) {
	cutoff := window.Cutoff(now)

	var (
		result []solana.SignatureInfo
		before string
		pages  int
	)

	for len(result) < p.maxPerWindow {
		limit := p.pageSize
		if remaining := p.maxPerWindow - len(result); remaining < limit {
			limit = remaining
		}

		page, err := p.rpc.GetSignaturesForAddress(ctx, address, &solana.SignaturesOpts{
			Before: before,
			Limit:  limit,
		})
		if err != nil {
			return result, fmt.Errorf("get signatures page %d: %w", pages+1, err)
		}
		pages++

		if len(page) == 0 {
			break
		}

		// Providers may return more than asked for.
		if len(page) > limit {
			page = page[:limit]
		}

		// Pages are newest first, so any entry past the boundary means
		// history beyond this page is out of the window too.
		kept := inWindow(page, cutoff)
		result = append(result, kept...)
		if len(kept) < len(page) {
			break
		}

		before = page[len(page)-1].Signature
	}

	p.logger.Printf("Paginated %s window %s: %d signatures in %d pages", address, window.Label, len(result), pages)
	return result, nil
}

// inWindow keeps the entries whose timestamp is not older than cutoff.
func inWindow(page []solana.SignatureInfo, cutoff int64) []solana.SignatureInfo {
	kept := make([]solana.SignatureInfo, 0, len(page))
	for _, s := range page {
		if s.Timestamp() >= cutoff {
			kept = append(kept, s)
		}
	}
	return kept
}
