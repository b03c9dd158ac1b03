package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-top-traders/internal/domain"
	"solana-top-traders/internal/solana"
	"solana-top-traders/internal/solana/stub"
)

const testAddress = "MonitoredProgram11111111111111111111111111"

var testNow = time.Unix(1_700_000_000, 0)

// seedSignatures adds n signatures spaced step apart, newest first, starting at start.
func seedSignatures(rpc *stub.RPCClient, n int, start time.Time, step time.Duration) {
	for i := 0; i < n; i++ {
		bt := start.Add(-time.Duration(i) * step).Unix()
		rpc.AddSignatures(testAddress, solana.SignatureInfo{
			Signature: fmt.Sprintf("sig-%04d", i),
			Slot:      int64(1_000_000 - i),
			BlockTime: &bt,
		})
	}
}

func newTestPaginator(rpc solana.RPCClient, pageSize, maxPerWindow int) *Paginator {
	return NewPaginator(PaginatorOptions{
		RPC:          rpc,
		PageSize:     pageSize,
		MaxPerWindow: maxPerWindow,
		Logger:       log.New(io.Discard, "", 0),
	})
}

func TestPaginator_EmptyFirstPage(t *testing.T) {
	rpc := stub.NewRPCClient()
	p := newTestPaginator(rpc, 50, 800)

	sigs, err := p.Paginate(context.Background(), testAddress, domain.Window{Label: "24h", Duration: 24 * time.Hour}, testNow)
	require.NoError(t, err)
	assert.Empty(t, sigs)
	assert.Equal(t, []int{50}, rpc.PageLimits, "expected exactly one page request")
}

func TestPaginator_WalksPagesWithCursor(t *testing.T) {
	rpc := stub.NewRPCClient()
	// 120 signatures one minute apart, all within 24h.
	seedSignatures(rpc, 120, testNow, time.Minute)
	p := newTestPaginator(rpc, 50, 800)

	sigs, err := p.Paginate(context.Background(), testAddress, domain.Window{Label: "24h", Duration: 24 * time.Hour}, testNow)
	require.NoError(t, err)
	require.Len(t, sigs, 120)

	for i, s := range sigs {
		assert.Equal(t, fmt.Sprintf("sig-%04d", i), s.Signature, "order must be preserved")
	}
	// 50 + 50 + 20, then an empty page ends history.
	assert.Equal(t, []int{50, 50, 50, 50}, rpc.PageLimits)
}

func TestPaginator_StopsAtWindowBoundary(t *testing.T) {
	rpc := stub.NewRPCClient()
	// One signature per hour: 0h..99h old.
	seedSignatures(rpc, 100, testNow, time.Hour)
	p := newTestPaginator(rpc, 10, 800)

	window := domain.Window{Label: "24h", Duration: 24 * time.Hour}
	sigs, err := p.Paginate(context.Background(), testAddress, window, testNow)
	require.NoError(t, err)

	// Ages 0h..24h inclusive are inside the window.
	require.Len(t, sigs, 25)
	cutoff := window.Cutoff(testNow)
	for _, s := range sigs {
		assert.GreaterOrEqual(t, s.Timestamp(), cutoff)
	}
	assert.Len(t, rpc.PageLimits, 3, "no page after the boundary page")
}

func TestPaginator_RespectsCap(t *testing.T) {
	rpc := stub.NewRPCClient()
	seedSignatures(rpc, 500, testNow, time.Second)
	p := newTestPaginator(rpc, 50, 120)

	sigs, err := p.Paginate(context.Background(), testAddress, domain.Window{Label: "24h", Duration: 24 * time.Hour}, testNow)
	require.NoError(t, err)
	assert.Len(t, sigs, 120)
	// Last page is shrunk so nothing is fetched beyond the cap.
	assert.Equal(t, []int{50, 50, 20}, rpc.PageLimits)
}

func TestPaginator_NilBlockTimeEndsWalk(t *testing.T) {
	rpc := stub.NewRPCClient()
	recent := testNow.Add(-time.Minute).Unix()
	rpc.AddSignatures(testAddress,
		solana.SignatureInfo{Signature: "a", BlockTime: &recent},
		solana.SignatureInfo{Signature: "b", BlockTime: nil},
		solana.SignatureInfo{Signature: "c", BlockTime: &recent},
	)
	seedSignatures(rpc, 10, testNow.Add(-2*time.Minute), time.Second)
	p := newTestPaginator(rpc, 3, 800)

	sigs, err := p.Paginate(context.Background(), testAddress, domain.Window{Label: "24h", Duration: 24 * time.Hour}, testNow)
	require.NoError(t, err)

	require.Len(t, sigs, 2)
	assert.Equal(t, "a", sigs[0].Signature)
	assert.Equal(t, "c", sigs[1].Signature)
	assert.Len(t, rpc.PageLimits, 1)
}

func TestPaginator_PropagatesError(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.PageErr = solana.ErrProviderUnavailable
	p := newTestPaginator(rpc, 50, 800)

	_, err := p.Paginate(context.Background(), testAddress, domain.Window{Label: "24h", Duration: 24 * time.Hour}, testNow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, solana.ErrProviderUnavailable))
}

func TestPaginator_Defaults(t *testing.T) {
	p := NewPaginator(PaginatorOptions{RPC: stub.NewRPCClient()})
	assert.Equal(t, DefaultPageSize, p.pageSize)
	assert.Equal(t, DefaultMaxPerWindow, p.maxPerWindow)
	assert.NotNil(t, p.logger)
}
