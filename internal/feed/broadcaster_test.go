package feed

import (
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-top-traders/internal/domain"
	"solana-top-traders/internal/reporting"
)

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var m Message
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func waitForClients(t *testing.T, b *Broadcaster, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return b.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func sampleReport() *reporting.WindowReport {
	return &reporting.WindowReport{
		Address:     "Program1111",
		Period:      "7d",
		PriceSymbol: "SOLUSDT",
		Price:       decimal.RequireFromString("150"),
		Traders: []*domain.TraderRecord{
			{Address: "walletA", Profit: decimal.NewFromInt(3), Trades: 3, SuccessfulTrades: 3},
		},
		Stats:      domain.WindowStats{TransactionsProcessed: 42, SignaturesSeen: 50},
		LedgerSize: 7,
	}
}

func TestBroadcaster_BroadcastsMessages(t *testing.T) {
	b := NewBroadcaster(log.New(io.Discard, "", 0))
	server := httptest.NewServer(b.Handler())
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()
	waitForClients(t, b, 1)

	b.Status("fetching 1/50")
	m := readMessage(t, conn)
	assert.Equal(t, TypeStatus, m.Type)
	assert.Equal(t, "fetching 1/50", m.Status)

	require.NoError(t, b.Snapshot(sampleReport()))
	m = readMessage(t, conn)
	assert.Equal(t, TypeSnapshot, m.Type)
	require.NotNil(t, m.Report)
	assert.Equal(t, 42, m.Report.Processed)

	require.NoError(t, b.Final(sampleReport()))
	m = readMessage(t, conn)
	assert.Equal(t, TypeFinal, m.Type)
	require.NotNil(t, m.Report)
	assert.Equal(t, "7d", m.Report.Period)
	assert.Equal(t, "150", m.Report.Price)
	require.Len(t, m.Report.Traders, 1)
	assert.Equal(t, "walletA", m.Report.Traders[0].Address)
	assert.Equal(t, "100.0", m.Report.Traders[0].WinRatePct)
	assert.Equal(t, 7, m.Report.Wallets)
}

func TestBroadcaster_ReplaysFinalToLateClient(t *testing.T) {
	b := NewBroadcaster(log.New(io.Discard, "", 0))
	server := httptest.NewServer(b.Handler())
	defer server.Close()

	require.NoError(t, b.Final(sampleReport()))
	b.Status("not replayed")

	conn := dial(t, server)
	defer conn.Close()

	m := readMessage(t, conn)
	assert.Equal(t, TypeFinal, m.Type)
	assert.Equal(t, "7d", m.Report.Period)
}

func TestBroadcaster_DropsClosedClients(t *testing.T) {
	b := NewBroadcaster(log.New(io.Discard, "", 0))
	server := httptest.NewServer(b.Handler())
	defer server.Close()

	conn := dial(t, server)
	waitForClients(t, b, 1)

	conn.Close()
	waitForClients(t, b, 0)

	// No clients left; broadcasting must not fail.
	b.Status("still fine")
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster(log.New(io.Discard, "", 0))
	server := httptest.NewServer(b.Handler())
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()
	waitForClients(t, b, 1)

	b.Close()
	assert.Equal(t, 0, b.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "expected normal close, got %v", err)
}
