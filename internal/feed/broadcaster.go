// Package feed pushes progress lines and window reports to websocket clients.
package feed

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"solana-top-traders/internal/reporting"
)

// Message types.
const (
	TypeStatus   = "status"
	TypeSnapshot = "snapshot"
	TypeFinal    = "final"
)

const writeTimeout = 5 * time.Second

// Message is the JSON envelope sent to clients.
type Message struct {
	Type   string         `json:"type"`
	Status string         `json:"status,omitempty"`
	Report *ReportPayload `json:"report,omitempty"`
}

// ReportPayload is the wire form of a window report.
type ReportPayload struct {
	RunID       string                `json:"run_id,omitempty"`
	Address     string                `json:"address"`
	Period      string                `json:"period"`
	GeneratedAt time.Time             `json:"generated_at"`
	PriceSymbol string                `json:"price_symbol"`
	Price       string                `json:"price"`
	Traders     []reporting.TraderRow `json:"traders"`
	Processed   int                   `json:"transactions_processed"`
	Signatures  int                   `json:"signatures_seen"`
	Wallets     int                   `json:"wallets"`
}

func newPayload(r *reporting.WindowReport) *ReportPayload {
	return &ReportPayload{
		RunID:       r.RunID,
		Address:     r.Address,
		Period:      r.Period,
		GeneratedAt: r.GeneratedAt,
		PriceSymbol: r.PriceSymbol,
		Price:       r.Price.String(),
		Traders:     r.Rows(),
		Processed:   r.Stats.TransactionsProcessed,
		Signatures:  r.Stats.SignaturesSeen,
		Wallets:     r.LedgerSize,
	}
}

// Broadcaster is a reporting.Sink that fans messages out to every connected
// websocket client. Clients that fail a write are dropped.
type Broadcaster struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	last     map[string][]byte // latest final report per period, replayed on connect
	logger   *log.Logger
}

// NewBroadcaster creates a broadcaster. A nil logger uses log.Default().
func NewBroadcaster(logger *log.Logger) *Broadcaster {
	if logger == nil {
		logger = log.Default()
	}
	return &Broadcaster{
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		last:     make(map[string][]byte),
		logger:   logger,
	}
}

// Handler accepts websocket connections.
func (b *Broadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.logger.Printf("websocket upgrade error: %v", err)
			return
		}

		b.mu.Lock()
		for period, msg := range b.last {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				b.logger.Printf("websocket replay %s error: %v", period, err)
			}
		}
		b.clients[conn] = struct{}{}
		b.mu.Unlock()

		// Read until the client goes away so the connection is released.
		go func() {
			defer func() {
				b.mu.Lock()
				delete(b.clients, conn)
				b.mu.Unlock()
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// Clients returns the number of connected clients.
func (b *Broadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Status broadcasts a progress line.
func (b *Broadcaster) Status(line string) {
	b.broadcast(Message{Type: TypeStatus, Status: line}, "")
}

// Snapshot broadcasts an intermediate report.
func (b *Broadcaster) Snapshot(r *reporting.WindowReport) error {
	b.broadcast(Message{Type: TypeSnapshot, Report: newPayload(r)}, "")
	return nil
}

// Final broadcasts a completed report and keeps it for late joiners.
func (b *Broadcaster) Final(r *reporting.WindowReport) error {
	b.broadcast(Message{Type: TypeFinal, Report: newPayload(r)}, r.Period)
	return nil
}

func (b *Broadcaster) broadcast(m Message, keepAs string) {
	msg, err := json.Marshal(m)
	if err != nil {
		b.logger.Printf("failed to marshal %s message: %v", m.Type, err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if keepAs != "" {
		b.last[keepAs] = msg
	}
	for c := range b.clients {
		c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			b.logger.Printf("websocket write error: %v", err)
			c.Close()
			delete(b.clients, c)
		}
	}
}

// Close disconnects every client.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run complete"),
			time.Now().Add(time.Second))
		c.Close()
		delete(b.clients, c)
	}
}

var _ reporting.Sink = (*Broadcaster)(nil)
