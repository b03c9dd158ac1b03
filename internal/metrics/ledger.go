// Package metrics folds classified transactions into per-wallet trading
// statistics and ranks the result.
package metrics

import (
	"github.com/shopspring/decimal"

	"solana-top-traders/internal/classifier"
	"solana-top-traders/internal/domain"
	"solana-top-traders/internal/solana"
)

// Ledger maps wallet address to cumulative statistics for one window.
// It is not safe for concurrent use; the window loop is its only writer.
type Ledger struct {
	attribution domain.VolumeAttribution
	records     map[string]*domain.TraderRecord
	order       []string // first-seen order, keeps ranking ties stable
}

// NewLedger creates an empty ledger. An invalid attribution falls back to
// per-participant full credit.
func NewLedger(attribution domain.VolumeAttribution) *Ledger {
	if !attribution.IsValid() {
		attribution = domain.AttributionPerParticipantFull
	}
	return &Ledger{
		attribution: attribution,
		records:     make(map[string]*domain.TraderRecord),
	}
}

// Attribution returns the volume attribution policy in use.
func (l *Ledger) Attribution() domain.VolumeAttribution {
	return l.attribution
}

// Apply credits every owned, nonzero token balance change of tx to its
// owner's record and returns the events applied. tradeValue is the whole
// transaction's value in SOL, distributed per the attribution policy.
//
// Apply does not deduplicate: callers process each transaction at most once
// per window.
func (l *Ledger) Apply(tx *solana.Transaction, tradeValue decimal.Decimal) []domain.TradeEvent {
	deltas := classifier.TokenDeltas(tx)
	if len(deltas) == 0 {
		return nil
	}

	ts := tx.BlockTime * 1000
	events := make([]domain.TradeEvent, 0, len(deltas))
	for _, d := range deltas {
		ev := domain.TradeEvent{
			Wallet:      d.Owner,
			NativeDelta: d.Delta,
			GrossValue:  l.creditFor(d, len(deltas), tradeValue),
			Timestamp:   ts,
		}
		l.ApplyEvent(ev)
		events = append(events, ev)
	}
	return events
}

func (l *Ledger) creditFor(d classifier.TokenDelta, participants int, tradeValue decimal.Decimal) decimal.Decimal {
	switch l.attribution {
	case domain.AttributionSplitEvenly:
		return tradeValue.Div(decimal.NewFromInt(int64(participants)))
	case domain.AttributionSenderOnly:
		if d.Delta.IsNegative() {
			return tradeValue
		}
		return decimal.Zero
	default:
		return tradeValue
	}
}

// ApplyEvent folds a single event into the ledger.
func (l *Ledger) ApplyEvent(ev domain.TradeEvent) {
	rec, ok := l.records[ev.Wallet]
	if !ok {
		rec = &domain.TraderRecord{Address: ev.Wallet}
		l.records[ev.Wallet] = rec
		l.order = append(l.order, ev.Wallet)
	}

	rec.Profit = rec.Profit.Add(ev.NativeDelta)
	rec.Trades++
	rec.TotalVolume = rec.TotalVolume.Add(ev.GrossValue.Abs())
	if ev.NativeDelta.IsPositive() {
		rec.SuccessfulTrades++
	}
	rec.AverageTradeSize = rec.TotalVolume.Div(decimal.NewFromInt(int64(rec.Trades)))
}

// Len returns the number of wallets in the ledger.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Get returns a copy of the record for address.
func (l *Ledger) Get(address string) (*domain.TraderRecord, bool) {
	rec, ok := l.records[address]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Records returns copies of all records in first-seen order.
func (l *Ledger) Records() []*domain.TraderRecord {
	out := make([]*domain.TraderRecord, 0, len(l.order))
	for _, addr := range l.order {
		out = append(out, l.records[addr].Clone())
	}
	return out
}
