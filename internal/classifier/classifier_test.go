package classifier

import (
	"testing"

	"github.com/shopspring/decimal"

	"solana-top-traders/internal/solana"
)

func tokenBalance(owner, amount string, decimals int32) solana.TokenBalance {
	return solana.TokenBalance{
		Mint:          "mintA",
		Owner:         owner,
		UITokenAmount: &solana.UITokenAmount{Amount: amount, Decimals: decimals},
	}
}

func TestIsTrade(t *testing.T) {
	c := New(decimal.Zero)

	tests := []struct {
		name string
		tx   *solana.Transaction
		want bool
	}{
		{
			name: "nil transaction",
			tx:   nil,
			want: false,
		},
		{
			name: "nil meta",
			tx:   &solana.Transaction{Signature: "s"},
			want: false,
		},
		{
			name: "missing token balance lists",
			tx:   &solana.Transaction{Meta: &solana.TransactionMeta{}},
			want: false,
		},
		{
			name: "missing post list",
			tx: &solana.Transaction{Meta: &solana.TransactionMeta{
				PreTokenBalances: []solana.TokenBalance{tokenBalance("w1", "100", 0)},
			}},
			want: false,
		},
		{
			name: "unchanged amounts",
			tx: &solana.Transaction{Meta: &solana.TransactionMeta{
				PreTokenBalances:  []solana.TokenBalance{tokenBalance("w1", "100", 0)},
				PostTokenBalances: []solana.TokenBalance{tokenBalance("w1", "100", 0)},
			}},
			want: false,
		},
		{
			name: "changed amount",
			tx: &solana.Transaction{Meta: &solana.TransactionMeta{
				PreTokenBalances:  []solana.TokenBalance{tokenBalance("w1", "100", 0)},
				PostTokenBalances: []solana.TokenBalance{tokenBalance("w1", "90", 0)},
			}},
			want: true,
		},
		{
			name: "change without owner ignored",
			tx: &solana.Transaction{Meta: &solana.TransactionMeta{
				PreTokenBalances:  []solana.TokenBalance{tokenBalance("", "100", 0)},
				PostTokenBalances: []solana.TokenBalance{tokenBalance("w1", "90", 0)},
			}},
			want: false,
		},
		{
			name: "unparseable amount ignored",
			tx: &solana.Transaction{Meta: &solana.TransactionMeta{
				PreTokenBalances:  []solana.TokenBalance{tokenBalance("w1", "abc", 0)},
				PostTokenBalances: []solana.TokenBalance{tokenBalance("w1", "90", 0)},
			}},
			want: false,
		},
		{
			name: "missing ui amount ignored",
			tx: &solana.Transaction{Meta: &solana.TransactionMeta{
				PreTokenBalances:  []solana.TokenBalance{{Owner: "w1"}},
				PostTokenBalances: []solana.TokenBalance{tokenBalance("w1", "90", 0)},
			}},
			want: false,
		},
		{
			name: "second pair changed",
			tx: &solana.Transaction{Meta: &solana.TransactionMeta{
				PreTokenBalances:  []solana.TokenBalance{tokenBalance("w1", "100", 0), tokenBalance("w2", "5", 0)},
				PostTokenBalances: []solana.TokenBalance{tokenBalance("w1", "100", 0), tokenBalance("w2", "7", 0)},
			}},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsTrade(tt.tx); got != tt.want {
				t.Errorf("IsTrade() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTradeValue(t *testing.T) {
	c := New(DefaultDustThreshold)

	tests := []struct {
		name string
		pre  []uint64
		post []uint64
		want string
	}{
		{"no balances", nil, nil, "0"},
		{"fee only", []uint64{1_000_000_000}, []uint64{999_995_000}, "0"},
		{"exactly dust not counted", []uint64{1_000_000_000}, []uint64{999_000_000}, "0"},
		{"single transfer", []uint64{3_000_000_000, 1_000_000_000}, []uint64{1_500_000_000, 2_499_995_000}, "2.999995"},
		{"mixed dust and trade", []uint64{2_000_000_000, 500, 10}, []uint64{1_800_000_000, 600, 10}, "0.2"},
		{"mismatched lengths use common prefix", []uint64{2_000_000_000, 1}, []uint64{1_000_000_000}, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &solana.Transaction{Meta: &solana.TransactionMeta{PreBalances: tt.pre, PostBalances: tt.post}}
			got := c.TradeValue(tx)
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("TradeValue() = %s, want %s", got, want)
			}
			if got.IsNegative() {
				t.Errorf("TradeValue() must not be negative, got %s", got)
			}
		})
	}
}

func TestTradeValue_NilMeta(t *testing.T) {
	c := New(DefaultDustThreshold)
	if got := c.TradeValue(&solana.Transaction{}); !got.IsZero() {
		t.Errorf("expected 0 for missing meta, got %s", got)
	}
	if got := c.TradeValue(nil); !got.IsZero() {
		t.Errorf("expected 0 for nil transaction, got %s", got)
	}
}

func TestNew_DefaultThreshold(t *testing.T) {
	c := New(decimal.Zero)
	if !c.DustThreshold().Equal(decimal.RequireFromString("0.001")) {
		t.Errorf("expected default threshold 0.001, got %s", c.DustThreshold())
	}
}

func TestTokenDeltas(t *testing.T) {
	tx := &solana.Transaction{Meta: &solana.TransactionMeta{
		PreTokenBalances: []solana.TokenBalance{
			tokenBalance("walletA", "1000000", 6),
			tokenBalance("walletB", "9000000", 6),
			tokenBalance("walletC", "1", 0),
			tokenBalance("", "1", 0),
		},
		PostTokenBalances: []solana.TokenBalance{
			tokenBalance("walletA", "6000000", 6),
			tokenBalance("walletB", "4000000", 6),
			tokenBalance("walletC", "1", 0),
			tokenBalance("", "2", 0),
		},
	}}

	deltas := TokenDeltas(tx)
	if len(deltas) != 2 {
		t.Fatalf("expected 2 deltas, got %d: %+v", len(deltas), deltas)
	}
	if deltas[0].Owner != "walletA" || !deltas[0].Delta.Equal(decimal.NewFromInt(5)) {
		t.Errorf("unexpected first delta: %+v", deltas[0])
	}
	if deltas[1].Owner != "walletB" || !deltas[1].Delta.Equal(decimal.NewFromInt(-5)) {
		t.Errorf("unexpected second delta: %+v", deltas[1])
	}
	if deltas[0].Mint != "mintA" {
		t.Errorf("expected mint carried, got %q", deltas[0].Mint)
	}
}

func TestTokenDeltas_AgreesWithIsTrade(t *testing.T) {
	c := New(DefaultDustThreshold)

	tests := []struct {
		name string
		pre  []solana.TokenBalance
		post []solana.TokenBalance
		want int
	}{
		{
			name: "owner missing after",
			pre:  []solana.TokenBalance{tokenBalance("walletA", "10", 0)},
			post: []solana.TokenBalance{tokenBalance("", "4", 0)},
			want: 0,
		},
		{
			name: "owner missing before",
			pre:  []solana.TokenBalance{tokenBalance("", "10", 0)},
			post: []solana.TokenBalance{tokenBalance("walletA", "4", 0)},
			want: 0,
		},
		{
			name: "one owned pair among unowned",
			pre:  []solana.TokenBalance{tokenBalance("", "10", 0), tokenBalance("walletB", "1", 0)},
			post: []solana.TokenBalance{tokenBalance("", "4", 0), tokenBalance("walletB", "7", 0)},
			want: 1,
		},
		{
			name: "unchanged",
			pre:  []solana.TokenBalance{tokenBalance("walletA", "10", 0)},
			post: []solana.TokenBalance{tokenBalance("walletA", "10", 0)},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &solana.Transaction{Meta: &solana.TransactionMeta{
				PreTokenBalances:  tt.pre,
				PostTokenBalances: tt.post,
			}}

			deltas := TokenDeltas(tx)
			if len(deltas) != tt.want {
				t.Fatalf("expected %d deltas, got %+v", tt.want, deltas)
			}
			if got := c.IsTrade(tx); got != (tt.want > 0) {
				t.Errorf("IsTrade = %v but TokenDeltas returned %d deltas", got, len(deltas))
			}
		})
	}
}
