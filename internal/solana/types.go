package solana

import "github.com/shopspring/decimal"

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// Timestamp returns the block time in Unix seconds, or 0 when unknown.
func (s SignatureInfo) Timestamp() int64 {
	if s.BlockTime == nil {
		return 0
	}
	return *s.BlockTime
}

// SignaturesOpts defines optional pagination parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // Start searching backwards from this signature
	Limit  int    // Maximum number of signatures to return
}

// TokenBalance is one entry of preTokenBalances / postTokenBalances.
type TokenBalance struct {
	AccountIndex  int
	Mint          string
	Owner         string
	UITokenAmount *UITokenAmount
}

// UITokenAmount carries the raw integer amount and its decimals.
type UITokenAmount struct {
	Amount   string // raw integer units
	Decimals int32
}

// Value returns the amount in display units. ok is false when the amount is
// missing or unparseable.
func (b *TokenBalance) Value() (v decimal.Decimal, ok bool) {
	if b == nil || b.UITokenAmount == nil || b.UITokenAmount.Amount == "" {
		return decimal.Zero, false
	}
	raw, err := decimal.NewFromString(b.UITokenAmount.Amount)
	if err != nil {
		return decimal.Zero, false
	}
	return raw.Shift(-b.UITokenAmount.Decimals), true
}

// LamportsToSOL converts lamports to SOL.
func LamportsToSOL(lamports int64) decimal.Decimal {
	return decimal.New(lamports, -9)
}
