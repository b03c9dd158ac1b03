package solana

import "context"

// RPCClient defines the Solana RPC methods the pipeline needs.
type RPCClient interface {
	// GetTransaction retrieves a transaction by signature. Returns nil, nil when not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSignaturesForAddress retrieves signatures for an address with pagination,
	// newest first.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetBalance retrieves the account balance in lamports.
	GetBalance(ctx context.Context, address string) (uint64, error)
}

// Transaction represents a Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err               interface{}
	PreBalances       []uint64
	PostBalances      []uint64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
}
