package stub

import (
	"context"
	"sync"

	"solana-top-traders/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
// Signatures are stored newest first, matching the provider's ordering.
type RPCClient struct {
	mu           sync.Mutex
	Transactions map[string]*solana.Transaction
	Signatures   map[string][]solana.SignatureInfo
	Balances     map[string]uint64

	// TxErrors makes GetTransaction fail for the given signature.
	TxErrors map[string]error
	// PageErr, when set, is returned by every GetSignaturesForAddress call.
	PageErr error

	// Requested page limits in call order.
	PageLimits []int
	// Number of GetTransaction and GetBalance calls.
	TxCalls      int
	BalanceCalls int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Transactions: make(map[string]*solana.Transaction),
		Signatures:   make(map[string][]solana.SignatureInfo),
		Balances:     make(map[string]uint64),
		TxErrors:     make(map[string]error),
	}
}

// GetTransaction retrieves a transaction by signature from the stub store.
// Unknown signatures return nil, nil like the real provider.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.TxCalls++
	if err, ok := c.TxErrors[signature]; ok {
		return nil, err
	}
	return c.Transactions[signature], nil
}

// GetSignaturesForAddress returns the page of signatures strictly older than
// opts.Before, honoring opts.Limit.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	limit := 0
	before := ""
	if opts != nil {
		limit = opts.Limit
		before = opts.Before
	}
	c.PageLimits = append(c.PageLimits, limit)

	if c.PageErr != nil {
		return nil, c.PageErr
	}

	sigs := c.Signatures[address]
	start := 0
	if before != "" {
		start = len(sigs)
		for i, s := range sigs {
			if s.Signature == before {
				start = i + 1
				break
			}
		}
	}
	if start >= len(sigs) {
		return nil, nil
	}

	end := len(sigs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	page := make([]solana.SignatureInfo, end-start)
	copy(page, sigs[start:end])
	return page, nil
}

// GetBalance returns the stored balance, or 0 for unknown addresses.
func (c *RPCClient) GetBalance(_ context.Context, address string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.BalanceCalls++
	return c.Balances[address], nil
}

// AddTransaction adds a transaction to the stub store.
func (c *RPCClient) AddTransaction(tx *solana.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Transactions[tx.Signature] = tx
}

// AddSignatures appends signatures for an address. Callers add them newest first.
func (c *RPCClient) AddSignatures(address string, sigs ...solana.SignatureInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Signatures[address] = append(c.Signatures[address], sigs...)
}

// SetBalance sets the balance returned for address.
func (c *RPCClient) SetBalance(address string, lamports uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Balances[address] = lamports
}

var _ solana.RPCClient = (*RPCClient)(nil)
