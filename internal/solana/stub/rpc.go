package stub

import (
	"context"
	"errors"
	"sync"

	"spl-transfer-watch/internal/solana"
)

// ErrNotFound is returned when an account has no configured balance.
var ErrNotFound = errors.New("not found")

// RPCClient implements solana.RPCClient and solana.TransactionClient for testing.
// It is safe for concurrent use.
type RPCClient struct {
	mu           sync.Mutex
	Balances     map[string]uint64
	Transactions map[string]solana.ParsedTransaction

	// BalanceErr and TransactionsErr, when set, are returned by every call.
	BalanceErr      error
	TransactionsErr error

	BalanceCalls     []string
	TransactionCalls [][]string
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Balances:     make(map[string]uint64),
		Transactions: make(map[string]solana.ParsedTransaction),
	}
}

// GetBalance returns the configured lamport balance of account.
func (c *RPCClient) GetBalance(_ context.Context, account string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.BalanceCalls = append(c.BalanceCalls, account)
	if c.BalanceErr != nil {
		return 0, c.BalanceErr
	}
	lamports, ok := c.Balances[account]
	if !ok {
		return 0, ErrNotFound
	}
	return lamports, nil
}

// GetTransactions returns the configured transactions in request order,
// skipping unknown signatures.
func (c *RPCClient) GetTransactions(_ context.Context, signatures []string) ([]solana.ParsedTransaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.TransactionCalls = append(c.TransactionCalls, append([]string(nil), signatures...))
	if c.TransactionsErr != nil {
		return nil, c.TransactionsErr
	}

	var txs []solana.ParsedTransaction
	for _, sig := range signatures {
		if tx, ok := c.Transactions[sig]; ok {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

// AddTransaction adds a transaction to the stub store.
func (c *RPCClient) AddTransaction(tx solana.ParsedTransaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Transactions[tx.Signature] = tx
}

// SetBalance sets the lamport balance of an account.
func (c *RPCClient) SetBalance(account string, lamports uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Balances[account] = lamports
}

// BalanceCallCount returns how many GetBalance calls were made.
func (c *RPCClient) BalanceCallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.BalanceCalls)
}

// TransactionCallCount returns how many GetTransactions calls were made.
func (c *RPCClient) TransactionCallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.TransactionCalls)
}
