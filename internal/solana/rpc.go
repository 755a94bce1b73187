package solana

import "context"

// RPCClient defines the Solana JSON-RPC HTTP interface used by the watcher.
type RPCClient interface {
	// GetBalance returns the balance of an account in lamports.
	GetBalance(ctx context.Context, account string) (uint64, error)
}

// TransactionClient defines the parsed-transaction (enhanced) API interface.
type TransactionClient interface {
	// GetTransactions returns parsed transactions for the given signatures.
	// An empty slice means the provider knows nothing about them.
	GetTransactions(ctx context.Context, signatures []string) ([]ParsedTransaction, error)
}
