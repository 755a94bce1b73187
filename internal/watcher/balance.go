package watcher

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"spl-transfer-watch/internal/solana"
)

// BalanceOracle reports the current SOL balance of an account. Nothing is cached.
type BalanceOracle struct {
	rpc solana.RPCClient
}

// NewBalanceOracle creates a BalanceOracle backed by rpc.
func NewBalanceOracle(rpc solana.RPCClient) *BalanceOracle {
	return &BalanceOracle{rpc: rpc}
}

// Balance returns the balance of account in SOL.
func (o *BalanceOracle) Balance(ctx context.Context, account string) (decimal.Decimal, error) {
	lamports, err := o.rpc.GetBalance(ctx, account)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance of %s: %w", account, err)
	}
	return solana.LamportsToSOL(lamports), nil
}
