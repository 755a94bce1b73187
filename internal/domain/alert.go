package domain

import "github.com/shopspring/decimal"

// Alert is one notification derived from a TokenTransfer and the creator's
// SOL balance at resolution time.
type Alert struct {
	Transfer   TokenTransfer
	SOLBalance decimal.Decimal
}
