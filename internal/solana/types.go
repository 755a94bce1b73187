package solana

import (
	"encoding/json"
	"math/big"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// lamportsExp is log10(LamportsPerSOL).
const lamportsExp = -9

// LamportsToSOL converts a lamport amount to an exact SOL decimal.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), lamportsExp)
}

// ParsedTransaction is one entry of the enhanced transactions API response.
type ParsedTransaction struct {
	Signature      string          `json:"signature"`
	Slot           int64           `json:"slot"`
	Timestamp      int64           `json:"timestamp"`
	Type           string          `json:"type"`
	FeePayer       string          `json:"feePayer"`
	TokenTransfers []TokenTransfer `json:"tokenTransfers"`
}

// TokenTransfer is one SPL token movement inside a parsed transaction.
type TokenTransfer struct {
	FromUserAccount  string      `json:"fromUserAccount"`
	ToUserAccount    string      `json:"toUserAccount"`
	FromTokenAccount string      `json:"fromTokenAccount"`
	ToTokenAccount   string      `json:"toTokenAccount"`
	TokenAmount      json.Number `json:"tokenAmount"`
	Mint             string      `json:"mint"`
}
