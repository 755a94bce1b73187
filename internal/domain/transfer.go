package domain

// TokenTransfer is one SPL token leg addressed to the watched account.
type TokenTransfer struct {
	Signature   string // transaction signature
	Mint        string // token mint address
	FromAccount string // sending owner account (may be empty)
	ToAccount   string // receiving owner account, always the watched address
	Amount      string // UI token amount as reported by the provider
	Creator     string // transaction fee payer, used as the sender proxy
}
