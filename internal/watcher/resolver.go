package watcher

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"spl-transfer-watch/internal/domain"
	"spl-transfer-watch/internal/observability"
	"spl-transfer-watch/internal/solana"
)

// BalanceSource returns an account's balance in SOL.
type BalanceSource interface {
	Balance(ctx context.Context, account string) (decimal.Decimal, error)
}

// AlertSink delivers one alert. It owns its own failure handling.
type AlertSink interface {
	Notify(ctx context.Context, a domain.Alert)
}

// Resolver turns a transaction signature into alerts for transfers
// received by the watched address.
type Resolver struct {
	transactions solana.TransactionClient
	balances     BalanceSource
	notifier     AlertSink
	watched      string
	logger       *zap.Logger
}

// ResolverOptions contains configuration for creating a Resolver.
type ResolverOptions struct {
	Transactions   solana.TransactionClient
	Balances       BalanceSource
	Notifier       AlertSink
	WatchedAddress string
	Logger         *zap.Logger
}

// NewResolver creates a new Resolver.
func NewResolver(opts ResolverOptions) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		transactions: opts.Transactions,
		balances:     opts.Balances,
		notifier:     opts.Notifier,
		watched:      opts.WatchedAddress,
		logger:       logger.Named("resolver"),
	}
}

// MatchTransfers returns the token transfers of tx destined to watched, in
// transaction order. The fee payer is recorded as each transfer's creator.
func MatchTransfers(tx solana.ParsedTransaction, watched string) []domain.TokenTransfer {
	var matched []domain.TokenTransfer
	for _, t := range tx.TokenTransfers {
		if t.ToUserAccount != watched {
			continue
		}
		matched = append(matched, domain.TokenTransfer{
			Signature:   tx.Signature,
			Mint:        t.Mint,
			FromAccount: t.FromUserAccount,
			ToAccount:   t.ToUserAccount,
			Amount:      t.TokenAmount.String(),
			Creator:     tx.FeePayer,
		})
	}
	return matched
}

// Resolve fetches signature's parsed transaction and raises one alert per
// matching transfer. Every failure is logged and ends only the work it
// affects; nothing is retried.
func (r *Resolver) Resolve(ctx context.Context, signature string) {
	log := r.logger.With(zap.String("signature", signature))

	txs, err := r.transactions.GetTransactions(ctx, []string{signature})
	if err != nil {
		observability.RecordResolutionError("transaction")
		log.Warn("fetch transaction failed", zap.Error(err))
		return
	}
	if len(txs) == 0 {
		observability.RecordResolutionError("empty")
		log.Debug("no transaction detail returned")
		return
	}

	tx := txs[0]
	if tx.Signature == "" {
		tx.Signature = signature
	}

	transfers := MatchTransfers(tx, r.watched)
	if len(transfers) == 0 {
		log.Debug("no transfers to watched address", zap.Int("token_transfers", len(tx.TokenTransfers)))
		return
	}

	for _, transfer := range transfers {
		if transfer.Mint == "" || transfer.Creator == "" {
			observability.RecordResolutionError("malformed")
			log.Warn("transfer missing mint or fee payer",
				zap.String("mint", transfer.Mint),
				zap.String("creator", transfer.Creator))
			continue
		}
		observability.RecordTransferMatched()

		balance, err := r.balances.Balance(ctx, transfer.Creator)
		if err != nil {
			observability.RecordResolutionError("balance")
			log.Warn("creator balance lookup failed",
				zap.String("mint", transfer.Mint),
				zap.String("creator", transfer.Creator),
				zap.Error(err))
			continue
		}

		r.notifier.Notify(ctx, domain.Alert{Transfer: transfer, SOLBalance: balance})
	}
}
