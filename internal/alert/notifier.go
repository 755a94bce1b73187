// Package alert renders transfer alerts and delivers them to a chat.
package alert

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"spl-transfer-watch/internal/domain"
	"spl-transfer-watch/internal/observability"
)

// DefaultExplorerURL is the account link prefix appended with the creator.
const DefaultExplorerURL = "https://solscan.io/account/"

// DefaultThreshold is the SOL balance at or above which a creator passes.
var DefaultThreshold = decimal.NewFromInt(10000)

// Sender delivers plain text to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Notifier turns alerts into chat messages.
type Notifier struct {
	sender      Sender
	chatID      string
	threshold   decimal.Decimal
	explorerURL string
	logger      *zap.Logger
}

// NotifierOptions contains configuration for creating a Notifier.
type NotifierOptions struct {
	Sender      Sender
	ChatID      string
	Threshold   *decimal.Decimal // nil means DefaultThreshold; zero is a valid threshold
	ExplorerURL string           // Default: solscan account page
	Logger      *zap.Logger
}

// NewNotifier creates a new Notifier.
func NewNotifier(opts NotifierOptions) *Notifier {
	threshold := DefaultThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}

	explorerURL := opts.ExplorerURL
	if explorerURL == "" {
		explorerURL = DefaultExplorerURL
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Notifier{
		sender:      opts.Sender,
		chatID:      opts.ChatID,
		threshold:   threshold,
		explorerURL: explorerURL,
		logger:      logger.Named("notifier"),
	}
}

// StatusFor classifies a creator balance against threshold.
func StatusFor(balance, threshold decimal.Decimal) domain.Status {
	if balance.GreaterThanOrEqual(threshold) {
		return domain.StatusPass
	}
	return domain.StatusFail
}

// Format renders the alert text.
func Format(a domain.Alert, status domain.Status, explorerURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s New SPL token received\n\n", status.Glyph())
	fmt.Fprintf(&b, "Mint:\n%s\n\n", a.Transfer.Mint)
	fmt.Fprintf(&b, "Creator:\n%s\n\n", a.Transfer.Creator)
	fmt.Fprintf(&b, "SOL balance: %s SOL\n\n", a.SOLBalance.StringFixed(2))
	b.WriteString(explorerURL)
	b.WriteString(a.Transfer.Creator)
	return b.String()
}

// Notify sends one alert. Delivery failures are logged and counted, not returned.
func (n *Notifier) Notify(ctx context.Context, a domain.Alert) {
	status := StatusFor(a.SOLBalance, n.threshold)
	text := Format(a, status, n.explorerURL)

	fields := []zap.Field{
		zap.String("signature", a.Transfer.Signature),
		zap.String("mint", a.Transfer.Mint),
		zap.String("creator", a.Transfer.Creator),
		zap.String("balance", a.SOLBalance.StringFixed(2)),
		zap.Stringer("status", status),
	}

	if err := n.sender.SendMessage(ctx, n.chatID, text); err != nil {
		observability.RecordDeliveryError()
		n.logger.Error("alert delivery failed", append(fields, zap.Error(err))...)
		return
	}

	observability.RecordAlertSent(status.String())
	n.logger.Info("alert sent", fields...)
}
