package alert

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"spl-transfer-watch/internal/domain"
)

type sentMessage struct {
	chatID string
	text   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return f.err
}

func TestStatusFor(t *testing.T) {
	threshold := decimal.NewFromInt(10000)

	tests := []struct {
		balance string
		want    domain.Status
	}{
		{"0", domain.StatusFail},
		{"9999.999999999", domain.StatusFail},
		{"10000", domain.StatusPass},
		{"10000.000000001", domain.StatusPass},
		{"15000", domain.StatusPass},
	}

	for _, tt := range tests {
		t.Run(tt.balance, func(t *testing.T) {
			got := StatusFor(decimal.RequireFromString(tt.balance), threshold)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	a := domain.Alert{
		Transfer: domain.TokenTransfer{
			Signature: "SIG1",
			Mint:      "MINT1",
			Creator:   "CREATOR1",
		},
		SOLBalance: decimal.NewFromInt(15000),
	}

	want := "✅ New SPL token received\n\n" +
		"Mint:\nMINT1\n\n" +
		"Creator:\nCREATOR1\n\n" +
		"SOL balance: 15000.00 SOL\n\n" +
		"https://solscan.io/account/CREATOR1"

	assert.Equal(t, want, Format(a, domain.StatusPass, DefaultExplorerURL))
}

func TestFormat_RoundsToTwoDecimals(t *testing.T) {
	a := domain.Alert{
		Transfer:   domain.TokenTransfer{Mint: "M", Creator: "C"},
		SOLBalance: decimal.RequireFromString("0.123456789"),
	}

	text := Format(a, domain.StatusFail, "https://explorer.test/a/")
	assert.Contains(t, text, "❌ New SPL token received")
	assert.Contains(t, text, "SOL balance: 0.12 SOL")
	assert.Contains(t, text, "https://explorer.test/a/C")
}

func TestNotifier_Notify(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(NotifierOptions{Sender: sender, ChatID: "42"})

	n.Notify(context.Background(), domain.Alert{
		Transfer:   domain.TokenTransfer{Signature: "SIG1", Mint: "MINT1", Creator: "CREATOR1"},
		SOLBalance: decimal.NewFromInt(10000),
	})

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "42", sender.sent[0].chatID)
	assert.Contains(t, sender.sent[0].text, "✅")
	assert.Contains(t, sender.sent[0].text, "10000.00 SOL")
}

func TestNotifier_CustomThreshold(t *testing.T) {
	sender := &fakeSender{}
	threshold := decimal.NewFromInt(50)
	n := NewNotifier(NotifierOptions{
		Sender:    sender,
		ChatID:    "1",
		Threshold: &threshold,
	})

	n.Notify(context.Background(), domain.Alert{
		Transfer:   domain.TokenTransfer{Mint: "M", Creator: "C"},
		SOLBalance: decimal.NewFromInt(49),
	})

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].text, "❌")
}

func TestNotifier_ZeroThreshold(t *testing.T) {
	sender := &fakeSender{}
	zero := decimal.Zero
	n := NewNotifier(NotifierOptions{Sender: sender, ChatID: "1", Threshold: &zero})

	n.Notify(context.Background(), domain.Alert{
		Transfer:   domain.TokenTransfer{Mint: "M", Creator: "C"},
		SOLBalance: decimal.Zero,
	})

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].text, "✅")
}

func TestNotifier_DefaultThreshold(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(NotifierOptions{Sender: sender, ChatID: "1"})

	n.Notify(context.Background(), domain.Alert{
		Transfer:   domain.TokenTransfer{Mint: "M", Creator: "C"},
		SOLBalance: decimal.RequireFromString("9999.99"),
	})

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].text, "❌")
}

func TestNotifier_DeliveryFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sender := &fakeSender{err: errors.New("boom")}
	n := NewNotifier(NotifierOptions{Sender: sender, ChatID: "1", Logger: zap.New(core)})

	assert.NotPanics(t, func() {
		n.Notify(context.Background(), domain.Alert{
			Transfer:   domain.TokenTransfer{Signature: "SIG1", Mint: "M", Creator: "C"},
			SOLBalance: decimal.Zero,
		})
	})

	entries := logs.FilterMessage("alert delivery failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "SIG1", entries[0].ContextMap()["signature"])
}
