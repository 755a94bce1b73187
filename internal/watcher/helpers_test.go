package watcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"spl-transfer-watch/internal/domain"
	"spl-transfer-watch/internal/solana"
)

const watchedAddr = "WATCHED1111111111111111111111111111111111111"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func notificationFrame(signature string) []byte {
	return []byte(`{"jsonrpc":"2.0","method":"logsNotification","params":{"subscription":7,"result":{"context":{"slot":100},"value":{"signature":"` + signature + `","err":null,"logs":[]}}}}`)
}

func transfer(to, mint string) solana.TokenTransfer {
	return solana.TokenTransfer{
		FromUserAccount: "SENDER1",
		ToUserAccount:   to,
		TokenAmount:     json.Number("1"),
		Mint:            mint,
	}
}

// recordingNotifier collects alerts.
type recordingNotifier struct {
	mu     sync.Mutex
	alerts []domain.Alert
}

func (n *recordingNotifier) Notify(_ context.Context, a domain.Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
}

func (n *recordingNotifier) Alerts() []domain.Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Alert(nil), n.alerts...)
}

// recordingSender collects chat messages.
type recordingSender struct {
	mu    sync.Mutex
	texts []string
}

func (s *recordingSender) SendMessage(_ context.Context, _, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return nil
}

func (s *recordingSender) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

// recordingHandler collects resolved signatures. When block is set each
// Resolve waits on it.
type recordingHandler struct {
	mu         sync.Mutex
	signatures []string
	running    int
	maxRunning int
	block      chan struct{}
}

func (h *recordingHandler) Resolve(ctx context.Context, signature string) {
	h.mu.Lock()
	h.signatures = append(h.signatures, signature)
	h.running++
	if h.running > h.maxRunning {
		h.maxRunning = h.running
	}
	h.mu.Unlock()

	if h.block != nil {
		select {
		case <-h.block:
		case <-ctx.Done():
		}
	}

	h.mu.Lock()
	h.running--
	h.mu.Unlock()
}

func (h *recordingHandler) Signatures() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.signatures...)
}

func (h *recordingHandler) Running() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

func (h *recordingHandler) MaxRunning() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxRunning
}
