package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"spl-transfer-watch/internal/observability"
)

// EnhancedClient implements TransactionClient against the Helius
// parsed-transactions endpoint (POST {"transactions": [...]}).
type EnhancedClient struct {
	endpoint string
	client   *http.Client
}

// NewEnhancedClient creates a client for the parsed-transactions endpoint.
// The endpoint must already carry the api-key query parameter.
func NewEnhancedClient(endpoint string, opts ...ClientOption) *EnhancedClient {
	return &EnhancedClient{
		endpoint: endpoint,
		client:   buildHTTPClient(opts),
	}
}

type parsedTransactionsRequest struct {
	Transactions []string `json:"transactions"`
}

// GetTransactions fetches parsed transactions for the signatures.
func (c *EnhancedClient) GetTransactions(ctx context.Context, signatures []string) ([]ParsedTransaction, error) {
	start := time.Now()
	defer func() {
		observability.RecordRPCLatency("parsedTransactions", time.Since(start).Seconds())
	}()

	body, err := json.Marshal(parsedTransactionsRequest{Transactions: signatures})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := postJSON(ctx, c.client, c.endpoint, body)
	if err != nil {
		return nil, err
	}

	var txs []ParsedTransaction
	if err := json.Unmarshal(respBody, &txs); err != nil {
		return nil, fmt.Errorf("unmarshal transactions: %w", err)
	}
	return txs, nil
}
