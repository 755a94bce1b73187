package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEnhancedClient_GetTransactions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Query().Get("api-key") != "k" {
			t.Errorf("expected api-key query param, got %q", r.URL.RawQuery)
		}

		var req parsedTransactionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if len(req.Transactions) != 1 || req.Transactions[0] != "SIG1" {
			t.Errorf("expected [SIG1], got %v", req.Transactions)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"signature": "SIG1",
			"slot": 250000000,
			"type": "TRANSFER",
			"feePayer": "CREATOR1",
			"tokenTransfers": [
				{"fromUserAccount": "CREATOR1", "toUserAccount": "WATCHED", "mint": "MINT1", "tokenAmount": 1000000.5},
				{"fromUserAccount": "CREATOR1", "toUserAccount": "OTHER", "mint": "MINT2", "tokenAmount": 1}
			]
		}]`))
	}))
	defer server.Close()

	client := NewEnhancedClient(server.URL + "/v0/transactions?api-key=k")

	txs, err := client.GetTransactions(context.Background(), []string{"SIG1"})
	if err != nil {
		t.Fatalf("GetTransactions: %v", err)
	}

	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}

	tx := txs[0]
	if tx.FeePayer != "CREATOR1" {
		t.Errorf("expected fee payer CREATOR1, got %s", tx.FeePayer)
	}
	if len(tx.TokenTransfers) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(tx.TokenTransfers))
	}
	if tx.TokenTransfers[0].Mint != "MINT1" || tx.TokenTransfers[0].ToUserAccount != "WATCHED" {
		t.Errorf("unexpected first transfer: %+v", tx.TokenTransfers[0])
	}
	if tx.TokenTransfers[0].TokenAmount.String() != "1000000.5" {
		t.Errorf("expected token amount 1000000.5, got %s", tx.TokenTransfers[0].TokenAmount)
	}
}

func TestEnhancedClient_EmptyArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewEnhancedClient(server.URL)

	txs, err := client.GetTransactions(context.Background(), []string{"SIG1"})
	if err != nil {
		t.Fatalf("GetTransactions: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected no transactions, got %d", len(txs))
	}
}

func TestEnhancedClient_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "invalid api key"}`))
	}))
	defer server.Close()

	client := NewEnhancedClient(server.URL)

	if _, err := client.GetTransactions(context.Background(), []string{"SIG1"}); err == nil {
		t.Fatal("expected error for non-array response")
	}
}

func TestEnhancedClient_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewEnhancedClient(server.URL)

	if _, err := client.GetTransactions(context.Background(), []string{"SIG1"}); err == nil {
		t.Fatal("expected error for 401")
	}
}

func TestEnhancedClient_TransportErrorHidesAPIKey(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL + "/v0/transactions?api-key=SUPERSECRETKEY"
	server.Close()

	client := NewEnhancedClient(endpoint)

	_, err := client.GetTransactions(context.Background(), []string{"SIG1"})
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if strings.Contains(err.Error(), "SUPERSECRETKEY") {
		t.Errorf("error leaks API key: %v", err)
	}
}
