package solana

import (
	"encoding/json"
	"fmt"
)

// Commitment levels accepted by logsSubscribe.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// MethodLogsNotification is the method tag of log subscription pushes.
const MethodLogsNotification = "logsNotification"

// LogsFilter defines subscription filter for logs.
type LogsFilter struct {
	// Mentions filters logs of transactions that mention any of these accounts.
	Mentions []string
}

// LogNotification represents a logs subscription message.
type LogNotification struct {
	Subscription int64
	Signature    string
	Slot         int64
	Logs         []string
	Err          interface{}
}

// Message is a decoded inbound WebSocket frame.
type Message struct {
	ID     uint64
	Method string
	// Result carries the subscription ID of a subscribe confirmation.
	Result json.RawMessage
	Error  *RPCError
	// Notification is set for logsNotification frames that carry params.
	Notification *LogNotification
}

// IsSubscriptionConfirmation reports whether m answers a subscribe request.
func (m *Message) IsSubscriptionConfirmation() bool {
	return m.Method == "" && m.Error == nil && len(m.Result) > 0 && string(m.Result) != "null"
}

// DecodeMessage parses a raw frame. Only structurally invalid JSON or a
// logsNotification with malformed params is reported as an error; frames of
// other shapes decode into a Message with the fields they carry.
func DecodeMessage(frame []byte) (*Message, error) {
	var raw wsMessage
	if err := json.Unmarshal(frame, &raw); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	msg := &Message{
		ID:     raw.ID,
		Method: raw.Method,
		Result: raw.Result,
		Error:  raw.Error,
	}

	if raw.Method != MethodLogsNotification || len(raw.Params) == 0 || string(raw.Params) == "null" {
		return msg, nil
	}

	var params wsNotificationParams
	if err := json.Unmarshal(raw.Params, &params); err != nil {
		return nil, fmt.Errorf("decode %s params: %w", raw.Method, err)
	}

	notif := &LogNotification{
		Subscription: params.Subscription,
		Signature:    params.Result.Value.Signature,
		Logs:         params.Result.Value.Logs,
		Err:          params.Result.Value.Err,
	}
	if params.Result.Context != nil {
		notif.Slot = params.Result.Context.Slot
	}
	msg.Notification = notif

	return msg, nil
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext  `json:"context"`
	Value   wsLogsValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsLogsValue struct {
	Signature string      `json:"signature"`
	Logs      []string    `json:"logs"`
	Err       interface{} `json:"err"`
}
