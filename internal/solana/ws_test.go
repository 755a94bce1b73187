package solana

import "testing"

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name         string
		frame        string
		wantErr      bool
		wantMethod   string
		wantSig      string
		wantConfirm  bool
		wantRPCError bool
	}{
		{
			name:       "log notification",
			frame:      `{"jsonrpc":"2.0","method":"logsNotification","params":{"subscription":7,"result":{"context":{"slot":5},"value":{"signature":"SIG1","err":null,"logs":[]}}}}`,
			wantMethod: MethodLogsNotification,
			wantSig:    "SIG1",
		},
		{
			name:       "notification without signature",
			frame:      `{"jsonrpc":"2.0","method":"logsNotification","params":{"subscription":7,"result":{"value":{}}}}`,
			wantMethod: MethodLogsNotification,
		},
		{
			name:        "subscription confirmation",
			frame:       `{"jsonrpc":"2.0","result":23784,"id":1}`,
			wantConfirm: true,
		},
		{
			name:       "other method",
			frame:      `{"jsonrpc":"2.0","method":"slotNotification","params":{"result":{"slot":1},"subscription":3}}`,
			wantMethod: "slotNotification",
		},
		{
			name:         "rpc error",
			frame:        `{"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid params"},"id":1}`,
			wantRPCError: true,
		},
		{
			name:    "not json",
			frame:   `hello`,
			wantErr: true,
		},
		{
			name:    "malformed params",
			frame:   `{"method":"logsNotification","params":{"result":{"value":{"signature":42}}}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeMessage([]byte(tt.frame))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", msg)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeMessage: %v", err)
			}

			if msg.Method != tt.wantMethod {
				t.Errorf("method = %q, want %q", msg.Method, tt.wantMethod)
			}
			sig := ""
			if msg.Notification != nil {
				sig = msg.Notification.Signature
			}
			if sig != tt.wantSig {
				t.Errorf("signature = %q, want %q", sig, tt.wantSig)
			}
			if msg.IsSubscriptionConfirmation() != tt.wantConfirm {
				t.Errorf("confirmation = %v, want %v", msg.IsSubscriptionConfirmation(), tt.wantConfirm)
			}
			if (msg.Error != nil) != tt.wantRPCError {
				t.Errorf("rpc error = %v, want %v", msg.Error, tt.wantRPCError)
			}
		})
	}
}
