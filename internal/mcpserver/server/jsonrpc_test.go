package server

import (
	"encoding/json"
	"testing"

	"github.com/erauner12/uuid-server/internal/mcpserver/tools"
)

func TestResponseFrames(t *testing.T) {
	uuidResult := tools.TextResult("0b9e5a5c-8f3e-4a7d-9a51-3c2f0d1e6b7a")
	uuidResult.StructuredContent = map[string]any{"uuid": "0b9e5a5c-8f3e-4a7d-9a51-3c2f0d1e6b7a"}

	tests := []struct {
		name string
		resp *JSONRPCResponse
		want string
	}{
		{
			name: "uuid result echoes numeric id",
			resp: newResult(json.RawMessage(`1`), uuidResult),
			want: `{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"0b9e5a5c-8f3e-4a7d-9a51-3c2f0d1e6b7a"}],"structuredContent":{"uuid":"0b9e5a5c-8f3e-4a7d-9a51-3c2f0d1e6b7a"}}}`,
		},
		{
			name: "failed call keeps isError inside result",
			resp: newResult(json.RawMessage(`"req-2"`), tools.ErrorResult("Unknown tool: bogus")),
			want: `{"jsonrpc":"2.0","id":"req-2","result":{"content":[{"type":"text","text":"Unknown tool: bogus"}],"isError":true}}`,
		},
		{
			name: "parse error carries null id",
			resp: newError(nil, ParseError, "invalid JSON"),
			want: `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"invalid JSON"}}`,
		},
		{
			name: "explicit null id is kept",
			resp: newError(json.RawMessage(`null`), InvalidRequest, "missing method"),
			want: `{"jsonrpc":"2.0","id":null,"error":{"code":-32600,"message":"missing method"}}`,
		},
		{
			name: "empty ping result",
			resp: newResult(json.RawMessage(`3`), map[string]interface{}{}),
			want: `{"jsonrpc":"2.0","id":3,"result":{}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.resp)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestJSONRPCRequest_IsNotification(t *testing.T) {
	tests := []struct {
		frame string
		want  bool
	}{
		{`{"jsonrpc":"2.0","method":"notifications/initialized"}`, true},
		{`{"jsonrpc":"2.0","id":0,"method":"tools/call"}`, false},
		{`{"jsonrpc":"2.0","id":"","method":"ping"}`, false},
		// null is still an id
		{`{"jsonrpc":"2.0","id":null,"method":"ping"}`, false},
	}

	for _, tt := range tests {
		var req JSONRPCRequest
		if err := json.Unmarshal([]byte(tt.frame), &req); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tt.frame, err)
		}
		if got := req.IsNotification(); got != tt.want {
			t.Errorf("IsNotification(%s) = %v, want %v", tt.frame, got, tt.want)
		}
	}
}

func TestJSONRPCError_Error(t *testing.T) {
	resp := newError(json.RawMessage(`7`), InvalidParams, "invalid tool call parameters")

	if got := resp.Error.Error(); got != "jsonrpc error -32602: invalid tool call parameters" {
		t.Errorf("Error() = %q", got)
	}

	var nilErr *JSONRPCError
	if nilErr.Error() != "" {
		t.Error("Expected empty string from nil error")
	}
}
