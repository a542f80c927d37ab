package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/erauner12/uuid-server/internal/mcpserver/config"
	"github.com/erauner12/uuid-server/internal/mcpserver/tools"
	"github.com/google/uuid"
)

var stdioScope = requestScope{Transport: config.TransportStdio}

func newTestServer(t *testing.T) *MCPServer {
	t.Helper()
	return NewMCPServer(config.DefaultConfig(), nil)
}

// call sends one raw frame and decodes the result into out
func call(t *testing.T, s *MCPServer, frame string, out interface{}) *JSONRPCResponse {
	t.Helper()
	resp := s.HandleMessage(context.Background(), []byte(frame), stdioScope)
	if resp == nil {
		t.Fatalf("Expected a response for %s", frame)
	}
	if out != nil {
		if resp.Error != nil {
			t.Fatalf("Unexpected error response: %v", resp.Error)
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			t.Fatalf("Failed to decode result %s: %v", resp.Result, err)
		}
	}
	return resp
}

func TestHandle_ToolsList(t *testing.T) {
	s := newTestServer(t)

	var result struct {
		Tools []tools.ToolDescriptor `json:"tools"`
	}
	call(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`, &result)

	if len(result.Tools) != 1 {
		t.Fatalf("Expected 1 tool, got %d", len(result.Tools))
	}
	if result.Tools[0].Name != "get_uuid" {
		t.Errorf("Expected get_uuid, got %q", result.Tools[0].Name)
	}
	if result.Tools[0].Description == "" {
		t.Error("Expected a description")
	}
	if result.Tools[0].InputSchema["type"] != "object" {
		t.Errorf("Expected object input schema, got %v", result.Tools[0].InputSchema)
	}
}

func TestHandle_CallGetUUID(t *testing.T) {
	s := newTestServer(t)

	var result tools.CallResult
	resp := call(t, s, `{"jsonrpc":"2.0","id":"req-7","method":"tools/call","params":{"name":"get_uuid","arguments":{}}}`, &result)

	if string(resp.ID) != `"req-7"` {
		t.Errorf("Expected id to be echoed, got %s", resp.ID)
	}
	if result.IsError {
		t.Fatalf("Expected success, got %q", result.Text())
	}
	parsed, err := uuid.Parse(result.Text())
	if err != nil {
		t.Fatalf("Result %q is not a UUID: %v", result.Text(), err)
	}
	if parsed.Version() != 4 {
		t.Errorf("Expected version 4, got %d", parsed.Version())
	}

	// isError is omitted on success
	if strings.Contains(string(resp.Result), "isError") {
		t.Errorf("Expected no isError field, got %s", resp.Result)
	}
}

func TestHandle_CallUnknownTool(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		params   string
		wantText string
	}{
		{"unregistered name", `{"name":"bogus"}`, "Unknown tool: bogus"},
		{"empty name", `{"name":"","arguments":{}}`, "Unknown tool: "},
		{"case mismatch", `{"name":"GET_UUID"}`, "Unknown tool: GET_UUID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result tools.CallResult
			resp := call(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":`+tt.params+`}`, &result)

			if resp.Error != nil {
				t.Fatalf("Unknown tool must not be a protocol error, got %v", resp.Error)
			}
			if !result.IsError {
				t.Fatal("Expected error-flagged result")
			}
			if len(result.Content) != 1 || result.Content[0].Type != "text" {
				t.Fatalf("Expected a single text item, got %+v", result.Content)
			}
			if result.Text() != tt.wantText {
				t.Errorf("Expected %q, got %q", tt.wantText, result.Text())
			}
		})
	}
}

func TestHandle_CallFailingGenerator(t *testing.T) {
	registry := tools.NewRegistry()
	registry.MustRegister(tools.ToolDefinition{
		Name:        tools.ToolGetUUID,
		InputSchema: tools.EmptySchema(),
	}, tools.NewGetUUIDHandler(func() (uuid.UUID, error) {
		return uuid.Nil, errors.New("no entropy")
	}))
	s := newMCPServer(config.DefaultConfig(), registry, nil)

	var result tools.CallResult
	call(t, s, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"get_uuid"}}`, &result)

	if !result.IsError {
		t.Fatal("Expected error-flagged result")
	}
	if result.Text() != "Failed to generate UUID: no entropy" {
		t.Errorf("Unexpected text %q", result.Text())
	}
}

func TestHandle_ResourceLists(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		field  string
	}{
		{MethodResourcesList, "resources"},
		{MethodResourceTemplatesList, "resourceTemplates"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			var result map[string][]interface{}
			call(t, s, `{"jsonrpc":"2.0","id":4,"method":"`+tt.method+`"}`, &result)

			list, ok := result[tt.field]
			if !ok {
				t.Fatalf("Expected %s field in result", tt.field)
			}
			if list == nil || len(list) != 0 {
				t.Errorf("Expected empty %s list, got %v", tt.field, list)
			}
		})
	}
}

func TestHandle_Initialize(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name      string
		requested string
		want      string
	}{
		{"supported version echoed", "2025-03-26", "2025-03-26"},
		{"oldest supported version echoed", "2024-11-05", "2024-11-05"},
		{"unknown version gets latest", "1999-01-01", LatestProtocolVersion},
		{"missing version gets latest", "", LatestProtocolVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result struct {
				ProtocolVersion string                 `json:"protocolVersion"`
				Capabilities    map[string]interface{} `json:"capabilities"`
				ServerInfo      struct {
					Name    string `json:"name"`
					Version string `json:"version"`
				} `json:"serverInfo"`
			}
			frame := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"` + tt.requested + `","clientInfo":{"name":"test","version":"1"}}}`
			call(t, s, frame, &result)

			if result.ProtocolVersion != tt.want {
				t.Errorf("Expected protocol version %s, got %s", tt.want, result.ProtocolVersion)
			}
			if _, ok := result.Capabilities["tools"]; !ok {
				t.Error("Expected tools capability")
			}
			if _, ok := result.Capabilities["resources"]; !ok {
				t.Error("Expected resources capability")
			}
			if result.ServerInfo.Name != "uuid-server" || result.ServerInfo.Version != "0.1.0" {
				t.Errorf("Unexpected server info %+v", result.ServerInfo)
			}
		})
	}
}

func TestHandle_Ping(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, `{"jsonrpc":"2.0","id":9,"method":"ping"}`, nil)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if string(resp.Result) != `{}` {
		t.Errorf("Expected empty object, got %s", resp.Result)
	}
}

func TestHandle_Notifications(t *testing.T) {
	s := newTestServer(t)

	frames := []string{
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":1}}`,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"get_uuid"}}`,
		// malformed notifications are dropped silently too
		`{"jsonrpc":"1.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0"}`,
	}

	for _, frame := range frames {
		if resp := s.HandleMessage(context.Background(), []byte(frame), stdioScope); resp != nil {
			t.Errorf("Expected no response for %s, got %+v", frame, resp)
		}
	}
}

func TestHandle_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		frame    string
		wantCode int
		wantID   string
	}{
		{
			name:     "malformed JSON",
			frame:    `{"jsonrpc":"2.0","id":1,"method":`,
			wantCode: ParseError,
			wantID:   "null",
		},
		{
			name:     "wrong jsonrpc version",
			frame:    `{"jsonrpc":"1.0","id":1,"method":"ping"}`,
			wantCode: InvalidRequest,
			wantID:   "1",
		},
		{
			name:     "missing method",
			frame:    `{"jsonrpc":"2.0","id":1}`,
			wantCode: InvalidRequest,
			wantID:   "1",
		},
		{
			name:     "unknown method",
			frame:    `{"jsonrpc":"2.0","id":5,"method":"prompts/list"}`,
			wantCode: MethodNotFound,
			wantID:   "5",
		},
		{
			name:     "tools/call without name",
			frame:    `{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{}}`,
			wantCode: InvalidParams,
			wantID:   "6",
		},
		{
			name:     "tools/call with null name",
			frame:    `{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{"name":null}}`,
			wantCode: InvalidParams,
			wantID:   "8",
		},
		{
			name:     "tools/call with numeric name",
			frame:    `{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":42}}`,
			wantCode: InvalidParams,
			wantID:   "9",
		},
		{
			name:     "tools/call without params",
			frame:    `{"jsonrpc":"2.0","id":10,"method":"tools/call"}`,
			wantCode: InvalidParams,
			wantID:   "10",
		},
		{
			name:     "tools/call with non-object params",
			frame:    `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":[1,2]}`,
			wantCode: InvalidParams,
			wantID:   "7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, s, tt.frame, nil)

			if resp.Error == nil {
				t.Fatalf("Expected error response, got result %s", resp.Result)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("Expected code %d, got %d (%s)", tt.wantCode, resp.Error.Code, resp.Error.Message)
			}
			if string(resp.ID) != tt.wantID {
				t.Errorf("Expected id %s, got %s", tt.wantID, resp.ID)
			}
			if resp.Result != nil {
				t.Errorf("Expected no result, got %s", resp.Result)
			}
		})
	}
}
