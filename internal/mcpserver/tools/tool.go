package tools

import (
	"context"
	"encoding/json"
)

// ContentTypeText is the only content item type this server emits
const ContentTypeText = "text"

// ToolDefinition describes an MCP tool with its name, description, and JSON schemas
type ToolDefinition struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	InputSchema  map[string]any `json:"inputSchema"`
	OutputSchema map[string]any `json:"outputSchema,omitempty"`
}

// Handler processes a tool invocation with the given context and parameters.
// A string result is sent back verbatim as a text item; any other value is JSON encoded.
type Handler func(context.Context, *ToolContext, json.RawMessage) (interface{}, error)

// ToolDescriptor is returned by tools/list (MCP specification format)
type ToolDescriptor struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	InputSchema  map[string]any `json:"inputSchema"`
	OutputSchema map[string]any `json:"outputSchema,omitempty"`
}

// CallRequest represents a tools/call JSON-RPC request
type CallRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallResult is the uniform envelope for both successful and failed tool calls
type CallResult struct {
	Content           []ContentBlock `json:"content"`
	StructuredContent map[string]any `json:"structuredContent,omitempty"`
	IsError           bool           `json:"isError,omitempty"`
}

// ContentBlock represents a piece of tool output
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// TextResult builds a successful result holding a single text item
func TextResult(text string) CallResult {
	return CallResult{
		Content: []ContentBlock{{Type: ContentTypeText, Text: text}},
	}
}

// ErrorResult builds an error-flagged result holding a single text item
func ErrorResult(text string) CallResult {
	return CallResult{
		Content: []ContentBlock{{Type: ContentTypeText, Text: text}},
		IsError: true,
	}
}

// Text returns the text of the first content item, or "" when there is none
func (r CallResult) Text() string {
	if len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}
