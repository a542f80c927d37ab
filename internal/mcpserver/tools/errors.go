package tools

import "fmt"

// ToolError represents a structured error from tool execution
type ToolError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode categorizes tool errors for JSON-RPC translation
type ErrorCode string

const (
	ErrCodeInvalidParams    ErrorCode = "INVALID_PARAMS"
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

func NewToolError(code ErrorCode, message string) *ToolError {
	return &ToolError{
		Code:    code,
		Message: message,
	}
}

// ToJSONRPCError maps the error onto a JSON-RPC error code and message.
// Only malformed tools/call params travel this way; handler failures become
// error-flagged call results instead.
func (e *ToolError) ToJSONRPCError() (int, string) {
	switch e.Code {
	case ErrCodeInvalidParams:
		return -32602, e.Message
	default:
		return -32603, e.Message
	}
}
