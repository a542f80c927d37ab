package tools

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ToolContext provides shared resources for tool handlers
type ToolContext struct {
	Logger    *zerolog.Logger
	SessionID string
	RequestID string
}

// NewToolContext creates a context for a single tool invocation
func NewToolContext(logger *zerolog.Logger, sessionID, requestID string) *ToolContext {
	return &ToolContext{
		Logger:    logger,
		SessionID: sessionID,
		RequestID: requestID,
	}
}

// logger falls back to the global logger so handlers can be called with a nil context
func (tc *ToolContext) logger() *zerolog.Logger {
	if tc == nil || tc.Logger == nil {
		return &log.Logger
	}
	return tc.Logger
}
