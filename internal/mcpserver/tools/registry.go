package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Registry manages tool definitions and dispatches tool calls
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]*toolEntry
	ordering []string // Preserve registration order for consistent tools/list
}

type toolEntry struct {
	def     ToolDefinition
	handler Handler
}

// NewRegistry creates an empty tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*toolEntry),
	}
}

// Register adds a tool definition and handler to the registry
func (r *Registry) Register(def ToolDefinition, handler Handler) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool %s already registered", def.Name)
	}

	r.tools[def.Name] = &toolEntry{
		def:     def,
		handler: handler,
	}
	r.ordering = append(r.ordering, def.Name)

	return nil
}

// MustRegister registers a tool or panics on error (for init-time registration)
func (r *Registry) MustRegister(def ToolDefinition, handler Handler) {
	if err := r.Register(def, handler); err != nil {
		panic(err)
	}
}

// List returns all registered tool descriptors (for tools/list response)
func (r *Registry) List() []ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]ToolDescriptor, 0, len(r.ordering))
	for _, name := range r.ordering {
		entry := r.tools[name]
		descriptors = append(descriptors, ToolDescriptor{
			Name:         entry.def.Name,
			Description:  entry.def.Description,
			InputSchema:  entry.def.InputSchema,
			OutputSchema: entry.def.OutputSchema,
		})
	}

	return descriptors
}

// Call executes a tool by name with the given parameters.
// It never returns a Go error: unknown tools, handler failures and handler panics
// are all reported as a CallResult with IsError set.
func (r *Registry) Call(ctx context.Context, toolCtx *ToolContext, req CallRequest) CallResult {
	r.mu.RLock()
	entry, exists := r.tools[req.Name]
	r.mu.RUnlock()

	if !exists {
		toolCtx.logger().Warn().Str("tool", req.Name).Msg("unknown tool requested")
		return ErrorResult(fmt.Sprintf("Unknown tool: %s", req.Name))
	}

	result, err := invoke(ctx, toolCtx, entry.handler, req.Arguments)
	if err != nil {
		toolCtx.logger().Error().Err(err).Str("tool", req.Name).Msg("tool call failed")
		return ErrorResult(errorText(err))
	}

	switch v := result.(type) {
	case string:
		return TextResult(v)
	case CallResult:
		return v
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		toolCtx.logger().Error().Err(err).Str("tool", req.Name).Msg("failed to serialize tool result")
		return ErrorResult("Failed to serialize tool result: " + err.Error())
	}
	return TextResult(string(resultJSON))
}

// invoke runs the handler, turning a panic into an internal tool error
func invoke(ctx context.Context, toolCtx *ToolContext, handler Handler, args json.RawMessage) (result interface{}, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = NewToolError(ErrCodeInternal, fmt.Sprintf("Tool handler panicked: %v", rec))
		}
	}()
	return handler(ctx, toolCtx, args)
}

// errorText picks the caller-facing message for a failed call
func errorText(err error) string {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Message
	}
	return err.Error()
}

// Get retrieves a tool definition by name (for testing)
func (r *Registry) Get(name string) (*ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.tools[name]
	if !exists {
		return nil, false
	}

	return &entry.def, true
}
