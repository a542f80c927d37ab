package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/erauner12/uuid-server/internal/mcpserver/config"
	"github.com/erauner12/uuid-server/internal/mcpserver/telemetry"
	"github.com/erauner12/uuid-server/internal/mcpserver/tools"
	"github.com/rs/zerolog/log"
)

// Protocol versions the server can speak, newest first
var supportedProtocolVersions = []string{"2025-06-18", "2025-03-26", "2024-11-05"}

// LatestProtocolVersion is offered when the client asks for an unknown version
var LatestProtocolVersion = supportedProtocolVersions[0]

// MCPServer dispatches MCP requests to the tool registry. Transports (stdio, HTTP)
// decode frames and hand them to HandleMessage.
type MCPServer struct {
	config       *config.Config
	toolRegistry *tools.Registry
	observer     *telemetry.Observer
	sessionMgr   *SessionManager
	limiter      *RateLimiter // nil when rate limiting is off
	httpServer   *http.Server
}

// requestScope identifies where a request came from, for logging and telemetry
type requestScope struct {
	Transport string
	SessionID string
}

// NewMCPServer creates a new MCP server with every tool registered.
// observer may be nil.
func NewMCPServer(cfg *config.Config, observer *telemetry.Observer) *MCPServer {
	toolRegistry := tools.NewRegistry()
	tools.RegisterAllTools(toolRegistry)

	return newMCPServer(cfg, toolRegistry, observer)
}

func newMCPServer(cfg *config.Config, registry *tools.Registry, observer *telemetry.Observer) *MCPServer {
	ttl, err := cfg.SessionTTLDuration()
	if err != nil {
		ttl = config.DefaultSessionTTL
	}

	s := &MCPServer{
		config:       cfg,
		toolRegistry: registry,
		observer:     observer,
		sessionMgr:   NewSessionManager(ttl),
	}
	if cfg.RateLimit.Enabled() {
		s.limiter = NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BucketSize())
	}
	return s
}

// initializeParams is the subset of the initialize request the server reads
type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
	ClientInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"clientInfo"`
}

// HandleMessage decodes one JSON-RPC frame and dispatches it.
// It returns nil when no response must be written (notifications).
func (s *MCPServer) HandleMessage(ctx context.Context, data []byte, scope requestScope) *JSONRPCResponse {
	var req JSONRPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Error().Err(err).Str("transport", scope.Transport).Msg("failed to parse JSON-RPC message")
		return newError(nil, ParseError, "invalid JSON")
	}
	return s.Handle(ctx, &req, scope)
}

// Handle routes a decoded request to the matching method handler
func (s *MCPServer) Handle(ctx context.Context, req *JSONRPCRequest, scope requestScope) *JSONRPCResponse {
	logger := requestLogger(ctx).With().
		Str("transport", scope.Transport).
		Str("method", req.Method).
		Logger()
	if scope.SessionID != "" {
		logger = logger.With().Str("sessionId", scope.SessionID).Logger()
	}

	// Notifications are never answered, not even when malformed
	if req.IsNotification() {
		if req.JSONRPC != JSONRPCVersion || req.Method == "" {
			logger.Warn().Str("jsonrpc", req.JSONRPC).Msg("dropping invalid notification")
		} else {
			logger.Debug().Msg("Received notification")
		}
		return nil
	}

	if req.JSONRPC != JSONRPCVersion {
		logger.Warn().Str("jsonrpc", req.JSONRPC).Msg("invalid jsonrpc version")
		return newError(req.ID, InvalidRequest, "invalid jsonrpc version")
	}
	if req.Method == "" {
		logger.Warn().Msg("request without method")
		return newError(req.ID, InvalidRequest, "missing method")
	}

	logger = logger.With().RawJSON("id", req.ID).Logger()
	logger.Info().Msg("Received request")

	switch req.Method {
	case MethodInitialize:
		return newResult(req.ID, s.initializeResult(req.Params))

	case MethodPing:
		return newResult(req.ID, map[string]interface{}{})

	case MethodToolsList:
		return newResult(req.ID, map[string]interface{}{
			"tools": s.toolRegistry.List(),
		})

	case MethodResourcesList:
		// No addressable resources are exposed
		return newResult(req.ID, map[string]interface{}{
			"resources": []interface{}{},
		})

	case MethodResourceTemplatesList:
		return newResult(req.ID, map[string]interface{}{
			"resourceTemplates": []interface{}{},
		})

	case MethodToolsCall:
		callReq, err := decodeCallRequest(req.Params)
		if err != nil {
			logger.Warn().Err(err).Msg("invalid tool call parameters")
			code, message := tools.NewToolError(tools.ErrCodeInvalidParams, "invalid tool call parameters").ToJSONRPCError()
			return newError(req.ID, code, message)
		}

		logger.Debug().
			Str("tool", callReq.Name).
			RawJSON("arguments", argumentsForLog(callReq.Arguments)).
			Msg("Calling tool")

		ctx, done := s.observer.StartCall(ctx, callReq.Name, scope.Transport)
		toolCtx := tools.NewToolContext(&logger, scope.SessionID, string(req.ID))
		result := s.toolRegistry.Call(ctx, toolCtx, callReq)
		done(result.IsError)

		return newResult(req.ID, result)

	default:
		logger.Warn().Msg("method not found")
		return newError(req.ID, MethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

// decodeCallRequest requires a string name. An empty name is still a name and
// is left for the registry to reject as an unknown tool.
func decodeCallRequest(params json.RawMessage) (tools.CallRequest, error) {
	var p struct {
		Name      *string         `json:"name"`
		Arguments json.RawMessage `json:"arguments,omitempty"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return tools.CallRequest{}, err
	}
	if p.Name == nil {
		return tools.CallRequest{}, errors.New("missing tool name")
	}
	return tools.CallRequest{Name: *p.Name, Arguments: p.Arguments}, nil
}

// initializeResult builds the handshake response, echoing the client's protocol
// version when it is one the server supports
func (s *MCPServer) initializeResult(params json.RawMessage) map[string]interface{} {
	var p initializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			log.Warn().Err(err).Msg("ignoring malformed initialize params")
		}
	}

	version := LatestProtocolVersion
	if isSupportedProtocolVersion(p.ProtocolVersion) {
		version = p.ProtocolVersion
	}

	log.Info().
		Str("clientName", p.ClientInfo.Name).
		Str("clientVersion", p.ClientInfo.Version).
		Str("protocolVersion", version).
		Msg("Client initialized")

	return map[string]interface{}{
		"protocolVersion": version,
		"capabilities": map[string]interface{}{
			"tools":     map[string]interface{}{},
			"resources": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    s.config.ServerName,
			"version": s.config.ServerVersion,
		},
	}
}

func argumentsForLog(args json.RawMessage) []byte {
	if len(args) == 0 || !json.Valid(args) {
		return []byte("{}")
	}
	return args
}
