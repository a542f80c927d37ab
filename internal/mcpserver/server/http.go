package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/erauner12/uuid-server/internal/mcpserver/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Headers used by the MCP Streamable HTTP transport
const (
	headerSessionID       = "Mcp-Session-Id"
	headerProtocolVersion = "Mcp-Protocol-Version"
)

// maxBodyBytes caps a single POST /mcp body
const maxBodyBytes = 1 << 20

// Routes builds the HTTP router for the MCP endpoint and health check
func (s *MCPServer) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(CorrelationMiddleware)

	// Health check (unauthenticated)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(s.originGuard)
		r.Use(BearerAuth(s.config.Auth.HS256Secret))
		r.Use(RateLimitMiddleware(s.limiter))
		r.Post("/mcp", s.handleMCPPost)
		r.Delete("/mcp", s.handleMCPDelete)
	})

	return r
}

// Start serves HTTP on the configured address until Shutdown is called
func (s *MCPServer) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.HTTPAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	s.sessionMgr.StartCleanup(ctx, 5*time.Minute)
	if s.limiter != nil {
		s.limiter.StartCleanup(ctx, 10*time.Minute, time.Hour)
	}

	log.Info().
		Str("addr", s.config.HTTPAddr).
		Bool("auth", s.config.AuthEnabled()).
		Int("rateLimitPerMinute", s.config.RateLimit.RequestsPerMinute).
		Msg("Starting MCP HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *MCPServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// handleMCPPost handles POST /mcp (one JSON-RPC message per request)
func (s *MCPServer) handleMCPPost(w http.ResponseWriter, r *http.Request) {
	if v := r.Header.Get(headerProtocolVersion); v != "" && !isSupportedProtocolVersion(v) {
		http.Error(w, "unsupported protocol version", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeResponse(w, newError(nil, ParseError, "could not read request body"))
		return
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Error().Err(err).Str("transport", config.TransportHTTP).Msg("failed to parse JSON-RPC message")
		s.writeResponse(w, newError(nil, ParseError, "invalid JSON"))
		return
	}

	subject := Subject(r.Context())
	scope := requestScope{Transport: config.TransportHTTP}

	// initialize opens a session; everything else must present one
	if req.Method == MethodInitialize {
		resp := s.Handle(r.Context(), &req, scope)
		if resp == nil {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		if resp.Error == nil {
			session := s.sessionMgr.CreateSession(subject)
			w.Header().Set(headerSessionID, session.ID)
			log.Info().
				Str("sessionId", session.ID).
				Str("subject", subject).
				Msg("Created new MCP session")
		}
		s.writeResponse(w, resp)
		return
	}

	sessionID := r.Header.Get(headerSessionID)
	if sessionID == "" {
		if req.IsNotification() {
			http.Error(w, "missing session ID", http.StatusBadRequest)
			return
		}
		s.writeResponse(w, newError(req.ID, InvalidRequest, "missing Mcp-Session-Id header"))
		return
	}

	session, err := s.sessionMgr.GetSession(sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	if session.Subject != subject {
		http.Error(w, "session subject mismatch", http.StatusForbidden)
		return
	}

	s.sessionMgr.UpdateLastSeen(sessionID)
	scope.SessionID = sessionID

	resp := s.Handle(r.Context(), &req, scope)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	s.writeResponse(w, resp)
}

// handleMCPDelete handles DELETE /mcp (close session)
func (s *MCPServer) handleMCPDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(headerSessionID)
	if sessionID == "" {
		http.Error(w, "missing session ID", http.StatusBadRequest)
		return
	}

	session, err := s.sessionMgr.GetSession(sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if session.Subject != Subject(r.Context()) {
		http.Error(w, "session subject mismatch", http.StatusForbidden)
		return
	}

	s.sessionMgr.DeleteSession(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// originGuard rejects browser requests from origins outside the allowlist.
// With no allowlist configured every origin is accepted.
func (s *MCPServer) originGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.validateOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// validateOrigin checks if the request Origin header is allowed
func (s *MCPServer) validateOrigin(r *http.Request) bool {
	if len(s.config.AllowedOrigins) == 0 {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients do not send Origin
		return true
	}

	for _, allowed := range s.config.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}

	log.Warn().
		Str("origin", origin).
		Strs("allowedOrigins", s.config.AllowedOrigins).
		Msg("Origin not in allowlist")
	return false
}

func (s *MCPServer) writeResponse(w http.ResponseWriter, resp *JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK) // JSON-RPC errors are still HTTP 200
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("failed to encode json response")
	}
}

func isSupportedProtocolVersion(v string) bool {
	for _, supported := range supportedProtocolVersions {
		if v == supported {
			return true
		}
	}
	return false
}
