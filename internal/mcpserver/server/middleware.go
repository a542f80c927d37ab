package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const headerCorrelationID = "X-Correlation-ID"

const ctxCorrelationID ctxKey = "correlationId"

// CorrelationMiddleware reads X-Correlation-ID, generating one when the client
// did not send it, echoes it on the response and attaches a logger carrying it
// to the request context.
func CorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get(headerCorrelationID)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		w.Header().Set(headerCorrelationID, correlationID)

		ctx := context.WithValue(r.Context(), ctxCorrelationID, correlationID)
		logger := log.With().Str("correlation_id", correlationID).Logger()
		ctx = logger.WithContext(ctx)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CorrelationID returns the request's correlation id, or ""
func CorrelationID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxCorrelationID).(string); ok {
		return v
	}
	return ""
}

// requestLogger returns the logger attached to ctx, or the global logger
func requestLogger(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return log.Logger
}
