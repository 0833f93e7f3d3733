package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jdufresne12/web-portal/pkg/logger"
)

const (
	correlationHeader = "X-Correlation-ID"
	// userHeader carries the signed-in user's id, echoed by the admin UI.
	userHeader = "X-User-ID"
)

// RequestLogging assigns a correlation ID (reusing the caller's when sent),
// stores a request-scoped logger in the context for logger.FromContext and
// writes one access log line per request. Server errors log at error,
// client errors at warn, probes and scrapes at debug.
//
// Mount it inside Tracing so the trace and span IDs are on every line.
func RequestLogging(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			correlationID := r.Header.Get(correlationHeader)
			if correlationID == "" {
				correlationID = uuid.NewString()
			}
			ctx := logger.WithCorrelationID(r.Context(), correlationID)
			if id := r.Header.Get(userHeader); id != "" && logger.UserIDFromContext(ctx) == "" {
				ctx = logger.WithUserID(ctx, id)
			}
			reqLogger := logger.WithContext(ctx, l)
			ctx = logger.NewContext(ctx, reqLogger)
			w.Header().Set(correlationHeader, correlationID)

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			reqLogger.LogAttrs(ctx, accessLevel(r.URL.Path, rec.status), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes", rec.bytes),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
			)
		})
	}
}

func accessLevel(path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	case strings.HasPrefix(path, "/health/"), path == "/metrics":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
