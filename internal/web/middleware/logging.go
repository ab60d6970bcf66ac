// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sitestock/supplytrack/internal/logging"
)

// Logger is an HTTP middleware that logs request details using structured logging.
//
// It captures request timing, status code, and key metadata for observability.
// The middleware integrates with chi's RequestID to ensure all log entries
// include the request ID for tracing.
//
// Log fields:
//   - method: HTTP method (GET, POST, etc.)
//   - path: Request URL path
//   - status: HTTP response status code
//   - duration_ms: Request processing time in milliseconds
//   - ip: Client address, rewritten by TrustedRealIP behind a trusted proxy
//   - bytes: Response body size
//
// Actor fields are added by FromContext when the request is authenticated.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		// Handlers further down add request-scoped attributes to a fresh
		// context; read them back through the carrier.
		carrier := &contextCarrier{ctx: r.Context()}
		next.ServeHTTP(ww, r.WithContext(withCarrier(r.Context(), carrier)))

		logger := logging.FromContext(carrier.ctx)
		level := slog.LevelInfo
		if ww.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"bytes", ww.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap provides access to the underlying ResponseWriter for middleware
// that need to inspect it (e.g., http.Flusher for SSE).
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

type carrierKey struct{}

// contextCarrier lets inner middleware hand its enriched context back to
// Logger, which runs outermost.
type contextCarrier struct {
	ctx context.Context
}

func withCarrier(ctx context.Context, c *contextCarrier) context.Context {
	return context.WithValue(ctx, carrierKey{}, c)
}

// Publish records ctx as the request context seen by Logger. Middleware
// that enriches the context for logging calls it.
func Publish(ctx context.Context) {
	if c, ok := ctx.Value(carrierKey{}).(*contextCarrier); ok {
		c.ctx = ctx
	}
}
