// Package middleware provides HTTP middleware for the kerbgate server.
package middleware

import (
	"net"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/kerbgate/internal/logger"
	"github.com/marmos91/kerbgate/internal/telemetry"
)

// LogContext attaches a logger.LogContext to every request and extracts any
// incoming trace context. It must run after chi's RequestID and RealIP.
func LogContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := telemetry.ExtractHTTP(r.Context(), r.Header)

		lc := logger.NewLogContext(hostOnly(r.RemoteAddr))
		lc.RequestID = chimw.GetReqID(ctx)
		lc.Method = r.Method
		lc.Path = r.URL.Path
		if traceID := telemetry.TraceID(ctx); traceID != "" {
			lc = lc.WithTrace(traceID, telemetry.SpanID(ctx))
		}

		next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx, lc)))
	})
}

// RequestLogger logs each request using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		logger.DebugCtx(ctx, "HTTP request started",
			logger.KeyUserAgent, r.UserAgent(),
		)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.InfoCtx(ctx, "HTTP request completed",
			logger.Status(ww.Status()),
			"bytes", ww.BytesWritten(),
			logger.DurationMs(float64(time.Since(start).Microseconds())/1000.0),
		)
	})
}

// hostOnly strips the port from addr. chi's RealIP may already have replaced
// RemoteAddr with a bare address.
func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
