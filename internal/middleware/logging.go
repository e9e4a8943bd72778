package middleware

import (
	"net/http"
	"time"

	"github.com/vyrodovalexey/avcmsgw/internal/observability"
)

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Flush implements http.Flusher for streaming responses.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Logging returns a middleware that logs every completed request with
// method, path, status, size, duration, and correlation id. Server
// errors log at error level, client errors at warn.
func Logging(logger observability.Logger) func(http.Handler) http.Handler {
	return LoggingWithSkipPaths(logger, nil)
}

// LoggingWithSkipPaths returns a logging middleware that stays silent
// for the given paths (typically health endpoints).
func LoggingWithSkipPaths(logger observability.Logger, skip []string) func(http.Handler) http.Handler {
	skipPaths := make(map[string]bool, len(skip))
	for _, path := range skip {
		skipPaths[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				status:         http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			fields := []observability.Field{
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
				observability.String("query", r.URL.RawQuery),
				observability.Int("status", rw.status),
				observability.Int("size", rw.size),
				observability.Duration("duration", time.Since(start)),
				observability.String("client_ip", getClientIP(r)),
				observability.String("user_agent", r.UserAgent()),
				observability.String("request_id", observability.RequestIDFromContext(r.Context())),
			}

			switch {
			case rw.status >= http.StatusInternalServerError:
				logger.Error("http request", fields...)
			case rw.status >= http.StatusBadRequest:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
		})
	}
}
