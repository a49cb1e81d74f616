package daemon

import (
	"log/slog"
	"net/http"
	"time"

	"stylesync/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware attaches a correlation id to the request context,
// reusing a client supplied X-Request-ID when present.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), r.Header.Get(requestIDHeader))
		if id, ok := logging.RequestIDFromContext(ctx); ok {
			w.Header().Set(requestIDHeader, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLogMiddleware logs one line per request at debug level, and at warn
// level for server errors.
func accessLogMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log := logging.WithContext(r.Context(), logger)
		attrs := []logging.Attr{
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("duration", time.Since(start)),
		}
		if rec.status >= http.StatusInternalServerError {
			log.Warn("http request failed", logging.Args(attrs...)...)
			return
		}
		log.Debug("http request", logging.Args(attrs...)...)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
