package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// sessionIDHeader mirrors the header the session registry reads. Kept as a
// plain string so middleware stays independent of the handler package.
const sessionIDHeader = "X-Session-ID"

// quietPaths are polled by probes and scrapers; logging every hit drowns
// out real traffic.
var quietPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/live":    true,
	"/metrics": true,
}

// RequestLogger logs each request after it completes. Server errors log at
// error level, client errors at warn, the rest at info. Visitor session IDs
// ride along so journeys can be traced through the logs.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			if quietPaths[r.URL.Path] && rw.statusCode < http.StatusBadRequest {
				return
			}

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			}
			if sid := r.Header.Get(sessionIDHeader); sid != "" {
				fields = append(fields, zap.String("session_id", sid))
			}

			log := LoggerWithCorrelation(r.Context(), logger)
			switch {
			case rw.statusCode >= http.StatusInternalServerError:
				log.Error("http request", fields...)
			case rw.statusCode >= http.StatusBadRequest:
				log.Warn("http request", fields...)
			default:
				log.Info("http request", fields...)
			}
		})
	}
}
