package middleware

import (
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"

	"AUTHGATE/internal/metrics"
)

// RequestLogger logs one line per request and records request metrics.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			metrics.RecordRequest(r.Method, m.Code, m.Duration)

			level := slog.LevelInfo
			if m.Code >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.LogAttrs(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", m.Code),
				slog.Int64("bytes", m.Written),
				slog.Duration("duration", m.Duration),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("referer", r.Referer()),
				slog.String("user_agent", r.UserAgent()),
			)
		})
	}
}
