// Package accesslog writes one structured log line per HTTP request.
package accesslog

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"claimaudit/pkg/requestcontext"
)

// Middleware logs method, path, status, client IP, the caller's user agent
// and duration. Server errors log at ERROR, client errors at WARN.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}
			ctx := r.Context()
			attrs := []any{
				"request_id", requestcontext.RequestID(ctx),
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"bytes", rec.bytes,
				"client_ip", ClientIP(r),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if raw := r.UserAgent(); raw != "" {
				attrs = append(attrs, agentAttrs(raw)...)
			}
			logger.Log(ctx, level, "http request", attrs...)
		})
	}
}

// agentAttrs summarizes a User-Agent header so adjuster portals, scripts and
// crawlers can be told apart in the log.
func agentAttrs(raw string) []any {
	ua := useragent.New(raw)
	name, version := ua.Browser()
	client := name
	if version != "" {
		client += "/" + version
	}
	return []any{
		"client", client,
		"client_os", ua.OS(),
		"bot", ua.Bot(),
	}
}

// ClientIP returns the originating client address: the first X-Forwarded-For
// entry, then X-Real-IP, then the connection's remote host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

type recorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
