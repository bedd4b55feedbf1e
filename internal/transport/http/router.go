// Package httptransport assembles the HTTP surface: middleware chain, the
// review routes and /metrics.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"claimaudit/internal/platform/metrics"
	"claimaudit/internal/review/handler"
	dErrors "claimaudit/pkg/domain-errors"
	"claimaudit/pkg/platform/httputil"
	"claimaudit/pkg/platform/middleware/accesslog"
	"claimaudit/pkg/platform/middleware/requestid"
	"claimaudit/pkg/platform/middleware/requesttime"
)

// NewRouter wires all public endpoints. httpMetrics may be nil.
func NewRouter(review *handler.Handler, httpMetrics *metrics.HTTP, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(accesslog.Middleware(logger))
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{
			"error":             "method_not_allowed",
			"error_description": "method not allowed",
		})
	})

	review.Register(r)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}
