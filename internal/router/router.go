// Package router provides HTTP routing configuration for the adherence API.
// It sets up routes and applies middleware like CORS.
package router

import (
	"net/http"

	"github.com/afikmenashe/adherence-platform/internal/handlers"
	"github.com/afikmenashe/adherence-platform/internal/telemetry"
)

// Router wraps the HTTP mux and provides route configuration.
type Router struct {
	mux       *http.ServeMux
	handlers  *handlers.Handlers
	telemetry *telemetry.Metrics
}

// NewRouter creates a new router with all routes configured. tel may be nil,
// in which case /metrics is not served and requests are not measured.
func NewRouter(h *handlers.Handlers, tel *telemetry.Metrics) *Router {
	r := &Router{
		mux:       http.NewServeMux(),
		handlers:  h,
		telemetry: tel,
	}
	r.setupRoutes()
	return r
}

// Handler returns the HTTP handler with CORS and metrics middleware applied.
func (r *Router) Handler() http.Handler {
	return corsMiddleware(metricsMiddleware(r.telemetry)(r.mux))
}
