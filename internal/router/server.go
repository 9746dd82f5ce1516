package router

import (
	"net/http"
	"time"

	"github.com/afikmenashe/adherence-platform/internal/handlers"
	"github.com/afikmenashe/adherence-platform/internal/telemetry"
)

// NewServer creates a new HTTP server with the router configured.
func NewServer(port string, h *handlers.Handlers, tel *telemetry.Metrics) *http.Server {
	router := NewRouter(h, tel)
	return &http.Server{
		Addr:         ":" + port,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
