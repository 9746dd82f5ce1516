package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/afikmenashe/adherence-platform/internal/adherence"
	"github.com/afikmenashe/adherence-platform/internal/embed"
	"github.com/afikmenashe/adherence-platform/internal/notification"
)

// handleError maps domain errors to HTTP responses.
// Returns true if an error was written, false if err is nil.
func handleError(w http.ResponseWriter, err error, action string, attrs ...any) bool {
	if err == nil {
		return false
	}

	var (
		cfgErr     *embed.ConfigurationError
		validErr   *embed.ValidationError
		signingErr *embed.SigningError
	)

	switch {
	case errors.Is(err, notification.ErrNotFound):
		http.Error(w, "Notification not found", http.StatusNotFound)
	case errors.Is(err, notification.ErrIllegalTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, notification.ErrConcurrentUpdate):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &validErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &cfgErr):
		slog.Error("Embed issuer not configured", append([]any{"error", err}, attrs...)...)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	case errors.As(err, &signingErr):
		http.Error(w, "Failed to sign embed URL", http.StatusInternalServerError)
	case errors.Is(err, adherence.ErrCrossClient):
		slog.Error("Cross-client data in aggregation input", append([]any{"error", err}, attrs...)...)
		http.Error(w, "Failed to "+action, http.StatusInternalServerError)
	default:
		slog.Error("Request failed", append([]any{"action", action, "error", err}, attrs...)...)
		http.Error(w, "Failed to "+action, http.StatusInternalServerError)
	}
	return true
}
