package handlers

import (
	"log/slog"
	"net/http"

	"github.com/afikmenashe/adherence-platform/internal/embed"
)

// CreateEmbedURL signs an embed URL.
// POST /api/v1/embed
func (h *Handlers) CreateEmbedURL(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req embed.Request
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.issuer.Issue(req)
	h.metrics.RecordEmbed(err)
	if handleError(w, err, "issue embed URL", "external_user_id", req.ExternalUserID) {
		return
	}

	slog.Info("Issued embed URL", "external_user_id", req.ExternalUserID, "expires_in", result.ExpiresIn)
	writeJSON(w, http.StatusOK, result)
}

// GetEmbedStatus reports whether embed credentials are configured.
// GET /api/v1/embed
func (h *Handlers) GetEmbedStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.issuer.Status())
}
