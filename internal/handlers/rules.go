package handlers

import (
	"net/http"

	"github.com/afikmenashe/adherence-platform/internal/rules"
)

// ListRules returns the rule catalog.
// GET /api/v1/rules
func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	catalog := h.evaluator.Catalog()
	if catalog == nil {
		writeJSON(w, http.StatusOK, []*rules.Rule{})
		return
	}
	writeJSON(w, http.StatusOK, catalog.Rules())
}

// EvaluateRules runs the catalog for one client immediately.
// POST /api/v1/rules/evaluate?client_id=
func (h *Handlers) EvaluateRules(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	clientID, ok := requireQueryParam(w, r, "client_id")
	if !ok {
		return
	}

	result, err := h.evaluator.Evaluate(r.Context(), clientID)
	if handleError(w, err, "evaluate rules", "client_id", clientID) {
		return
	}
	writeJSON(w, http.StatusOK, result)
}
