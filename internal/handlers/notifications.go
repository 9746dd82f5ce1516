package handlers

import (
	"context"
	"net/http"

	"github.com/afikmenashe/adherence-platform/internal/notification"
)

// GetNotification retrieves a notification by ID.
// GET /api/v1/notifications?notification_id=
func (h *Handlers) GetNotification(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	id, ok := requireQueryParam(w, r, "notification_id")
	if !ok {
		return
	}

	n, err := h.db.GetNotification(r.Context(), id)
	if handleError(w, err, "get notification", "notification_id", id) {
		return
	}
	writeJSON(w, http.StatusOK, notification.NewView(n, h.now()))
}

// ListNotifications lists a client's notifications, optionally by status.
// GET /api/v1/notifications?client_id=&status=
func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	clientID, ok := requireQueryParam(w, r, "client_id")
	if !ok {
		return
	}

	var statuses []notification.Status
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := notification.ParseStatus(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		statuses = []notification.Status{status}
	}

	ns, err := h.db.QueryNotifications(r.Context(), clientID, statuses)
	if handleError(w, err, "list notifications", "client_id", clientID) {
		return
	}
	writeJSON(w, http.StatusOK, notification.Views(ns, h.now()))
}

// GetNotificationSummary returns open/triaged/resolved/breached counts.
// GET /api/v1/notifications/summary?client_id=
func (h *Handlers) GetNotificationSummary(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	clientID, ok := requireQueryParam(w, r, "client_id")
	if !ok {
		return
	}

	ns, err := h.db.QueryNotifications(r.Context(), clientID, nil)
	if handleError(w, err, "list notifications", "client_id", clientID) {
		return
	}
	writeJSON(w, http.StatusOK, notification.Summarize(ns, h.now()))
}

// TriageNotification acknowledges an open notification.
// POST /api/v1/notifications/triage?notification_id=
func (h *Handlers) TriageNotification(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, notification.StatusTriaged, h.lifecycle.Triage)
}

// ResolveNotification resolves an open or triaged notification.
// POST /api/v1/notifications/resolve?notification_id=
func (h *Handlers) ResolveNotification(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, notification.StatusResolved, h.lifecycle.Resolve)
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, to notification.Status,
	apply func(ctx context.Context, id string) (*notification.Notification, error)) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	id, ok := requireQueryParam(w, r, "notification_id")
	if !ok {
		return
	}

	n, err := apply(r.Context(), id)
	if handleError(w, err, "update notification", "notification_id", id) {
		return
	}
	h.metrics.RecordTransition(to)
	writeJSON(w, http.StatusOK, notification.NewView(n, h.now()))
}
