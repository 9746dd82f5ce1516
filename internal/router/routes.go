package router

import (
	"net/http"
)

// setupRoutes configures all HTTP routes for the API.
func (r *Router) setupRoutes() {
	// Adherence analytics
	r.mux.HandleFunc("/api/v1/adherence/cohorts", r.handlers.GetCohorts)
	r.mux.HandleFunc("/api/v1/adherence/overview", r.handlers.GetOverview)
	r.mux.HandleFunc("/api/v1/adherence/distribution", r.handlers.GetDistribution)
	r.mux.HandleFunc("/api/v1/adherence/members", r.handlers.ListMembers)

	// Notification endpoints
	r.mux.HandleFunc("/api/v1/notifications", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			if req.URL.Query().Get("notification_id") != "" {
				r.handlers.GetNotification(w, req)
			} else {
				r.handlers.ListNotifications(w, req)
			}
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	r.mux.HandleFunc("/api/v1/notifications/summary", r.handlers.GetNotificationSummary)
	r.mux.HandleFunc("/api/v1/notifications/triage", r.handlers.TriageNotification)
	r.mux.HandleFunc("/api/v1/notifications/resolve", r.handlers.ResolveNotification)

	// Rule catalog
	r.mux.HandleFunc("/api/v1/rules", r.handlers.ListRules)
	r.mux.HandleFunc("/api/v1/rules/evaluate", r.handlers.EvaluateRules)

	// Embed URLs. /embed is kept for dashboards that predate the versioned path.
	embed := func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			r.handlers.CreateEmbedURL(w, req)
		case http.MethodGet:
			r.handlers.GetEmbedStatus(w, req)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
	r.mux.HandleFunc("/api/v1/embed", embed)
	r.mux.HandleFunc("/embed", embed)

	r.mux.HandleFunc("/api/v1/services/metrics", r.handlers.GetServiceMetrics)

	if r.telemetry != nil {
		r.mux.Handle("/metrics", r.telemetry.Handler())
	}

	// Health check endpoint
	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}
