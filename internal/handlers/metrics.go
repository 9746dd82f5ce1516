package handlers

import (
	"net/http"

	"github.com/afikmenashe/adherence-platform/pkg/metrics"
)

// ServiceMetricsResponse wraps service metrics with known service list.
type ServiceMetricsResponse struct {
	Services      map[string]*metrics.ServiceMetrics `json:"services"`
	KnownServices []string                           `json:"known_services"`
}

// GetServiceMetrics returns the Redis snapshots of every service. Services
// without a recent snapshot are reported offline.
// GET /api/v1/services/metrics
func (h *Handlers) GetServiceMetrics(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if h.metricsReader == nil {
		http.Error(w, "Service metrics are not enabled", http.StatusServiceUnavailable)
		return
	}

	all, err := h.metricsReader.GetAllServiceMetrics(r.Context())
	if handleError(w, err, "read service metrics") {
		return
	}
	for _, name := range metrics.ServiceNames {
		if _, ok := all[name]; !ok {
			all[name] = &metrics.ServiceMetrics{ServiceName: name, Status: "offline"}
		}
	}

	writeJSON(w, http.StatusOK, ServiceMetricsResponse{
		Services:      all,
		KnownServices: metrics.ServiceNames,
	})
}
