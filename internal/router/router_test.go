package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/afikmenashe/adherence-platform/internal/adherence"
	"github.com/afikmenashe/adherence-platform/internal/embed"
	"github.com/afikmenashe/adherence-platform/internal/handlers"
	"github.com/afikmenashe/adherence-platform/internal/notification"
	"github.com/afikmenashe/adherence-platform/internal/rules"
	"github.com/afikmenashe/adherence-platform/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct{}

func (stubRepo) QueryAdherenceFacts(ctx context.Context, clientID string, filter adherence.FactFilter) ([]adherence.Fact, error) {
	return nil, nil
}

func (stubRepo) ListMembers(ctx context.Context, clientID string) ([]adherence.Member, error) {
	return nil, nil
}

func (stubRepo) GetNotification(ctx context.Context, id string) (*notification.Notification, error) {
	return nil, notification.ErrNotFound
}

func (stubRepo) QueryNotifications(ctx context.Context, clientID string, statuses []notification.Status) ([]*notification.Notification, error) {
	return nil, nil
}

type stubEvaluator struct{}

func (stubEvaluator) Evaluate(ctx context.Context, clientID string) (*rules.EvaluationResult, error) {
	return &rules.EvaluationResult{ClientID: clientID}, nil
}

func (stubEvaluator) Catalog() *rules.Catalog { return nil }

type stubLifecycle struct{}

func (stubLifecycle) Triage(ctx context.Context, id string) (*notification.Notification, error) {
	return nil, notification.ErrNotFound
}

func (stubLifecycle) Resolve(ctx context.Context, id string) (*notification.Notification, error) {
	return nil, notification.ErrNotFound
}

func newTestHandlers() *handlers.Handlers {
	return handlers.NewHandlers(stubRepo{}, stubEvaluator{}, stubLifecycle{}, embed.NewIssuer(embed.Config{}))
}

// TestNewRouter tests the NewRouter constructor.
func TestNewRouter(t *testing.T) {
	h := newTestHandlers()

	router := NewRouter(h, nil)
	require.NotNil(t, router)
	assert.NotNil(t, router.mux)
	assert.Same(t, h, router.handlers)
}

// TestRouter_Handler tests that the router returns a handler with CORS middleware.
func TestRouter_Handler(t *testing.T) {
	handler := NewRouter(newTestHandlers(), nil).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/notifications", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
}

func TestRouter_Routes(t *testing.T) {
	handler := NewRouter(newTestHandlers(), nil).Handler()

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"cohorts", http.MethodGet, "/api/v1/adherence/cohorts?client_id=acme", http.StatusOK},
		{"overview", http.MethodGet, "/api/v1/adherence/overview?client_id=acme", http.StatusOK},
		{"distribution", http.MethodGet, "/api/v1/adherence/distribution?client_id=acme", http.StatusOK},
		{"members", http.MethodGet, "/api/v1/adherence/members?client_id=acme", http.StatusOK},
		{"list notifications", http.MethodGet, "/api/v1/notifications?client_id=acme", http.StatusOK},
		{"get notification", http.MethodGet, "/api/v1/notifications?notification_id=n-1", http.StatusNotFound},
		{"notifications wrong method", http.MethodDelete, "/api/v1/notifications", http.StatusMethodNotAllowed},
		{"summary", http.MethodGet, "/api/v1/notifications/summary?client_id=acme", http.StatusOK},
		{"triage", http.MethodPost, "/api/v1/notifications/triage?notification_id=n-1", http.StatusNotFound},
		{"resolve", http.MethodPost, "/api/v1/notifications/resolve?notification_id=n-1", http.StatusNotFound},
		{"rules", http.MethodGet, "/api/v1/rules", http.StatusOK},
		{"evaluate", http.MethodPost, "/api/v1/rules/evaluate?client_id=acme", http.StatusOK},
		{"embed status", http.MethodGet, "/api/v1/embed", http.StatusOK},
		{"legacy embed status", http.MethodGet, "/embed", http.StatusOK},
		{"embed wrong method", http.MethodDelete, "/embed", http.StatusMethodNotAllowed},
		{"service metrics disabled", http.MethodGet, "/api/v1/services/metrics", http.StatusServiceUnavailable},
		{"no prometheus without telemetry", http.MethodGet, "/metrics", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestRouter_EmbedNotConfigured(t *testing.T) {
	handler := NewRouter(newTestHandlers(), nil).Handler()

	body := strings.NewReader(`{"workbookUrl":"https://app.example.com/workbook/adherence"}`)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/embed", body))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "EMBED_CLIENT_ID not configured")
}

func TestRouter_PrometheusMetrics(t *testing.T) {
	tel := telemetry.New(nil)
	handler := NewRouter(newTestHandlers(), tel).Handler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `adherence_http_requests_total{code="200",method="GET"} 1`)
}

func TestNewServer(t *testing.T) {
	srv := NewServer("8080", newTestHandlers(), nil)
	assert.Equal(t, ":8080", srv.Addr)
	assert.NotNil(t, srv.Handler)
}
