package handlers

import (
	"context"

	"github.com/afikmenashe/adherence-platform/internal/adherence"
	"github.com/afikmenashe/adherence-platform/internal/embed"
	"github.com/afikmenashe/adherence-platform/internal/notification"
	"github.com/afikmenashe/adherence-platform/internal/rules"
	"github.com/afikmenashe/adherence-platform/pkg/metrics"
)

// mockRepository implements Repository interface for testing.
type mockRepository struct {
	// Callbacks for each method (set these to control behavior)
	QueryAdherenceFactsFn func(ctx context.Context, clientID string, filter adherence.FactFilter) ([]adherence.Fact, error)
	ListMembersFn         func(ctx context.Context, clientID string) ([]adherence.Member, error)
	GetNotificationFn     func(ctx context.Context, notificationID string) (*notification.Notification, error)
	QueryNotificationsFn  func(ctx context.Context, clientID string, statuses []notification.Status) ([]*notification.Notification, error)
}

func (m *mockRepository) QueryAdherenceFacts(ctx context.Context, clientID string, filter adherence.FactFilter) ([]adherence.Fact, error) {
	if m.QueryAdherenceFactsFn != nil {
		return m.QueryAdherenceFactsFn(ctx, clientID, filter)
	}
	return []adherence.Fact{}, nil
}

func (m *mockRepository) ListMembers(ctx context.Context, clientID string) ([]adherence.Member, error) {
	if m.ListMembersFn != nil {
		return m.ListMembersFn(ctx, clientID)
	}
	return []adherence.Member{}, nil
}

func (m *mockRepository) GetNotification(ctx context.Context, notificationID string) (*notification.Notification, error) {
	if m.GetNotificationFn != nil {
		return m.GetNotificationFn(ctx, notificationID)
	}
	return nil, notification.ErrNotFound
}

func (m *mockRepository) QueryNotifications(ctx context.Context, clientID string, statuses []notification.Status) ([]*notification.Notification, error) {
	if m.QueryNotificationsFn != nil {
		return m.QueryNotificationsFn(ctx, clientID, statuses)
	}
	return []*notification.Notification{}, nil
}

// mockEvaluator implements Evaluator interface for testing.
type mockEvaluator struct {
	EvaluateFn func(ctx context.Context, clientID string) (*rules.EvaluationResult, error)
	catalog    *rules.Catalog
}

func (m *mockEvaluator) Evaluate(ctx context.Context, clientID string) (*rules.EvaluationResult, error) {
	if m.EvaluateFn != nil {
		return m.EvaluateFn(ctx, clientID)
	}
	return &rules.EvaluationResult{ClientID: clientID}, nil
}

func (m *mockEvaluator) Catalog() *rules.Catalog {
	return m.catalog
}

// mockTransitioner implements Transitioner interface for testing.
type mockTransitioner struct {
	TriageFn  func(ctx context.Context, id string) (*notification.Notification, error)
	ResolveFn func(ctx context.Context, id string) (*notification.Notification, error)
}

func (m *mockTransitioner) Triage(ctx context.Context, id string) (*notification.Notification, error) {
	if m.TriageFn != nil {
		return m.TriageFn(ctx, id)
	}
	return nil, notification.ErrNotFound
}

func (m *mockTransitioner) Resolve(ctx context.Context, id string) (*notification.Notification, error) {
	if m.ResolveFn != nil {
		return m.ResolveFn(ctx, id)
	}
	return nil, notification.ErrNotFound
}

// mockMetrics records handler metric calls.
type mockMetrics struct {
	transitions []notification.Status
	embeds      []error
}

func (m *mockMetrics) RecordTransition(to notification.Status) { m.transitions = append(m.transitions, to) }
func (m *mockMetrics) RecordEmbed(err error)                   { m.embeds = append(m.embeds, err) }

// mockMetricsReader implements ServiceMetricsReader interface for testing.
type mockMetricsReader struct {
	services map[string]*metrics.ServiceMetrics
	err      error
}

func (m *mockMetricsReader) GetAllServiceMetrics(ctx context.Context) (map[string]*metrics.ServiceMetrics, error) {
	return m.services, m.err
}

var _ EmbedIssuer = (*embed.Issuer)(nil)
