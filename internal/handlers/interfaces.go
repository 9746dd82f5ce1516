package handlers

import (
	"context"

	"github.com/afikmenashe/adherence-platform/internal/adherence"
	"github.com/afikmenashe/adherence-platform/internal/embed"
	"github.com/afikmenashe/adherence-platform/internal/notification"
	"github.com/afikmenashe/adherence-platform/internal/rules"
	"github.com/afikmenashe/adherence-platform/pkg/metrics"
)

// Repository is the read side of the fact store used by the handlers.
type Repository interface {
	QueryAdherenceFacts(ctx context.Context, clientID string, filter adherence.FactFilter) ([]adherence.Fact, error)
	ListMembers(ctx context.Context, clientID string) ([]adherence.Member, error)
	GetNotification(ctx context.Context, notificationID string) (*notification.Notification, error)
	QueryNotifications(ctx context.Context, clientID string, statuses []notification.Status) ([]*notification.Notification, error)
}

// Evaluator runs the rule catalog on demand.
type Evaluator interface {
	Evaluate(ctx context.Context, clientID string) (*rules.EvaluationResult, error)
	Catalog() *rules.Catalog
}

// Transitioner applies notification lifecycle transitions.
type Transitioner interface {
	Triage(ctx context.Context, id string) (*notification.Notification, error)
	Resolve(ctx context.Context, id string) (*notification.Notification, error)
}

// EmbedIssuer signs embed URLs.
type EmbedIssuer interface {
	Issue(req embed.Request) (*embed.Result, error)
	Status() embed.Status
}

// ServiceMetricsReader reads service snapshots from Redis.
type ServiceMetricsReader interface {
	GetAllServiceMetrics(ctx context.Context) (map[string]*metrics.ServiceMetrics, error)
}

// MetricsRecorder defines the interface for recording handler metrics.
// This uses the null object pattern - a no-op implementation avoids nil checks.
type MetricsRecorder interface {
	RecordTransition(to notification.Status)
	RecordEmbed(err error)
}

// NoOpMetrics is a no-op implementation of MetricsRecorder.
type NoOpMetrics struct{}

var _ MetricsRecorder = NoOpMetrics{}

func (NoOpMetrics) RecordTransition(notification.Status) {}
func (NoOpMetrics) RecordEmbed(error)                    {}
