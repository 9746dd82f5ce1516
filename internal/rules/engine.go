package rules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/afikmenashe/adherence-platform/internal/adherence"
	"github.com/afikmenashe/adherence-platform/internal/notification"

	"github.com/google/uuid"
)

// Store is the fact-store contract the engine reads from and inserts into.
type Store interface {
	QueryAdherenceFacts(ctx context.Context, clientID string, filter adherence.FactFilter) ([]adherence.Fact, error)
	QueryOpenCareGaps(ctx context.Context, clientID string) ([]adherence.CareGap, error)
	QueryNotifications(ctx context.Context, clientID string, statuses []notification.Status) ([]*notification.Notification, error)
	// InsertNotification inserts n unless a non-resolved notification with the
	// same (client, rule key, entity ref) exists. Reports whether a row was
	// inserted.
	InsertNotification(ctx context.Context, n *notification.Notification) (bool, error)
}

// Publisher announces newly created notifications.
type Publisher interface {
	PublishCreated(ctx context.Context, n *notification.Notification) error
}

// MetricsRecorder records engine outcomes.
type MetricsRecorder interface {
	RecordEvaluation(clientID string, latency time.Duration, err error)
	RecordNotificationCreated(ruleKey string, severity notification.Severity)
	RecordNotificationSuppressed(ruleKey string)
}

// NoOpMetrics is a no-op MetricsRecorder.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordEvaluation(string, time.Duration, error) {}
func (NoOpMetrics) RecordNotificationCreated(string, notification.Severity) {}
func (NoOpMetrics) RecordNotificationSuppressed(string) {}

// EvaluationResult summarizes one evaluation pass.
type EvaluationResult struct {
	ClientID string                       `json:"client_id"`
	Matched  int                          `json:"matched"`
	Created  []*notification.Notification `json:"created"`
	// Suppressed counts matches skipped because a non-resolved notification
	// for the same rule and entity already existed.
	Suppressed  int       `json:"suppressed"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Engine evaluates the catalog for one client at a time. Evaluation only
// reads facts; its single side effect is notification creation.
type Engine struct {
	store     Store
	catalog   *Catalog
	policy    adherence.Policy
	publisher Publisher
	metrics   MetricsRecorder
	now       func() time.Time
	newID     func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithCatalog replaces the embedded catalog.
func WithCatalog(c *Catalog) Option {
	return func(e *Engine) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithPublisher sets the publisher for created notifications.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics sets a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides notification id generation.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// NewEngine creates an engine over store using the embedded catalog and
// adherence.DefaultPolicy.
func NewEngine(store Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:   store,
		policy:  adherence.DefaultPolicy,
		metrics: NoOpMetrics{},
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.catalog == nil {
		c, err := DefaultCatalog()
		if err != nil {
			return nil, err
		}
		e.catalog = c
	}
	return e, nil
}

// Catalog returns the engine's rule catalog.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Evaluate runs every rule for clientID and creates notifications for new
// matches. Re-running over unchanged data creates nothing.
func (e *Engine) Evaluate(ctx context.Context, clientID string) (*EvaluationResult, error) {
	start := time.Now()
	result, err := e.evaluate(ctx, clientID)
	e.metrics.RecordEvaluation(clientID, time.Since(start), err)
	if err != nil {
		slog.Error("Rule evaluation failed", "client_id", clientID, "error", err)
		return nil, err
	}

	slog.Info("Rule evaluation completed",
		"client_id", clientID,
		"matched", result.Matched,
		"created", len(result.Created),
		"suppressed", result.Suppressed,
		"duration", time.Since(start),
	)
	return result, nil
}

func (e *Engine) evaluate(ctx context.Context, clientID string) (*EvaluationResult, error) {
	if clientID == "" {
		return nil, fmt.Errorf("client_id cannot be empty")
	}
	now := e.now().UTC()

	snap, err := e.snapshot(ctx, clientID, now)
	if err != nil {
		return nil, err
	}

	existing, err := e.store.QueryNotifications(ctx, clientID, notification.NonResolved)
	if err != nil {
		return nil, fmt.Errorf("failed to query active notifications: %w", err)
	}
	active := make(map[string]struct{}, len(existing))
	for _, n := range existing {
		active[n.DedupeKey()] = struct{}{}
	}

	result := &EvaluationResult{
		ClientID:    clientID,
		Created:     []*notification.Notification{},
		EvaluatedAt: now,
	}

	for _, rule := range e.catalog.Rules() {
		for _, m := range rule.predicate(rule, snap) {
			result.Matched++

			n, err := e.build(rule, clientID, m, now)
			if err != nil {
				return nil, err
			}
			if _, dup := active[n.DedupeKey()]; dup {
				e.suppress(result, n)
				continue
			}

			inserted, err := e.store.InsertNotification(ctx, n)
			if err != nil {
				return nil, fmt.Errorf("failed to insert notification for rule %s: %w", rule.Key, err)
			}
			active[n.DedupeKey()] = struct{}{}
			if !inserted {
				// A concurrent pass won the storage uniqueness check.
				e.suppress(result, n)
				continue
			}

			result.Created = append(result.Created, n)
			e.metrics.RecordNotificationCreated(rule.Key, rule.Severity)
			e.publish(ctx, n)
		}
	}
	return result, nil
}

func (e *Engine) snapshot(ctx context.Context, clientID string, now time.Time) (*Snapshot, error) {
	facts, err := e.store.QueryAdherenceFacts(ctx, clientID, adherence.FactFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to query adherence facts: %w", err)
	}
	cohorts, err := adherence.Aggregate(clientID, adherence.Latest(facts), adherence.ByDrugClass)
	if err != nil {
		return nil, err
	}

	gaps, err := e.store.QueryOpenCareGaps(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query care gaps: %w", err)
	}

	return &Snapshot{
		ClientID: clientID,
		Now:      now,
		Policy:   e.policy,
		Cohorts:  cohorts,
		OpenGaps: gaps,
	}, nil
}

func (e *Engine) build(rule *Rule, clientID string, m Match, now time.Time) (*notification.Notification, error) {
	msg, err := rule.render(m.Data)
	if err != nil {
		return nil, err
	}
	return &notification.Notification{
		ID:                e.newID(),
		ClientID:          clientID,
		RuleKey:           rule.Key,
		EntityRef:         m.EntityRef,
		Message:           msg,
		RecommendedAction: rule.RecommendedAction,
		Severity:          rule.Severity,
		Owner:             rule.Owner,
		SLAHours:          rule.SLAHours,
		Status:            notification.StatusOpen,
		CreatedAt:         now,
	}, nil
}

func (e *Engine) suppress(result *EvaluationResult, n *notification.Notification) {
	result.Suppressed++
	e.metrics.RecordNotificationSuppressed(n.RuleKey)
	slog.Debug("Active notification exists, skipping",
		"client_id", n.ClientID,
		"rule_key", n.RuleKey,
		"entity_ref", n.EntityRef,
	)
}

func (e *Engine) publish(ctx context.Context, n *notification.Notification) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishCreated(ctx, n); err != nil {
		// The row is committed; a missed event does not undo it.
		slog.Error("Failed to publish notification created event",
			"notification_id", n.ID,
			"client_id", n.ClientID,
			"error", err,
		)
	}
}
