package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrIllegalTransition is returned when a status change would move a
	// notification backwards or out of RESOLVED.
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrNotFound is returned when no notification has the requested id.
	ErrNotFound = errors.New("notification not found")
	// ErrConcurrentUpdate is returned when another writer changed the
	// notification between read and conditional update.
	ErrConcurrentUpdate = errors.New("notification changed concurrently")
)

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusOpen:
		return to == StatusTriaged || to == StatusResolved
	case StatusTriaged:
		return to == StatusResolved
	default:
		return false
	}
}

// Transition applies a status change at now and returns the updated copy.
// The original is never modified. Entering TRIAGED sets AcknowledgedAt;
// entering RESOLVED sets ResolvedAt.
func Transition(n *Notification, to Status, now time.Time) (*Notification, error) {
	if !CanTransition(n.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, n.Status, to)
	}
	out := *n
	out.Status = to
	ts := now.UTC()
	switch to {
	case StatusTriaged:
		out.AcknowledgedAt = &ts
	case StatusResolved:
		out.ResolvedAt = &ts
	}
	return &out, nil
}

// Store is the subset of the fact store the lifecycle needs.
type Store interface {
	GetNotification(ctx context.Context, id string) (*Notification, error)
	// UpdateNotificationStatus moves id from -> to in one conditional write
	// and reports whether a row changed.
	UpdateNotificationStatus(ctx context.Context, id string, from, to Status, ts time.Time) (bool, error)
}

// EventPublisher receives lifecycle transitions.
type EventPublisher interface {
	PublishTransition(ctx context.Context, n *Notification, from Status) error
}

// Lifecycle applies operator- or automation-triggered transitions. It
// validates legality but never schedules transitions itself.
type Lifecycle struct {
	store     Store
	publisher EventPublisher
	now       func() time.Time
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Lifecycle) {
		if now != nil {
			l.now = now
		}
	}
}

// WithPublisher sets the publisher notified after each transition.
func WithPublisher(p EventPublisher) Option {
	return func(l *Lifecycle) {
		if p != nil {
			l.publisher = p
		}
	}
}

// NewLifecycle creates a lifecycle over store.
func NewLifecycle(store Store, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Triage acknowledges an open notification.
func (l *Lifecycle) Triage(ctx context.Context, id string) (*Notification, error) {
	return l.apply(ctx, id, StatusTriaged)
}

// Resolve closes an open or triaged notification.
func (l *Lifecycle) Resolve(ctx context.Context, id string) (*Notification, error) {
	return l.apply(ctx, id, StatusResolved)
}

// Apply moves a notification to the requested status.
func (l *Lifecycle) Apply(ctx context.Context, id string, to Status) (*Notification, error) {
	return l.apply(ctx, id, to)
}

func (l *Lifecycle) apply(ctx context.Context, id string, to Status) (*Notification, error) {
	current, err := l.store.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := Transition(current, to, l.now())
	if err != nil {
		slog.Warn("Rejected notification transition",
			"notification_id", id,
			"from", current.Status,
			"to", to,
		)
		return nil, err
	}

	ts := updated.AcknowledgedAt
	if to == StatusResolved {
		ts = updated.ResolvedAt
	}

	changed, err := l.store.UpdateNotificationStatus(ctx, id, current.Status, to, *ts)
	if err != nil {
		return nil, fmt.Errorf("failed to update notification status: %w", err)
	}
	if !changed {
		// Someone else moved it first. Report against the state they left.
		latest, err := l.store.GetNotification(ctx, id)
		if err != nil {
			return nil, err
		}
		if !CanTransition(latest.Status, to) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, latest.Status, to)
		}
		return nil, ErrConcurrentUpdate
	}

	slog.Info("Notification transitioned",
		"notification_id", id,
		"client_id", updated.ClientID,
		"rule_key", updated.RuleKey,
		"from", current.Status,
		"to", to,
	)

	if l.publisher != nil {
		if err := l.publisher.PublishTransition(ctx, updated, current.Status); err != nil {
			// The status change is durable; the event is best effort.
			slog.Error("Failed to publish notification transition",
				"notification_id", id,
				"error", err,
			)
		}
	}

	return updated, nil
}
