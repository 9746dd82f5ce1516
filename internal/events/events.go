// Package events defines the notification lifecycle events published to Kafka.
package events

import (
	"time"

	"github.com/afikmenashe/adherence-platform/internal/notification"
)

// SchemaVersion is the current NotificationEvent payload version.
const SchemaVersion = 1

// Event types for NotificationEvent.
const (
	TypeCreated  = "NOTIFICATION_CREATED"
	TypeTriaged  = "NOTIFICATION_TRIAGED"
	TypeResolved = "NOTIFICATION_RESOLVED"
)

// NotificationEvent is published when a notification is created or changes
// status. Timestamps are Unix seconds.
type NotificationEvent struct {
	EventType      string `json:"event_type"`
	NotificationID string `json:"notification_id"`
	ClientID       string `json:"client_id"`
	RuleKey        string `json:"rule_key"`
	EntityRef      string `json:"entity_ref"`
	Severity       string `json:"severity"`
	Owner          string `json:"owner"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`
	SLAHours       int    `json:"sla_hours"`
	SLADeadline    int64  `json:"sla_deadline"`
	OccurredAt     int64  `json:"occurred_at"`
	SchemaVersion  int    `json:"schema_version"`
}

func fromNotification(eventType string, n *notification.Notification, at time.Time) *NotificationEvent {
	return &NotificationEvent{
		EventType:      eventType,
		NotificationID: n.ID,
		ClientID:       n.ClientID,
		RuleKey:        n.RuleKey,
		EntityRef:      n.EntityRef,
		Severity:       string(n.Severity),
		Owner:          n.Owner,
		Status:         string(n.Status),
		SLAHours:       n.SLAHours,
		SLADeadline:    n.Deadline().Unix(),
		OccurredAt:     at.Unix(),
		SchemaVersion:  SchemaVersion,
	}
}

// Created builds the event for a newly inserted notification.
func Created(n *notification.Notification) *NotificationEvent {
	return fromNotification(TypeCreated, n, n.CreatedAt)
}

// Transitioned builds the event for a status change from -> n.Status. It
// returns nil when n.Status is not a transition target.
func Transitioned(n *notification.Notification, from notification.Status) *NotificationEvent {
	var e *NotificationEvent
	switch {
	case n.Status == notification.StatusTriaged && n.AcknowledgedAt != nil:
		e = fromNotification(TypeTriaged, n, *n.AcknowledgedAt)
	case n.Status == notification.StatusResolved && n.ResolvedAt != nil:
		e = fromNotification(TypeResolved, n, *n.ResolvedAt)
	default:
		return nil
	}
	e.PreviousStatus = string(from)
	return e
}
