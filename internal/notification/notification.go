// Package notification defines alert notifications and the lifecycle that
// governs them from creation through triage to resolution.
package notification

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a notification.
type Status string

// Canonical status vocabulary. Stored values are upper-case.
const (
	StatusOpen     Status = "OPEN"
	StatusTriaged  Status = "TRIAGED"
	StatusResolved Status = "RESOLVED"
)

// NonResolved lists the statuses that count as active for duplicate
// suppression and dashboards.
var NonResolved = []Status{StatusOpen, StatusTriaged}

// ParseStatus accepts the canonical names case-insensitively, plus the
// legacy "Active" spelling, which maps to OPEN.
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OPEN", "ACTIVE":
		return StatusOpen, nil
	case "TRIAGED":
		return StatusTriaged, nil
	case "RESOLVED":
		return StatusResolved, nil
	default:
		return "", fmt.Errorf("invalid status %q: must be one of OPEN, TRIAGED, RESOLVED", s)
	}
}

// Severity ranks how urgent a notification is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ParseSeverity converts a case-insensitive severity name.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(strings.ToUpper(strings.TrimSpace(s))); sev {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return sev, nil
	default:
		return "", fmt.Errorf("invalid severity %q: must be one of LOW, MEDIUM, HIGH, CRITICAL", s)
	}
}

// Notification is an actionable alert produced by the rules engine.
// Breach state is derived from CreatedAt, SLAHours and Status and is never
// stored.
type Notification struct {
	ID                string     `json:"notification_id"`
	ClientID          string     `json:"client_id"`
	RuleKey           string     `json:"rule_key"`
	EntityRef         string     `json:"entity_ref"`
	Message           string     `json:"message"`
	RecommendedAction string     `json:"recommended_action"`
	Severity          Severity   `json:"severity"`
	Owner             string     `json:"owner"`
	SLAHours          int        `json:"sla_hours"`
	Status            Status     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	AcknowledgedAt    *time.Time `json:"acknowledged_at,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

// Deadline is CreatedAt plus the SLA window.
func (n *Notification) Deadline() time.Time {
	return n.CreatedAt.Add(time.Duration(n.SLAHours) * time.Hour)
}

// IsBreached reports whether the SLA deadline has passed at now without the
// notification being resolved.
func (n *Notification) IsBreached(now time.Time) bool {
	return n.Status != StatusResolved && now.After(n.Deadline())
}

// DedupeKey identifies the cohort/member/window a rule fired for.
func (n *Notification) DedupeKey() string {
	return n.RuleKey + "|" + n.EntityRef
}

// View is the read model served to dashboards and the CLI. Breach and
// deadline are recomputed on every read.
type View struct {
	*Notification
	SLADeadline time.Time `json:"sla_deadline"`
	Breached    bool      `json:"breached"`
}

// NewView derives the read model at now.
func NewView(n *Notification, now time.Time) View {
	return View{
		Notification: n,
		SLADeadline:  n.Deadline(),
		Breached:     n.IsBreached(now),
	}
}

// Views derives read models for a list of notifications.
func Views(ns []*Notification, now time.Time) []View {
	out := make([]View, 0, len(ns))
	for _, n := range ns {
		out = append(out, NewView(n, now))
	}
	return out
}

// Summary counts notifications by state for the insights view.
type Summary struct {
	Open             int `json:"open"`
	Triaged          int `json:"triaged"`
	Resolved         int `json:"resolved"`
	Breached         int `json:"breached"`
	HighSeverityOpen int `json:"high_severity_open"`
}

// Summarize tallies notifications at now.
func Summarize(ns []*Notification, now time.Time) Summary {
	var s Summary
	for _, n := range ns {
		switch n.Status {
		case StatusOpen:
			s.Open++
		case StatusTriaged:
			s.Triaged++
		case StatusResolved:
			s.Resolved++
		}
		if n.IsBreached(now) {
			s.Breached++
		}
		if n.Status != StatusResolved && (n.Severity == SeverityHigh || n.Severity == SeverityCritical) {
			s.HighSeverityOpen++
		}
	}
	return s
}
