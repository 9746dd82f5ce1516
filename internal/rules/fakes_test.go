package rules

import (
	"context"
	"sync"
	"time"

	"github.com/afikmenashe/adherence-platform/internal/adherence"
	"github.com/afikmenashe/adherence-platform/internal/notification"
)

// FakeStore is an in-memory Store. InsertNotification enforces the same
// uniqueness as the partial index on (client_id, rule_key, entity_ref).
type FakeStore struct {
	mu            sync.Mutex
	Facts         []adherence.Fact
	Gaps          []adherence.CareGap
	Notifications []*notification.Notification

	FactsErr  error
	InsertErr error
	// HideActive makes QueryNotifications return nothing, so only the
	// storage uniqueness check can suppress duplicates.
	HideActive  bool
	InsertCalls int
}

func (f *FakeStore) QueryAdherenceFacts(ctx context.Context, clientID string, filter adherence.FactFilter) ([]adherence.Fact, error) {
	if f.FactsErr != nil {
		return nil, f.FactsErr
	}
	var out []adherence.Fact
	for _, fact := range f.Facts {
		if fact.ClientID == clientID {
			out = append(out, fact)
		}
	}
	return out, nil
}

func (f *FakeStore) QueryOpenCareGaps(ctx context.Context, clientID string) ([]adherence.CareGap, error) {
	var out []adherence.CareGap
	for _, g := range f.Gaps {
		if g.ClientID == clientID && g.ClosedAt == nil {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *FakeStore) QueryNotifications(ctx context.Context, clientID string, statuses []notification.Status) ([]*notification.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.HideActive {
		return nil, nil
	}
	var out []*notification.Notification
	for _, n := range f.Notifications {
		if n.ClientID != clientID {
			continue
		}
		for _, s := range statuses {
			if n.Status == s {
				out = append(out, n)
				break
			}
		}
	}
	return out, nil
}

func (f *FakeStore) InsertNotification(ctx context.Context, n *notification.Notification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InsertCalls++
	if f.InsertErr != nil {
		return false, f.InsertErr
	}
	for _, existing := range f.Notifications {
		if existing.ClientID == n.ClientID && existing.DedupeKey() == n.DedupeKey() && existing.Status != notification.StatusResolved {
			return false, nil
		}
	}
	f.Notifications = append(f.Notifications, n)
	return true, nil
}

// FakePublisher records created notifications.
type FakePublisher struct {
	Created []*notification.Notification
	Err     error
}

func (p *FakePublisher) PublishCreated(ctx context.Context, n *notification.Notification) error {
	if p.Err != nil {
		return p.Err
	}
	p.Created = append(p.Created, n)
	return nil
}

// FakeMetrics counts recorder calls.
type FakeMetrics struct {
	Evaluations int
	Failures    int
	Created     map[string]int
	Suppressed  map[string]int
}

func NewFakeMetrics() *FakeMetrics {
	return &FakeMetrics{Created: map[string]int{}, Suppressed: map[string]int{}}
}

func (m *FakeMetrics) RecordEvaluation(clientID string, latency time.Duration, err error) {
	m.Evaluations++
	if err != nil {
		m.Failures++
	}
}

func (m *FakeMetrics) RecordNotificationCreated(ruleKey string, severity notification.Severity) {
	m.Created[ruleKey]++
}

func (m *FakeMetrics) RecordNotificationSuppressed(ruleKey string) {
	m.Suppressed[ruleKey]++
}
