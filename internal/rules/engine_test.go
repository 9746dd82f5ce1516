package rules

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/afikmenashe/adherence-platform/internal/adherence"
	"github.com/afikmenashe/adherence-platform/internal/notification"

	"github.com/stretchr/testify/require"
)

var evalTime = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func adherenceFact(member, class string, pdc90, pdc180 float64) adherence.Fact {
	return adherence.Fact{
		ClientID:  "acme",
		MemberID:  member,
		DrugClass: class,
		PDC90:     adherence.Pct(pdc90),
		PDC180:    adherence.Pct(pdc180),
		MPR90:     adherence.Pct(pdc90),
		AsOfDate:  evalTime.AddDate(0, 0, -1),
	}
}

func newTestEngine(t *testing.T, store Store, opts ...Option) *Engine {
	t.Helper()
	ids := 0
	base := []Option{
		WithClock(func() time.Time { return evalTime }),
		WithIDGenerator(func() string { ids++; return fmt.Sprintf("n-%d", ids) }),
	}
	e, err := NewEngine(store, append(base, opts...)...)
	require.NoError(t, err)
	return e
}

func TestEngine_CohortBelow75FiresOnce(t *testing.T) {
	store := &FakeStore{Facts: []adherence.Fact{
		adherenceFact("m1", "Diabetes", 70, 80),
		adherenceFact("m2", "Diabetes", 78, 80),
		adherenceFact("m3", "Statins", 92, 90),
	}}
	pub := &FakePublisher{}
	e := newTestEngine(t, store, WithPublisher(pub))

	result, err := e.Evaluate(context.Background(), "acme")
	require.NoError(t, err)
	require.Equal(t, 1, result.Matched)
	require.Len(t, result.Created, 1)

	n := result.Created[0]
	require.Equal(t, "adherence_risk_spike", n.RuleKey)
	require.Equal(t, "Diabetes cohort", n.EntityRef)
	require.Equal(t, notification.SeverityHigh, n.Severity)
	require.Equal(t, 48, n.SLAHours)
	require.Equal(t, "Care Team Manager", n.Owner)
	require.Equal(t, notification.StatusOpen, n.Status)
	require.Equal(t, evalTime, n.CreatedAt)
	require.Equal(t, "Diabetes cohort adherence dropped below 75.0% threshold (avg PDC-90 74.0% across 2 records)", n.Message)
	require.Contains(t, n.RecommendedAction, "refill reminders")
	require.Equal(t, []*notification.Notification{n}, pub.Created)

	second, err := e.Evaluate(context.Background(), "acme")
	require.NoError(t, err)
	require.Empty(t, second.Created)
	require.Equal(t, 1, second.Suppressed)
	require.Len(t, store.Notifications, 1)
}

func TestEngine_RefiresAfterResolution(t *testing.T) {
	store := &FakeStore{Facts: []adherence.Fact{adherenceFact("m1", "Diabetes", 74, 80)}}
	e := newTestEngine(t, store)

	first, err := e.Evaluate(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, first.Created, 1)

	store.Notifications[0].Status = notification.StatusResolved

	second, err := e.Evaluate(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, second.Created, 1)
	require.Len(t, store.Notifications, 2)
}

func TestEngine_TriagedStillSuppresses(t *testing.T) {
	store := &FakeStore{Facts: []adherence.Fact{adherenceFact("m1", "Diabetes", 74, 80)}}
	e := newTestEngine(t, store)

	_, err := e.Evaluate(context.Background(), "acme")
	require.NoError(t, err)
	store.Notifications[0].Status = notification.StatusTriaged

	again, err := e.Evaluate(context.Background(), "acme")
	require.NoError(t, err)
	require.Empty(t, again.Created)
}

func TestEngine_StorageUniquenessSuppresses(t *testing.T) {
	store := &FakeStore{
		Facts:      []adherence.Fact{adherenceFact("m1", "Diabetes", 74, 80)},
		HideActive: true,
	}
	metrics := NewFakeMetrics()
	e := newTestEngine(t, store, WithMetrics(metrics))

	_, err := e.Evaluate(context.Background(), "acme")
	require.NoError(t, err)
	second, err := e.Evaluate(context.Background(), "acme")
	require.NoError(t, err)

	require.Empty(t, second.Created)
	require.Equal(t, 1, second.Suppressed)
	require.Len(t, store.Notifications, 1)
	require.Equal(t, 1, metrics.Created["adherence_risk_spike"])
	require.Equal(t, 1, metrics.Suppressed["adherence_risk_spike"])
	require.Equal(t, 2, metrics.Evaluations)
}

func TestEngine_ConcurrentPassesCreateOne(t *testing.T) {
	store := &FakeStore{
		Facts:      []adherence.Fact{adherenceFact("m1", "Diabetes", 74, 80)},
		HideActive: true,
	}
	e, err := NewEngine(store)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.Evaluate(context.Background(), "acme")
		}()
	}
	wg.Wait()

	require.Len(t, store.Notifications, 1)
}

func TestEngine_WatchlistAndSustainedDecline(t *testing.T) {
	store := &FakeStore{Facts: []adherence.Fact{
		adherenceFact("m1", "Hypertension", 77, 79),
		adherenceFact("m2", "Statins", 60, 62),
	}}
	e := newTestEngine(t, store)

	result, err := e.Evaluate(context.Background(), "acme")
	require.NoError(t, err)

	byRule := map[string]*notification.Notification{}
	for _, n := range result.Created {
		byRule[n.RuleKey] = n
	}
	require.Len(t, byRule, 3)

	watch := byRule["adherence_watchlist"]
	require.Equal(t, "Hypertension cohort", watch.EntityRef)
	require.Equal(t, notification.SeverityMedium, watch.Severity)

	require.Equal(t, "Statins cohort", byRule["adherence_risk_spike"].EntityRef)

	decline := byRule["pdc180_sustained_decline"]
	require.Equal(t, notification.SeverityCritical, decline.Severity)
	require.Equal(t, 24, decline.SLAHours)
	require.Equal(t, "Statins cohort is below 75.0% on both PDC-90 (60.0%) and PDC-180 (62.0%)", decline.Message)
}

func TestEngine_UsesLatestFacts(t *testing.T) {
	stale := adherenceFact("m1", "Diabetes", 40, 40)
	stale.AsOfDate = evalTime.AddDate(0, -6, 0)
	store := &FakeStore{Facts: []adherence.Fact{stale, adherenceFact("m1", "Diabetes", 88, 88)}}
	e := newTestEngine(t, store)

	result, err := e.Evaluate(context.Background(), "acme")
	require.NoError(t, err)
	require.Zero(t, result.Matched)
}

func TestEngine_GapClosureBacklog(t *testing.T) {
	var gaps []adherence.CareGap
	for i := 0; i < 10; i++ {
		gaps = append(gaps, adherence.CareGap{
			ID:       fmt.Sprintf("g-%d", i),
			ClientID: "acme",
			MemberID: fmt.Sprintf("m-%d", i),
			OpenedAt: evalTime.AddDate(0, 0, -31),
		})
	}
	// Too recent to count.
	gaps = append(gaps, adherence.CareGap{ClientID: "acme", OpenedAt: evalTime.AddDate(0, 0, -5)})

	store := &FakeStore{Gaps: gaps}
	e := newTestEngine(t, store)

	result, err := e.Evaluate(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, result.Created, 1)

	n := result.Created[0]
	require.Equal(t, "gap_closure_backlog", n.RuleKey)
	require.Equal(t, "Open gaps >30 days", n.EntityRef)
	require.Equal(t, "10 care gaps have been open for more than 30 days", n.Message)
	require.Equal(t, "Quality Manager", n.Owner)
	require.Equal(t, 120, n.SLAHours)
}

func TestEngine_GapBacklogBelowMinimum(t *testing.T) {
	store := &FakeStore{Gaps: []adherence.CareGap{
		{ClientID: "acme", OpenedAt: evalTime.AddDate(0, -3, 0)},
	}}
	e := newTestEngine(t, store)

	result, err := e.Evaluate(context.Background(), "acme")
	require.NoError(t, err)
	require.Empty(t, result.Created)
}

func TestEngine_ClientsAreIsolated(t *testing.T) {
	other := adherenceFact("m9", "Diabetes", 10, 10)
	other.ClientID = "globex"
	store := &FakeStore{Facts: []adherence.Fact{adherenceFact("m1", "Diabetes", 95, 95), other}}
	e := newTestEngine(t, store)

	result, err := e.Evaluate(context.Background(), "acme")
	require.NoError(t, err)
	require.Empty(t, result.Created)
}

func TestEngine_Errors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("empty client", func(t *testing.T) {
		e := newTestEngine(t, &FakeStore{})
		_, err := e.Evaluate(context.Background(), "")
		require.Error(t, err)
	})

	t.Run("fact query", func(t *testing.T) {
		metrics := NewFakeMetrics()
		e := newTestEngine(t, &FakeStore{FactsErr: boom}, WithMetrics(metrics))
		_, err := e.Evaluate(context.Background(), "acme")
		require.ErrorIs(t, err, boom)
		require.Equal(t, 1, metrics.Failures)
	})

	t.Run("insert", func(t *testing.T) {
		store := &FakeStore{
			Facts:     []adherence.Fact{adherenceFact("m1", "Diabetes", 74, 80)},
			InsertErr: boom,
		}
		e := newTestEngine(t, store)
		_, err := e.Evaluate(context.Background(), "acme")
		require.ErrorIs(t, err, boom)
	})
}

func TestEngine_PublishFailureKeepsNotification(t *testing.T) {
	store := &FakeStore{Facts: []adherence.Fact{adherenceFact("m1", "Diabetes", 74, 80)}}
	e := newTestEngine(t, store, WithPublisher(&FakePublisher{Err: errors.New("kafka down")}))

	result, err := e.Evaluate(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	require.Len(t, store.Notifications, 1)
}
