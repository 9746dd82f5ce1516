package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusOpen, StatusTriaged, true},
		{StatusOpen, StatusResolved, true},
		{StatusTriaged, StatusResolved, true},
		{StatusOpen, StatusOpen, false},
		{StatusTriaged, StatusOpen, false},
		{StatusTriaged, StatusTriaged, false},
		{StatusResolved, StatusTriaged, false},
		{StatusResolved, StatusOpen, false},
		{StatusResolved, StatusResolved, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			require.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTransition_SetsTimestamps(t *testing.T) {
	n := newOpen()

	triaged, err := Transition(n, StatusTriaged, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, StatusTriaged, triaged.Status)
	require.NotNil(t, triaged.AcknowledgedAt)
	require.Nil(t, triaged.ResolvedAt)
	require.Equal(t, StatusOpen, n.Status, "original must not change")

	resolved, err := Transition(triaged, StatusResolved, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, t0.Add(time.Hour), *resolved.AcknowledgedAt)
	require.Equal(t, t0.Add(2*time.Hour), *resolved.ResolvedAt)
}

func TestTransition_OutOfResolvedRejected(t *testing.T) {
	resolved, err := Transition(newOpen(), StatusResolved, t0)
	require.NoError(t, err)

	_, err = Transition(resolved, StatusTriaged, t0.Add(time.Hour))
	require.ErrorIs(t, err, ErrIllegalTransition)
	require.Equal(t, StatusResolved, resolved.Status)
	require.Nil(t, resolved.AcknowledgedAt)
}

func TestLifecycle_TriageThenResolve(t *testing.T) {
	store := newFakeStore(newOpen())
	pub := &fakePublisher{}
	now := t0.Add(10 * time.Hour)
	l := NewLifecycle(store, WithClock(func() time.Time { return now }), WithPublisher(pub))
	ctx := context.Background()

	triaged, err := l.Triage(ctx, "n-1")
	require.NoError(t, err)
	require.Equal(t, StatusTriaged, triaged.Status)
	require.Equal(t, now, *triaged.AcknowledgedAt)

	now = t0.Add(20 * time.Hour)
	resolved, err := l.Resolve(ctx, "n-1")
	require.NoError(t, err)
	require.Equal(t, StatusResolved, resolved.Status)
	require.Equal(t, now, *resolved.ResolvedAt)

	stored, err := store.GetNotification(ctx, "n-1")
	require.NoError(t, err)
	require.Equal(t, StatusResolved, stored.Status)
	require.Equal(t, t0.Add(10*time.Hour), *stored.AcknowledgedAt)

	require.Equal(t, []publishedTransition{
		{ID: "n-1", From: StatusOpen, To: StatusTriaged},
		{ID: "n-1", From: StatusTriaged, To: StatusResolved},
	}, pub.published)
}

func TestLifecycle_ResolvedCannotBeTriaged(t *testing.T) {
	n := newOpen()
	n.Status = StatusResolved
	resolvedAt := t0.Add(time.Hour)
	n.ResolvedAt = &resolvedAt
	store := newFakeStore(n)
	l := NewLifecycle(store)

	_, err := l.Triage(context.Background(), "n-1")
	require.ErrorIs(t, err, ErrIllegalTransition)

	stored, _ := store.GetNotification(context.Background(), "n-1")
	require.Equal(t, StatusResolved, stored.Status)
	require.Equal(t, resolvedAt, *stored.ResolvedAt)
	require.Nil(t, stored.AcknowledgedAt)
}

func TestLifecycle_NotFound(t *testing.T) {
	l := NewLifecycle(newFakeStore())
	_, err := l.Resolve(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLifecycle_LostRace(t *testing.T) {
	t.Run("other writer resolved first", func(t *testing.T) {
		store := newFakeStore(newOpen())
		store.beforeUpdate = func(s *fakeStore) { s.set("n-1", StatusResolved) }
		l := NewLifecycle(store)

		_, err := l.Triage(context.Background(), "n-1")
		require.ErrorIs(t, err, ErrIllegalTransition)
	})

	t.Run("other writer triaged first", func(t *testing.T) {
		store := newFakeStore(newOpen())
		store.beforeUpdate = func(s *fakeStore) { s.set("n-1", StatusTriaged) }
		l := NewLifecycle(store)

		_, err := l.Resolve(context.Background(), "n-1")
		require.ErrorIs(t, err, ErrConcurrentUpdate)
	})
}

func TestLifecycle_StoreError(t *testing.T) {
	store := newFakeStore(newOpen())
	store.updateErr = errBoom
	l := NewLifecycle(store)

	_, err := l.Resolve(context.Background(), "n-1")
	require.ErrorIs(t, err, errBoom)
}

func TestLifecycle_PublishFailureDoesNotFailTransition(t *testing.T) {
	store := newFakeStore(newOpen())
	l := NewLifecycle(store, WithPublisher(&fakePublisher{err: errBoom}))

	got, err := l.Resolve(context.Background(), "n-1")
	require.NoError(t, err)
	require.Equal(t, StatusResolved, got.Status)
}
