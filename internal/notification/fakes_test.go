package notification

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeStore is an in-memory Store with the same conditional-update
// semantics as the Postgres implementation.
type fakeStore struct {
	mu            sync.Mutex
	notifications map[string]*Notification
	updateErr     error
	// beforeUpdate runs inside UpdateNotificationStatus, to simulate a
	// concurrent writer winning the race.
	beforeUpdate func(s *fakeStore)
}

func newFakeStore(ns ...*Notification) *fakeStore {
	s := &fakeStore{notifications: make(map[string]*Notification)}
	for _, n := range ns {
		cp := *n
		s.notifications[n.ID] = &cp
	}
	return s
}

func (s *fakeStore) GetNotification(ctx context.Context, id string) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *fakeStore) UpdateNotificationStatus(ctx context.Context, id string, from, to Status, ts time.Time) (bool, error) {
	if s.beforeUpdate != nil {
		s.beforeUpdate(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return false, s.updateErr
	}
	n, ok := s.notifications[id]
	if !ok || n.Status != from {
		return false, nil
	}
	n.Status = to
	switch to {
	case StatusTriaged:
		n.AcknowledgedAt = &ts
	case StatusResolved:
		n.ResolvedAt = &ts
	}
	return true, nil
}

func (s *fakeStore) set(id string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[id].Status = status
}

type publishedTransition struct {
	ID   string
	From Status
	To   Status
}

type fakePublisher struct {
	published []publishedTransition
	err       error
}

func (p *fakePublisher) PublishTransition(ctx context.Context, n *Notification, from Status) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, publishedTransition{ID: n.ID, From: from, To: n.Status})
	return nil
}

var errBoom = errors.New("boom")
