// Package scheduler runs the rule catalog for every client on a cron
// schedule and refreshes the SLA breach gauge after each pass.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/afikmenashe/adherence-platform/internal/rules"
)

// DefaultConcurrency bounds how many clients are evaluated at once.
const DefaultConcurrency = 4

// Store lists the clients to evaluate and counts breached notifications.
type Store interface {
	ListClientIDs(ctx context.Context) ([]string, error)
	CountBreached(ctx context.Context, now time.Time) (int64, error)
}

// Evaluator runs the rule catalog for one client.
type Evaluator interface {
	Evaluate(ctx context.Context, clientID string) (*rules.EvaluationResult, error)
}

// BreachGauge receives the breached notification count after each pass.
type BreachGauge interface {
	SetBreached(n int64)
}

// RunSummary describes one pass over all clients.
type RunSummary struct {
	Clients    int
	Created    int
	Suppressed int
	// Failed lists clients whose evaluation returned an error, sorted.
	Failed   []string
	Breached int64
	Duration time.Duration
}

// Scheduler evaluates every client on a cron schedule.
type Scheduler struct {
	store       Store
	evaluator   Evaluator
	gauge       BreachGauge
	concurrency int
	timeout     time.Duration
	now         func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithConcurrency sets the number of clients evaluated in parallel.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithBreachGauge sets where the breach count is reported.
func WithBreachGauge(g BreachGauge) Option {
	return func(s *Scheduler) { s.gauge = g }
}

// WithRunTimeout bounds a single scheduled pass.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Scheduler.
func New(store Store, evaluator Evaluator, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:       store,
		evaluator:   evaluator,
		concurrency: DefaultConcurrency,
		timeout:     10 * time.Minute,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOnce evaluates every client. A failing client is logged and recorded
// in the summary without stopping the others.
func (s *Scheduler) RunOnce(ctx context.Context) (*RunSummary, error) {
	start := s.now()

	clientIDs, err := s.store.ListClientIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	summary := &RunSummary{Clients: len(clientIDs)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, clientID := range clientIDs {
		g.Go(func() error {
			result, err := s.evaluator.Evaluate(ctx, clientID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("Rule evaluation failed", "client_id", clientID, "error", err)
				summary.Failed = append(summary.Failed, clientID)
				return nil
			}
			summary.Created += len(result.Created)
			summary.Suppressed += result.Suppressed
			return nil
		})
	}
	g.Wait()
	sort.Strings(summary.Failed)

	breached, err := s.store.CountBreached(ctx, s.now())
	if err != nil {
		return summary, fmt.Errorf("failed to count breached notifications: %w", err)
	}
	summary.Breached = breached
	if s.gauge != nil {
		s.gauge.SetBreached(breached)
	}

	summary.Duration = s.now().Sub(start)
	return summary, nil
}

// Start schedules RunOnce using a standard cron expression or descriptor
// such as "@every 15m". Overlapping runs are skipped.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("scheduler already started")
	}

	logger := cronLogger{}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(schedule, func() { s.scheduledRun(ctx) }); err != nil {
		return fmt.Errorf("invalid evaluation schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c

	slog.Info("Evaluation scheduler started", "schedule", schedule, "concurrency", s.concurrency)
	return nil
}

// Stop stops the schedule and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	slog.Info("Evaluation scheduler stopped")
}

func (s *Scheduler) scheduledRun(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	summary, err := s.RunOnce(runCtx)
	if err != nil {
		slog.Error("Scheduled evaluation failed", "error", err)
		if summary == nil {
			return
		}
	}
	slog.Info("Scheduled evaluation completed",
		"clients", summary.Clients,
		"created", summary.Created,
		"suppressed", summary.Suppressed,
		"failed", len(summary.Failed),
		"breached", summary.Breached,
		"duration", summary.Duration,
	)
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
