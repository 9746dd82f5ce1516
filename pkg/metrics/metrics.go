// Package metrics collects per-service counters and writes periodic
// snapshots to Redis, where dashboards and the CLI read them back.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// MetricsKeyPrefix is the Redis key prefix for service metrics.
	MetricsKeyPrefix = "metrics:"
	// MetricsTTL is how long metrics stay in Redis if not refreshed.
	MetricsTTL = 2 * time.Minute
	// DefaultReportInterval is the default interval for writing metrics to Redis.
	DefaultReportInterval = 30 * time.Second
)

// ServiceNames lists the services that report snapshots.
var ServiceNames = []string{
	"adherence-api",
	"rule-evaluator",
}

// ServiceMetrics is one service's snapshot.
type ServiceMetrics struct {
	ServiceName string    `json:"service_name"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
	Status      string    `json:"status"` // "healthy" or "unhealthy"

	// Counters since start
	Evaluations             uint64 `json:"evaluations"`
	EvaluationErrors        uint64 `json:"evaluation_errors"`
	NotificationsCreated    uint64 `json:"notifications_created"`
	NotificationsSuppressed uint64 `json:"notifications_suppressed"`

	EvaluationsPerMinute float64 `json:"evaluations_per_minute"`
	AvgEvaluationMs      float64 `json:"avg_evaluation_ms"`

	// Service-specific counters, e.g. transitions and embed URLs issued.
	CustomCounters map[string]uint64 `json:"custom_counters,omitempty"`
}

// Collector collects and reports metrics for a service.
type Collector struct {
	serviceName    string
	redis          *redis.Client
	startedAt      time.Time
	reportInterval time.Duration

	evaluations             atomic.Uint64
	evaluationErrors        atomic.Uint64
	notificationsCreated    atomic.Uint64
	notificationsSuppressed atomic.Uint64

	totalLatencyNs atomic.Uint64

	rateMu         sync.Mutex
	lastReportTime time.Time
	lastEvalCount  uint64

	customMu       sync.RWMutex
	customCounters map[string]*atomic.Uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCollector creates a collector. A nil redisClient keeps counters in
// memory only.
func NewCollector(serviceName string, redisClient *redis.Client) *Collector {
	now := time.Now().UTC()
	return &Collector{
		serviceName:    serviceName,
		redis:          redisClient,
		startedAt:      now,
		reportInterval: DefaultReportInterval,
		lastReportTime: now,
		customCounters: make(map[string]*atomic.Uint64),
		stopCh:         make(chan struct{}),
	}
}

// SetReportInterval sets the interval for writing metrics to Redis.
func (c *Collector) SetReportInterval(interval time.Duration) {
	c.reportInterval = interval
}

// Start begins periodic reporting until ctx is done or Stop is called.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.writeMetrics(context.Background())
				return
			case <-c.stopCh:
				c.writeMetrics(context.Background())
				return
			case <-ticker.C:
				c.writeMetrics(ctx)
			}
		}
	}()
}

// Stop stops reporting after a final write. Safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

// RecordEvaluation counts one rule pass and its latency.
func (c *Collector) RecordEvaluation(latency time.Duration, err error) {
	c.evaluations.Add(1)
	c.totalLatencyNs.Add(uint64(latency.Nanoseconds()))
	if err != nil {
		c.evaluationErrors.Add(1)
	}
}

// RecordCreated counts a created notification.
func (c *Collector) RecordCreated() {
	c.notificationsCreated.Add(1)
}

// RecordSuppressed counts a duplicate match that created nothing.
func (c *Collector) RecordSuppressed() {
	c.notificationsSuppressed.Add(1)
}

// IncrementCustom increments a custom counter by name.
func (c *Collector) IncrementCustom(name string) {
	c.customMu.RLock()
	counter, exists := c.customCounters[name]
	c.customMu.RUnlock()

	if !exists {
		c.customMu.Lock()
		if counter, exists = c.customCounters[name]; !exists {
			counter = &atomic.Uint64{}
			c.customCounters[name] = counter
		}
		c.customMu.Unlock()
	}
	counter.Add(1)
}

// GetSnapshot returns current metrics without writing to Redis.
func (c *Collector) GetSnapshot() *ServiceMetrics {
	now := time.Now().UTC()
	evals := c.evaluations.Load()

	c.rateMu.Lock()
	elapsed := now.Sub(c.lastReportTime).Minutes()
	var rate float64
	if elapsed > 0 {
		rate = float64(evals-c.lastEvalCount) / elapsed
	}
	c.rateMu.Unlock()

	var avgMs float64
	if evals > 0 {
		avgMs = float64(c.totalLatencyNs.Load()) / float64(evals) / float64(time.Millisecond)
	}

	c.customMu.RLock()
	custom := make(map[string]uint64, len(c.customCounters))
	for name, counter := range c.customCounters {
		custom[name] = counter.Load()
	}
	c.customMu.RUnlock()

	return &ServiceMetrics{
		ServiceName:             c.serviceName,
		StartedAt:               c.startedAt,
		LastUpdated:             now,
		Status:                  "healthy",
		Evaluations:             evals,
		EvaluationErrors:        c.evaluationErrors.Load(),
		NotificationsCreated:    c.notificationsCreated.Load(),
		NotificationsSuppressed: c.notificationsSuppressed.Load(),
		EvaluationsPerMinute:    rate,
		AvgEvaluationMs:         avgMs,
		CustomCounters:          custom,
	}
}

func (c *Collector) writeMetrics(ctx context.Context) {
	if c.redis == nil {
		return
	}

	snap := c.GetSnapshot()
	c.rateMu.Lock()
	c.lastReportTime = snap.LastUpdated
	c.lastEvalCount = snap.Evaluations
	c.rateMu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		slog.Error("Failed to marshal metrics", "service", c.serviceName, "error", err)
		return
	}

	key := MetricsKeyPrefix + c.serviceName
	if err := c.redis.Set(ctx, key, data, MetricsTTL).Err(); err != nil {
		slog.Error("Failed to write metrics to Redis", "service", c.serviceName, "error", err)
		return
	}
	slog.Debug("Metrics written to Redis", "service", c.serviceName, "key", key)
}

// ErrNoMetrics is returned when a service has not reported recently.
var ErrNoMetrics = errors.New("no metrics found")

// Reader reads service metrics from Redis.
type Reader struct {
	redis *redis.Client
}

// NewReader creates a new metrics reader.
func NewReader(redisClient *redis.Client) *Reader {
	return &Reader{redis: redisClient}
}

// GetServiceMetrics retrieves metrics for one service. A snapshot older
// than MetricsTTL is reported as unhealthy.
func (r *Reader) GetServiceMetrics(ctx context.Context, serviceName string) (*ServiceMetrics, error) {
	data, err := r.redis.Get(ctx, MetricsKeyPrefix+serviceName).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w for service: %s", ErrNoMetrics, serviceName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}

	return decodeSnapshot(data, time.Now())
}

func decodeSnapshot(data []byte, now time.Time) (*ServiceMetrics, error) {
	var m ServiceMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}
	if now.Sub(m.LastUpdated) > MetricsTTL {
		m.Status = "unhealthy"
	}
	return &m, nil
}

// GetAllServiceMetrics retrieves metrics for every known service, skipping
// services without a snapshot.
func (r *Reader) GetAllServiceMetrics(ctx context.Context) (map[string]*ServiceMetrics, error) {
	result := make(map[string]*ServiceMetrics)
	names := append([]string(nil), ServiceNames...)
	sort.Strings(names)
	for _, name := range names {
		m, err := r.GetServiceMetrics(ctx, name)
		if errors.Is(err, ErrNoMetrics) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result[name] = m
	}
	return result, nil
}
