package metrics

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCollector_Snapshot(t *testing.T) {
	c := NewCollector("rule-evaluator", nil)

	c.RecordEvaluation(20*time.Millisecond, nil)
	c.RecordEvaluation(40*time.Millisecond, errors.New("db down"))
	c.RecordCreated()
	c.RecordSuppressed()
	c.RecordSuppressed()
	c.IncrementCustom("transition_resolved")

	s := c.GetSnapshot()
	if s.ServiceName != "rule-evaluator" || s.Status != "healthy" {
		t.Errorf("snapshot header = %+v", s)
	}
	if s.Evaluations != 2 || s.EvaluationErrors != 1 {
		t.Errorf("evaluations = %d/%d, want 2/1", s.Evaluations, s.EvaluationErrors)
	}
	if s.NotificationsCreated != 1 || s.NotificationsSuppressed != 2 {
		t.Errorf("created/suppressed = %d/%d, want 1/2", s.NotificationsCreated, s.NotificationsSuppressed)
	}
	if s.AvgEvaluationMs != 30 {
		t.Errorf("AvgEvaluationMs = %v, want 30", s.AvgEvaluationMs)
	}
	if s.CustomCounters["transition_resolved"] != 1 {
		t.Errorf("custom counters = %v", s.CustomCounters)
	}
}

func TestCollector_IncrementCustomConcurrent(t *testing.T) {
	c := NewCollector("adherence-api", nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IncrementCustom("embed_issued")
		}()
	}
	wg.Wait()

	if got := c.GetSnapshot().CustomCounters["embed_issued"]; got != 50 {
		t.Errorf("embed_issued = %d, want 50", got)
	}
}

func TestCollector_StartStop(t *testing.T) {
	c := NewCollector("adherence-api", nil)
	c.SetReportInterval(time.Millisecond)
	c.Start(t.Context())
	time.Sleep(5 * time.Millisecond)
	c.Stop()
	c.Stop()
}

func TestDecodeSnapshot(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		updated    time.Time
		wantStatus string
	}{
		{"fresh", now.Add(-time.Minute), "healthy"},
		{"stale", now.Add(-MetricsTTL - time.Second), "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, _ := json.Marshal(ServiceMetrics{ServiceName: "adherence-api", Status: "healthy", LastUpdated: tt.updated})
			m, err := decodeSnapshot(data, now)
			if err != nil {
				t.Fatalf("decodeSnapshot() error = %v", err)
			}
			if m.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", m.Status, tt.wantStatus)
			}
		})
	}

	if _, err := decodeSnapshot([]byte("{"), now); err == nil {
		t.Error("decodeSnapshot() with bad JSON should fail")
	}
}
