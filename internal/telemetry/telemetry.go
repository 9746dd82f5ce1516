// Package telemetry exposes Prometheus metrics for rule evaluation,
// notification lifecycle, embed issuance and HTTP traffic.
//
// Metric naming follows Prometheus conventions:
//   - adherence_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
//
// When a pkg/metrics Collector is attached, the same events are forwarded
// to it so Redis snapshots stay in step with the scrape endpoint.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/afikmenashe/adherence-platform/internal/notification"
	"github.com/afikmenashe/adherence-platform/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry and every adherence metric.
type Metrics struct {
	registry  *prometheus.Registry
	collector *metrics.Collector

	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	createdTotal       *prometheus.CounterVec
	suppressedTotal    *prometheus.CounterVec
	transitionsTotal   *prometheus.CounterVec
	breachedOpen       prometheus.Gauge
	embedTotal         *prometheus.CounterVec
	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New creates and registers the metrics. collector may be nil.
func New(collector *metrics.Collector) *Metrics {
	m := &Metrics{
		registry:  prometheus.NewRegistry(),
		collector: collector,

		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adherence_rule_evaluations_total",
				Help: "Total rule evaluation passes by result.",
			},
			[]string{"result"},
		),
		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "adherence_rule_evaluation_duration_seconds",
				Help:    "Duration of one client's rule evaluation pass.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		createdTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adherence_notifications_created_total",
				Help: "Total notifications created by rule and severity.",
			},
			[]string{"rule_key", "severity"},
		),
		suppressedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adherence_notifications_suppressed_total",
				Help: "Rule matches skipped because an active notification already existed.",
			},
			[]string{"rule_key"},
		),
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adherence_notification_transitions_total",
				Help: "Total lifecycle transitions by target status.",
			},
			[]string{"to"},
		),
		breachedOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "adherence_notifications_sla_breached",
				Help: "Non-resolved notifications past their SLA deadline at the last check.",
			},
		),
		embedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adherence_embed_urls_total",
				Help: "Embed URL requests by result.",
			},
			[]string{"result"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adherence_http_requests_total",
				Help: "HTTP requests by method and status code.",
			},
			[]string{"method", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adherence_http_request_duration_seconds",
				Help:    "HTTP request latency by method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.evaluationsTotal,
		m.evaluationDuration,
		m.createdTotal,
		m.suppressedTotal,
		m.transitionsTotal,
		m.breachedOpen,
		m.embedTotal,
		m.httpRequestsTotal,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordEvaluation records one evaluation pass. clientID is not used as a
// label to keep cardinality bounded.
func (m *Metrics) RecordEvaluation(_ string, latency time.Duration, err error) {
	m.evaluationsTotal.WithLabelValues(result(err)).Inc()
	m.evaluationDuration.Observe(latency.Seconds())
	if m.collector != nil {
		m.collector.RecordEvaluation(latency, err)
	}
}

// RecordNotificationCreated counts a created notification.
func (m *Metrics) RecordNotificationCreated(ruleKey string, severity notification.Severity) {
	m.createdTotal.WithLabelValues(ruleKey, string(severity)).Inc()
	if m.collector != nil {
		m.collector.RecordCreated()
	}
}

// RecordNotificationSuppressed counts a suppressed duplicate match.
func (m *Metrics) RecordNotificationSuppressed(ruleKey string) {
	m.suppressedTotal.WithLabelValues(ruleKey).Inc()
	if m.collector != nil {
		m.collector.RecordSuppressed()
	}
}

// RecordTransition counts a committed lifecycle transition.
func (m *Metrics) RecordTransition(to notification.Status) {
	m.transitionsTotal.WithLabelValues(string(to)).Inc()
	if m.collector != nil {
		m.collector.IncrementCustom("transition_" + string(to))
	}
}

// SetBreached records the current number of breached notifications.
func (m *Metrics) SetBreached(n int64) {
	m.breachedOpen.Set(float64(n))
}

// RecordEmbed counts an embed URL request.
func (m *Metrics) RecordEmbed(err error) {
	m.embedTotal.WithLabelValues(result(err)).Inc()
	if m.collector != nil {
		m.collector.IncrementCustom("embed_" + result(err))
	}
}

// RecordHTTP records one served request.
func (m *Metrics) RecordHTTP(method string, status int, latency time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(latency.Seconds())
	if m.collector != nil {
		m.collector.IncrementCustom("http_" + method)
	}
}
