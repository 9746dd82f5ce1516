// Package handlers provides HTTP handlers for the adherence API.
package handlers

import (
	"time"
)

// Handlers wraps dependencies for HTTP handlers.
type Handlers struct {
	db            Repository
	evaluator     Evaluator
	lifecycle     Transitioner
	issuer        EmbedIssuer
	metrics       MetricsRecorder
	metricsReader ServiceMetricsReader
	now           func() time.Time
}

// Option is a functional option for configuring Handlers.
type Option func(*Handlers)

// WithMetrics sets a custom metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(h *Handlers) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithServiceMetrics enables the service metrics endpoint.
func WithServiceMetrics(r ServiceMetricsReader) Option {
	return func(h *Handlers) { h.metricsReader = r }
}

// WithClock overrides the time source used for breach computation.
func WithClock(now func() time.Time) Option {
	return func(h *Handlers) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandlers creates a new handlers instance.
func NewHandlers(db Repository, evaluator Evaluator, lifecycle Transitioner, issuer EmbedIssuer, opts ...Option) *Handlers {
	h := &Handlers{
		db:        db,
		evaluator: evaluator,
		lifecycle: lifecycle,
		issuer:    issuer,
		metrics:   NoOpMetrics{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
