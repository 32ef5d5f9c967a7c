// Package metrics defines Prometheus metrics for the gateway.
//
// Metric naming follows Prometheus conventions:
//   - hrgateway_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the gateway collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	// ForwardedTotal counts forwarded calls by operation, tenant and response status.
	ForwardedTotal *prometheus.CounterVec

	// ForwardDurationSeconds is a histogram of upstream round trips by operation.
	ForwardDurationSeconds *prometheus.HistogramVec

	// RejectedTotal counts requests answered locally without an upstream call.
	RejectedTotal *prometheus.CounterVec

	// AlternatePathTotal counts fallbacks to an alternate upstream path after a 404.
	AlternatePathTotal *prometheus.CounterVec

	// SessionTokensTotal counts session token events: issued, rejected, revoked.
	SessionTokensTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ForwardedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hrgateway_forwarded_total",
				Help: "Total forwarded upstream calls by operation, tenant and status.",
			},
			[]string{"operation", "tenant", "status"},
		),
		ForwardDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hrgateway_forward_duration_seconds",
				Help:    "Duration of forwarded upstream calls in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
		RejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hrgateway_rejected_total",
				Help: "Total requests rejected before any upstream call, by operation and reason.",
			},
			[]string{"operation", "reason"},
		),
		AlternatePathTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hrgateway_alternate_path_total",
				Help: "Total retries against an alternate upstream path after a 404.",
			},
			[]string{"operation"},
		),
		SessionTokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hrgateway_session_tokens_total",
				Help: "Total session token events by result.",
			},
			[]string{"result"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.ForwardedTotal, m.ForwardDurationSeconds, m.RejectedTotal, m.AlternatePathTotal, m.SessionTokensTotal)
	}
	return m
}

// RecordForward records one completed upstream exchange. status 0 means the
// call never produced a response (timeout, connection failure).
func (m *Metrics) RecordForward(operation, tenant string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.ForwardedTotal.WithLabelValues(operation, tenant, statusLabel(status)).Inc()
	m.ForwardDurationSeconds.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRejected records a request answered locally.
func (m *Metrics) RecordRejected(operation, reason string) {
	if m == nil {
		return
	}
	m.RejectedTotal.WithLabelValues(operation, reason).Inc()
}

// RecordAlternatePath records a 404 fallback to the next candidate path.
func (m *Metrics) RecordAlternatePath(operation string) {
	if m == nil {
		return
	}
	m.AlternatePathTotal.WithLabelValues(operation).Inc()
}

// RecordSessionToken records a session token event.
func (m *Metrics) RecordSessionToken(result string) {
	if m == nil {
		return
	}
	m.SessionTokensTotal.WithLabelValues(result).Inc()
}

func statusLabel(status int) string {
	if status == 0 {
		return "none"
	}
	return strconv.Itoa(status)
}
