// Package monitoring provides Prometheus metrics for the planning engine
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the planning engine's Prometheus collectors
type Metrics struct {
	planOps     *prometheus.CounterVec
	planOpTimes *prometheus.HistogramVec
	apiErrors   *prometheus.CounterVec
}

// NewMetrics registers the collectors on the given registerer. Passing nil
// registers on the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		planOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealsmith_plan_operations_total",
				Help: "Total plan operations by type",
			},
			[]string{"operation"},
		),
		planOpTimes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mealsmith_plan_operation_duration_seconds",
				Help:    "Plan operation latency by type",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		apiErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealsmith_api_errors_total",
				Help: "API errors by error code",
			},
			[]string{"code"},
		),
	}
}

// ObservePlanOp records one operation and its latency since start.
// Intended for use with defer at the top of a handler.
func (m *Metrics) ObservePlanOp(operation string, start time.Time) {
	m.planOps.WithLabelValues(operation).Inc()
	m.planOpTimes.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// IncError counts one API error by code
func (m *Metrics) IncError(code string) {
	m.apiErrors.WithLabelValues(code).Inc()
}
