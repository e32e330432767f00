package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics.
// Components receive it via dependency injection instead of touching the
// global Prometheus collectors directly.
type MetricsRegistry interface {
	// Budget API call metrics
	IncrementAPICalls(endpoint, outcome string)
	RecordAPICallLatency(endpoint string, duration time.Duration)
	IncrementRetries(endpoint string)

	// Plan lifecycle metrics
	IncrementPlansGenerated(strategy string)
	IncrementPlanApplies(outcome string)
	RecordPlanSize(reallocations int)

	// Session store metrics
	IncrementSessionOps(op, outcome string)
}

// PrometheusRegistry implements MetricsRegistry using the package-level
// Prometheus collectors.
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry.
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementAPICalls(endpoint, outcome string) {
	APICallCount.WithLabelValues(endpoint, outcome).Inc()
}

func (r *PrometheusRegistry) RecordAPICallLatency(endpoint string, duration time.Duration) {
	APICallLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementRetries(endpoint string) {
	RetryCount.WithLabelValues(endpoint).Inc()
}

func (r *PrometheusRegistry) IncrementPlansGenerated(strategy string) {
	PlanGeneratedCount.WithLabelValues(strategy).Inc()
}

func (r *PrometheusRegistry) IncrementPlanApplies(outcome string) {
	PlanAppliedCount.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) RecordPlanSize(reallocations int) {
	PlanSize.Observe(float64(reallocations))
}

func (r *PrometheusRegistry) IncrementSessionOps(op, outcome string) {
	SessionOpCount.WithLabelValues(op, outcome).Inc()
}

// NoOpRegistry implements MetricsRegistry without recording anything.
// Useful when metrics are disabled or in tools that do not expose them.
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry.
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementAPICalls(endpoint, outcome string)                   {}
func (r *NoOpRegistry) RecordAPICallLatency(endpoint string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementRetries(endpoint string)                             {}
func (r *NoOpRegistry) IncrementPlansGenerated(strategy string)                      {}
func (r *NoOpRegistry) IncrementPlanApplies(outcome string)                          {}
func (r *NoOpRegistry) RecordPlanSize(reallocations int)                             {}
func (r *NoOpRegistry) IncrementSessionOps(op, outcome string)                       {}
