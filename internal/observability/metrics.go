package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total budget API calls per endpoint and outcome
	APICallCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adbudget_api_calls_total",
			Help: "Total budget API calls issued",
		},
		[]string{"endpoint", "outcome"},
	)

	// budget API call latency in seconds per endpoint
	APICallLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adbudget_api_call_duration_seconds",
			Help:    "Histogram of budget API call latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// retry attempts beyond the first, labelled by endpoint
	RetryCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adbudget_api_retries_total",
			Help: "Total retried budget API calls",
		},
		[]string{"endpoint"},
	)

	// reallocation plans generated, labelled by strategy
	PlanGeneratedCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adbudget_plans_generated_total",
			Help: "Total reallocation plans generated",
		},
		[]string{"strategy"},
	)

	// reallocation plans applied (or aborted at the confirmation gate)
	PlanAppliedCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adbudget_plans_applied_total",
			Help: "Total reallocation plan apply attempts",
		},
		[]string{"outcome"},
	)

	// distribution of per-plan reallocation line counts
	PlanSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adbudget_plan_reallocations",
			Help:    "Histogram of reallocation counts per generated plan",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		},
	)

	// session store operations labelled by op and outcome
	SessionOpCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adbudget_session_ops_total",
			Help: "Total session store operations",
		},
		[]string{"op", "outcome"},
	)
)

func init() {
	// register all metrics
	prometheus.MustRegister(
		APICallCount,
		APICallLatency,
		RetryCount,
		PlanGeneratedCount,
		PlanAppliedCount,
		PlanSize,
		SessionOpCount,
	)
}
