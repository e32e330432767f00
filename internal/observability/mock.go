package observability

import "time"

// MockMetricsRegistry is a mock implementation of MetricsRegistry for testing
type MockMetricsRegistry struct{}

// Budget API call metrics
func (m *MockMetricsRegistry) IncrementAPICalls(endpoint, outcome string)                   {}
func (m *MockMetricsRegistry) RecordAPICallLatency(endpoint string, duration time.Duration) {}
func (m *MockMetricsRegistry) IncrementRetries(endpoint string)                             {}

// Plan lifecycle metrics
func (m *MockMetricsRegistry) IncrementPlansGenerated(strategy string) {}
func (m *MockMetricsRegistry) IncrementPlanApplies(outcome string)     {}
func (m *MockMetricsRegistry) RecordPlanSize(reallocations int)        {}

// Session store metrics
func (m *MockMetricsRegistry) IncrementSessionOps(op, outcome string) {}
