package models

// AnalysisStatusNoData marks a health analysis for an account with no
// connected platform data. Plan generation is not possible in this state.
const AnalysisStatusNoData = "no_data"

// PlatformStatus classifies a platform's advertising health.
type PlatformStatus string

const (
	StatusExcellent PlatformStatus = "excellent"
	StatusGood      PlatformStatus = "good"
	StatusFair      PlatformStatus = "fair"
	StatusPoor      PlatformStatus = "poor"
)

// Valid reports whether the status is one of the known classifications.
// Anything else renders through the unknown/default display mapping.
func (s PlatformStatus) Valid() bool {
	switch s {
	case StatusExcellent, StatusGood, StatusFair, StatusPoor:
		return true
	}
	return false
}

// PlatformMetrics bundles the performance figures the backend computes for
// one platform. CPA may be absent when the platform recorded no conversions.
type PlatformMetrics struct {
	ROAS *float64 `json:"roas,omitempty"`
	CPA  *float64 `json:"cpa,omitempty"`
	CVR  float64  `json:"cvr"`
	CTR  float64  `json:"ctr"`
}

// PlatformHealth is one advertising platform's slice of the health analysis.
// Instances are backend-owned: created per request, never mutated client-side,
// discarded on the next fetch.
type PlatformHealth struct {
	Platform        string          `json:"platform"`
	BudgetShare     float64         `json:"budget_share"`
	RevenueShare    float64         `json:"revenue_share"`
	EfficiencyScore float64         `json:"efficiency_score"`
	Status          PlatformStatus  `json:"status"`
	Recommendation  string          `json:"recommendation"`
	Metrics         PlatformMetrics `json:"metrics"`
}

// OverallTotals aggregates spend and revenue across all connected platforms.
// TotalBudget may be absent, in which case plan-generation payloads fall back
// to a configured default base.
type OverallTotals struct {
	TotalBudget      *float64 `json:"total_budget,omitempty"`
	TotalSpend       float64  `json:"total_spend"`
	TotalRevenue     float64  `json:"total_revenue"`
	TotalConversions int      `json:"total_conversions"`
	BlendedROAS      float64  `json:"blended_roas"`
	BlendedCPA       *float64 `json:"blended_cpa,omitempty"`
}

// HealthAnalysis is the aggregate health picture for one account. It is
// fetched on workflow start and on manual refresh, and always fully replaced,
// never patched.
type HealthAnalysis struct {
	Status               string           `json:"status"`
	Platforms            []PlatformHealth `json:"platforms"`
	Overall              OverallTotals    `json:"overall"`
	ImbalanceDetected    bool             `json:"imbalance_detected"`
	RebalanceRecommended bool             `json:"rebalance_recommended"`
}

// HasPlatforms reports whether the analysis carries usable per-platform data.
// Plan generation requires this.
func (h *HealthAnalysis) HasPlatforms() bool {
	return h != nil && h.Status != AnalysisStatusNoData && len(h.Platforms) > 0
}
