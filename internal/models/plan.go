package models

import "time"

// DefaultStrategyID is the strategy selected before the user picks one.
const DefaultStrategyID = "balanced"

// Strategy is a named reallocation heuristic offered by the backend. The
// weight factors describe how strongly the heuristic favors each signal.
type Strategy struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	ROASWeight        float64 `json:"roas_weight"`
	CPAWeight         float64 `json:"cpa_weight"`
	ConversionsWeight float64 `json:"conversions_weight"`
	TargetAudience    string  `json:"target_audience"`
}

// Priority is the urgency tier attached to a reallocation line item.
type Priority string

const (
	PriorityHigh    Priority = "high"
	PriorityMedium  Priority = "medium"
	PriorityLow     Priority = "low"
	PriorityExclude Priority = "exclude"
)

// Valid reports whether the priority is one of the known tiers.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow, PriorityExclude:
		return true
	}
	return false
}

// Rank orders priorities for display, high first. Unknown tiers sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	case PriorityExclude:
		return 3
	}
	return 4
}

// ExpectedImpact estimates the effect of one proposed budget change.
type ExpectedImpact struct {
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	Conversions int     `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

// Reallocation is one proposed budget change for a platform.
type Reallocation struct {
	Platform        string         `json:"platform"`
	CurrentBudget   float64        `json:"current_budget"`
	SuggestedBudget float64        `json:"suggested_budget"`
	ChangeAmount    float64        `json:"change_amount"`
	ChangePercent   float64        `json:"change_percent"`
	Priority        Priority       `json:"priority"`
	Reason          string         `json:"reason"`
	ExpectedImpact  ExpectedImpact `json:"expected_impact"`
}

// ReallocationPlan is a generated set of proposed budget adjustments. It
// lives from generation until applied, regenerated, or discarded.
type ReallocationPlan struct {
	PlanID        string         `json:"plan_id"`
	StrategyID    string         `json:"strategy_id"`
	Reallocations []Reallocation `json:"reallocations"`
	CreatedAt     time.Time      `json:"created_at,omitempty"`
}

// Applicable reports whether the plan can be submitted for application.
func (p *ReallocationPlan) Applicable() bool {
	return p != nil && p.PlanID != ""
}

// CapViolations returns the platforms whose suggested change exceeds the
// given max change ratio. The cap is asserted to the backend at generation
// time; this check surfaces responses that ignored it.
func (p *ReallocationPlan) CapViolations(maxChangeRatio float64) []string {
	if p == nil {
		return nil
	}
	var out []string
	for _, r := range p.Reallocations {
		if r.CurrentBudget == 0 {
			continue
		}
		change := r.ChangeAmount / r.CurrentBudget
		if change < 0 {
			change = -change
		}
		// Small tolerance for backend rounding of suggested budgets.
		if change > maxChangeRatio+1e-9 {
			out = append(out, r.Platform)
		}
	}
	return out
}

// PlatformPerformance is the per-platform snapshot submitted with a
// plan-generation request. Values are derived from the health analysis.
type PlatformPerformance struct {
	Platform      string  `json:"platform"`
	CurrentBudget float64 `json:"current_budget"`
	Spend         float64 `json:"spend"`
	Impressions   int     `json:"impressions"`
	Clicks        int     `json:"clicks"`
	Conversions   int     `json:"conversions"`
	Revenue       float64 `json:"revenue"`
}

// GeneratePlanRequest is the payload for POST /api/ads/budget/plan/generate.
type GeneratePlanRequest struct {
	Platforms      []PlatformPerformance `json:"platforms"`
	StrategyID     string                `json:"strategy_id"`
	MaxChangeRatio float64               `json:"max_change_ratio"`
}

// ApplyPlanRequest is the payload for POST /api/ads/budget/plan/apply.
type ApplyPlanRequest struct {
	PlanID string `json:"plan_id"`
	Note   string `json:"note,omitempty"`
}

// ApplyPlanResult is the backend's acknowledgement of an applied plan.
type ApplyPlanResult struct {
	PlanID    string    `json:"plan_id"`
	Status    string    `json:"status"`
	AppliedAt time.Time `json:"applied_at,omitempty"`
}
