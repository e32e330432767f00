package planner

import (
	"math"

	"github.com/bloglens/adbudget/internal/models"
)

// baselineImpressions is the fixed placeholder impression count the backend
// expects in performance snapshots. Clicks and conversions are derived from
// it via the platform's CTR and CVR.
const baselineImpressions = 10_000

// BuildGenerateRequest derives the plan-generation payload from an already
// fetched health analysis. All figures are simple arithmetic over
// backend-computed shares and totals:
//
//	current budget = budget share% x total budget (or defaultTotalBudget when absent)
//	spend          = revenue share% x total spend
//	clicks         = round(baseline impressions x CTR%)
//	conversions    = round(baseline impressions x CVR%)
//	revenue        = revenue share% x total revenue
func BuildGenerateRequest(h *models.HealthAnalysis, strategyID string, maxChangeRatio, defaultTotalBudget float64) *models.GeneratePlanRequest {
	totalBudget := defaultTotalBudget
	if h.Overall.TotalBudget != nil {
		totalBudget = *h.Overall.TotalBudget
	}

	platforms := make([]models.PlatformPerformance, 0, len(h.Platforms))
	for _, p := range h.Platforms {
		platforms = append(platforms, models.PlatformPerformance{
			Platform:      p.Platform,
			CurrentBudget: p.BudgetShare / 100 * totalBudget,
			Spend:         p.RevenueShare / 100 * h.Overall.TotalSpend,
			Impressions:   baselineImpressions,
			Clicks:        int(math.Round(baselineImpressions * p.Metrics.CTR / 100)),
			Conversions:   int(math.Round(baselineImpressions * p.Metrics.CVR / 100)),
			Revenue:       p.RevenueShare / 100 * h.Overall.TotalRevenue,
		})
	}

	return &models.GeneratePlanRequest{
		Platforms:      platforms,
		StrategyID:     strategyID,
		MaxChangeRatio: maxChangeRatio,
	}
}
