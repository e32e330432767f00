package display

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bloglens/adbudget/internal/models"
)

// RenderHealth formats the health analysis as a text table for the CLI.
// A no-data analysis renders the empty-state message and nothing else.
func RenderHealth(h *models.HealthAnalysis) string {
	if h == nil {
		return "no health data loaded\n"
	}
	if !h.HasPlatforms() {
		return "no platform data available yet, connect an advertising platform first\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %8s %8s %8s %-10s %s\n",
		"PLATFORM", "BUDGET%", "REV%", "SCORE", "STATUS", "RECOMMENDATION")
	for _, p := range h.Platforms {
		fmt.Fprintf(&b, "%-12s %7.1f%% %7.1f%% %8.1f %-10s %s\n",
			p.Platform, p.BudgetShare, p.RevenueShare, p.EfficiencyScore,
			StatusLabel(p.Status), p.Recommendation)
	}

	b.WriteString("\n")
	if h.Overall.TotalBudget != nil {
		fmt.Fprintf(&b, "total budget:  %s\n", FormatCurrency(*h.Overall.TotalBudget))
	}
	fmt.Fprintf(&b, "total spend:   %s\n", FormatCurrency(h.Overall.TotalSpend))
	fmt.Fprintf(&b, "total revenue: %s\n", FormatCurrency(h.Overall.TotalRevenue))
	fmt.Fprintf(&b, "conversions:   %d\n", h.Overall.TotalConversions)
	fmt.Fprintf(&b, "blended ROAS:  %.1f%%\n", h.Overall.BlendedROAS)
	if h.ImbalanceDetected {
		b.WriteString("budget imbalance detected\n")
	}
	if h.RebalanceRecommended {
		b.WriteString("rebalancing recommended\n")
	}
	return b.String()
}

// RenderPlan formats a generated plan, rows ordered by priority tier
// (high first) and, within a tier, by absolute change amount descending.
func RenderPlan(p *models.ReallocationPlan) string {
	if p == nil {
		return "no plan generated\n"
	}

	rows := make([]models.Reallocation, len(p.Reallocations))
	copy(rows, p.Reallocations)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Priority.Rank() != rows[j].Priority.Rank() {
			return rows[i].Priority.Rank() < rows[j].Priority.Rank()
		}
		ai, aj := rows[i].ChangeAmount, rows[j].ChangeAmount
		if ai < 0 {
			ai = -ai
		}
		if aj < 0 {
			aj = -aj
		}
		return ai > aj
	})

	var b strings.Builder
	fmt.Fprintf(&b, "plan %s (strategy: %s)\n\n", p.PlanID, p.StrategyID)
	fmt.Fprintf(&b, "%-12s %12s %12s %12s %8s %-8s %s\n",
		"PLATFORM", "CURRENT", "SUGGESTED", "CHANGE", "CHG%", "PRIORITY", "REASON")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-12s %12s %12s %12s %+7.1f%% %-8s %s\n",
			r.Platform,
			FormatCurrency(r.CurrentBudget),
			FormatCurrency(r.SuggestedBudget),
			FormatCurrency(r.ChangeAmount),
			r.ChangePercent,
			r.Priority,
			r.Reason)
	}
	return b.String()
}

// RenderQuickRecommendation formats the single-suggestion shortcut.
func RenderQuickRecommendation(r *models.QuickRecommendation) string {
	if r == nil {
		return "no quick recommendation available\n"
	}
	return fmt.Sprintf("move %s from %s to %s (expected ROAS gain %.1f%%)\n%s\n",
		FormatCurrency(r.Amount), r.FromPlatform, r.ToPlatform,
		r.ExpectedROASGain, r.Message)
}

// RenderHistory formats past reallocation actions, newest first as returned
// by the backend.
func RenderHistory(entries []models.HistoryEntry) string {
	if len(entries) == 0 {
		return "no reallocation history\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-12s %-12s %12s %-12s %s\n",
		"WHEN", "FROM", "TO", "AMOUNT", "STATUS", "REASON")
	for _, e := range entries {
		fmt.Fprintf(&b, "%-20s %-12s %-12s %12s %-12s %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.FromPlatform, e.ToPlatform,
			FormatCurrency(e.Amount), e.Status, e.Reason)
	}
	return b.String()
}
