package models

import "testing"

func TestHasPlatforms(t *testing.T) {
	var nilAnalysis *HealthAnalysis
	if nilAnalysis.HasPlatforms() {
		t.Error("nil analysis should have no platforms")
	}
	if (&HealthAnalysis{Status: "ok"}).HasPlatforms() {
		t.Error("empty platform list should report false")
	}
	noData := &HealthAnalysis{
		Status:    AnalysisStatusNoData,
		Platforms: []PlatformHealth{{Platform: "naver"}},
	}
	if noData.HasPlatforms() {
		t.Error("no_data status should report false even with platforms present")
	}
	ok := &HealthAnalysis{Status: "ok", Platforms: []PlatformHealth{{Platform: "naver"}}}
	if !ok.HasPlatforms() {
		t.Error("populated analysis should report true")
	}
}

func TestPriorityRank(t *testing.T) {
	order := []Priority{PriorityHigh, PriorityMedium, PriorityLow, PriorityExclude, Priority("bogus")}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("expected %q to rank before %q", order[i-1], order[i])
		}
	}
}

func TestPlanApplicable(t *testing.T) {
	var nilPlan *ReallocationPlan
	if nilPlan.Applicable() {
		t.Error("nil plan should not be applicable")
	}
	if (&ReallocationPlan{}).Applicable() {
		t.Error("plan without id should not be applicable")
	}
	if !(&ReallocationPlan{PlanID: "p1"}).Applicable() {
		t.Error("plan with id should be applicable")
	}
}

func TestCapViolations(t *testing.T) {
	plan := &ReallocationPlan{
		PlanID: "p1",
		Reallocations: []Reallocation{
			{Platform: "naver", CurrentBudget: 100_000, ChangeAmount: 30_000},   // exactly at cap
			{Platform: "google", CurrentBudget: 100_000, ChangeAmount: -45_000}, // over
			{Platform: "kakao", CurrentBudget: 0, ChangeAmount: 5_000},          // zero budget skipped
		},
	}
	got := plan.CapViolations(0.3)
	if len(got) != 1 || got[0] != "google" {
		t.Errorf("CapViolations = %v, want [google]", got)
	}
	if v := (&ReallocationPlan{}).CapViolations(0.3); v != nil {
		t.Errorf("empty plan should have no violations, got %v", v)
	}
}
