package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/bloglens/adbudget/internal/models"
)

func postGenerate(t *testing.T, srv *stubServer, req models.GeneratePlanRequest) (*httptest.ResponseRecorder, models.ReallocationPlan) {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/ads/budget/plan/generate", bytes.NewReader(body))
	srv.generateHandler(w, r)

	var env struct {
		Data models.ReallocationPlan `json:"data"`
	}
	if w.Code == http.StatusOK {
		if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return w, env.Data
}

func TestGenerateHandlerRespectsMaxChangeRatio(t *testing.T) {
	srv := newStubServer(zap.NewNop())
	w, plan := postGenerate(t, srv, models.GeneratePlanRequest{
		StrategyID:     "balanced",
		MaxChangeRatio: 0.3,
		Platforms: []models.PlatformPerformance{
			{Platform: "naver", CurrentBudget: 400_000, Revenue: 1_100_000},
			{Platform: "google", CurrentBudget: 600_000, Revenue: 100_000},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if len(plan.CapViolations(0.3)) != 0 {
		t.Errorf("generated plan exceeds the submitted cap: %+v", plan.Reallocations)
	}
}

// A platform with no budget allocated cannot donate or receive; its line item
// must be excluded, not flagged as a high-priority donor.
func TestGenerateHandlerZeroBudgetPlatformExcluded(t *testing.T) {
	srv := newStubServer(zap.NewNop())
	w, plan := postGenerate(t, srv, models.GeneratePlanRequest{
		StrategyID:     "balanced",
		MaxChangeRatio: 0.3,
		Platforms: []models.PlatformPerformance{
			{Platform: "naver", CurrentBudget: 500_000, Revenue: 900_000},
			{Platform: "newbie", CurrentBudget: 0, Revenue: 100_000},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var newbie *models.Reallocation
	for i := range plan.Reallocations {
		if plan.Reallocations[i].Platform == "newbie" {
			newbie = &plan.Reallocations[i]
		}
	}
	if newbie == nil {
		t.Fatalf("zero-budget platform missing from plan: %+v", plan.Reallocations)
	}
	if newbie.Priority != models.PriorityExclude {
		t.Errorf("Priority = %q, want %q", newbie.Priority, models.PriorityExclude)
	}
	if newbie.ChangeAmount != 0 {
		t.Errorf("ChangeAmount = %v, want 0 for a zero-budget platform", newbie.ChangeAmount)
	}
}

func TestGenerateHandlerRejectsBadRatio(t *testing.T) {
	srv := newStubServer(zap.NewNop())
	for _, ratio := range []float64{0, -0.1, 1.5} {
		w, _ := postGenerate(t, srv, models.GeneratePlanRequest{
			StrategyID:     "balanced",
			MaxChangeRatio: ratio,
			Platforms:      []models.PlatformPerformance{{Platform: "naver", CurrentBudget: 100_000}},
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("ratio %v: status = %d, want 400", ratio, w.Code)
		}
	}
}
