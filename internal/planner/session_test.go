package planner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bloglens/adbudget/internal/models"
	"github.com/bloglens/adbudget/internal/observability"
	"github.com/bloglens/adbudget/internal/session"
)

// fakeAPI implements API with canned responses and per-endpoint call counts.
type fakeAPI struct {
	mu sync.Mutex

	token      bool
	health     *models.HealthAnalysis
	healthErr  error
	rec        *models.QuickRecommendation
	strategies []models.Strategy
	plan       *models.ReallocationPlan
	genErr     error
	applyErr   error
	history    []models.HistoryEntry
	lastGenReq *models.GeneratePlanRequest

	calls map[string]int
}

func newFakeAPI() *fakeAPI {
	totalBudget := 1_000_000.0
	return &fakeAPI{
		token: true,
		health: &models.HealthAnalysis{
			Status: "ok",
			Platforms: []models.PlatformHealth{
				{Platform: "naver", BudgetShare: 25, RevenueShare: 10, Status: models.StatusExcellent,
					Metrics: models.PlatformMetrics{CTR: 2.5, CVR: 1.0}},
				{Platform: "google", BudgetShare: 75, RevenueShare: 90, Status: models.StatusPoor,
					Metrics: models.PlatformMetrics{CTR: 1.0, CVR: 0.5}},
			},
			Overall: models.OverallTotals{TotalBudget: &totalBudget, TotalSpend: 500_000, TotalRevenue: 2_000_000},
		},
		rec: &models.QuickRecommendation{FromPlatform: "google", ToPlatform: "naver", Amount: 50_000},
		strategies: []models.Strategy{
			{ID: "balanced", Name: "Balanced"},
			{ID: "aggressive", Name: "Aggressive growth"},
		},
		plan: &models.ReallocationPlan{
			PlanID:     "plan-1",
			StrategyID: "aggressive",
			Reallocations: []models.Reallocation{
				{Platform: "naver", CurrentBudget: 250_000, SuggestedBudget: 320_000, ChangeAmount: 70_000, Priority: models.PriorityHigh},
				{Platform: "google", CurrentBudget: 750_000, SuggestedBudget: 680_000, ChangeAmount: -70_000, Priority: models.PriorityMedium},
			},
		},
		history: []models.HistoryEntry{
			{ID: "h1", FromPlatform: "google", ToPlatform: "naver", Amount: 70_000, Status: models.HistoryStatusApplied, CreatedAt: time.Now()},
		},
		calls: make(map[string]int),
	}
}

func (f *fakeAPI) count(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) HasToken() bool { return f.token }

func (f *fakeAPI) GetHealth(ctx context.Context) (*models.HealthAnalysis, error) {
	f.count("health")
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return f.health, nil
}

func (f *fakeAPI) GetQuickRecommendation(ctx context.Context) (*models.QuickRecommendation, error) {
	f.count("recommendation")
	return f.rec, nil
}

func (f *fakeAPI) GetStrategies(ctx context.Context) ([]models.Strategy, error) {
	f.count("strategies")
	return f.strategies, nil
}

func (f *fakeAPI) GetHistory(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	f.count("history")
	return f.history, nil
}

func (f *fakeAPI) GeneratePlan(ctx context.Context, req *models.GeneratePlanRequest) (*models.ReallocationPlan, error) {
	f.count("generate")
	if f.genErr != nil {
		return nil, f.genErr
	}
	f.mu.Lock()
	f.lastGenReq = req
	f.mu.Unlock()
	planCopy := *f.plan
	planCopy.StrategyID = req.StrategyID
	return &planCopy, nil
}

func (f *fakeAPI) ApplyPlan(ctx context.Context, req *models.ApplyPlanRequest) (*models.ApplyPlanResult, error) {
	f.count("apply")
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	f.mu.Lock()
	f.history = append([]models.HistoryEntry{{
		ID: "h2", FromPlatform: "google", ToPlatform: "naver",
		Amount: 70_000, Status: models.HistoryStatusApplied, CreatedAt: time.Now(),
	}}, f.history...)
	f.mu.Unlock()
	return &models.ApplyPlanResult{PlanID: req.PlanID, Status: models.HistoryStatusApplied}, nil
}

// approve and decline are canned confirmers.
var (
	approve = ConfirmFunc(func(string) (bool, error) { return true, nil })
	decline = ConfirmFunc(func(string) (bool, error) { return false, nil })
)

func newTestSession(t *testing.T, api API, confirm Confirmer) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), api, session.NewMemoryStore(0), confirm, Options{
		MaxChangeRatio:     0.3,
		DefaultTotalBudget: 1_000_000,
		HistoryLimit:       20,
	}, zap.NewNop(), &observability.MockMetricsRegistry{})
	require.NoError(t, err)
	return s
}

func TestRefreshLoadsAllSlots(t *testing.T) {
	api := newFakeAPI()
	s := newTestSession(t, api, approve)

	s.Refresh(context.Background())

	require.NotNil(t, s.Health())
	assert.Len(t, s.Health().Platforms, 2)
	require.NotNil(t, s.Recommendation())
	assert.Len(t, s.Strategies(), 2)
	assert.Equal(t, 1, api.callCount("health"))
	assert.Equal(t, 1, api.callCount("recommendation"))
	assert.Equal(t, 1, api.callCount("strategies"))
	assert.Equal(t, 0, api.callCount("history"), "refresh must not touch history")
}

// A failed fetch records its error and keeps the previously loaded value.
func TestRefreshFailureKeepsPriorState(t *testing.T) {
	api := newFakeAPI()
	s := newTestSession(t, api, approve)
	s.Refresh(context.Background())
	require.NotNil(t, s.Health())

	api.healthErr = errors.New("boom")
	s.Refresh(context.Background())

	assert.NotNil(t, s.Health(), "prior health data must survive a failed refresh")
	assert.Error(t, s.LastError("health"))

	api.healthErr = nil
	s.Refresh(context.Background())
	assert.NoError(t, s.LastError("health"))
}

func TestGeneratePlanGuards(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		api := newFakeAPI()
		api.token = false
		s := newTestSession(t, api, approve)
		s.Refresh(context.Background())

		_, err := s.GeneratePlan(context.Background())
		require.Error(t, err)
		assert.Equal(t, 0, api.callCount("generate"), "guard must prevent the network call")
	})

	t.Run("no health data", func(t *testing.T) {
		api := newFakeAPI()
		s := newTestSession(t, api, approve)
		// no Refresh: health is nil

		_, err := s.GeneratePlan(context.Background())
		assert.ErrorIs(t, err, ErrNoHealthData)
		assert.Equal(t, 0, api.callCount("generate"))
	})

	t.Run("no_data status", func(t *testing.T) {
		api := newFakeAPI()
		api.health = &models.HealthAnalysis{Status: models.AnalysisStatusNoData}
		s := newTestSession(t, api, approve)
		s.Refresh(context.Background())

		_, err := s.GeneratePlan(context.Background())
		assert.ErrorIs(t, err, ErrNoHealthData)
		assert.Equal(t, 0, api.callCount("generate"))
	})
}

func TestGeneratePlanDerivesPayload(t *testing.T) {
	api := newFakeAPI()
	s := newTestSession(t, api, approve)
	s.Refresh(context.Background())
	require.NoError(t, s.SelectStrategy(context.Background(), "aggressive"))

	plan, err := s.GeneratePlan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "plan-1", plan.PlanID)

	req := api.lastGenReq
	require.NotNil(t, req)
	assert.Equal(t, "aggressive", req.StrategyID)
	assert.Equal(t, 0.3, req.MaxChangeRatio)
	require.Len(t, req.Platforms, 2)
	assert.Equal(t, 250_000.0, req.Platforms[0].CurrentBudget)
	assert.Equal(t, 250, req.Platforms[0].Clicks)
	assert.Equal(t, 100, req.Platforms[0].Conversions)
}

func TestGeneratePlanFailureKeepsPriorPlan(t *testing.T) {
	api := newFakeAPI()
	s := newTestSession(t, api, approve)
	s.Refresh(context.Background())

	first, err := s.GeneratePlan(context.Background())
	require.NoError(t, err)

	api.genErr = errors.New("backend down")
	_, err = s.GeneratePlan(context.Background())
	require.Error(t, err)

	current, _ := s.Plan()
	assert.Equal(t, first.PlanID, current.PlanID, "failed regenerate must not discard the previous plan")
	assert.Error(t, s.LastError("generate"))
}

func TestSelectStrategyUnknown(t *testing.T) {
	api := newFakeAPI()
	s := newTestSession(t, api, approve)
	s.Refresh(context.Background())

	err := s.SelectStrategy(context.Background(), "bogus")
	assert.ErrorIs(t, err, ErrNoStrategy)
	assert.Equal(t, models.DefaultStrategyID, s.SelectedStrategy())
}

func TestHistoryTabGatedFetch(t *testing.T) {
	api := newFakeAPI()
	s := newTestSession(t, api, approve)
	ctx := context.Background()

	s.SelectTab(ctx, TabPlan)
	s.SelectTab(ctx, TabHealth)
	assert.Equal(t, 0, api.callCount("history"), "health/plan tabs must never fetch history")

	s.SelectTab(ctx, TabHistory)
	assert.Equal(t, 1, api.callCount("history"))
	assert.Len(t, s.History(), 1)

	// Re-selecting the already-active tab is not a new activation.
	s.SelectTab(ctx, TabHistory)
	assert.Equal(t, 1, api.callCount("history"))

	// Leaving and coming back is.
	s.SelectTab(ctx, TabHealth)
	s.SelectTab(ctx, TabHistory)
	assert.Equal(t, 2, api.callCount("history"))
}

func TestApplyPlanGuards(t *testing.T) {
	t.Run("no plan", func(t *testing.T) {
		api := newFakeAPI()
		s := newTestSession(t, api, approve)

		_, err := s.ApplyPlan(context.Background(), "")
		assert.ErrorIs(t, err, ErrNoPlan)
		assert.Equal(t, 0, api.callCount("apply"))
	})

	t.Run("declined confirmation", func(t *testing.T) {
		api := newFakeAPI()
		s := newTestSession(t, api, decline)
		s.Refresh(context.Background())
		_, err := s.GeneratePlan(context.Background())
		require.NoError(t, err)

		_, err = s.ApplyPlan(context.Background(), "")
		assert.ErrorIs(t, err, ErrNotConfirmed)
		assert.Equal(t, 0, api.callCount("apply"), "declined confirmation must issue zero network calls")

		plan, _ := s.Plan()
		assert.NotNil(t, plan, "declined confirmation must not change state")
	})
}

// End-to-end: refresh, pick a strategy, generate, apply with confirmation,
// then the plan clears and history shows the applied entry.
func TestWorkflowEndToEnd(t *testing.T) {
	api := newFakeAPI()
	s := newTestSession(t, api, approve)
	ctx := context.Background()

	s.Refresh(ctx)
	require.True(t, s.Health().HasPlatforms())
	require.NoError(t, s.SelectStrategy(ctx, "aggressive"))

	plan, err := s.GeneratePlan(ctx)
	require.NoError(t, err)
	require.Equal(t, "aggressive", plan.StrategyID)
	require.Len(t, plan.Reallocations, 2)

	result, err := s.ApplyPlan(ctx, "quarterly rebalance")
	require.NoError(t, err)
	assert.Equal(t, models.HistoryStatusApplied, result.Status)

	current, _ := s.Plan()
	assert.Nil(t, current, "plan must clear after apply")

	// Apply reloads history; the new entry is first.
	history := s.History()
	require.NotEmpty(t, history)
	assert.Equal(t, "h2", history[0].ID)
	assert.Equal(t, models.HistoryStatusApplied, history[0].Status)
}

// Plan state persists through the session store across Session instances,
// the CLI's generate-then-apply-in-a-later-run path.
func TestPlanSurvivesSessionRestore(t *testing.T) {
	api := newFakeAPI()
	store := session.NewMemoryStore(0)
	opts := Options{MaxChangeRatio: 0.3, DefaultTotalBudget: 1_000_000, HistoryLimit: 20}
	ctx := context.Background()

	s1, err := NewSession(ctx, api, store, approve, opts, zap.NewNop(), &observability.MockMetricsRegistry{})
	require.NoError(t, err)
	s1.Refresh(ctx)
	require.NoError(t, s1.SelectStrategy(ctx, "aggressive"))
	_, err = s1.GeneratePlan(ctx)
	require.NoError(t, err)

	s2, err := NewSession(ctx, api, store, approve, opts, zap.NewNop(), &observability.MockMetricsRegistry{})
	require.NoError(t, err)
	plan, _ := s2.Plan()
	require.NotNil(t, plan)
	assert.Equal(t, "plan-1", plan.PlanID)
	assert.Equal(t, "aggressive", s2.SelectedStrategy())

	result, err := s2.ApplyPlan(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, models.HistoryStatusApplied, result.Status)
}

func TestCapViolationWarnings(t *testing.T) {
	api := newFakeAPI()
	api.plan = &models.ReallocationPlan{
		PlanID: "plan-2",
		Reallocations: []models.Reallocation{
			{Platform: "naver", CurrentBudget: 100_000, SuggestedBudget: 150_000, ChangeAmount: 50_000, Priority: models.PriorityHigh},
		},
	}
	s := newTestSession(t, api, approve)
	s.Refresh(context.Background())

	_, err := s.GeneratePlan(context.Background())
	require.NoError(t, err)

	_, warnings := s.Plan()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "naver")
	assert.Contains(t, warnings[0], "30%")
}
