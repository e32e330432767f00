// Command stub_api serves a self-consistent fake of the budget reallocation
// API for local development of budgetctl and the MCP server. Generated plans
// honor the submitted max change ratio; applied plans append to an in-memory
// history.
package main

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bloglens/adbudget/internal/config"
	"github.com/bloglens/adbudget/internal/middleware"
	"github.com/bloglens/adbudget/internal/models"
	"github.com/bloglens/adbudget/internal/observability"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService("adbudget-stub")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	srv := newStubServer(logger)

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	api := r.PathPrefix("/api/ads/budget").Subrouter()
	api.Use(middleware.RequireBearer())
	api.HandleFunc("/health", srv.healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/recommendation", srv.recommendationHandler).Methods(http.MethodGet)
	api.HandleFunc("/strategies", srv.strategiesHandler).Methods(http.MethodGet)
	api.HandleFunc("/history", srv.historyHandler).Methods(http.MethodGet)
	api.HandleFunc("/plan/generate", srv.generateHandler).Methods(http.MethodPost)
	api.HandleFunc("/plan/apply", srv.applyHandler).Methods(http.MethodPost)

	handler := middleware.AccessLog(logger)(r)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.StubPort,
		Handler:      handler,
		ReadTimeout:  cfg.StubReadTimeout,
		WriteTimeout: cfg.StubWriteTimeout,
	}
	logger.Info("stub API listening", zap.String("addr", httpSrv.Addr))
	if err := httpSrv.ListenAndServe(); err != nil {
		logger.Error("stub API server", zap.Error(err))
		os.Exit(1)
	}
}

// stubServer holds the canned, mutable state behind the endpoints.
type stubServer struct {
	logger *zap.Logger

	mu      sync.Mutex
	health  models.HealthAnalysis
	plans   map[string]models.ReallocationPlan
	history []models.HistoryEntry
}

func newStubServer(logger *zap.Logger) *stubServer {
	roasNaver := 320.0
	cpaNaver := 8500.0
	roasKakao := 180.0
	cpaKakao := 15200.0
	roasGoogle := 95.0
	totalBudget := 1_200_000.0
	blendedCPA := 11300.0

	return &stubServer{
		logger: logger,
		plans:  make(map[string]models.ReallocationPlan),
		health: models.HealthAnalysis{
			Status: "ok",
			Platforms: []models.PlatformHealth{
				{
					Platform: "naver", BudgetShare: 40, RevenueShare: 55,
					EfficiencyScore: 88.5, Status: models.StatusExcellent,
					Recommendation: "increase budget to capture additional demand",
					Metrics:        models.PlatformMetrics{ROAS: &roasNaver, CPA: &cpaNaver, CVR: 2.1, CTR: 3.4},
				},
				{
					Platform: "kakao", BudgetShare: 35, RevenueShare: 30,
					EfficiencyScore: 61.0, Status: models.StatusGood,
					Recommendation: "hold budget, refresh underperforming creatives",
					Metrics:        models.PlatformMetrics{ROAS: &roasKakao, CPA: &cpaKakao, CVR: 1.0, CTR: 2.5},
				},
				{
					Platform: "google", BudgetShare: 25, RevenueShare: 15,
					EfficiencyScore: 34.2, Status: models.StatusPoor,
					Recommendation: "reduce budget until targeting is reworked",
					Metrics:        models.PlatformMetrics{ROAS: &roasGoogle, CVR: 0.4, CTR: 1.1},
				},
			},
			Overall: models.OverallTotals{
				TotalBudget:      &totalBudget,
				TotalSpend:       870_000,
				TotalRevenue:     1_950_000,
				TotalConversions: 214,
				BlendedROAS:      224.1,
				BlendedCPA:       &blendedCPA,
			},
			ImbalanceDetected:    true,
			RebalanceRecommended: true,
		},
	}
}

var stubStrategies = []models.Strategy{
	{ID: "balanced", Name: "Balanced", Description: "Even weighting across ROAS, CPA and conversions", ROASWeight: 0.34, CPAWeight: 0.33, ConversionsWeight: 0.33, TargetAudience: "general"},
	{ID: "aggressive", Name: "Aggressive growth", Description: "Chase ROAS, tolerate higher CPA", ROASWeight: 0.6, CPAWeight: 0.1, ConversionsWeight: 0.3, TargetAudience: "high-intent shoppers"},
	{ID: "conservative", Name: "Conservative", Description: "Protect CPA, move budget slowly", ROASWeight: 0.2, CPAWeight: 0.6, ConversionsWeight: 0.2, TargetAudience: "returning customers"},
}

func writeData(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"data": payload}); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func (s *stubServer) healthHandler(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	h := s.health
	s.mu.Unlock()
	writeData(w, h)
}

func (s *stubServer) recommendationHandler(w http.ResponseWriter, _ *http.Request) {
	writeData(w, models.QuickRecommendation{
		FromPlatform:     "google",
		ToPlatform:       "naver",
		Amount:           90_000,
		ExpectedROASGain: 12.5,
		Message:          "google ROAS is below breakeven; naver has headroom at current CPA",
	})
}

func (s *stubServer) strategiesHandler(w http.ResponseWriter, _ *http.Request) {
	writeData(w, stubStrategies)
}

func (s *stubServer) historyHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	s.mu.Lock()
	entries := make([]models.HistoryEntry, len(s.history))
	copy(entries, s.history)
	s.mu.Unlock()

	// newest first
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	writeData(w, entries)
}

// generateHandler proposes moving budget toward platforms whose revenue share
// exceeds their budget share, capped at the submitted max change ratio.
func (s *stubServer) generateHandler(w http.ResponseWriter, r *http.Request) {
	var req models.GeneratePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(req.Platforms) == 0 {
		http.Error(w, "platforms required", http.StatusBadRequest)
		return
	}
	ratio := req.MaxChangeRatio
	if ratio <= 0 || ratio > 1 {
		http.Error(w, "max_change_ratio must be in (0, 1]", http.StatusBadRequest)
		return
	}

	totalSpend := 0.0
	totalBudget := 0.0
	totalRevenue := 0.0
	for _, p := range req.Platforms {
		totalSpend += p.Spend
		totalBudget += p.CurrentBudget
		totalRevenue += p.Revenue
	}

	plan := models.ReallocationPlan{
		PlanID:     uuid.NewString(),
		StrategyID: req.StrategyID,
		CreatedAt:  time.Now().UTC(),
	}
	for _, p := range req.Platforms {
		budgetShare := 0.0
		if totalBudget > 0 {
			budgetShare = p.CurrentBudget / totalBudget
		}
		revenueShare := 0.0
		if totalRevenue > 0 {
			revenueShare = p.Revenue / totalRevenue
		}

		// Move toward revenue-proportional budgets, capped per platform.
		change := (revenueShare - budgetShare) * totalBudget
		maxDelta := p.CurrentBudget * ratio
		if change > maxDelta {
			change = maxDelta
		}
		if change < -maxDelta {
			change = -maxDelta
		}
		change = math.Round(change)

		priority := models.PriorityLow
		reason := "budget roughly matches revenue contribution"
		switch {
		case p.CurrentBudget == 0:
			priority = models.PriorityExclude
			reason = "no budget allocated"
		case change >= maxDelta*0.8 && change > 0:
			priority = models.PriorityHigh
			reason = "revenue share well above budget share"
		case change > 0:
			priority = models.PriorityMedium
			reason = "revenue share above budget share"
		case change <= -maxDelta*0.8:
			priority = models.PriorityHigh
			reason = "budget share well above revenue share"
		case change < 0:
			priority = models.PriorityMedium
			reason = "budget share above revenue share"
		}

		pct := 0.0
		if p.CurrentBudget > 0 {
			pct = change / p.CurrentBudget * 100
		}
		clickRate := 0.0
		if p.Impressions > 0 {
			clickRate = float64(p.Clicks) / float64(p.Impressions)
		}
		scale := 0.0
		if p.CurrentBudget > 0 {
			scale = change / p.CurrentBudget
		}
		plan.Reallocations = append(plan.Reallocations, models.Reallocation{
			Platform:        p.Platform,
			CurrentBudget:   p.CurrentBudget,
			SuggestedBudget: p.CurrentBudget + change,
			ChangeAmount:    change,
			ChangePercent:   math.Round(pct*10) / 10,
			Priority:        priority,
			Reason:          reason,
			ExpectedImpact: models.ExpectedImpact{
				Impressions: int(math.Round(float64(p.Impressions) * scale)),
				Clicks:      int(math.Round(float64(p.Impressions) * scale * clickRate)),
				Conversions: int(math.Round(float64(p.Conversions) * scale)),
				Revenue:     math.Round(p.Revenue * scale),
			},
		})
	}

	s.mu.Lock()
	s.plans[plan.PlanID] = plan
	s.mu.Unlock()
	s.logger.Info("plan generated",
		zap.String("plan_id", plan.PlanID),
		zap.String("strategy", plan.StrategyID),
		zap.Int("reallocations", len(plan.Reallocations)))
	writeData(w, plan)
}

func (s *stubServer) applyHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ApplyPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.PlanID == "" {
		http.Error(w, "plan_id required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	plan, ok := s.plans[req.PlanID]
	if !ok {
		s.mu.Unlock()
		http.Error(w, "unknown plan", http.StatusNotFound)
		return
	}
	delete(s.plans, req.PlanID)

	// Record each donor/receiver pair as one history entry.
	var donors, receivers []models.Reallocation
	for _, re := range plan.Reallocations {
		if re.ChangeAmount < 0 {
			donors = append(donors, re)
		} else if re.ChangeAmount > 0 {
			receivers = append(receivers, re)
		}
	}
	now := time.Now().UTC()
	for i, recv := range receivers {
		from := ""
		if len(donors) > 0 {
			from = donors[i%len(donors)].Platform
		}
		reason := recv.Reason
		if req.Note != "" {
			reason = req.Note
		}
		s.history = append(s.history, models.HistoryEntry{
			ID:           uuid.NewString(),
			FromPlatform: from,
			ToPlatform:   recv.Platform,
			Amount:       recv.ChangeAmount,
			Reason:       reason,
			Status:       models.HistoryStatusApplied,
			CreatedAt:    now,
		})
	}
	s.mu.Unlock()

	s.logger.Info("plan applied", zap.String("plan_id", req.PlanID))
	writeData(w, models.ApplyPlanResult{
		PlanID:    req.PlanID,
		Status:    models.HistoryStatusApplied,
		AppliedAt: now,
	})
}
