// Package planner drives the three-tab budget reallocation workflow: platform
// health, plan generation/application, and history. It owns only view state;
// every number it displays was computed by the backend. Failed fetches record
// a typed error and leave previously loaded state untouched.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bloglens/adbudget/internal/models"
	"github.com/bloglens/adbudget/internal/observability"
	"github.com/bloglens/adbudget/internal/session"
)

// Tab identifies one of the workflow's three views.
type Tab string

const (
	TabHealth  Tab = "health"
	TabPlan    Tab = "plan"
	TabHistory Tab = "history"
)

var (
	// ErrNoHealthData indicates plan generation was attempted without usable
	// platform health data.
	ErrNoHealthData = errors.New("no platform health data loaded")
	// ErrNoStrategy indicates no strategy is selected or available.
	ErrNoStrategy = errors.New("no reallocation strategy selected")
	// ErrNoPlan indicates apply was attempted without an applicable plan.
	ErrNoPlan = errors.New("no applicable plan")
	// ErrNotConfirmed indicates the user declined the apply confirmation.
	ErrNotConfirmed = errors.New("apply not confirmed")
	// ErrBusy indicates a generate or apply is already in flight.
	ErrBusy = errors.New("operation already in progress")
)

// API is the slice of the budget API client the planner needs. Satisfied by
// *client.Client.
type API interface {
	HasToken() bool
	GetHealth(ctx context.Context) (*models.HealthAnalysis, error)
	GetQuickRecommendation(ctx context.Context) (*models.QuickRecommendation, error)
	GetStrategies(ctx context.Context) ([]models.Strategy, error)
	GetHistory(ctx context.Context, limit int) ([]models.HistoryEntry, error)
	GeneratePlan(ctx context.Context, req *models.GeneratePlanRequest) (*models.ReallocationPlan, error)
	ApplyPlan(ctx context.Context, req *models.ApplyPlanRequest) (*models.ApplyPlanResult, error)
}

// Confirmer gates plan application behind an explicit affirmative answer.
// The CLI uses an interactive stdin prompt; other frontends substitute their
// own affordance.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(prompt string) (bool, error)

func (f ConfirmFunc) Confirm(prompt string) (bool, error) { return f(prompt) }

// Options configures a Session.
type Options struct {
	MaxChangeRatio     float64
	DefaultTotalBudget float64
	HistoryLimit       int
	SessionKey         string
}

// Session holds the workflow's view state. All methods are safe for
// concurrent use; the independent refresh fetches update their own slots.
type Session struct {
	api     API
	store   session.Store
	confirm Confirmer
	opts    Options
	logger  *zap.Logger
	metrics observability.MetricsRegistry

	mu               sync.Mutex
	health           *models.HealthAnalysis
	recommendation   *models.QuickRecommendation
	strategies       []models.Strategy
	selectedStrategy string
	plan             *models.ReallocationPlan
	planWarnings     []string
	history          []models.HistoryEntry
	activeTab        Tab
	busy             bool
	lastErrs         map[string]error
}

// NewSession constructs a Session and restores any persisted plan state.
func NewSession(ctx context.Context, api API, store session.Store, confirm Confirmer, opts Options, logger *zap.Logger, metrics observability.MetricsRegistry) (*Session, error) {
	if opts.MaxChangeRatio <= 0 || opts.MaxChangeRatio > 1 {
		return nil, fmt.Errorf("max change ratio must be in (0, 1], got %v", opts.MaxChangeRatio)
	}
	if opts.DefaultTotalBudget <= 0 {
		opts.DefaultTotalBudget = 1_000_000
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}
	if opts.SessionKey == "" {
		opts.SessionKey = "default"
	}

	s := &Session{
		api:              api,
		store:            store,
		confirm:          confirm,
		opts:             opts,
		logger:           logger,
		metrics:          metrics,
		selectedStrategy: models.DefaultStrategyID,
		activeTab:        TabHealth,
		lastErrs:         make(map[string]error),
	}

	st, err := store.Load(ctx, opts.SessionKey)
	switch {
	case err == nil:
		if st.SelectedStrategy != "" {
			s.selectedStrategy = st.SelectedStrategy
		}
		s.plan = st.Plan
	case errors.Is(err, session.ErrNotFound):
		// fresh session
	default:
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return s, nil
}

// Refresh issues the three independent mount-time fetches concurrently:
// health, quick recommendation, and strategies. Each updates its own slot;
// a failure records the error and keeps the prior value, so partial state is
// valid and renderable.
func (s *Session) Refresh(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		h, err := s.api.GetHealth(ctx)
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.lastErrs["health"] = err
			s.logger.Warn("load health", zap.Error(err))
			return
		}
		delete(s.lastErrs, "health")
		s.health = h
	}()

	go func() {
		defer wg.Done()
		r, err := s.api.GetQuickRecommendation(ctx)
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.lastErrs["recommendation"] = err
			s.logger.Warn("load recommendation", zap.Error(err))
			return
		}
		delete(s.lastErrs, "recommendation")
		s.recommendation = r
	}()

	go func() {
		defer wg.Done()
		st, err := s.api.GetStrategies(ctx)
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.lastErrs["strategies"] = err
			s.logger.Warn("load strategies", zap.Error(err))
			return
		}
		delete(s.lastErrs, "strategies")
		s.strategies = st
	}()

	wg.Wait()
}

// SelectTab transitions among the three views. Entering the history tab is
// the sole trigger for the history fetch: exactly one fetch per transition
// into history, none when re-selecting it or selecting the other tabs.
func (s *Session) SelectTab(ctx context.Context, tab Tab) {
	s.mu.Lock()
	entering := tab == TabHistory && s.activeTab != TabHistory
	s.activeTab = tab
	s.mu.Unlock()

	if entering {
		s.loadHistory(ctx)
	}
}

func (s *Session) loadHistory(ctx context.Context) {
	entries, err := s.api.GetHistory(ctx, s.opts.HistoryLimit)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErrs["history"] = err
		s.logger.Warn("load history", zap.Error(err))
		return
	}
	delete(s.lastErrs, "history")
	s.history = entries
}

// SelectStrategy sets the strategy used for the next generated plan. The id
// must be one of the fetched strategies when any are loaded.
func (s *Session) SelectStrategy(ctx context.Context, id string) error {
	s.mu.Lock()
	if len(s.strategies) > 0 {
		found := false
		for _, st := range s.strategies {
			if st.ID == id {
				found = true
				break
			}
		}
		if !found {
			s.mu.Unlock()
			return fmt.Errorf("%w: unknown strategy %q", ErrNoStrategy, id)
		}
	}
	s.selectedStrategy = id
	s.mu.Unlock()
	return s.persist(ctx)
}

// GeneratePlan derives a performance snapshot from the loaded health analysis
// and requests a reallocation plan. Guards: auth token present, health data
// present with populated platforms. On failure any previous plan stays.
func (s *Session) GeneratePlan(ctx context.Context) (*models.ReallocationPlan, error) {
	if !s.api.HasToken() {
		return nil, fmt.Errorf("generate plan: auth token not set")
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if !s.health.HasPlatforms() {
		s.mu.Unlock()
		return nil, ErrNoHealthData
	}
	strategyID := s.selectedStrategy
	if strategyID == "" {
		s.mu.Unlock()
		return nil, ErrNoStrategy
	}
	req := BuildGenerateRequest(s.health, strategyID, s.opts.MaxChangeRatio, s.opts.DefaultTotalBudget)
	s.busy = true
	s.mu.Unlock()
	defer s.clearBusy()

	plan, err := s.api.GeneratePlan(ctx, req)
	if err != nil {
		s.mu.Lock()
		s.lastErrs["generate"] = err
		s.mu.Unlock()
		return nil, fmt.Errorf("generate plan: %w", err)
	}

	var warnings []string
	if violations := plan.CapViolations(s.opts.MaxChangeRatio); len(violations) > 0 {
		for _, platform := range violations {
			warnings = append(warnings, fmt.Sprintf("suggested change for %s exceeds the %.0f%% cap", platform, s.opts.MaxChangeRatio*100))
		}
		s.logger.Warn("plan exceeds max change ratio",
			zap.String("plan_id", plan.PlanID),
			zap.Strings("platforms", violations))
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now()
	}

	s.mu.Lock()
	delete(s.lastErrs, "generate")
	s.plan = plan
	s.planWarnings = warnings
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		s.logger.Warn("persist session", zap.Error(err))
	}
	return plan, nil
}

// ApplyPlan commits the current plan after interactive confirmation. Guards:
// auth token present and a plan with a non-empty plan id. A declined
// confirmation aborts with ErrNotConfirmed and zero network calls. On success
// the plan is cleared from view state and history is reloaded.
func (s *Session) ApplyPlan(ctx context.Context, note string) (*models.ApplyPlanResult, error) {
	if !s.api.HasToken() {
		return nil, fmt.Errorf("apply plan: auth token not set")
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if !s.plan.Applicable() {
		s.mu.Unlock()
		return nil, ErrNoPlan
	}
	planID := s.plan.PlanID
	lines := len(s.plan.Reallocations)
	s.busy = true
	s.mu.Unlock()
	defer s.clearBusy()

	ok, err := s.confirm.Confirm(fmt.Sprintf("Apply plan %s (%d reallocations)?", planID, lines))
	if err != nil {
		return nil, fmt.Errorf("apply confirmation: %w", err)
	}
	if !ok {
		s.metrics.IncrementPlanApplies("declined")
		return nil, ErrNotConfirmed
	}

	result, err := s.api.ApplyPlan(ctx, &models.ApplyPlanRequest{PlanID: planID, Note: note})
	if err != nil {
		s.metrics.IncrementPlanApplies("failure")
		s.mu.Lock()
		s.lastErrs["apply"] = err
		s.mu.Unlock()
		return nil, fmt.Errorf("apply plan: %w", err)
	}
	s.metrics.IncrementPlanApplies("success")

	s.mu.Lock()
	delete(s.lastErrs, "apply")
	s.plan = nil
	s.planWarnings = nil
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		s.logger.Warn("persist session", zap.Error(err))
	}
	s.loadHistory(ctx)
	return result, nil
}

func (s *Session) clearBusy() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *Session) persist(ctx context.Context) error {
	s.mu.Lock()
	st := &session.State{
		SelectedStrategy: s.selectedStrategy,
		Plan:             s.plan,
		UpdatedAt:        time.Now(),
	}
	s.mu.Unlock()
	return s.store.Save(ctx, s.opts.SessionKey, st)
}

// Health returns the loaded health analysis, nil before the first successful
// fetch.
func (s *Session) Health() *models.HealthAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health
}

// Recommendation returns the quick recommendation, nil when none is loaded.
func (s *Session) Recommendation() *models.QuickRecommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recommendation
}

// Strategies returns the fetched strategy list.
func (s *Session) Strategies() []models.Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategies
}

// SelectedStrategy returns the currently selected strategy id.
func (s *Session) SelectedStrategy() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedStrategy
}

// Plan returns the current plan and any cap-violation warnings, nil when no
// plan is outstanding.
func (s *Session) Plan() (*models.ReallocationPlan, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan, s.planWarnings
}

// History returns the loaded history entries.
func (s *Session) History() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history
}

// ActiveTab returns the currently selected tab.
func (s *Session) ActiveTab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTab
}

// LastError returns the recorded error for a concern ("health",
// "recommendation", "strategies", "history", "generate", "apply"), nil when
// its last operation succeeded.
func (s *Session) LastError(concern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErrs[concern]
}
