// Command mcp-server exposes the budget reallocation workflow as MCP tools so
// an assistant can inspect platform health, generate a plan, and apply it.
// Applying through MCP requires an explicit confirm flag, the programmatic
// analogue of the interactive confirmation gate in budgetctl.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/bloglens/adbudget/internal/client"
	"github.com/bloglens/adbudget/internal/config"
	"github.com/bloglens/adbudget/internal/models"
	"github.com/bloglens/adbudget/internal/observability"
	"github.com/bloglens/adbudget/internal/planner"
)

type GetHealthInput struct{}

type GetHealthOutput struct {
	Analysis *models.HealthAnalysis `json:"analysis"`
}

type GetRecommendationInput struct{}

type GetRecommendationOutput struct {
	Recommendation *models.QuickRecommendation `json:"recommendation,omitempty"`
	Message        string                      `json:"message,omitempty"`
}

type ListStrategiesInput struct{}

type ListStrategiesOutput struct {
	Strategies []models.Strategy `json:"strategies"`
}

type GeneratePlanInput struct {
	StrategyID string `json:"strategy_id,omitempty"`
}

type GeneratePlanOutput struct {
	Plan     *models.ReallocationPlan `json:"plan"`
	Warnings []string                 `json:"warnings,omitempty"`
}

type ApplyPlanInput struct {
	PlanID  string `json:"plan_id"`
	Note    string `json:"note,omitempty"`
	Confirm bool   `json:"confirm"`
}

type ApplyPlanOutput struct {
	PlanID string `json:"plan_id"`
	Status string `json:"status"`
}

type GetHistoryInput struct {
	Limit int `json:"limit,omitempty"`
}

type GetHistoryOutput struct {
	Entries []models.HistoryEntry `json:"entries"`
}

// BudgetServer holds the API client the tools call through.
type BudgetServer struct {
	api    *client.Client
	cfg    config.Config
	logger *zap.Logger
}

func (s *BudgetServer) GetHealth(ctx context.Context, req *mcp.CallToolRequest, input GetHealthInput) (*mcp.CallToolResult, GetHealthOutput, error) {
	h, err := s.api.GetHealth(ctx)
	if err != nil {
		return nil, GetHealthOutput{}, err
	}
	return nil, GetHealthOutput{Analysis: h}, nil
}

func (s *BudgetServer) GetRecommendation(ctx context.Context, req *mcp.CallToolRequest, input GetRecommendationInput) (*mcp.CallToolResult, GetRecommendationOutput, error) {
	r, err := s.api.GetQuickRecommendation(ctx)
	if err != nil {
		return nil, GetRecommendationOutput{}, err
	}
	if r == nil {
		return nil, GetRecommendationOutput{Message: "no quick recommendation available"}, nil
	}
	return nil, GetRecommendationOutput{Recommendation: r}, nil
}

func (s *BudgetServer) ListStrategies(ctx context.Context, req *mcp.CallToolRequest, input ListStrategiesInput) (*mcp.CallToolResult, ListStrategiesOutput, error) {
	strategies, err := s.api.GetStrategies(ctx)
	if err != nil {
		return nil, ListStrategiesOutput{}, err
	}
	return nil, ListStrategiesOutput{Strategies: strategies}, nil
}

// GeneratePlan fetches fresh health data, derives the performance snapshot,
// and requests a plan. The returned plan id must be passed to apply.
func (s *BudgetServer) GeneratePlan(ctx context.Context, req *mcp.CallToolRequest, input GeneratePlanInput) (*mcp.CallToolResult, GeneratePlanOutput, error) {
	h, err := s.api.GetHealth(ctx)
	if err != nil {
		return nil, GeneratePlanOutput{}, err
	}
	if !h.HasPlatforms() {
		return nil, GeneratePlanOutput{}, planner.ErrNoHealthData
	}

	strategyID := input.StrategyID
	if strategyID == "" {
		strategyID = models.DefaultStrategyID
	}

	genReq := planner.BuildGenerateRequest(h, strategyID, s.cfg.MaxChangeRatio, s.cfg.DefaultTotalBudget)
	plan, err := s.api.GeneratePlan(ctx, genReq)
	if err != nil {
		return nil, GeneratePlanOutput{}, err
	}

	var warnings []string
	for _, platform := range plan.CapViolations(s.cfg.MaxChangeRatio) {
		warnings = append(warnings, fmt.Sprintf("suggested change for %s exceeds the %.0f%% cap", platform, s.cfg.MaxChangeRatio*100))
	}
	return nil, GeneratePlanOutput{Plan: plan, Warnings: warnings}, nil
}

func (s *BudgetServer) ApplyPlan(ctx context.Context, req *mcp.CallToolRequest, input ApplyPlanInput) (*mcp.CallToolResult, ApplyPlanOutput, error) {
	if input.PlanID == "" {
		return nil, ApplyPlanOutput{}, planner.ErrNoPlan
	}
	if !input.Confirm {
		return nil, ApplyPlanOutput{}, fmt.Errorf("%w: set confirm to true to apply plan %s", planner.ErrNotConfirmed, input.PlanID)
	}

	result, err := s.api.ApplyPlan(ctx, &models.ApplyPlanRequest{PlanID: input.PlanID, Note: input.Note})
	if err != nil {
		return nil, ApplyPlanOutput{}, err
	}
	return nil, ApplyPlanOutput{PlanID: result.PlanID, Status: result.Status}, nil
}

func (s *BudgetServer) GetHistory(ctx context.Context, req *mcp.CallToolRequest, input GetHistoryInput) (*mcp.CallToolResult, GetHistoryOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	entries, err := s.api.GetHistory(ctx, limit)
	if err != nil {
		return nil, GetHistoryOutput{}, err
	}
	return nil, GetHistoryOutput{Entries: entries}, nil
}

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService("adbudget-mcp")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	metrics := observability.NewPrometheusRegistry()
	api := client.New(cfg.APIBaseURL, cfg.AuthToken, cfg.HTTPTimeout, client.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseBackoff: cfg.RetryBaseBackoff,
		MaxBackoff:  cfg.RetryMaxBackoff,
	}, logger, metrics)

	budgetServer := &BudgetServer{api: api, cfg: cfg, logger: logger}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "adbudget",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_budget_health",
		Description: "Fetch the per-platform advertising health analysis with aggregate totals",
	}, budgetServer.GetHealth)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_quick_recommendation",
		Description: "Fetch the single quick-win budget move suggestion",
	}, budgetServer.GetRecommendation)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_strategies",
		Description: "List the selectable budget reallocation strategies",
	}, budgetServer.ListStrategies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_reallocation_plan",
		Description: "Generate a budget reallocation plan from current platform health data",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"strategy_id": map[string]interface{}{
					"type":        "string",
					"description": "Reallocation strategy id (optional, defaults to balanced)",
				},
			},
		},
	}, budgetServer.GeneratePlan)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "apply_reallocation_plan",
		Description: "Apply a previously generated reallocation plan. Requires confirm=true.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"plan_id": map[string]interface{}{
					"type":        "string",
					"description": "Plan id returned by generate_reallocation_plan",
				},
				"note": map[string]interface{}{
					"type":        "string",
					"description": "Free-text note recorded with the applied plan (optional)",
				},
				"confirm": map[string]interface{}{
					"type":        "boolean",
					"description": "Must be true to apply; the explicit confirmation gate",
				},
			},
			"required": []string{"plan_id", "confirm"},
		},
	}, budgetServer.ApplyPlan)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_reallocation_history",
		Description: "Fetch past reallocation actions, newest first",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum entries to return (optional)",
				},
			},
		},
	}, budgetServer.GetHistory)

	stdioTransport := &mcp.StdioTransport{}

	var logBuffer bytes.Buffer
	loggingTransport := &mcp.LoggingTransport{
		Transport: stdioTransport,
		Writer:    &logBuffer,
	}

	logger.Info("MCP Server running via stdio")

	if err := server.Run(context.Background(), loggingTransport); err != nil {
		logger.Fatal("Server error", zap.Error(err), zap.String("mcp_logs", logBuffer.String()))
	}
}
