// Package client implements the typed HTTP client for the budget reallocation
// API. Every call attaches the bearer token, unwraps the `data` envelope the
// backend puts around payloads, and returns typed errors instead of logging
// and swallowing failures.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/bloglens/adbudget/internal/models"
	"github.com/bloglens/adbudget/internal/observability"
)

// Endpoint paths of the budget reallocation API.
const (
	pathHealth         = "/api/ads/budget/health"
	pathRecommendation = "/api/ads/budget/recommendation"
	pathStrategies     = "/api/ads/budget/strategies"
	pathHistory        = "/api/ads/budget/history"
	pathGeneratePlan   = "/api/ads/budget/plan/generate"
	pathApplyPlan      = "/api/ads/budget/plan/apply"
)

// envelope is the `data` wrapper the backend puts around every response.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// Client provides access to the budget reallocation API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retry      RetryPolicy
	logger     *zap.Logger
	metrics    observability.MetricsRegistry
}

// New creates a budget API client. The HTTP transport is instrumented for
// distributed tracing.
func New(baseURL, token string, timeout time.Duration, retry RetryPolicy, logger *zap.Logger, metrics observability.MetricsRegistry) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		retry:   retry,
		logger:  logger,
		metrics: metrics,
	}
}

// HasToken reports whether the client carries an auth token. Workflow guards
// check this before triggering any call.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// SetBaseURL sets the API base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// GetHealth fetches the aggregate and per-platform health analysis.
func (c *Client) GetHealth(ctx context.Context) (*models.HealthAnalysis, error) {
	var out models.HealthAnalysis
	if err := c.get(ctx, pathHealth, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetQuickRecommendation fetches the single quick-win suggestion. A backend
// with nothing to suggest returns an empty data object; callers treat a
// recommendation with no platforms as absent.
func (c *Client) GetQuickRecommendation(ctx context.Context) (*models.QuickRecommendation, error) {
	var out models.QuickRecommendation
	if err := c.get(ctx, pathRecommendation, &out); err != nil {
		return nil, err
	}
	if out.FromPlatform == "" && out.ToPlatform == "" {
		return nil, nil
	}
	return &out, nil
}

// GetStrategies fetches the selectable reallocation strategies.
func (c *Client) GetStrategies(ctx context.Context) ([]models.Strategy, error) {
	var out []models.Strategy
	if err := c.get(ctx, pathStrategies, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetHistory fetches up to limit past reallocation actions, newest first.
func (c *Client) GetHistory(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	var out []models.HistoryEntry
	path := pathHistory + "?limit=" + strconv.Itoa(limit)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GeneratePlan submits a performance snapshot plus strategy and receives a
// proposed reallocation plan.
func (c *Client) GeneratePlan(ctx context.Context, req *models.GeneratePlanRequest) (*models.ReallocationPlan, error) {
	var out models.ReallocationPlan
	if err := c.post(ctx, pathGeneratePlan, req, &out); err != nil {
		return nil, err
	}
	c.metrics.IncrementPlansGenerated(req.StrategyID)
	c.metrics.RecordPlanSize(len(out.Reallocations))
	return &out, nil
}

// ApplyPlan commits a generated plan by id.
func (c *Client) ApplyPlan(ctx context.Context, req *models.ApplyPlanRequest) (*models.ApplyPlanResult, error) {
	var out models.ApplyPlanResult
	if err := c.post(ctx, pathApplyPlan, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.call(ctx, http.MethodPost, path, body, out)
}

// call executes one API round trip, retrying per the configured policy.
func (c *Client) call(ctx context.Context, method, path string, body []byte, out any) error {
	if !c.HasToken() {
		return ErrNoToken
	}

	var err error
	for attempt := 1; attempt <= c.retry.attempts(); attempt++ {
		if attempt > 1 {
			c.metrics.IncrementRetries(path)
			if serr := sleep(ctx, c.retry.backoff(attempt-1)); serr != nil {
				return serr
			}
		}
		if err = c.do(ctx, method, path, body, out); err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		c.logger.Warn("budget API call failed",
			zap.String("endpoint", path),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return err
}

// do executes a single attempt.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	start := time.Now()
	outcome := "success"
	defer func() {
		c.metrics.RecordAPICallLatency(path, time.Since(start))
		c.metrics.IncrementAPICalls(path, outcome)
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		outcome = "failure"
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "failure"
		return fmt.Errorf("http request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil && c.logger != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = "failure"
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Endpoint: path, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		outcome = "failure"
		return fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		outcome = "failure"
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
