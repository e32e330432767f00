package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	APIBaseURL string
	AuthToken  string

	HTTPTimeout time.Duration

	// Retry policy for budget API calls. MaxAttempts of 1 disables retries,
	// matching the manual re-click behavior of the original workflow.
	RetryMaxAttempts int
	RetryBaseBackoff time.Duration
	RetryMaxBackoff  time.Duration

	// MaxChangeRatio caps how much any single platform's budget may change in
	// one generated plan. The cap is submitted to the backend and validated
	// against returned plans; violations are reported as warnings.
	MaxChangeRatio float64

	// DefaultTotalBudget is the multiplier base used when the health analysis
	// carries no overall total budget.
	DefaultTotalBudget float64

	HistoryLimit int

	// Session store configuration. When RedisAddr is empty the in-memory
	// store is used and plan state does not survive the process.
	RedisAddr  string
	SessionTTL time.Duration

	ServiceName string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	// Stub API server configuration
	StubPort         string
	StubReadTimeout  time.Duration
	StubWriteTimeout time.Duration
}

// Load parses environment variables and returns a Config populated with
// defaults when variables are absent.
func Load() Config {
	cfg := Config{}

	cfg.APIBaseURL = getenv("ADBUDGET_API_URL", "http://localhost:8080")
	cfg.AuthToken = getenv("ADBUDGET_TOKEN", "")

	cfg.HTTPTimeout = envDuration("HTTP_TIMEOUT", 10*time.Second)

	cfg.RetryMaxAttempts = envInt("RETRY_MAX_ATTEMPTS", 1)
	cfg.RetryBaseBackoff = envDuration("RETRY_BASE_BACKOFF", 200*time.Millisecond)
	cfg.RetryMaxBackoff = envDuration("RETRY_MAX_BACKOFF", 5*time.Second)

	cfg.MaxChangeRatio = envFloat("MAX_CHANGE_RATIO", 0.3)
	cfg.DefaultTotalBudget = envFloat("DEFAULT_TOTAL_BUDGET", 1_000_000)

	cfg.HistoryLimit = envInt("HISTORY_LIMIT", 20)

	cfg.RedisAddr = getenv("REDIS_ADDR", "")
	cfg.SessionTTL = envDuration("SESSION_TTL", 30*time.Minute)

	cfg.ServiceName = getenv("SERVICE_NAME", "adbudget")

	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.OTLPEndpoint = getenv("OTLP_ENDPOINT", "localhost:4317")
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0)

	cfg.StubPort = getenv("STUB_PORT", "8080")
	cfg.StubReadTimeout = envDuration("STUB_READ_TIMEOUT", 5*time.Second)
	cfg.StubWriteTimeout = envDuration("STUB_WRITE_TIMEOUT", 10*time.Second)

	return cfg
}

// Validate checks constraints that cannot be expressed as parse defaults.
func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API base URL required")
	}
	if c.MaxChangeRatio <= 0 || c.MaxChangeRatio > 1 {
		return fmt.Errorf("max change ratio must be in (0, 1], got %v", c.MaxChangeRatio)
	}
	if c.DefaultTotalBudget <= 0 {
		return fmt.Errorf("default total budget must be positive, got %v", c.DefaultTotalBudget)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d", c.RetryMaxAttempts)
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("history limit must be at least 1, got %d", c.HistoryLimit)
	}
	return nil
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. Accepted values are those
// supported by strconv.ParseBool. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envInt parses an integer environment variable. When unset or invalid, def is returned.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
