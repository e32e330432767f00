package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIBaseURL != "http://localhost:8080" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.RetryMaxAttempts != 1 {
		t.Errorf("RetryMaxAttempts = %d, want 1 (no automatic retries)", cfg.RetryMaxAttempts)
	}
	if cfg.MaxChangeRatio != 0.3 {
		t.Errorf("MaxChangeRatio = %v, want 0.3", cfg.MaxChangeRatio)
	}
	if cfg.DefaultTotalBudget != 1_000_000 {
		t.Errorf("DefaultTotalBudget = %v, want 1000000", cfg.DefaultTotalBudget)
	}
	if cfg.HistoryLimit != 20 {
		t.Errorf("HistoryLimit = %d", cfg.HistoryLimit)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty (memory store default)", cfg.RedisAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADBUDGET_API_URL", "https://api.example.com")
	t.Setenv("ADBUDGET_TOKEN", "tok-1")
	t.Setenv("RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("MAX_CHANGE_RATIO", "0.2")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("SESSION_TTL", "120")

	cfg := Load()
	if cfg.APIBaseURL != "https://api.example.com" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.AuthToken != "tok-1" {
		t.Errorf("AuthToken = %q", cfg.AuthToken)
	}
	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("RetryMaxAttempts = %d", cfg.RetryMaxAttempts)
	}
	if cfg.MaxChangeRatio != 0.2 {
		t.Errorf("MaxChangeRatio = %v", cfg.MaxChangeRatio)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.SessionTTL != 120*time.Second {
		t.Errorf("SessionTTL = %v, want 120s from bare-seconds form", cfg.SessionTTL)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RETRY_MAX_ATTEMPTS", "lots")
	t.Setenv("MAX_CHANGE_RATIO", "huge")
	t.Setenv("TRACING_ENABLED", "definitely")

	cfg := Load()
	if cfg.RetryMaxAttempts != 1 {
		t.Errorf("RetryMaxAttempts = %d, want default 1", cfg.RetryMaxAttempts)
	}
	if cfg.MaxChangeRatio != 0.3 {
		t.Errorf("MaxChangeRatio = %v, want default 0.3", cfg.MaxChangeRatio)
	}
	if cfg.TracingEnabled {
		t.Error("TracingEnabled should stay false on invalid input")
	}
}

func TestValidate(t *testing.T) {
	cfg := Load()

	cfg.MaxChangeRatio = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for ratio above 1")
	}
	cfg.MaxChangeRatio = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero ratio")
	}
	cfg.MaxChangeRatio = 0.3

	cfg.DefaultTotalBudget = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative default budget")
	}
	cfg.DefaultTotalBudget = 1_000_000

	cfg.RetryMaxAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero retry attempts")
	}
}
