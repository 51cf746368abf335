package config

import (
	"testing"
	"time"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("FIREWORKS_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when the API key is missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FIREWORKS_API_KEY", "fw-test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.APIKey != "fw-test-key" {
		t.Fatalf("unexpected api key %q", cfg.APIKey)
	}
	if cfg.BaseURL != defaultBaseURL {
		t.Fatalf("unexpected base url %q", cfg.BaseURL)
	}
	if cfg.Model != defaultModel || cfg.FallbackModel != defaultModel {
		t.Fatalf("expected fallback to default to the primary model, got %q / %q", cfg.Model, cfg.FallbackModel)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.RequestTimeout)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("unexpected retries %d", cfg.MaxRetries)
	}
	if cfg.BackoffBase != 800*time.Millisecond {
		t.Fatalf("unexpected backoff %v", cfg.BackoffBase)
	}
	if cfg.QualityThreshold != 80.0 {
		t.Fatalf("unexpected quality threshold %v", cfg.QualityThreshold)
	}
	if cfg.MaxSide != 1024 {
		t.Fatalf("unexpected max side %d", cfg.MaxSide)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("expected empty redis addr, got %q", cfg.RedisAddr)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FIREWORKS_API_KEY", "fw-test-key")
	t.Setenv("KYC_MODEL", "accounts/fireworks/models/primary")
	t.Setenv("KYC_FALLBACK_MODEL", "accounts/fireworks/models/backup")
	t.Setenv("KYC_TIMEOUT_SECONDS", "7.5")
	t.Setenv("KYC_MAX_RETRIES", "5")
	t.Setenv("KYC_BACKOFF_MS", "250")
	t.Setenv("KYC_QUALITY_THRESHOLD", "65")
	t.Setenv("KYC_MAX_SIDE", "2048")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.FallbackModel != "accounts/fireworks/models/backup" {
		t.Fatalf("unexpected fallback model %q", cfg.FallbackModel)
	}
	if cfg.RequestTimeout != 7500*time.Millisecond {
		t.Fatalf("unexpected timeout %v", cfg.RequestTimeout)
	}
	if cfg.MaxRetries != 5 {
		t.Fatalf("unexpected retries %d", cfg.MaxRetries)
	}
	if cfg.BackoffBase != 250*time.Millisecond {
		t.Fatalf("unexpected backoff %v", cfg.BackoffBase)
	}
	if cfg.QualityThreshold != 65.0 {
		t.Fatalf("unexpected quality threshold %v", cfg.QualityThreshold)
	}
	if cfg.MaxSide != 2048 {
		t.Fatalf("unexpected max side %d", cfg.MaxSide)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", cfg.RedisAddr)
	}
}

func TestLoadZeroQualityThresholdDisablesBlurGate(t *testing.T) {
	t.Setenv("FIREWORKS_API_KEY", "fw-test-key")
	t.Setenv("KYC_QUALITY_THRESHOLD", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.QualityThreshold != 0 {
		t.Fatalf("expected threshold 0, got %v", cfg.QualityThreshold)
	}
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("FIREWORKS_API_KEY", "fw-test-key")
	t.Setenv("KYC_MAX_RETRIES", "not a number")
	t.Setenv("KYC_QUALITY_THRESHOLD", "-5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("expected default retries, got %d", cfg.MaxRetries)
	}
	if cfg.QualityThreshold != 80.0 {
		t.Fatalf("expected default quality threshold, got %v", cfg.QualityThreshold)
	}
}
