// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

const (
	defaultBaseURL      = "https://api.fireworks.ai/inference/v1"
	defaultModel        = "accounts/fireworks/models/qwen2p5-vl-32b-instruct"
	defaultTimeout      = 30 * time.Second
	defaultMaxRetries   = 3
	defaultBackoff      = 800 * time.Millisecond
	defaultQualityFloor = 80.0
	defaultMaxSide      = 1024
)

// Settings holds everything the pipeline and its entry points need.
type Settings struct {
	APIKey           string
	BaseURL          string
	Model            string
	FallbackModel    string
	RequestTimeout   time.Duration
	MaxRetries       int
	BackoffBase      time.Duration
	QualityThreshold float64
	MaxSide          int

	// RedisAddr switches the fingerprint store to Redis when non-empty.
	RedisAddr string

	JWTSecret   string
	JWTAudience string
}

// Load reads settings from the environment. The API key is the only
// required value; everything else falls back to a sane default.
func Load() (*Settings, error) {
	apiKey := os.Getenv("FIREWORKS_API_KEY")
	if apiKey == "" {
		return nil, errors.New("FIREWORKS_API_KEY environment variable not set")
	}

	model := getEnv("KYC_MODEL", defaultModel)
	return &Settings{
		APIKey:           apiKey,
		BaseURL:          getEnv("FIREWORKS_BASE_URL", defaultBaseURL),
		Model:            model,
		FallbackModel:    getEnv("KYC_FALLBACK_MODEL", model),
		RequestTimeout:   getEnvDuration("KYC_TIMEOUT_SECONDS", defaultTimeout),
		MaxRetries:       getEnvInt("KYC_MAX_RETRIES", defaultMaxRetries),
		BackoffBase:      getEnvMillis("KYC_BACKOFF_MS", defaultBackoff),
		QualityThreshold: getEnvFloat("KYC_QUALITY_THRESHOLD", defaultQualityFloor),
		MaxSide:          getEnvInt("KYC_MAX_SIDE", defaultMaxSide),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret"),
		JWTAudience:      os.Getenv("JWT_AUDIENCE"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvInt keeps the fallback for non-positive overrides: zero retries,
// a zero pixel cap, or a zero backoff would wedge the pipeline.
func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

// getEnvFloat accepts zero: KYC_QUALITY_THRESHOLD=0 disables the blur
// gate. Negative and unparsable values keep the fallback.
func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed > 0 {
			return time.Duration(parsed * float64(time.Second))
		}
	}
	return fallback
}

func getEnvMillis(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * time.Millisecond
		}
	}
	return fallback
}
