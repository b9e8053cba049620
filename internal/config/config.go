// Package config loads runtime configuration from the environment,
// optionally seeded from a local .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port     string
	LogLevel string

	// StoreBackend selects the persistence adapter: "csv" or "memory".
	StoreBackend string
	DataDir      string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	TracingEnabled bool
	OTLPEndpoint   string

	StoreMaxRetries     int
	StoreInitialBackoff time.Duration
	StoreMaxConcurrency int

	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment. Only the JWT secret is
// mandatory; everything else has a development-friendly default.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend: getEnv("STORE_BACKEND", "csv"),
		DataDir:      getEnv("DATA_DIR", "data"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 24*time.Hour),

		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),

		StoreMaxRetries:     getEnvInt("STORE_MAX_RETRIES", 3),
		StoreInitialBackoff: getEnvDuration("STORE_INITIAL_BACKOFF", 100*time.Millisecond),
		StoreMaxConcurrency: getEnvInt("STORE_MAX_CONCURRENCY", 16),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.StoreBackend != "csv" && cfg.StoreBackend != "memory" {
		return nil, fmt.Errorf("STORE_BACKEND must be csv or memory, got %q", cfg.StoreBackend)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
