package config

import (
	"log/slog"
	"os"
	"strconv"
)

// Config holds all configuration for the classhub API.
type Config struct {
	Addr          string
	JWKSEndpoint  string
	SessionIssuer string // expected iss claim; empty disables the check
	LogLevel      string

	// Store selects the catalog/directory backend: "postgres" or "memory"
	// (dev mode with seeded fixtures).
	Store       string
	PostgresDSN string

	// Limiter selects the rate limiter backend: "inmem" or "redis".
	Limiter   string
	RateLimit RateLimitConfig
	Redis     RedisConfig

	Audit AuditConfig
}

// RateLimitConfig holds token bucket parameters for per-IP rate limiting.
type RateLimitConfig struct {
	Rate  float64
	Burst int
}

// RedisConfig holds the connection and fixed-window parameters for the
// Redis-backed limiter.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	WindowLimit   int
	WindowSeconds int
}

// AuditConfig sizes the asynchronous audit sink.
type AuditConfig struct {
	QueueSize int
	Workers   int
}

// Load reads configuration from environment variables, falling back to defaults.
func Load() Config {
	return Config{
		Addr:          envOr("CLASSHUB_ADDR", ":8080"),
		JWKSEndpoint:  envOr("JWKS_ENDPOINT", "http://localhost:8081/.well-known/jwks.json"),
		SessionIssuer: envOr("SESSION_ISSUER", ""),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		Store:         envOr("STORE_BACKEND", "postgres"),
		PostgresDSN:   envOr("POSTGRES_DSN", "host=localhost user=classhub dbname=classhub sslmode=disable"),
		Limiter:       envOr("LIMITER_BACKEND", "inmem"),
		RateLimit: RateLimitConfig{
			Rate:  envFloat("RATE_LIMIT_RATE", 100),
			Burst: envInt("RATE_LIMIT_BURST", 20),
		},
		Redis: RedisConfig{
			Addr:          envOr("REDIS_ADDR", "localhost:6379"),
			Password:      envOr("REDIS_PASSWORD", ""),
			DB:            envInt("REDIS_DB", 0),
			WindowLimit:   envInt("REDIS_RATE_LIMIT", 100),
			WindowSeconds: envInt("REDIS_RATE_WINDOW_SECONDS", 1),
		},
		Audit: AuditConfig{
			QueueSize: envInt("AUDIT_QUEUE_SIZE", 4096),
			Workers:   envInt("AUDIT_WORKERS", 2),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return n
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("invalid float env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return f
	}
	return fallback
}
