// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for the internal admin middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides Redis connection settings shared by the rate limiter
// and the background task queue.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// RateLimitConfig provides per-API-key rate limiting settings.
type RateLimitConfig interface {
	GetRateLimitRequests() int
	GetRateLimitWindow() time.Duration
}

// ScoringConfig provides tunables for the batch rescore orchestrator.
type ScoringConfig interface {
	GetRescoreWorkers() int
	GetStoreTimeout() time.Duration
}

// HubSpotConfig provides settings for the best-effort outbound CRM push.
type HubSpotConfig interface {
	GetHubSpotBaseURL() string
	GetHubSpotTimeout() time.Duration
}

// SchedulerConfig provides settings for the asynq background worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	JWTAccessSecret   string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
	RedisURL          string
	RedisTLSInsecure  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RescoreWorkers    int
	StoreTimeout      time.Duration
	HubSpotBaseURL    string
	HubSpotTimeout    time.Duration
	AsynqQueueName    string
	AsynqConcurrency  int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// RateLimitConfig implementation
func (c *Config) GetRateLimitRequests() int         { return c.RateLimitRequests }
func (c *Config) GetRateLimitWindow() time.Duration { return c.RateLimitWindow }

// ScoringConfig implementation
func (c *Config) GetRescoreWorkers() int         { return c.RescoreWorkers }
func (c *Config) GetStoreTimeout() time.Duration { return c.StoreTimeout }

// HubSpotConfig implementation
func (c *Config) GetHubSpotBaseURL() string        { return c.HubSpotBaseURL }
func (c *Config) GetHubSpotTimeout() time.Duration { return c.HubSpotTimeout }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTAccessSecret:   getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisTLSInsecure:  strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		RateLimitRequests: mustInt(getEnv("API_RATE_LIMIT_REQUESTS", "60")),
		RateLimitWindow:   mustDuration(getEnv("API_RATE_LIMIT_WINDOW", "1m")),
		RescoreWorkers:    mustInt(getEnv("RESCORE_WORKERS", "10")),
		StoreTimeout:      mustDuration(getEnv("STORE_TIMEOUT", "10s")),
		HubSpotBaseURL:    getEnv("HUBSPOT_BASE_URL", "https://api.hubapi.com"),
		HubSpotTimeout:    mustDuration(getEnv("HUBSPOT_TIMEOUT", "8s")),
		AsynqQueueName:    getEnv("ASYNQ_QUEUE", "scoring"),
		AsynqConcurrency:  mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.RateLimitRequests < 1 {
		return nil, fmt.Errorf("API_RATE_LIMIT_REQUESTS must be at least 1")
	}
	if cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("API_RATE_LIMIT_WINDOW must be a positive duration")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
