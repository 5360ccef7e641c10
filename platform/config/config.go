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

// JWTConfig provides JWT validation settings for middleware.
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

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// RescoreConfig provides settings for batch re-scoring.
type RescoreConfig interface {
	GetRescorePageSize() int
	GetRescoreWorkers() int
	GetRescoreDebounce() time.Duration
}

// SeedConfig provides the path to the default scoring criteria seed file.
type SeedConfig interface {
	GetCriteriaSeedPath() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env              string
	HTTPAddr         string
	DatabaseURL      string
	JWTAccessSecret  string
	CORSAllowAll     bool
	CORSOrigins      []string
	CORSAllowCreds   bool
	RedisURL         string
	AsynqQueueName   string
	AsynqConcurrency int
	RescorePageSize  int
	RescoreWorkers   int
	RescoreDebounce  time.Duration
	CriteriaSeedPath string
}

// Load reads configuration from environment variables, with an optional .env
// file for local development.
func Load() (*Config, error) {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTAccessSecret:  os.Getenv("JWT_ACCESS_SECRET"),
		CORSAllowAll:     getEnvBool("CORS_ALLOW_ALL", false),
		CORSOrigins:      getEnvList("CORS_ORIGINS"),
		CORSAllowCreds:   getEnvBool("CORS_ALLOW_CREDENTIALS", true),
		RedisURL:         os.Getenv("REDIS_URL"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: getEnvInt("ASYNQ_CONCURRENCY", 10),
		RescorePageSize:  getEnvInt("RESCORE_PAGE_SIZE", 200),
		RescoreWorkers:   getEnvInt("RESCORE_WORKERS", 8),
		RescoreDebounce:  getEnvDuration("RESCORE_DEBOUNCE", 30*time.Second),
		CriteriaSeedPath: getEnv("CRITERIA_SEED_PATH", "seed/criteria.yaml"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}

	return cfg, nil
}

// GetDatabaseURL returns the database connection URL.
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// GetJWTAccessSecret returns the JWT access token secret.
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// GetHTTPAddr returns the HTTP listen address.
func (c *Config) GetHTTPAddr() string { return c.HTTPAddr }

// GetCORSAllowAll reports whether all origins are allowed.
func (c *Config) GetCORSAllowAll() bool { return c.CORSAllowAll }

// GetCORSOrigins returns the allowed CORS origins.
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// GetCORSAllowCreds reports whether credentials are allowed on CORS requests.
func (c *Config) GetCORSAllowCreds() bool { return c.CORSAllowCreds }

// GetRedisURL returns the Redis connection URL for the scheduler.
func (c *Config) GetRedisURL() string { return c.RedisURL }

// GetAsynqQueueName returns the asynq queue name.
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }

// GetAsynqConcurrency returns the asynq worker concurrency.
func (c *Config) GetAsynqConcurrency() int { return c.AsynqConcurrency }

// GetRescorePageSize returns the batch rescore page size.
func (c *Config) GetRescorePageSize() int { return c.RescorePageSize }

// GetRescoreWorkers returns the batch rescore worker count.
func (c *Config) GetRescoreWorkers() int { return c.RescoreWorkers }

// GetRescoreDebounce returns the minimum interval between event-driven
// rescores of the same lead.
func (c *Config) GetRescoreDebounce() time.Duration { return c.RescoreDebounce }

// GetCriteriaSeedPath returns the criteria seed file path.
func (c *Config) GetCriteriaSeedPath() string { return c.CriteriaSeedPath }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
