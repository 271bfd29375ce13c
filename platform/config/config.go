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
	GetRateLimitPerSecond() float64
	GetRateLimitBurst() int
}

// RedisConfig provides settings for the Redis connection used by caches.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq based scheduler.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSnapshotExportCron() string
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketSnapshots() string
	GetSnapshotObjectKey() string
	IsMinIOEnabled() bool
}

// SearchConfig provides tuning for the global search sessions.
type SearchConfig interface {
	GetSearchMaxResults() int
	GetSearchDebounce() time.Duration
	GetSearchFlagDelay() time.Duration
	GetSearchSessionIdleTTL() time.Duration
	GetPoolRefreshInterval() time.Duration
}

// FacetsConfig provides settings for the facet service.
type FacetsConfig interface {
	GetFacetsCacheTTL() time.Duration
}

// PhoneConfig provides phone number parsing settings.
type PhoneConfig interface {
	GetPhoneDefaultRegion() string
}

// =============================================================================
// Config Implementation
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Env string

	HTTPAddr           string
	DatabaseURL        string
	JWTAccessSecret    string
	CORSAllowAll       bool
	CORSOrigins        []string
	CORSAllowCreds     bool
	RateLimitPerSecond float64
	RateLimitBurst     int

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	SnapshotCron     string

	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOUseSSL          bool
	MinioBucketSnapshots string
	SnapshotObjectKey    string

	SearchMaxResults     int
	SearchDebounce       time.Duration
	SearchFlagDelay      time.Duration
	SearchSessionIdleTTL time.Duration
	PoolRefreshInterval  time.Duration

	FacetsCacheTTL time.Duration

	PhoneDefaultRegion string
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string            { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool          { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string       { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool        { return c.CORSAllowCreds }
func (c *Config) GetRateLimitPerSecond() float64 { return c.RateLimitPerSecond }
func (c *Config) GetRateLimitBurst() int         { return c.RateLimitBurst }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string     { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int      { return c.AsynqConcurrency }
func (c *Config) GetSnapshotExportCron() string { return c.SnapshotCron }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string        { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string       { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string       { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool            { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketSnapshots() string { return c.MinioBucketSnapshots }
func (c *Config) GetSnapshotObjectKey() string    { return c.SnapshotObjectKey }
func (c *Config) IsMinIOEnabled() bool            { return c.MinIOEndpoint != "" }

// SearchConfig implementation
func (c *Config) GetSearchMaxResults() int               { return c.SearchMaxResults }
func (c *Config) GetSearchDebounce() time.Duration       { return c.SearchDebounce }
func (c *Config) GetSearchFlagDelay() time.Duration      { return c.SearchFlagDelay }
func (c *Config) GetSearchSessionIdleTTL() time.Duration { return c.SearchSessionIdleTTL }
func (c *Config) GetPoolRefreshInterval() time.Duration  { return c.PoolRefreshInterval }

// FacetsConfig implementation
func (c *Config) GetFacetsCacheTTL() time.Duration { return c.FacetsCacheTTL }

// PhoneConfig implementation
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RateLimitPerSecond:   mustFloat(getEnv("RATE_LIMIT_PER_SECOND", "20")),
		RateLimitBurst:       mustInt(getEnv("RATE_LIMIT_BURST", "40")),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "4")),
		SnapshotCron:         getEnv("SNAPSHOT_EXPORT_CRON", "@every 5m"),
		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketSnapshots: getEnv("MINIO_BUCKET_SNAPSHOTS", "crm-snapshots"),
		SnapshotObjectKey:    getEnv("SNAPSHOT_OBJECT_KEY", "entities/latest.json"),
		SearchMaxResults:     mustInt(getEnv("SEARCH_MAX_RESULTS", "20")),
		SearchDebounce:       mustDuration(getEnv("SEARCH_DEBOUNCE", "220ms")),
		SearchFlagDelay:      mustDuration(getEnv("SEARCH_FLAG_DELAY", "100ms")),
		SearchSessionIdleTTL: mustDuration(getEnv("SEARCH_SESSION_IDLE_TTL", "30m")),
		PoolRefreshInterval:  mustDuration(getEnv("POOL_REFRESH_INTERVAL", "1m")),
		FacetsCacheTTL:       mustDuration(getEnv("FACETS_CACHE_TTL", "2m")),
		PhoneDefaultRegion:   strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "NL")),
	}

	if cfg.DatabaseURL == "" && !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("DATABASE_URL or MINIO_ENDPOINT is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.SearchMaxResults < 1 {
		return nil, fmt.Errorf("SEARCH_MAX_RESULTS must be positive")
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
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
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
