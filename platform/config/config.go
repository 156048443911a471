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

// RedisConfig provides redis connection settings.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetHTTPRateLimit() float64
	GetHTTPRateBurst() int
}

// LookupServiceConfig provides settings for the remote address lookup API.
type LookupServiceConfig interface {
	GetLookupBaseURL() string
	GetLookupAPIKey() string
	GetLookupTimeout() time.Duration
	GetLookupRequestsPerSecond() float64
	GetLookupBurst() int
}

// RecordStoreConfig selects and configures the host record store backend.
type RecordStoreConfig interface {
	DatabaseConfig
	RedisConfig
	GetRecordStoreBackend() string
	GetRecordKeyPrefix() string
}

// NotifyConfig provides settings for the outbound notification relay.
type NotifyConfig interface {
	RedisConfig
	GetNotifyQueueName() string
	GetNotifyConcurrency() int
	IsNotifyEnabled() bool
}

// SessionConfig provides settings for address lookup sessions.
type SessionConfig interface {
	GetWidgetsFile() string
	GetSessionTTL() time.Duration
	GetAllowStaleResponses() bool
}

// Record store backends.
const (
	RecordStoreMemory   = "memory"
	RecordStorePostgres = "postgres"
	RecordStoreRedis    = "redis"
)

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration.
// It implements all module-specific config interfaces.
type Config struct {
	Env                     string
	HTTPAddr                string
	CORSAllowAll            bool
	CORSOrigins             []string
	CORSAllowCreds          bool
	HTTPRateLimit           float64
	HTTPRateBurst           int
	DatabaseURL             string
	RedisURL                string
	RedisTLSInsecure        bool
	RecordStoreBackend      string
	RecordKeyPrefix         string
	LookupBaseURL           string
	LookupAPIKey            string
	LookupTimeout           time.Duration
	LookupRequestsPerSecond float64
	LookupBurst             int
	NotifyQueueName         string
	NotifyConcurrency       int
	WidgetsFile             string
	SessionTTL              time.Duration
	AllowStaleResponses     bool
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string       { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool     { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string  { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool   { return c.CORSAllowCreds }
func (c *Config) GetHTTPRateLimit() float64 { return c.HTTPRateLimit }
func (c *Config) GetHTTPRateBurst() int     { return c.HTTPRateBurst }

// LookupServiceConfig implementation
func (c *Config) GetLookupBaseURL() string            { return c.LookupBaseURL }
func (c *Config) GetLookupAPIKey() string             { return c.LookupAPIKey }
func (c *Config) GetLookupTimeout() time.Duration     { return c.LookupTimeout }
func (c *Config) GetLookupRequestsPerSecond() float64 { return c.LookupRequestsPerSecond }
func (c *Config) GetLookupBurst() int                 { return c.LookupBurst }

// RecordStoreConfig implementation
func (c *Config) GetRecordStoreBackend() string { return c.RecordStoreBackend }
func (c *Config) GetRecordKeyPrefix() string    { return c.RecordKeyPrefix }

// NotifyConfig implementation
func (c *Config) GetNotifyQueueName() string { return c.NotifyQueueName }
func (c *Config) GetNotifyConcurrency() int  { return c.NotifyConcurrency }
func (c *Config) IsNotifyEnabled() bool      { return c.RedisURL != "" }

// SessionConfig implementation
func (c *Config) GetWidgetsFile() string       { return c.WidgetsFile }
func (c *Config) GetSessionTTL() time.Duration { return c.SessionTTL }
func (c *Config) GetAllowStaleResponses() bool { return c.AllowStaleResponses }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:            corsAllowAll,
		CORSOrigins:             corsOrigins,
		CORSAllowCreds:          strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		HTTPRateLimit:           mustFloat(getEnv("HTTP_RATE_LIMIT", "5")),
		HTTPRateBurst:           mustInt(getEnv("HTTP_RATE_BURST", "10")),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		RedisURL:                getEnv("REDIS_URL", ""),
		RedisTLSInsecure:        strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		RecordStoreBackend:      strings.ToLower(getEnv("RECORD_STORE", RecordStoreMemory)),
		RecordKeyPrefix:         getEnv("RECORD_KEY_PREFIX", "record:"),
		LookupBaseURL:           getEnv("ADDRESS_LOOKUP_BASE_URL", "https://api.getaddress.io"),
		LookupAPIKey:            getEnv("ADDRESS_LOOKUP_API_KEY", ""),
		LookupTimeout:           mustDuration(getEnv("ADDRESS_LOOKUP_TIMEOUT", "10s")),
		LookupRequestsPerSecond: mustFloat(getEnv("ADDRESS_LOOKUP_RPS", "2")),
		LookupBurst:             mustInt(getEnv("ADDRESS_LOOKUP_BURST", "4")),
		NotifyQueueName:         getEnv("NOTIFY_QUEUE", "address"),
		NotifyConcurrency:       mustInt(getEnv("NOTIFY_CONCURRENCY", "5")),
		WidgetsFile:             getEnv("WIDGETS_FILE", "widgets.yaml"),
		SessionTTL:              mustDuration(getEnv("SESSION_TTL", "30m")),
		AllowStaleResponses:     strings.EqualFold(getEnv("ALLOW_STALE_RESPONSES", "false"), "true"),
	}

	switch cfg.RecordStoreBackend {
	case RecordStoreMemory:
	case RecordStorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when RECORD_STORE is postgres")
		}
	case RecordStoreRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when RECORD_STORE is redis")
		}
	default:
		return nil, fmt.Errorf("unsupported RECORD_STORE %q", cfg.RecordStoreBackend)
	}
	if cfg.LookupBaseURL == "" {
		return nil, fmt.Errorf("ADDRESS_LOOKUP_BASE_URL is required")
	}
	if cfg.LookupTimeout <= 0 {
		return nil, fmt.Errorf("ADDRESS_LOOKUP_TIMEOUT must be a positive duration")
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

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
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
