// Package config provides hierarchical configuration loading for CostLens.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the CostLens service.
type Config struct {
	Server  Server  `yaml:"server"`
	Azure   Azure   `yaml:"azure"`
	Query   Query   `yaml:"query"`
	Cache   Cache   `yaml:"cache"`
	Logging Logging `yaml:"logging"`
	Breaker Breaker `yaml:"breaker"`
	Rate    Rate    `yaml:"rate"`
	NATS    NATS    `yaml:"nats"`
	MCP     MCP     `yaml:"mcp"`
	OTEL    OTEL    `yaml:"otel"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
	// APIKeyHash is a bcrypt hash of the API key. Empty disables auth.
	APIKeyHash string `yaml:"api_key_hash"`
}

// Azure holds the subscription and credential settings for the billing API.
// Either the service principal triple or AccessToken must be set.
type Azure struct {
	SubscriptionID   string `yaml:"subscription_id"`
	SubscriptionName string `yaml:"subscription_name"`
	TenantID         string `yaml:"tenant_id"`
	ClientID         string `yaml:"client_id"`
	ClientSecret     string `yaml:"client_secret"`
	AccessToken      string `yaml:"access_token"`
	BaseURL          string `yaml:"base_url"`
}

// HasServicePrincipal reports whether the client-credentials triple is complete.
func (a Azure) HasServicePrincipal() bool {
	return a.TenantID != "" && a.ClientID != "" && a.ClientSecret != ""
}

// Query holds upstream query behaviour.
type Query struct {
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`         // total attempts per query (default: 3)
	DefaultRetryAfter time.Duration `yaml:"default_retry_after"` // used when Retry-After is absent (default: 60s)
	RequestsPerSecond float64       `yaml:"requests_per_second"` // outbound pacing
	Burst             int           `yaml:"burst"`
}

// Cache holds report cache configuration.
type Cache struct {
	Backend     string        `yaml:"backend"` // "memory" | "ristretto"
	TTL         time.Duration `yaml:"ttl"`
	L1MaxSizeMB int64         `yaml:"l1_max_size_mb"` // ristretto only
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds the per-client HTTP rate limiter configuration.
type Rate struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	MaxIdleTime       time.Duration `yaml:"max_idle_time"`
}

// NATS holds NATS JetStream configuration. An empty URL disables refresh events.
type NATS struct {
	URL string `yaml:"url"`
}

// MCP holds the MCP server configuration.
type MCP struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// OTEL holds OpenTelemetry exporter configuration.
type OTEL struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	Insecure    bool    `yaml:"insecure"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		Azure: Azure{
			BaseURL: "https://management.azure.com",
		},
		Query: Query{
			Timeout:           30 * time.Second,
			MaxRetries:        3,
			DefaultRetryAfter: 60 * time.Second,
			RequestsPerSecond: 1,
			Burst:             2,
		},
		Cache: Cache{
			Backend:     "memory",
			TTL:         300 * time.Second,
			L1MaxSizeMB: 64,
		},
		Logging: Logging{
			Level:   "info",
			Service: "costlens",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			RequestsPerSecond: 10,
			Burst:             20,
			CleanupInterval:   5 * time.Minute,
			MaxIdleTime:       10 * time.Minute,
		},
		MCP: MCP{
			Addr: ":3001",
		},
		OTEL: OTEL{
			Endpoint:    "localhost:4317",
			ServiceName: "costlens",
			Insecure:    true,
			SampleRate:  1.0,
		},
	}
}
