package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "costlens.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "COSTLENS_PORT")
	setString(&cfg.Server.CORSOrigin, "COSTLENS_CORS_ORIGIN")
	setString(&cfg.Server.APIKeyHash, "COSTLENS_API_KEY_HASH")

	// Azure credentials use the names the Azure tooling exports.
	setString(&cfg.Azure.SubscriptionID, "AZURE_SUBSCRIPTION_ID")
	setString(&cfg.Azure.SubscriptionName, "AZURE_SUBSCRIPTION_NAME")
	setString(&cfg.Azure.TenantID, "AZURE_TENANT_ID")
	setString(&cfg.Azure.ClientID, "AZURE_CLIENT_ID")
	setString(&cfg.Azure.ClientSecret, "AZURE_CLIENT_SECRET")
	setString(&cfg.Azure.AccessToken, "AZURE_ACCESS_TOKEN")
	setString(&cfg.Azure.BaseURL, "COSTLENS_AZURE_BASE_URL")

	setDuration(&cfg.Query.Timeout, "COSTLENS_QUERY_TIMEOUT")
	setInt(&cfg.Query.MaxRetries, "COSTLENS_QUERY_MAX_RETRIES")
	setDuration(&cfg.Query.DefaultRetryAfter, "COSTLENS_QUERY_DEFAULT_RETRY_AFTER")
	setFloat64(&cfg.Query.RequestsPerSecond, "COSTLENS_QUERY_RPS")
	setInt(&cfg.Query.Burst, "COSTLENS_QUERY_BURST")

	setString(&cfg.Cache.Backend, "COSTLENS_CACHE_BACKEND")
	setDuration(&cfg.Cache.TTL, "COSTLENS_CACHE_TTL")
	setInt64(&cfg.Cache.L1MaxSizeMB, "COSTLENS_CACHE_L1_SIZE_MB")

	setString(&cfg.Logging.Level, "COSTLENS_LOG_LEVEL")
	setString(&cfg.Logging.Service, "COSTLENS_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "COSTLENS_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "COSTLENS_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "COSTLENS_BREAKER_TIMEOUT")

	setFloat64(&cfg.Rate.RequestsPerSecond, "COSTLENS_RATE_RPS")
	setInt(&cfg.Rate.Burst, "COSTLENS_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "COSTLENS_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "COSTLENS_RATE_MAX_IDLE_TIME")

	setString(&cfg.NATS.URL, "NATS_URL")

	setBool(&cfg.MCP.Enabled, "COSTLENS_MCP_ENABLED")
	setString(&cfg.MCP.Addr, "COSTLENS_MCP_ADDR")

	setBool(&cfg.OTEL.Enabled, "COSTLENS_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTEL.Insecure, "COSTLENS_OTEL_INSECURE")
	setFloat64(&cfg.OTEL.SampleRate, "COSTLENS_OTEL_SAMPLE_RATE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Azure.SubscriptionID == "" {
		return errors.New("azure.subscription_id is required")
	}
	if !cfg.Azure.HasServicePrincipal() && cfg.Azure.AccessToken == "" {
		return errors.New("azure credentials required: tenant_id, client_id and client_secret, or access_token")
	}
	if cfg.Azure.BaseURL == "" {
		return errors.New("azure.base_url is required")
	}
	if cfg.Query.MaxRetries < 1 {
		return errors.New("query.max_retries must be >= 1")
	}
	if cfg.Query.Timeout <= 0 {
		return errors.New("query.timeout must be > 0")
	}
	if cfg.Query.RequestsPerSecond <= 0 || cfg.Query.Burst < 1 {
		return errors.New("query.requests_per_second must be > 0 and query.burst >= 1")
	}
	if cfg.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be > 0")
	}
	switch cfg.Cache.Backend {
	case "memory":
	case "ristretto":
		if cfg.Cache.L1MaxSizeMB < 1 {
			return errors.New("cache.l1_max_size_mb must be >= 1")
		}
	default:
		return fmt.Errorf("cache.backend %q is not one of memory, ristretto", cfg.Cache.Backend)
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.MCP.Enabled && cfg.MCP.Addr == "" {
		return errors.New("mcp.addr is required when mcp is enabled")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
