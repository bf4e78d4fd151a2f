// Package config handles loading and validating application configuration.
//
// Configuration is loaded from a YAML file with environment variable overrides.
// Environment variables use the MACROFX_ prefix (e.g., MACROFX_PORT).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration.
type Config struct {
	Server        Server        `yaml:"server"`
	Auth          Auth          `yaml:"auth"`
	Store         Store         `yaml:"store"`
	RateLimit     RateLimit     `yaml:"ratelimit"`
	Idempotency   Idempotency   `yaml:"idempotency"`
	Pipeline      Pipeline      `yaml:"pipeline"`
	Upstream      Upstream      `yaml:"upstream"`
	Log           Log           `yaml:"log"`
	Observability Observability `yaml:"observability"`
}

// Server configures the HTTP listener.
type Server struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Auth configures API key authentication.
//
// Mode "header" accepts any well-formed X-Api-Key; mode "keystore" also
// requires the key to be listed in KeysFile (or MACROFX_API_KEYS).
type Auth struct {
	Mode     string `yaml:"mode"`
	KeysFile string `yaml:"keys_file"`
}

// Store selects and configures the key-value backend.
type Store struct {
	Driver        string `yaml:"driver"`
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

// RateLimit configures the fixed-window request counter.
type RateLimit struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// Idempotency configures how long a seen Idempotency-Key is remembered.
type Idempotency struct {
	TTL time.Duration `yaml:"ttl"`
}

// Pipeline configures the decorators wrapped around upstream calls.
type Pipeline struct {
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	Retries          int           `yaml:"retries"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	Timeout          time.Duration `yaml:"timeout"`
	BreakerThreshold int           `yaml:"breaker_threshold"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown"`
}

// Upstream configures the remote todo service.
type Upstream struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Log configures structured logging.
type Log struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	CloudFormat string `yaml:"cloud_format"`
}

// Observability configures optional OpenTelemetry tracing.
type Observability struct {
	OTelEnabled     bool   `yaml:"otel_enabled"`
	OTelEndpoint    string `yaml:"otel_endpoint"`
	OTelServiceName string `yaml:"otel_service_name"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		Server: Server{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Auth: Auth{
			Mode: "header",
		},
		Store: Store{
			Driver:      "memory",
			SQLitePath:  "./kv.db",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "macrofx:",
		},
		RateLimit: RateLimit{
			Limit:  20,
			Window: time.Minute,
		},
		Idempotency: Idempotency{
			TTL: time.Minute,
		},
		Pipeline: Pipeline{
			CacheTTL:         15 * time.Second,
			Retries:          2,
			RetryDelay:       100 * time.Millisecond,
			Timeout:          2 * time.Second,
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
		},
		Upstream: Upstream{
			URL:     "https://jsonplaceholder.typicode.com",
			Timeout: 5 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
		Observability: Observability{
			OTelServiceName: "macrofx",
		},
	}
}

// Load reads configuration from the given YAML file path, then applies
// environment variable overrides. If path is empty, only defaults and
// environment variables are used.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validate(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides reads MACROFX_* environment variables and overrides
// the corresponding config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MACROFX_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("MACROFX_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MACROFX_AUTH_MODE"); v != "" {
		cfg.Auth.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("MACROFX_AUTH_KEYS_FILE"); v != "" {
		cfg.Auth.KeysFile = v
	}
	if v := os.Getenv("MACROFX_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("MACROFX_SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("MACROFX_REDIS_ADDR"); v != "" {
		cfg.Store.RedisAddr = v
	}
	if v := os.Getenv("MACROFX_REDIS_PASSWORD"); v != "" {
		cfg.Store.RedisPassword = v
	}
	if v := os.Getenv("MACROFX_RATELIMIT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Limit = n
		}
	}
	if v := os.Getenv("MACROFX_RATELIMIT_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RateLimit.Window = d
		}
	}
	if v := os.Getenv("MACROFX_UPSTREAM_URL"); v != "" {
		cfg.Upstream.URL = strings.TrimSpace(v)
	}
	if v := os.Getenv("MACROFX_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("MACROFX_LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v := os.Getenv("MACROFX_OTEL_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Observability.OTelEnabled = b
		}
	}
	if v := os.Getenv("MACROFX_OTEL_ENDPOINT"); v != "" {
		cfg.Observability.OTelEndpoint = v
	}
}

// validate checks that the configuration is internally consistent.
func validate(cfg Config) error {
	var errs []error

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port))
	}

	switch cfg.Auth.Mode {
	case "header":
	case "keystore":
		if cfg.Auth.KeysFile == "" && os.Getenv("MACROFX_API_KEYS") == "" {
			errs = append(errs, errors.New("auth.keys_file or MACROFX_API_KEYS is required in keystore mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.mode must be header or keystore; got %q", cfg.Auth.Mode))
	}

	switch cfg.Store.Driver {
	case "memory":
	case "sqlite":
		if cfg.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite driver"))
		}
	case "redis":
		if cfg.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver must be memory, sqlite or redis; got %q", cfg.Store.Driver))
	}

	if cfg.RateLimit.Limit < 1 {
		errs = append(errs, errors.New("ratelimit.limit must be at least 1"))
	}
	if cfg.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("ratelimit.window must be positive"))
	}
	if cfg.Idempotency.TTL <= 0 {
		errs = append(errs, errors.New("idempotency.ttl must be positive"))
	}
	if cfg.Pipeline.Retries < 0 {
		errs = append(errs, errors.New("pipeline.retries must not be negative"))
	}
	if cfg.Pipeline.RetryDelay < 0 {
		errs = append(errs, errors.New("pipeline.retry_delay must not be negative"))
	}
	if cfg.Pipeline.Timeout <= 0 {
		errs = append(errs, errors.New("pipeline.timeout must be positive"))
	}
	if cfg.Pipeline.CacheTTL < 0 {
		errs = append(errs, errors.New("pipeline.cache_ttl must not be negative"))
	}
	if cfg.Upstream.URL == "" {
		errs = append(errs, errors.New("upstream.url is required"))
	}

	if cfg.Observability.OTelEnabled && cfg.Observability.OTelEndpoint == "" {
		errs = append(errs, errors.New("observability.otel_endpoint is required when otel_enabled is true"))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", cfg.Log.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Log.Format] {
		errs = append(errs, fmt.Errorf("log.format must be json or text; got %q", cfg.Log.Format))
	}
	validCloud := map[string]bool{"": true, "gcp": true, "gcp_with_resource": true}
	if !validCloud[cfg.Log.CloudFormat] {
		errs = append(errs, fmt.Errorf("log.cloud_format must be empty, gcp or gcp_with_resource; got %q", cfg.Log.CloudFormat))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address as "host:port".
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
