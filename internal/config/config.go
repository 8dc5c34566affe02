package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oriys/memo/internal/cache"
	"github.com/oriys/memo/internal/collection"
	"github.com/oriys/memo/internal/observability"
	"gopkg.in/yaml.v3"
)

// Origin kinds
const (
	OriginStatic   = "static"
	OriginRedis    = "redis"
	OriginPostgres = "postgres"
	OriginS3       = "s3"
)

// CacheConfig holds store settings
type CacheConfig struct {
	DefaultTTLSeconds int      `json:"default_ttl_seconds" yaml:"default_ttl_seconds"`
	LookupTTLSeconds  int      `json:"lookup_ttl_seconds" yaml:"lookup_ttl_seconds"`
	SweepInterval     Duration `json:"sweep_interval" yaml:"sweep_interval"` // 0 keeps expiration lazy
	CoalesceLoads     bool     `json:"coalesce_loads" yaml:"coalesce_loads"`
	WarmKeys          []string `json:"warm_keys" yaml:"warm_keys"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr      string `json:"addr" yaml:"addr"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db"`
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
}

// PostgresConfig holds PostgreSQL settings
type PostgresConfig struct {
	DSN   string `json:"dsn" yaml:"dsn"`
	Table string `json:"table" yaml:"table"`
}

// S3Config holds object storage settings
type S3Config struct {
	Bucket          string `json:"bucket" yaml:"bucket"`
	Prefix          string `json:"prefix" yaml:"prefix"`
	Region          string `json:"region" yaml:"region"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	UsePathStyle    bool   `json:"use_path_style" yaml:"use_path_style"`
}

// OriginConfig selects and configures the data source behind lookups
type OriginConfig struct {
	Kind     string            `json:"kind" yaml:"kind"`
	Static   map[string]string `json:"static" yaml:"static"`
	Redis    RedisConfig       `json:"redis" yaml:"redis"`
	Postgres PostgresConfig    `json:"postgres" yaml:"postgres"`
	S3       S3Config          `json:"s3" yaml:"s3"`
}

// DaemonConfig holds daemon-specific settings
type DaemonConfig struct {
	HTTPAddr      string   `json:"http_addr" yaml:"http_addr"`
	GRPCAddr      string   `json:"grpc_addr" yaml:"grpc_addr"`
	LogLevel      string   `json:"log_level" yaml:"log_level"`
	LogFormat     string   `json:"log_format" yaml:"log_format"`
	AccessLog     string   `json:"access_log" yaml:"access_log"`
	ProbeInterval Duration `json:"probe_interval" yaml:"probe_interval"`
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Namespace string    `json:"namespace" yaml:"namespace"`
	Buckets   []float64 `json:"buckets" yaml:"buckets"`
}

// ObservabilityConfig groups tracing and metrics
type ObservabilityConfig struct {
	Tracing observability.Config `json:"tracing" yaml:"tracing"`
	Metrics MetricsConfig        `json:"metrics" yaml:"metrics"`
}

// Config is the central configuration struct embedding all component configs
type Config struct {
	Cache         CacheConfig         `json:"cache" yaml:"cache"`
	Origin        OriginConfig        `json:"origin" yaml:"origin"`
	Daemon        DaemonConfig        `json:"daemon" yaml:"daemon"`
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			DefaultTTLSeconds: cache.DefaultTTLSeconds,
			LookupTTLSeconds:  300,
		},
		Origin: OriginConfig{
			Kind:   OriginStatic,
			Static: map[string]string{},
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "memo:origin:",
			},
			Postgres: PostgresConfig{
				Table: "memo_values",
			},
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Daemon: DaemonConfig{
			HTTPAddr:      ":8080",
			GRPCAddr:      "",
			LogLevel:      "info",
			LogFormat:     "text",
			ProbeInterval: Duration(10 * time.Second),
		},
		Observability: ObservabilityConfig{
			Tracing: observability.Config{
				Exporter:    "otlp-http",
				Endpoint:    "localhost:4318",
				ServiceName: "memo",
				SampleRate:  1.0,
			},
			Metrics: MetricsConfig{
				Namespace: "memo",
			},
		},
	}
}

// LoadFromFile loads configuration from a JSON or YAML file. The format is
// picked by extension.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv applies environment variable overrides to the config
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("MEMO_HTTP_ADDR"); v != "" {
		cfg.Daemon.HTTPAddr = v
	}
	if v := os.Getenv("MEMO_GRPC_ADDR"); v != "" {
		cfg.Daemon.GRPCAddr = v
	}
	if v := os.Getenv("MEMO_LOG_LEVEL"); v != "" {
		cfg.Daemon.LogLevel = v
	}
	if v := os.Getenv("MEMO_LOG_FORMAT"); v != "" {
		cfg.Daemon.LogFormat = v
	}
	if v := os.Getenv("MEMO_ACCESS_LOG"); v != "" {
		cfg.Daemon.AccessLog = v
	}
	if v := os.Getenv("MEMO_CACHE_TTL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.LookupTTLSeconds = n
		}
	}
	if v := os.Getenv("MEMO_ORIGIN"); v != "" {
		cfg.Origin.Kind = v
	}
	if v := os.Getenv("MEMO_REDIS_ADDR"); v != "" {
		cfg.Origin.Redis.Addr = v
	}
	if v := os.Getenv("MEMO_REDIS_PASSWORD"); v != "" {
		cfg.Origin.Redis.Password = v
	}
	if v := os.Getenv("MEMO_POSTGRES_DSN"); v != "" {
		cfg.Origin.Postgres.DSN = v
	}
	if v := os.Getenv("MEMO_S3_BUCKET"); v != "" {
		cfg.Origin.S3.Bucket = v
	}
	if v := os.Getenv("MEMO_S3_REGION"); v != "" {
		cfg.Origin.S3.Region = v
	}
	if v := os.Getenv("MEMO_S3_ENDPOINT"); v != "" {
		cfg.Origin.S3.Endpoint = v
	}
	if v := os.Getenv("MEMO_OTEL_ENDPOINT"); v != "" {
		cfg.Observability.Tracing.Enabled = true
		cfg.Observability.Tracing.Endpoint = v
	}
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidTableName reports whether name is a plain or schema-qualified SQL
// identifier that is safe to splice into a query.
func ValidTableName(name string) bool {
	return tableName.MatchString(name)
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Cache.LookupTTLSeconds <= 0 {
		return fmt.Errorf("cache.lookup_ttl_seconds must be positive, got %d", c.Cache.LookupTTLSeconds)
	}
	if c.Cache.DefaultTTLSeconds <= 0 {
		return fmt.Errorf("cache.default_ttl_seconds must be positive, got %d", c.Cache.DefaultTTLSeconds)
	}
	if c.Cache.SweepInterval < 0 {
		return fmt.Errorf("cache.sweep_interval must not be negative")
	}
	if _, err := c.Cache.Warm(); err != nil {
		return fmt.Errorf("cache.warm_keys: %w", err)
	}

	switch c.Origin.Kind {
	case OriginStatic:
	case OriginRedis:
		if c.Origin.Redis.Addr == "" {
			return fmt.Errorf("origin.redis.addr is required")
		}
	case OriginPostgres:
		if c.Origin.Postgres.DSN == "" {
			return fmt.Errorf("origin.postgres.dsn is required")
		}
		if !ValidTableName(c.Origin.Postgres.Table) {
			return fmt.Errorf("origin.postgres.table %q is not a valid identifier", c.Origin.Postgres.Table)
		}
	case OriginS3:
		if c.Origin.S3.Bucket == "" {
			return fmt.Errorf("origin.s3.bucket is required")
		}
	default:
		return fmt.Errorf("unknown origin kind %q", c.Origin.Kind)
	}

	if c.Daemon.HTTPAddr == "" && c.Daemon.GRPCAddr == "" {
		return fmt.Errorf("daemon needs an http_addr or a grpc_addr")
	}
	return nil
}

// Warm returns the warm keys as a locked collection.
func (c CacheConfig) Warm() (*collection.Restricted[string], error) {
	keys, err := collection.New(func(k string) error {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("empty key")
		}
		return nil
	}, c.WarmKeys...)
	if err != nil {
		return nil, err
	}
	keys.Lock()
	return keys, nil
}
