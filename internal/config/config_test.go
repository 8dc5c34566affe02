package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oriys/memo/internal/collection"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Cache.DefaultTTLSeconds != 3600 {
		t.Fatalf("expected default TTL 3600, got %d", cfg.Cache.DefaultTTLSeconds)
	}
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := writeFile(t, "memo.json", `{
		"cache": {"lookup_ttl_seconds": 60, "sweep_interval": "30s", "warm_keys": ["a", "b"]},
		"origin": {"kind": "redis", "redis": {"addr": "redis:6379", "db": 2}},
		"daemon": {"http_addr": ":9000", "probe_interval": "5s"}
	}`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Cache.LookupTTLSeconds != 60 || cfg.Cache.SweepInterval.Std() != 30*time.Second {
		t.Fatalf("unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Origin.Kind != OriginRedis || cfg.Origin.Redis.Addr != "redis:6379" || cfg.Origin.Redis.DB != 2 {
		t.Fatalf("unexpected origin config: %+v", cfg.Origin.Redis)
	}
	if cfg.Origin.Redis.KeyPrefix != "memo:origin:" {
		t.Fatalf("expected defaults to survive partial files, got %q", cfg.Origin.Redis.KeyPrefix)
	}
	if cfg.Daemon.HTTPAddr != ":9000" || cfg.Daemon.ProbeInterval.Std() != 5*time.Second {
		t.Fatalf("unexpected daemon config: %+v", cfg.Daemon)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := writeFile(t, "memo.yaml", `
cache:
  lookup_ttl_seconds: 120
  coalesce_loads: true
origin:
  kind: postgres
  postgres:
    dsn: postgres://localhost/memo
    table: public.lookups
observability:
  tracing:
    enabled: true
    sample_rate: 0.5
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if !cfg.Cache.CoalesceLoads || cfg.Cache.LookupTTLSeconds != 120 {
		t.Fatalf("unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Origin.Postgres.Table != "public.lookups" {
		t.Fatalf("unexpected table %q", cfg.Origin.Postgres.Table)
	}
	if !cfg.Observability.Tracing.Enabled || cfg.Observability.Tracing.SampleRate != 0.5 {
		t.Fatalf("unexpected tracing config: %+v", cfg.Observability.Tracing)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got: %v", err)
	}
	bad := writeFile(t, "bad.json", `{"daemon": {"probe_interval": "soon"}}`)
	if _, err := LoadFromFile(bad); err == nil {
		t.Fatal("expected an error for an invalid duration")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MEMO_HTTP_ADDR", ":7000")
	t.Setenv("MEMO_ORIGIN", "s3")
	t.Setenv("MEMO_S3_BUCKET", "lookups")
	t.Setenv("MEMO_CACHE_TTL", "45")
	t.Setenv("MEMO_OTEL_ENDPOINT", "collector:4318")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.Daemon.HTTPAddr != ":7000" || cfg.Origin.Kind != OriginS3 || cfg.Origin.S3.Bucket != "lookups" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Cache.LookupTTLSeconds != 45 {
		t.Fatalf("expected lookup TTL 45, got %d", cfg.Cache.LookupTTLSeconds)
	}
	if !cfg.Observability.Tracing.Enabled || cfg.Observability.Tracing.Endpoint != "collector:4318" {
		t.Fatalf("expected tracing enabled by endpoint, got %+v", cfg.Observability.Tracing)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"zero lookup ttl":     func(c *Config) { c.Cache.LookupTTLSeconds = 0 },
		"negative sweep":      func(c *Config) { c.Cache.SweepInterval = -1 },
		"empty warm key":      func(c *Config) { c.Cache.WarmKeys = []string{"a", " "} },
		"unknown origin":      func(c *Config) { c.Origin.Kind = "ftp" },
		"redis without addr":  func(c *Config) { c.Origin.Kind = OriginRedis; c.Origin.Redis.Addr = "" },
		"postgres no dsn":     func(c *Config) { c.Origin.Kind = OriginPostgres },
		"postgres bad table":  func(c *Config) { c.Origin.Kind = OriginPostgres; c.Origin.Postgres.DSN = "x"; c.Origin.Postgres.Table = "v; drop" },
		"s3 without bucket":   func(c *Config) { c.Origin.Kind = OriginS3 },
		"no listen addresses": func(c *Config) { c.Daemon.HTTPAddr = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidTableName(t *testing.T) {
	for _, name := range []string{"memo_values", "public.lookups", "_t1"} {
		if !ValidTableName(name) {
			t.Errorf("expected %q to be valid", name)
		}
	}
	for _, name := range []string{"", "1abc", "a.b.c", "v; drop", "t-1"} {
		if ValidTableName(name) {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}

func TestWarmKeysLocked(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.WarmKeys = []string{"a", "b"}

	keys, err := cfg.Cache.Warm()
	if err != nil {
		t.Fatalf("Warm failed: %v", err)
	}
	if keys.Len() != 2 || !keys.Locked() {
		t.Fatalf("expected 2 locked keys, got %d locked=%v", keys.Len(), keys.Locked())
	}
	if err := keys.Add("c"); !errors.Is(err, collection.ErrImmutable) {
		t.Fatalf("expected ErrImmutable, got: %v", err)
	}
}
