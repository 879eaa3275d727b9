package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/relay/relay/internal/config"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad_Minimal(t *testing.T) {
	path := writeTempConfig(t, `
[server]
host = "127.0.0.1"
port = 9090

[upstream]
url = "http://origin.internal:8000"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:9090" {
		t.Fatalf("Addr() = %q", cfg.Addr())
	}
	if cfg.Cache.DefaultTTL != "5m" {
		t.Fatalf("expected default ttl 5m, got %q", cfg.Cache.DefaultTTL)
	}
	if cfg.Storage.Backend != "memory" {
		t.Fatalf("expected default storage backend memory, got %q", cfg.Storage.Backend)
	}
}

func TestLoad_MissingUpstreamIsConfigError(t *testing.T) {
	path := writeTempConfig(t, `
[server]
host = "127.0.0.1"
port = 9090
`)
	if _, err := config.Load(path); err == nil {
		t.Fatalf("expected error for missing upstream.url")
	}
}

func TestLoad_RedisBackendRequiresURL(t *testing.T) {
	path := writeTempConfig(t, `
[upstream]
url = "http://origin:80"

[storage]
backend = "redis"
`)
	if _, err := config.Load(path); err == nil {
		t.Fatalf("expected error when storage.backend=redis without storage.redis.url")
	}
}

func TestLoad_UnknownBackendIsConfigError(t *testing.T) {
	path := writeTempConfig(t, `
[upstream]
url = "http://origin:80"

[storage]
backend = "memcached"
`)
	if _, err := config.Load(path); err == nil {
		t.Fatalf("expected error for unknown storage backend")
	}
}

func TestLoad_RulesPreserveDeclarationOrder(t *testing.T) {
	path := writeTempConfig(t, `
[upstream]
url = "http://origin:80"

[[cache.rules]]
glob = "/fast/*"
ttl = "1s"

[[cache.rules]]
glob = "/admin/**"
bypass = true
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Cache.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(cfg.Cache.Rules))
	}
	if cfg.Cache.Rules[0].Glob != "/fast/*" || cfg.Cache.Rules[1].Glob != "/admin/**" {
		t.Fatalf("rules not in declaration order: %+v", cfg.Cache.Rules)
	}

	resolver := cfg.Resolver()
	pol := resolver.Resolve("/fast/a")
	if pol.TTL != time.Second {
		t.Fatalf("resolved ttl = %v, want 1s", pol.TTL)
	}
	if !resolver.Resolve("/admin/x").Bypass {
		t.Fatalf("expected /admin/x to resolve to bypass")
	}
}

func TestLoad_InvalidDurationIsConfigError(t *testing.T) {
	path := writeTempConfig(t, `
[upstream]
url = "http://origin:80"

[cache]
default_ttl = "notaduration"
`)
	if _, err := config.Load(path); err == nil {
		t.Fatalf("expected error for invalid cache.default_ttl")
	}
}
