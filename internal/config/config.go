// Package config loads the relay's startup configuration from a TOML
// file (spec.md §6), following the BurntSushi/toml + toml.MetaData
// idiom guygrigsby-trickster's internal/config/config.go uses.
package config

import (
	"fmt"
	"net/url"

	"github.com/BurntSushi/toml"

	"github.com/relay/relay/internal/policy"
)

// CacheRuleConfig is the raw, not-yet-resolved TOML shape of one
// `[[cache.rules]]` entry. Ttl/Stale are pointers so the decoder can
// distinguish "absent" from an explicit zero value.
type CacheRuleConfig struct {
	Glob   string  `toml:"glob"`
	Ttl    *string `toml:"ttl"`
	Stale  *string `toml:"stale"`
	Bypass *bool   `toml:"bypass"`
}

// ServerConfig is the `[server]` section.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// UpstreamConfig is the `[upstream]` section.
type UpstreamConfig struct {
	URL string `toml:"url"`
}

// PrometheusConfig is the `[prometheus]` section.
type PrometheusConfig struct {
	Enabled bool `toml:"enabled"`
}

// CacheConfig is the `[cache]` section, including the ordered
// `[[cache.rules]]` array-of-tables — BurntSushi decodes array-of-tables
// into a slice in file declaration order, which is exactly what
// spec.md's "configuration order decides ties" rule (§4.2) requires
// without any extra bookkeeping.
type CacheConfig struct {
	DefaultTTL          string            `toml:"default_ttl"`
	DefaultStaleIfError string            `toml:"stale_if_error"`
	Rules               []CacheRuleConfig `toml:"rules"`
}

// RedisConfig is the `[storage.redis]` section.
type RedisConfig struct {
	URL string `toml:"url"`
}

// StorageConfig is the `[storage]` section.
type StorageConfig struct {
	Backend string      `toml:"backend"`
	Redis   RedisConfig `toml:"redis"`
}

// LoggingConfig is the `[logging]` section — an ambient concern spec.md
// leaves to configuration-file parsing as an external collaborator, but
// still needs a concrete shape for this port (§SPEC_FULL.md AMBIENT
// STACK), adapted from original_source/src/logger.rs's LoggingConfig
// (enabled, format).
type LoggingConfig struct {
	Enabled bool   `toml:"enabled"`
	Format  string `toml:"format"`
}

// Config is the fully-decoded, defaulted, and validated startup
// configuration described in spec.md §3/§6. It is read-only and shared
// across every request once Load returns.
type Config struct {
	Server     ServerConfig
	Upstream   UpstreamConfig
	Prometheus PrometheusConfig
	Cache      CacheConfig
	Storage    StorageConfig
	Logging    LoggingConfig

	// UpstreamURL is the parsed, validated form of Upstream.URL, proven
	// well-formed once here per spec.md §7 ("the URL is parsed once at
	// config load to prove it is well-formed").
	UpstreamURL *url.URL
}

const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 8080
	defaultTTL            = "5m"
	defaultStaleIfError   = "24h"
	defaultStorageBackend = "memory"
	defaultLoggingEnabled = true
	defaultLoggingFormat  = "combined"
)

// Load reads and validates the TOML file at path. Any failure here is a
// ConfigError: fatal at startup, per spec.md §7.
func Load(path string) (*Config, error) {
	var raw Config
	raw.Server.Host = defaultHost
	raw.Server.Port = defaultPort
	raw.Cache.DefaultTTL = defaultTTL
	raw.Cache.DefaultStaleIfError = defaultStaleIfError
	raw.Storage.Backend = defaultStorageBackend
	raw.Logging.Enabled = defaultLoggingEnabled
	raw.Logging.Format = defaultLoggingFormat

	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	_ = meta // reserved for future optional-field disambiguation, as trickster does

	if raw.Upstream.URL == "" {
		return nil, fmt.Errorf("config: upstream.url is required")
	}
	u, err := url.Parse(raw.Upstream.URL)
	if err != nil {
		return nil, fmt.Errorf("config: invalid upstream.url %q: %w", raw.Upstream.URL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("config: upstream.url must be an absolute URL with scheme and host, got %q", raw.Upstream.URL)
	}
	raw.UpstreamURL = u

	if raw.Server.Port < 1 || raw.Server.Port > 65535 {
		return nil, fmt.Errorf("config: server.port must be in 1-65535, got %d", raw.Server.Port)
	}

	switch raw.Storage.Backend {
	case "memory":
	case "redis":
		if raw.Storage.Redis.URL == "" {
			return nil, fmt.Errorf("config: storage.redis.url is required when storage.backend is \"redis\"")
		}
	default:
		return nil, fmt.Errorf("config: unknown storage.backend %q (want \"memory\" or \"redis\")", raw.Storage.Backend)
	}

	if _, err := policy.ParseDuration(raw.Cache.DefaultTTL); err != nil {
		return nil, fmt.Errorf("config: cache.default_ttl: %w", err)
	}
	if _, err := policy.ParseDuration(raw.Cache.DefaultStaleIfError); err != nil {
		return nil, fmt.Errorf("config: cache.stale_if_error: %w", err)
	}
	for i, rule := range raw.Cache.Rules {
		if rule.Glob == "" {
			return nil, fmt.Errorf("config: cache.rules[%d]: glob is required", i)
		}
		if rule.Ttl != nil {
			if _, err := policy.ParseDuration(*rule.Ttl); err != nil {
				return nil, fmt.Errorf("config: cache.rules[%d].ttl: %w", i, err)
			}
		}
		if rule.Stale != nil {
			if _, err := policy.ParseDuration(*rule.Stale); err != nil {
				return nil, fmt.Errorf("config: cache.rules[%d].stale: %w", i, err)
			}
		}
	}

	return &raw, nil
}

// Resolver builds the policy.Resolver described by this Config's cache
// section. Duration strings are already proven parseable by Load.
func (c *Config) Resolver() *policy.Resolver {
	defaultTTL, _ := policy.ParseDuration(c.Cache.DefaultTTL)
	defaultStale, _ := policy.ParseDuration(c.Cache.DefaultStaleIfError)

	rules := make([]policy.Rule, 0, len(c.Cache.Rules))
	for _, rc := range c.Cache.Rules {
		rule := policy.Rule{Glob: rc.Glob}
		if rc.Ttl != nil {
			d, _ := policy.ParseDuration(*rc.Ttl)
			rule.Ttl = &d
		}
		if rc.Stale != nil {
			d, _ := policy.ParseDuration(*rc.Stale)
			rule.Stale = &d
		}
		if rc.Bypass != nil {
			rule.Bypass = *rc.Bypass
		}
		rules = append(rules, rule)
	}
	return policy.NewResolver(rules, defaultTTL, defaultStale)
}

// Addr is the "host:port" string the server loop should bind.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
