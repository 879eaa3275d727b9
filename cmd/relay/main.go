// Command relay is the caching HTTP reverse proxy's process entry point:
// bootstrap only (spec.md §1 lists process bootstrap as an external
// collaborator) — config load, storage/client/handler wiring, and the
// accept loop itself all live in internal packages.
package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/relay/relay/internal/applog"
	"github.com/relay/relay/internal/config"
	"github.com/relay/relay/internal/relay"
	"github.com/relay/relay/internal/server"
	"github.com/relay/relay/internal/storage"
	"github.com/relay/relay/internal/upstream"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the relay's TOML configuration file")
	flag.Parse()

	// Optional convenience preload, same as the teacher's cmd/server/main.go;
	// absence is not an error. It only populates the process environment:
	// the config path comes from -config and every setting, including
	// storage.redis.url, from the TOML file — config.Load reads no
	// environment variables.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded (%v); continuing with process environment", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := applog.Configure(cfg.Logging.Enabled, cfg.Logging.Format); err != nil {
		log.Fatalf("config: %v", err)
	}

	store, err := newStorage(cfg)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	client := upstream.New(cfg.UpstreamURL)
	handler := relay.New(cfg.Resolver(), store, client, cfg.Prometheus.Enabled)

	applog.Info("main", "starting relay", map[string]any{
		"addr":            cfg.Addr(),
		"upstream":        cfg.UpstreamURL.String(),
		"storage_backend": cfg.Storage.Backend,
		"metrics_enabled": cfg.Prometheus.Enabled,
	})

	if err := server.Run(cfg.Addr(), handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "redis":
		return storage.NewRedisStorage(cfg.Storage.Redis.URL)
	default:
		return storage.NewMemoryStorage(), nil
	}
}
