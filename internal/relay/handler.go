// Package relay implements the request handler that ties together the
// policy resolver, storage, and upstream client into the cache decision
// state machine described in spec.md §4.5/§4.6.
package relay

import (
	"net/http"
	"time"

	"github.com/relay/relay/internal/applog"
	"github.com/relay/relay/internal/metrics"
	"github.com/relay/relay/internal/policy"
	"github.com/relay/relay/internal/storage"
	"github.com/relay/relay/internal/upstream"
)

// Handler orchestrates the relay core. Config, the resolver, storage, and
// the upstream client are all shared, immutable-after-construction
// references — no per-request copies are made (spec.md §4.8, §5).
type Handler struct {
	resolver       *policy.Resolver
	store          storage.Storage
	upstream       *upstream.Client
	metricsEnabled bool
}

// New builds a Handler. metricsEnabled gates the /metrics shortcut per
// spec.md §4.6.
func New(resolver *policy.Resolver, store storage.Storage, client *upstream.Client, metricsEnabled bool) *Handler {
	return &Handler{
		resolver:       resolver,
		store:          store,
		upstream:       client,
		metricsEnabled: metricsEnabled,
	}
}

// ServeHTTP is the single entry point invoked per inbound HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/metrics" {
		h.serveMetrics(w, r)
		return
	}

	start := time.Now()
	defer func() {
		metrics.RequestDuration.Observe(time.Since(start).Seconds())
	}()

	key := cacheKey(r)
	pol := h.resolver.Resolve(r.URL.Path)

	if pol.Bypass {
		h.forwardBypass(w, key)
		return
	}

	if cached, ok := h.store.Get(key); ok {
		age := time.Since(cached.CachedAt)
		if age <= pol.TTL {
			w.Header().Set("X-Cache", "HIT")
			metrics.CacheHits.Inc()
			w.WriteHeader(cachedStatus(cached))
			_, _ = w.Write(cached.Body)
			return
		}
	}

	metrics.CacheMisses.Inc()
	body, status, err := h.upstream.Call(key)
	if err != nil {
		h.handleUpstreamError(w, key, pol)
		return
	}

	h.store.Set(key, storage.CachedResponse{Body: body, Status: status, CachedAt: time.Now()})
	metrics.CacheEntries.Set(float64(h.store.Size()))

	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// cachedStatus returns the upstream status recorded with a cache entry,
// defaulting to 200 for entries written before Status existed.
func cachedStatus(cached storage.CachedResponse) int {
	if cached.Status == 0 {
		return http.StatusOK
	}
	return cached.Status
}

// handleUpstreamError implements the error branch of the §4.5 state
// machine: serve stale if the cached entry is still within
// [ttl, ttl+stale_if_error), otherwise surface a 502-class error.
func (h *Handler) handleUpstreamError(w http.ResponseWriter, key string, pol policy.Policy) {
	metrics.UpstreamErrors.Inc()

	cached, ok := h.store.Get(key)
	if ok {
		age := time.Since(cached.CachedAt)
		if age < pol.TTL+pol.StaleIfError {
			w.Header().Set("X-Cache", "STALE")
			w.Header().Set("X-Cache-Reason", "upstream-error")
			metrics.CacheStaleServed.Inc()
			w.WriteHeader(cachedStatus(cached))
			_, _ = w.Write(cached.Body)
			return
		}
	}

	applog.Error("relay", "upstream call failed and no stale entry is servable", map[string]any{"key": key})
	http.Error(w, "Bad Gateway", http.StatusBadGateway)
}

// forwardBypass implements the bypass branch: Storage.Get and Storage.Set
// are never invoked for a bypassed request, even on upstream success
// (spec.md §4.5, testable property 3).
func (h *Handler) forwardBypass(w http.ResponseWriter, key string) {
	body, status, err := h.upstream.Call(key)
	w.Header().Set("X-Cache", "BYPASS")
	if err != nil {
		metrics.UpstreamErrors.Inc()
		applog.Error("relay", "bypass upstream call failed", map[string]any{"key": key})
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// serveMetrics implements the /metrics shortcut of spec.md §4.6/§6.
func (h *Handler) serveMetrics(w http.ResponseWriter, r *http.Request) {
	if !h.metricsEnabled {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	metrics.Handler().ServeHTTP(w, r)
}

// cacheKey derives the CacheKey per spec.md §3: the path-and-query
// substring of the inbound URI, defaulting to "/".
func cacheKey(r *http.Request) string {
	pq := r.URL.RequestURI()
	if pq == "" {
		return "/"
	}
	return pq
}
