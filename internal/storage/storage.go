// Package storage implements the relay's key → (body, cached_at) mapping,
// with an in-memory backend and an external Redis-backed backend that must
// agree on observable semantics (see CachedResponse).
package storage

import "time"

// CachedResponse is immutable once written. CachedAt never moves forward
// after insertion; age at decision time is time.Now().Sub(CachedAt). Status
// is the upstream's HTTP status code at the time of capture (spec.md §6:
// the downstream response carries the upstream's status, not a fixed 200),
// recorded unexamined per spec.md §4.4 open question #1 — a 5xx is cached
// and replayed on HIT/STALE exactly like a 2xx. A zero Status (e.g. a
// CachedResponse built without one) is treated as 200 by callers.
type CachedResponse struct {
	Body     []byte
	Status   int
	CachedAt time.Time
}

// Storage is a mapping CacheKey -> CachedResponse. Implementations must be
// safe for concurrent use by many readers and writers; per-key atomicity
// is not required. Backend errors must degrade to a miss on Get and be
// swallowed (but logged) on Set — callers never see a storage error.
type Storage interface {
	// Get returns the cached value and true if present, or false on
	// absence or any backend error.
	Get(key string) (CachedResponse, bool)
	// Set overwrites the entry for key unconditionally. It must be
	// durable against a subsequent Get in the same process once it
	// returns.
	Set(key string, value CachedResponse)
	// Size is a best-effort entry count for metrics only; external
	// backends may return 0.
	Size() int
}
