package storage

import (
	"strconv"
	"time"

	redis "github.com/go-redis/redis"

	"github.com/relay/relay/internal/applog"
)

// RedisStorage is the external key-value Storage backend. Per entry it
// writes three logical keys: "{key}:body" (opaque bytes), "{key}:status"
// (the upstream HTTP status code, decimal), and "{key}:cached_at"
// (nanoseconds-since-write as an unsigned 64-bit decimal, the *age* at
// write time). Get reconstructs CachedAt as now_local - stored_age, so age
// comparisons remain correct for a single observer even though the
// writer's and reader's clocks may differ slightly. See spec.md §4.3 and
// original_source/src/storage.rs.
type RedisStorage struct {
	client *redis.Client
}

// NewRedisStorage dials (lazily, via the client's own connection pool) the
// Redis server at url, e.g. "redis://localhost:6379/0".
func NewRedisStorage(url string) (*RedisStorage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisStorage{client: redis.NewClient(opts)}, nil
}

func bodyKey(key string) string     { return key + ":body" }
func statusKey(key string) string   { return key + ":status" }
func cachedAtKey(key string) string { return key + ":cached_at" }

// Get reads all three logical keys in one pipelined round trip. Any failure —
// a missing key or a transport error — degrades to a miss, per spec.md
// §4.3 ("errors are swallowed" / "returns None").
func (r *RedisStorage) Get(key string) (CachedResponse, bool) {
	now := time.Now()

	pipe := r.client.Pipeline()
	bodyCmd := pipe.Get(bodyKey(key))
	statusCmd := pipe.Get(statusKey(key))
	ageCmd := pipe.Get(cachedAtKey(key))
	if _, err := pipe.Exec(); err != nil {
		return CachedResponse{}, false
	}

	body, err := bodyCmd.Bytes()
	if err != nil {
		return CachedResponse{}, false
	}
	statusStr, err := statusCmd.Result()
	if err != nil {
		return CachedResponse{}, false
	}
	status, err := strconv.Atoi(statusStr)
	if err != nil {
		return CachedResponse{}, false
	}
	ageStr, err := ageCmd.Result()
	if err != nil {
		return CachedResponse{}, false
	}
	ageNanos, err := strconv.ParseUint(ageStr, 10, 64)
	if err != nil {
		return CachedResponse{}, false
	}

	return CachedResponse{
		Body:     body,
		Status:   status,
		CachedAt: now.Add(-time.Duration(ageNanos)),
	}, true
}

// Set writes all three logical keys unconditionally in one pipelined round
// trip. Errors are logged, never returned — a failed Set never fails the
// request that triggered it (spec.md §4.3, §7 StorageError).
func (r *RedisStorage) Set(key string, value CachedResponse) {
	age := time.Since(value.CachedAt)

	pipe := r.client.Pipeline()
	pipe.Set(bodyKey(key), value.Body, 0)
	pipe.Set(statusKey(key), strconv.Itoa(value.Status), 0)
	pipe.Set(cachedAtKey(key), strconv.FormatUint(uint64(age.Nanoseconds()), 10), 0)
	if _, err := pipe.Exec(); err != nil {
		applog.Error("storage", "redis set failed", map[string]any{"key": key, "error": err.Error()})
	}
}

// Size always returns 0 for the external backend; it is a metrics-only
// signal and this backend does not track a cheap exact count.
func (r *RedisStorage) Size() int {
	return 0
}
