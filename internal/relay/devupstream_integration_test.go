package relay_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/relay/relay/internal/devupstream"
	"github.com/relay/relay/internal/policy"
	"github.com/relay/relay/internal/relay"
	"github.com/relay/relay/internal/storage"
	"github.com/relay/relay/internal/upstream"
)

func decodeCount(t *testing.T, body []byte) float64 {
	t.Helper()
	var v struct {
		Count float64 `json:"count"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode count: %v", err)
	}
	return v.Count
}

// This test drives the relay's Handler against the example origin used
// for manual exercising (internal/devupstream), rather than an ad hoc
// httptest closure, proving the two are actually wired together and not
// just two standalone pieces of code.

func TestIntegration_CacheHitDoesNotReachOrigin(t *testing.T) {
	origin := httptest.NewServer(devupstream.NewHandler())
	defer origin.Close()

	base, err := url.Parse(origin.URL)
	if err != nil {
		t.Fatalf("parse origin url: %v", err)
	}

	resolver := policy.NewResolver(nil, 5*time.Minute, 24*time.Hour)
	store := storage.NewMemoryStorage()
	client := upstream.New(base)
	h := relay.New(resolver, store, client, false)

	count := func(w *httptest.ResponseRecorder) float64 { return decodeCount(t, w.Body.Bytes()) }

	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/counter", nil))
	if w1.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first request X-Cache = %q, want MISS", w1.Header().Get("X-Cache"))
	}
	first := count(w1)

	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/counter", nil))
	if w2.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("second request X-Cache = %q, want HIT", w2.Header().Get("X-Cache"))
	}
	second := count(w2)

	if second != first {
		t.Fatalf("origin counter advanced on a cache HIT: %v -> %v", first, second)
	}
}

func TestIntegration_StaleServedWhenOriginGoesFlaky(t *testing.T) {
	origin := httptest.NewServer(devupstream.NewHandler())
	defer origin.Close()

	base, err := url.Parse(origin.URL)
	if err != nil {
		t.Fatalf("parse origin url: %v", err)
	}

	resolver := policy.NewResolver(nil, 1*time.Second, 10*time.Second)
	store := storage.NewMemoryStorage()
	client := upstream.New(base)
	h := relay.New(resolver, store, client, false)

	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/flaky", nil))
	if w1.Header().Get("X-Cache") != "MISS" || w1.Code != http.StatusOK {
		t.Fatalf("first request = %d %q, want 200 MISS", w1.Code, w1.Header().Get("X-Cache"))
	}

	time.Sleep(1100 * time.Millisecond) // entry now older than the 1s ttl

	toggle := httptest.NewRecorder()
	h.ServeHTTP(toggle, httptest.NewRequest(http.MethodPost, "/flaky/toggle", nil))

	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/flaky", nil))
	if w2.Header().Get("X-Cache") != "STALE" {
		t.Fatalf("second request X-Cache = %q, want STALE", w2.Header().Get("X-Cache"))
	}
	if w2.Code != http.StatusOK {
		t.Fatalf("stale response status = %d, want the originally-cached 200", w2.Code)
	}
}
