// Package devupstream is a small example HTTP origin for exercising the
// relay end to end, standing in for a real backend during local
// development and in this module's own integration test
// (internal/relay/devupstream_integration_test.go). Adapted from the
// teacher's internal/upstream/server.go: the request-logging/request-ID
// middleware chain is dropped (it existed to produce per-request
// access-log lines, and per-request access logging is an explicit relay
// Non-goal, spec.md §1), and the teacher's generic Item CRUD API — which
// has nothing to do with caching — is replaced with two endpoints shaped
// around what the relay actually needs to prove: a call counter that
// reveals whether a request reached the origin at all (a HIT must not
// move it), and a toggleable failure mode that lets stale-if-error be
// driven from a real upstream instead of only from an httptest closure.
// Cache-Control response headers are dropped too: this relay's caching
// decision comes from its own config-driven policy rules (spec.md §4.2),
// never from upstream response headers, so advertising them here would
// misrepresent how caching is actually decided.
package devupstream

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// server holds the origin's mutable demonstration state: how many times
// each counted route has actually been invoked (as opposed to served
// from the relay's cache), and whether /flaky is currently broken.
type server struct {
	hits   int64 // incremented once per real invocation of /counter
	broken int32 // 0 = healthy, 1 = /flaky fails (see its handler)
}

// NewHandler builds the example origin's handler without binding a
// network listener, so it can be driven directly via httptest.Server or
// httptest.NewRecorder in tests (see internal/relay's integration test).
// Start wraps this for standalone process use.
func NewHandler() http.Handler {
	srv := &server{}
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// / is a static landing page; useful as the default cacheable route
	// when no cache.rules entry matches a request's path.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("devupstream is running.\n"))
	})

	// /slow simulates a slow origin, useful for manually observing the
	// latency a warm cache HIT saves relative to a MISS.
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(1200 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]any{
			"endpoint": "slow",
			"now":      time.Now().Format(time.RFC3339Nano),
		})
	})

	// /counter increments on every real invocation and reports the
	// running total. Driven through the relay, the count must stop
	// advancing the moment a response becomes a cache HIT — this is the
	// single clearest external proof that caching, not just headers, is
	// happening.
	mux.HandleFunc("/counter", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&srv.hits, 1)
		writeJSON(w, http.StatusOK, map[string]any{
			"count": n,
			"now":   time.Now().Format(time.RFC3339Nano),
		})
	})

	// /flaky/toggle flips whether /flaky is currently failing, letting a
	// caller (a test, or a curl script) drive the origin into and out of
	// an error state on demand to exercise the relay's stale-if-error
	// branch (spec.md §4.5) against a real upstream call rather than
	// only a closed httptest server.
	mux.HandleFunc("/flaky/toggle", func(w http.ResponseWriter, r *http.Request) {
		var nowBroken bool
		for {
			old := atomic.LoadInt32(&srv.broken)
			next := int32(1)
			if old == 1 {
				next = 0
			}
			if atomic.CompareAndSwapInt32(&srv.broken, old, next) {
				nowBroken = next == 1
				break
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"broken": nowBroken})
	})

	mux.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&srv.broken) == 1 {
			// Over a real connection the origin drops it without answering,
			// so the relay's upstream call fails instead of receiving a
			// complete (and therefore cacheable) 503. A writer that cannot
			// be hijacked, such as httptest.ResponseRecorder, gets a 503.
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					_ = conn.Close()
					return
				}
			}
			http.Error(w, "origin unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"now": time.Now().Format(time.RFC3339Nano)})
	})

	return withServerHeaders(mux)
}

// Start boots the example origin on listenAddr. This server is for
// demonstration and integration-test purposes only; it is not part of the
// relay's own request path.
func Start(listenAddr string) error {
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil && errors.Is(err, syscall.EADDRINUSE) {
		fallbackAddr := addrWithPortZero(listenAddr)
		log.Printf("Address %q in use, retrying on %q", listenAddr, fallbackAddr)
		listener, err = net.Listen("tcp", fallbackAddr)
	}
	if err != nil {
		return err
	}

	log.Printf("devupstream example origin listening on %s", listener.Addr().String())

	handler := withUpstreamHeader(listener.Addr().String(), NewHandler())
	return http.Serve(listener, handler)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// withServerHeaders adds a fixed Server header for all responses.
func withServerHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "devupstream/0.1")
		next.ServeHTTP(w, r)
	})
}

// withUpstreamHeader injects an X-Upstream header identifying which
// listener served a response, useful when running devupstream standalone.
func withUpstreamHeader(upstreamID string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", upstreamID)
		next.ServeHTTP(w, r)
	})
}

// addrWithPortZero returns the same host with port 0 (ephemeral). If parsing fails, returns ":0".
func addrWithPortZero(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return ":0"
	}
	return net.JoinHostPort(host, "0")
}
