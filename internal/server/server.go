// Package server is the relay's accept loop (spec.md §4.8): it binds a
// TCP listener and dispatches each connection to Go's own net/http
// connection-per-goroutine model, serving one or more HTTP/1.1 requests
// on it before closing. This is the same net/http.ListenAndServe
// foundation the teacher's cmd/server/main.go starts from, with the TLS
// branch dropped (spec.md Non-goal: HTTPS termination).
package server

import (
	"net/http"

	"github.com/relay/relay/internal/applog"
)

// Run binds addr and blocks serving handler until the process exits or
// the listener errors. Config, Storage, and the metrics-enabled flag are
// all already captured by handler via shared, immutable references —
// Run makes no per-connection copies of them (spec.md §4.8, §5).
func Run(addr string, handler http.Handler) error {
	withHeaders := withServerHeader(handler)
	applog.Info("server", "listening", map[string]any{"addr": addr})
	return http.ListenAndServe(addr, withHeaders)
}

// withServerHeader stamps a Server header on every response, the same
// small middleware shape as the teacher's withServerHeaders.
func withServerHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "relay/0.1")
		next.ServeHTTP(w, r)
	})
}
