package upstream_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/relay/relay/internal/upstream"
)

func TestClient_Call_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET upstream, got %s", r.Method)
		}
		if r.URL.Path != "/a" {
			t.Errorf("path = %q, want /a", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	base, _ := url.Parse(srv.URL)
	c := upstream.New(base)

	body, status, err := c.Call("/a")
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if string(body) != "hello" {
		t.Fatalf("body = %q, want %q", body, "hello")
	}
}

func TestClient_Call_NonSuccessStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	base, _ := url.Parse(srv.URL)
	c := upstream.New(base)

	body, status, err := c.Call("/err")
	if err != nil {
		t.Fatalf("Call() unexpectedly errored on 5xx: %v", err)
	}
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", status)
	}
	if string(body) != "boom" {
		t.Fatalf("body = %q, want %q", body, "boom")
	}
}

func TestClient_Call_ConnectError(t *testing.T) {
	base, _ := url.Parse("http://127.0.0.1:1")
	c := upstream.New(base)
	if _, _, err := c.Call("/a"); err == nil {
		t.Fatalf("expected connect error against an unreachable address")
	}
}

func TestClient_Call_DefaultsToRootPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Errorf("path = %q, want /", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	base, _ := url.Parse(srv.URL)
	c := upstream.New(base)
	if _, _, err := c.Call(""); err != nil {
		t.Fatalf("Call() error: %v", err)
	}
}
