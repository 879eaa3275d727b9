// Package upstream implements the relay's per-call HTTP/1.1 client: a
// fresh TCP connection is dialed for every upstream call, with no
// connection pool, per spec.md §4.4/§5. This is a deliberate divergence
// from a pooled http.Transport client.
package upstream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Error kinds surfaced to the caller, per spec.md §7 (all subsumed by
// UpstreamError at the handler boundary).
var (
	ErrConnect = errors.New("upstream: connect failed")
	ErrRequest = errors.New("upstream: request failed")
	ErrBody    = errors.New("upstream: body read failed")
)

// defaultDialTimeout and defaultRequestTimeout bound an otherwise
// unspecified-by-contract call (spec.md §4.4: "an implementation SHOULD
// impose reasonable ... timeouts but their values are not part of the
// contract").
const (
	defaultDialTimeout    = 5 * time.Second
	defaultRequestTimeout = 10 * time.Second
)

// Client issues one GET per Call, each over its own freshly dialed TCP
// connection. It holds no mutable state and is safe for concurrent use.
type Client struct {
	baseURL        *url.URL
	dialTimeout    time.Duration
	requestTimeout time.Duration
}

// New builds a Client against the configured upstream base URL. The URL
// arrives already parsed (at config-load time, by the caller) and proven
// well-formed; Call is not re-parsing it, only reading its host and port
// on each call.
func New(baseURL *url.URL) *Client {
	return &Client{
		baseURL:        baseURL,
		dialTimeout:    defaultDialTimeout,
		requestTimeout: defaultRequestTimeout,
	}
}

// Call opens a fresh TCP connection, sends a GET for pathAndQuery with a
// Host header set to the upstream authority, and returns the full
// response body. No request body is forwarded and no response headers
// are forwarded to the caller; the HTTP status is not examined — any
// response that completes with a body, including 4xx/5xx, is a success
// (spec.md §4.4, open question #1).
func (c *Client) Call(pathAndQuery string) ([]byte, int, error) {
	host := c.baseURL.Hostname()
	port := c.baseURL.Port()
	if port == "" {
		port = "80"
	}
	addr := net.JoinHostPort(host, port)

	conn, err := net.DialTimeout("tcp", addr, c.dialTimeout)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(c.requestTimeout))

	if pathAndQuery == "" {
		pathAndQuery = "/"
	}
	req, err := http.NewRequest(http.MethodGet, "http://"+addr+pathAndQuery, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req.Host = c.baseURL.Host
	req.Header.Set("Host", c.baseURL.Host)
	req.Close = true

	if err := req.Write(conn); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequest, err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBody, err)
	}

	return body, resp.StatusCode, nil
}
