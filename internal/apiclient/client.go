// Package apiclient is the resilient client for the site gateway's JSON API.
//
// Every failed call surfaces as an *Error with a stable code. Transient
// failures are retried with exponential backoff before the caller sees them.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 10 << 20
)

// Client talks to the gateway. It is safe for concurrent use; each call has
// its own retry state.
type Client struct {
	baseURL string
	http    *http.Client
	conn    Connectivity
	sleep   SleepFunc
	retrier *Retrier
	retry   RetryConfig
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithConnectivity sets the connectivity source consulted before each
// dispatch and between attempts.
func WithConnectivity(conn Connectivity) Option {
	return func(c *Client) { c.conn = conn }
}

// WithSleep replaces the backoff wait. Tests pass a recorder here.
func WithSleep(sleep SleepFunc) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithDefaultRetry sets the retry policy used when a call does not override it.
func WithDefaultRetry(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithDefaultTimeout sets the per-attempt timeout used when a call does not
// override it.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a Client for baseURL (for example http://localhost:3000/api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		conn:    AlwaysOnline,
		retry:   DefaultRetryConfig(),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.conn == nil {
		c.conn = AlwaysOnline
	}
	c.retrier = NewRetrier(c.conn, c.sleep)
	return c
}

// Connectivity returns the connectivity source the client consults.
func (c *Client) Connectivity() Connectivity { return c.conn }

// Request describes one logical call. It is not modified once dispatched.
type Request struct {
	Method  string
	Path    []string
	Query   url.Values
	Body    json.RawMessage
	Timeout time.Duration
}

// URL joins base, the escaped path segments and the encoded query.
func (r Request) URL(base string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, seg := range r.Path {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	if len(r.Query) > 0 {
		b.WriteByte('?')
		b.WriteString(r.Query.Encode())
	}
	return b.String()
}

// CallOption overrides retry or timeout settings for a single call.
type CallOption func(*callSettings)

type callSettings struct {
	retry   RetryConfig
	timeout time.Duration

	maxRetriesSet bool
	delaySet      bool
	timeoutSet    bool
}

// WithMaxRetries overrides the number of retries after the first attempt.
func WithMaxRetries(n int) CallOption {
	return func(s *callSettings) {
		s.retry.MaxRetries = n
		s.maxRetriesSet = true
	}
}

// WithDelay overrides the base backoff delay.
func WithDelay(d time.Duration) CallOption {
	return func(s *callSettings) {
		s.retry.Delay = d
		s.delaySet = true
	}
}

// WithBackoff switches exponential backoff on or off.
func WithBackoff(enabled bool) CallOption {
	return func(s *callSettings) { s.retry.Backoff = enabled }
}

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(d time.Duration) CallOption {
	return func(s *callSettings) {
		s.timeout = d
		s.timeoutSet = true
	}
}

func (c *Client) settings(opts []CallOption) callSettings {
	s := callSettings{retry: c.retry, timeout: c.timeout}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Do dispatches req with retries and returns the raw 2xx body.
func (c *Client) Do(ctx context.Context, req Request, opts ...CallOption) (json.RawMessage, error) {
	s := c.settings(opts)
	if req.Timeout <= 0 {
		req.Timeout = s.timeout
	}
	return Retry(ctx, c.retrier, s.retry, func(ctx context.Context) (json.RawMessage, error) {
		return c.dispatch(ctx, req)
	})
}

// dispatch performs exactly one attempt. Offline short-circuits without
// touching the network.
func (c *Client) dispatch(ctx context.Context, req Request) (json.RawMessage, error) {
	if !c.conn.Online() {
		return nil, newError(CodeNetwork, 0, "", nil, nil)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := req.URL(c.baseURL)

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, method, target, body)
	if err != nil {
		return nil, newError(CodeUnknown, 0, fmt.Sprintf("build request: %v", err), nil, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		classified := ClassifyTransport(err, c.conn.Online())
		slog.Debug("api request failed", "method", method, "url", target, "code", classified.Code, "error", err)
		return nil, classified
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, ClassifyTransport(err, c.conn.Online())
	}
	slog.Debug("api response",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Going offline mid-flight outranks whatever the reply says.
		if !c.conn.Online() {
			return nil, newError(CodeNetwork, 0, "", nil, nil)
		}
		return nil, ClassifyStatus(resp.StatusCode, raw)
	}
	return raw, nil
}
