package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dgnsrekt/site_gateway/internal/rewrite"
)

const maxForwardBody = 10 << 20

// Forwarder relays /api/* calls to the backend and rewrites media URLs in
// the JSON it gets back.
type Forwarder struct {
	backend  string
	prefix   string
	client   *http.Client
	timeout  time.Duration
	rewriter *rewrite.Rewriter
	metrics  *Metrics
}

// backendURL builds the upstream URL. GET gets a trailing slash before the
// query; POST does not.
func (f *Forwarder) backendURL(method, rest, rawQuery string) string {
	rest = strings.Trim(rest, "/")

	var b strings.Builder
	b.WriteString(f.backend)
	b.WriteByte('/')
	b.WriteString(rest)
	if method == http.MethodGet && rest != "" {
		b.WriteByte('/')
	}
	if rawQuery != "" {
		b.WriteByte('?')
		b.WriteString(rawQuery)
	}
	return b.String()
}

// wildcard returns the escaped path after the mount prefix, so the
// backend sees the segments exactly as the browser sent them.
func (f *Forwarder) wildcard(r *http.Request) string {
	return strings.TrimPrefix(r.URL.EscapedPath(), f.prefix)
}

func (f *Forwarder) handleGet(w http.ResponseWriter, r *http.Request) {
	f.serve(w, r, nil)
}

func (f *Forwarder) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxForwardBody))
	if err != nil {
		f.fail(w, r.Method, time.Now(), fmt.Errorf("read request body: %w", err))
		return
	}
	f.serve(w, r, body)
}

func (f *Forwarder) serve(w http.ResponseWriter, r *http.Request, body []byte) {
	start := time.Now()
	target := f.backendURL(r.Method, f.wildcard(r), r.URL.RawQuery)
	slog.Info("proxying request", "method", r.Method, "url", target)

	doc, err := f.forward(r.Context(), r.Method, target, body)
	if err != nil {
		f.fail(w, r.Method, start, err)
		return
	}
	f.metrics.observeForward(r.Method, "OK", time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, f.rewriter.Rewrite(doc))
}

func (f *Forwarder) fail(w http.ResponseWriter, method string, start time.Time, err error) {
	fe := classifyForward(err)
	slog.Error("api proxy error", "method", method, "code", fe.Code, "status", fe.Status, "error", err)
	f.metrics.observeForward(method, fe.Code, time.Since(start).Seconds())
	writeForwardError(w, fe)
}

// forward performs one upstream call within the forward timeout and
// decodes the JSON reply with numbers kept as json.Number.
func (f *Forwarder) forward(ctx context.Context, method, target string, body []byte) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxForwardBody))
		return nil, fmt.Errorf("%w: %d", errBackendStatus, resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode backend response: empty body")
		}
		return nil, fmt.Errorf("decode backend response: %w", err)
	}
	return doc, nil
}
