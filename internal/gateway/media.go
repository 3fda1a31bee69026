package gateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const mediaCacheControl = "public, max-age=31536000, immutable"

// mediaProxy streams backend media bytes. Failures are plain text because
// the callers are <img> tags, not the JSON client.
type mediaProxy struct {
	backend string
	prefix  string
	client  *http.Client
	timeout time.Duration
	metrics *Metrics
}

func (m *mediaProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.EscapedPath(), m.prefix)
	target := m.backend + "/" + strings.TrimLeft(rest, "/")
	slog.Info("proxying media request", "url", target)

	ctx, cancel := context.WithTimeout(r.Context(), m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		m.plain(w, http.StatusInternalServerError, "Media proxy error")
		slog.Error("media proxy error", "url", target, "error", err)
		return
	}
	resp, err := m.client.Do(req)
	if err != nil {
		slog.Error("media proxy error", "url", target, "error", err)
		m.plain(w, http.StatusInternalServerError, "Media proxy error")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("backend media responded with error", "url", target, "status", resp.StatusCode)
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		m.plain(w, http.StatusNotFound, "Media not found")
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", mediaCacheControl)
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		w.Header().Set("Content-Length", cl)
	}
	w.WriteHeader(http.StatusOK)
	m.metrics.observeMedia(http.StatusOK)

	if _, err := io.Copy(w, resp.Body); err != nil {
		slog.Warn("media stream interrupted", "url", target, "error", err)
	}
}

func (m *mediaProxy) plain(w http.ResponseWriter, status int, msg string) {
	m.metrics.observeMedia(status)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}
