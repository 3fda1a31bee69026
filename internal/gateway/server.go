// Package gateway is the HTTP layer between the browser and the backend
// API: JSON forwarding with media URL rewriting, media streaming, the
// contact relay, health, metrics and API docs.
package gateway

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgnsrekt/site_gateway/internal/rewrite"
)

// Options wires the gateway to its backend and collaborators.
type Options struct {
	BackendURL      string
	BackendMediaURL string
	ForwardTimeout  time.Duration
	MediaTimeout    time.Duration

	// Rewriter maps backend media URLs in JSON bodies. MediaPrefix is both
	// its replacement prefix and the mount point of the media route.
	Rewriter    *rewrite.Rewriter
	MediaPrefix string

	CORSOrigin string
	Audit      AuditWriter

	// Registry receives the gateway metrics and backs /metrics. A fresh
	// registry is used when nil.
	Registry *prometheus.Registry

	HTTPClient *http.Client
	Now        func() time.Time
}

func (o *Options) defaults() {
	if o.ForwardTimeout <= 0 {
		o.ForwardTimeout = 30 * time.Second
	}
	if o.MediaTimeout <= 0 {
		o.MediaTimeout = 10 * time.Second
	}
	if o.MediaPrefix == "" {
		o.MediaPrefix = "/api/media/"
	}
	if o.Rewriter == nil {
		o.Rewriter = rewrite.New(nil, o.MediaPrefix)
	}
	if o.CORSOrigin == "" {
		o.CORSOrigin = "*"
	}
	if o.Registry == nil {
		o.Registry = prometheus.NewRegistry()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	o.BackendURL = strings.TrimRight(o.BackendURL, "/")
	o.BackendMediaURL = strings.TrimRight(o.BackendMediaURL, "/")
}

// NewServer builds the gateway handler.
func NewServer(opts Options) http.Handler {
	opts.defaults()
	metrics := NewMetrics(opts.Registry)

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Site Gateway API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})
	router.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))

	registerHealthHandlers(api, opts.Now)

	media := &mediaProxy{
		backend: opts.BackendMediaURL,
		prefix:  opts.MediaPrefix,
		client:  opts.HTTPClient,
		timeout: opts.MediaTimeout,
		metrics: metrics,
	}
	router.Get(opts.MediaPrefix+"*", media.ServeHTTP)

	fwd := &Forwarder{
		backend:  opts.BackendURL,
		prefix:   "/api/",
		client:   opts.HTTPClient,
		timeout:  opts.ForwardTimeout,
		rewriter: opts.Rewriter,
		metrics:  metrics,
	}
	router.Get("/api/*", fwd.handleGet)
	router.Post("/api/*", fwd.handlePost)

	contact := &contactRelay{
		backend:    opts.BackendURL,
		client:     opts.HTTPClient,
		timeout:    opts.ForwardTimeout,
		corsOrigin: opts.CORSOrigin,
		audit:      opts.Audit,
		metrics:    metrics,
	}
	// Catch-all first; the POST and OPTIONS registrations replace it for
	// those methods.
	router.HandleFunc("/forms/contact", contact.handleMethodNotAllowed)
	router.Post("/forms/contact", contact.handlePost)
	router.Options("/forms/contact", contact.handleOptions)

	return router
}
