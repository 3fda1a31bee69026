package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dgnsrekt/site_gateway/internal/config"
	"github.com/dgnsrekt/site_gateway/internal/gateway"
	"github.com/dgnsrekt/site_gateway/internal/logging"
	"github.com/dgnsrekt/site_gateway/internal/netutil"
	"github.com/dgnsrekt/site_gateway/internal/rewrite"
	"github.com/dgnsrekt/site_gateway/internal/storage"
)

func main() {
	cfg, err := config.LoadGateway()
	if err != nil {
		slog.Error("failed to load gateway config", "error", err)
		os.Exit(1)
	}

	logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogFile, os.Stdout)
	if err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}
	defer func() { _ = logCloser.Close() }()

	slog.Info("gateway config loaded",
		"bind_addr", cfg.BindAddr,
		"backend_url", cfg.BackendURL,
		"backend_media_url", cfg.BackendMediaURL,
		"forward_timeout_ms", cfg.ForwardTimeoutMS,
		"media_timeout_ms", cfg.MediaTimeoutMS,
		"media_origins", cfg.MediaOrigins,
		"media_prefix", cfg.MediaPrefix,
		"contact_audit_dir", cfg.ContactAuditDir,
		"port_auto_fallback", cfg.PortAutoFallback,
		"port_candidates", cfg.PortCandidates,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	ln, err := netutil.Listen(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to bind gateway address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}
	bindAddr := ln.Addr().String()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var audit *storage.JSONLWriter
	opts := gateway.Options{
		BackendURL:      cfg.BackendURL,
		BackendMediaURL: cfg.BackendMediaURL,
		ForwardTimeout:  cfg.ForwardTimeout(),
		MediaTimeout:    cfg.MediaTimeout(),
		Rewriter:        rewrite.New(cfg.MediaOrigins, cfg.MediaPrefix),
		MediaPrefix:     cfg.MediaPrefix,
		CORSOrigin:      cfg.CORSOrigin,
		Registry:        reg,
	}
	if cfg.ContactAuditDir != "" {
		audit = storage.NewJSONLWriter(cfg.ContactAuditDir, "contact", 256, 25)
		opts.Audit = audit
	}

	srv := &http.Server{
		Handler:           gateway.NewServer(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("gateway listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("gateway server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("gateway shutdown failed", "error", err)
	}
	if audit != nil {
		if err := audit.Close(); err != nil {
			slog.Error("contact audit close failed", "error", err)
		}
	}
}
