package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"DEBUG": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v; want %v", in, got, want)
		}
	}
}

func TestSetupWritesConsoleAndFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	t.Setenv("NO_COLOR", "1")

	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "gateway.log")

	closer, err := Setup("info", file, &console)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	slog.Debug("hidden detail")
	slog.Info("gateway listening", "addr", "127.0.0.1:3000")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !strings.Contains(console.String(), "gateway listening") {
		t.Fatalf("console = %q; want record", console.String())
	}
	if strings.Contains(console.String(), "hidden detail") {
		t.Fatalf("console = %q; debug record leaked", console.String())
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if got := string(raw); !strings.Contains(got, "msg=\"gateway listening\"") || !strings.Contains(got, "addr=127.0.0.1:3000") {
		t.Fatalf("log file = %q; want text record", got)
	}
}

func TestSetupWithoutFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	t.Setenv("NO_COLOR", "1")

	var console bytes.Buffer
	closer, err := Setup("debug", "", &console)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer func() { _ = closer.Close() }()

	slog.With("component", "probe").Debug("tick")
	if got := console.String(); !strings.Contains(got, "tick") || !strings.Contains(got, "component=probe") {
		t.Fatalf("console = %q; want debug record with attrs", got)
	}
}

func TestFanoutEnabledIfAnyHandlerIs(t *testing.T) {
	var a, b bytes.Buffer
	f := fanout{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}
	if !f.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("Enabled(debug) = false; want true")
	}

	slog.New(f).Info("only b")
	if a.Len() != 0 {
		t.Fatalf("error-level handler got %q", a.String())
	}
	if !strings.Contains(b.String(), "only b") {
		t.Fatalf("debug-level handler got %q", b.String())
	}
}
