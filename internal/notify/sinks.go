package notify

import (
	"context"
	"log/slog"
	"net/http"
)

// LogSink writes toasts to the default slog logger.
type LogSink struct{}

func (LogSink) Deliver(_ context.Context, t Toast) error {
	level := slog.LevelInfo
	switch t.Kind {
	case KindError:
		level = slog.LevelError
	case KindWarning:
		level = slog.LevelWarn
	}
	attrs := []any{"id", t.ID, "kind", t.Kind, "message", t.Message}
	if t.Action != nil {
		attrs = append(attrs, "action", t.Action.Label)
	}
	slog.Log(context.Background(), level, t.Title, attrs...)
	return nil
}

// NtfySink pushes toasts to an ntfy topic.
type NtfySink struct {
	Endpoint string
	Client   *http.Client
}

func (s NtfySink) Deliver(ctx context.Context, t Toast) error {
	h := http.Header{}
	h.Set("Title", t.Title)
	h.Set("Tags", ntfyTag(t.Kind))
	if t.Duration == 0 {
		h.Set("Priority", "high")
	}
	msg := t.Message
	if msg == "" {
		msg = t.Title
	}
	return Send(ctx, s.Client, s.Endpoint, msg, h)
}

func ntfyTag(k Kind) string {
	switch k {
	case KindSuccess:
		return "white_check_mark"
	case KindError:
		return "rotating_light"
	case KindWarning:
		return "warning"
	default:
		return "information_source"
	}
}

// MultiSink delivers to every sink and returns the first error.
type MultiSink []Sink

func (m MultiSink) Deliver(ctx context.Context, t Toast) error {
	var first error
	for _, s := range m {
		if err := s.Deliver(ctx, t); err != nil && first == nil {
			first = err
		}
	}
	return first
}
