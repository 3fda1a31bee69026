package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dgnsrekt/site_gateway/internal/apiclient"
)

// Kind is the severity of a Toast.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// RetryEvent is the event name carried by the Retry action.
const RetryEvent = "retry-last-action"

// Action is an optional button attached to a Toast.
type Action struct {
	Label string `json:"label"`
	Event string `json:"event"`
}

// Toast is one user-facing notification. A zero Duration means it stays
// until dismissed.
type Toast struct {
	ID       string        `json:"id"`
	Kind     Kind          `json:"type"`
	Title    string        `json:"title"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
	Action   *Action       `json:"action,omitempty"`
}

// Sink delivers toasts somewhere a person will see them.
type Sink interface {
	Deliver(ctx context.Context, t Toast) error
}

// Notifier maps errors and connectivity changes to toasts.
type Notifier struct {
	sink  Sink
	debug bool
	newID func() string
}

type Option func(*Notifier)

// WithDebug enables toasts for unexpected (non-API) errors.
func WithDebug(debug bool) Option {
	return func(n *Notifier) { n.debug = debug }
}

// WithIDGenerator replaces the uuid-based toast IDs.
func WithIDGenerator(fn func() string) Option {
	return func(n *Notifier) { n.newID = fn }
}

// New creates a Notifier delivering to sink.
func New(sink Sink, opts ...Option) *Notifier {
	n := &Notifier{sink: sink, newID: uuid.NewString}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// HandleAPIError reports a failed client call. NOT_FOUND and
// VALIDATION_ERROR are left to the caller and produce nothing. The emitted
// toast is returned, or nil when nothing was sent.
func (n *Notifier) HandleAPIError(ctx context.Context, err error, label string) *Toast {
	apiErr := apiclient.AsError(err)
	if apiErr == nil {
		return nil
	}
	slog.Error("api error", "code", apiErr.Code, "status", apiErr.Status, "context", label, "error", err)

	if apiErr.Code == apiclient.CodeNotFound || apiErr.Code == apiclient.CodeValidation {
		return nil
	}

	t := Toast{Kind: KindError, Title: "Error", Message: apiErr.Message}
	switch apiErr.Code {
	case apiclient.CodeNetwork, apiclient.CodeConnection:
		t.Title = "Connection Problem"
		t.Kind = KindWarning
	case apiclient.CodeTimeout:
		t.Title = "Request Timeout"
		t.Message = "The request took too long. Please try again."
	case apiclient.CodeRateLimited:
		t.Title = "Too Many Requests"
		t.Kind = KindWarning
	case apiclient.CodeInternal, apiclient.CodeBadGateway, apiclient.CodeServiceUnavailable:
		t.Title = "Server Error"
		t.Message = "We're experiencing technical difficulties. Please try again later."
	default:
		if label != "" {
			t.Title = label + " Error"
		}
	}

	if apiErr.IsRetryable {
		t.Action = &Action{Label: "Retry", Event: RetryEvent}
	} else {
		t.Duration = 5 * time.Second
	}
	return n.emit(ctx, t)
}

// HandleUnexpectedError reports a programming or runtime error. Outside
// debug mode it is only logged.
func (n *Notifier) HandleUnexpectedError(ctx context.Context, err error) *Toast {
	slog.Error("unexpected error", "error", err)
	if !n.debug {
		return nil
	}
	return n.emit(ctx, Toast{
		Kind:    KindError,
		Title:   "Application Error",
		Message: "An unexpected error occurred. Check the logs for details.",
	})
}

// HandleNetworkChange reports a connectivity transition.
func (n *Notifier) HandleNetworkChange(ctx context.Context, online bool) *Toast {
	if online {
		return n.emit(ctx, Toast{
			Kind:     KindSuccess,
			Title:    "Connection Restored",
			Message:  "You are back online",
			Duration: 3 * time.Second,
		})
	}
	return n.emit(ctx, Toast{
		Kind:    KindWarning,
		Title:   "No Internet Connection",
		Message: "Some features may not work properly",
	})
}

// HandleValidationError lists field errors in one toast, one "field: msgs"
// line per field in name order.
func (n *Notifier) HandleValidationError(ctx context.Context, fieldErrs map[string][]string, label string) *Toast {
	if label == "" {
		label = "Form"
	}
	fields := make([]string, 0, len(fieldErrs))
	for f := range fieldErrs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, fmt.Sprintf("%s: %s", f, strings.Join(fieldErrs[f], ", ")))
	}
	return n.emit(ctx, Toast{
		Kind:     KindError,
		Title:    label + " Validation Error",
		Message:  strings.Join(lines, "\n"),
		Duration: 8 * time.Second,
	})
}

func (n *Notifier) emit(ctx context.Context, t Toast) *Toast {
	t.ID = n.newID()
	if n.sink != nil {
		if err := n.sink.Deliver(ctx, t); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("notification delivery failed", "title", t.Title, "error", err)
		}
	}
	return &t
}
