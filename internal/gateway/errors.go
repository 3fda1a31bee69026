package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"syscall"
)

const (
	CodeTimeout    = "TIMEOUT_ERROR"
	CodeConnection = "CONNECTION_ERROR"
	CodeInternal   = "INTERNAL_ERROR"
)

// ForwardError is a failed forward mapped to the gateway's fixed error
// envelope. The backend's own error body is never part of it.
type ForwardError struct {
	Code    string
	Status  int
	Message string
	Cause   error
}

func (e *ForwardError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *ForwardError) Unwrap() error { return e.Cause }

func newForwardError(code string, cause error) *ForwardError {
	switch code {
	case CodeTimeout:
		return &ForwardError{Code: code, Status: http.StatusGatewayTimeout, Message: "Request timeout - backend service may be unavailable", Cause: cause}
	case CodeConnection:
		return &ForwardError{Code: code, Status: http.StatusServiceUnavailable, Message: "Unable to connect to backend service", Cause: cause}
	default:
		return &ForwardError{Code: CodeInternal, Status: http.StatusInternalServerError, Message: "Internal server error", Cause: cause}
	}
}

// errBackendStatus marks a non-2xx backend reply.
var errBackendStatus = errors.New("backend returned non-success status")

// classifyForward maps a forwarding failure to a ForwardError. Order
// matters: timeout, then connection failure, then everything else.
func classifyForward(err error) *ForwardError {
	var fe *ForwardError
	if errors.As(err, &fe) {
		return fe
	}
	if isTimeout(err) {
		return newForwardError(CodeTimeout, err)
	}
	// The inbound client went away; not a backend fault.
	if errors.Is(err, context.Canceled) {
		return newForwardError(CodeInternal, err)
	}
	if isConnectionFailure(err) {
		return newForwardError(CodeConnection, err)
	}
	return newForwardError(CodeInternal, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionFailure(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

type errorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeForwardError(w http.ResponseWriter, fe *ForwardError) {
	writeJSON(w, fe.Status, errorEnvelope{Status: "error", Message: fe.Message, Code: fe.Code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Debug("json response write failed", "error", err)
	}
}
