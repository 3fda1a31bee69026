package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorCode is the stable classification carried by every client error.
type ErrorCode string

const (
	CodeNetwork            ErrorCode = "NETWORK_ERROR"
	CodeTimeout            ErrorCode = "TIMEOUT_ERROR"
	CodeConnection         ErrorCode = "CONNECTION_ERROR"
	CodeBadRequest         ErrorCode = "BAD_REQUEST"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeRequestTimeout     ErrorCode = "REQUEST_TIMEOUT"
	CodeRateLimited        ErrorCode = "RATE_LIMITED"
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
	CodeBadGateway         ErrorCode = "BAD_GATEWAY"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	CodeUnknown            ErrorCode = "UNKNOWN_ERROR"

	// CodeValidation never comes out of the classifier. Form validation done
	// before a request is sent uses it so notifiers can stay silent.
	CodeValidation ErrorCode = "VALIDATION_ERROR"
)

var defaultMessages = map[ErrorCode]string{
	CodeNetwork:            "No internet connection. Please check your network and try again.",
	CodeTimeout:            "Request timed out. Please try again.",
	CodeConnection:         "Unable to connect to the server. Please check your internet connection.",
	CodeBadRequest:         "Invalid request. Please check your input.",
	CodeUnauthorized:       "Authentication required. Please log in.",
	CodeForbidden:          "Access denied. You don't have permission to perform this action.",
	CodeNotFound:           "The requested resource was not found.",
	CodeRequestTimeout:     "Request timed out. Please try again.",
	CodeRateLimited:        "Too many requests. Please wait a moment and try again.",
	CodeInternal:           "Internal server error. Please try again later.",
	CodeBadGateway:         "Service temporarily unavailable. Please try again.",
	CodeServiceUnavailable: "Service temporarily unavailable. Please try again later.",
	CodeUnknown:            "An unexpected error occurred. Please try again.",
	CodeValidation:         "Please correct the highlighted fields.",
}

var statusCodes = map[int]ErrorCode{
	http.StatusBadRequest:          CodeBadRequest,
	http.StatusUnauthorized:        CodeUnauthorized,
	http.StatusForbidden:           CodeForbidden,
	http.StatusNotFound:            CodeNotFound,
	http.StatusRequestTimeout:      CodeRequestTimeout,
	http.StatusTooManyRequests:     CodeRateLimited,
	http.StatusInternalServerError: CodeInternal,
	http.StatusBadGateway:          CodeBadGateway,
	http.StatusServiceUnavailable:  CodeServiceUnavailable,
}

// Error is the classified form of every failed call. It is built once per
// failed attempt and not modified afterwards.
type Error struct {
	Code           ErrorCode
	Status         int
	Message        string
	IsNetworkError bool
	IsRetryable    bool
	Errors         map[string][]string
	Cause          error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether code (and, for UNKNOWN_ERROR, status) allows
// another attempt.
func Retryable(code ErrorCode, status int) bool {
	switch code {
	case CodeNetwork, CodeTimeout, CodeConnection,
		CodeRequestTimeout, CodeRateLimited, CodeInternal, CodeBadGateway, CodeServiceUnavailable:
		return true
	case CodeUnknown:
		return status >= 500
	default:
		return false
	}
}

func isNetworkCode(code ErrorCode) bool {
	return code == CodeNetwork || code == CodeTimeout || code == CodeConnection
}

func newError(code ErrorCode, status int, message string, fieldErrs map[string][]string, cause error) *Error {
	if message == "" {
		message = defaultMessages[code]
	}
	return &Error{
		Code:           code,
		Status:         status,
		Message:        message,
		IsNetworkError: isNetworkCode(code),
		IsRetryable:    Retryable(code, status),
		Errors:         fieldErrs,
		Cause:          cause,
	}
}

// NewValidationError wraps locally detected field errors.
func NewValidationError(fieldErrs map[string][]string) *Error {
	return newError(CodeValidation, 0, "", fieldErrs, nil)
}

// ClassifyTransport turns an error returned by http.Client.Do (no response
// received) into a classified error. online is the connectivity state at the
// time of the failure.
func ClassifyTransport(err error, online bool) *Error {
	if !online {
		return newError(CodeNetwork, 0, "", nil, err)
	}
	if isTimeout(err) {
		return newError(CodeTimeout, 0, "", nil, err)
	}
	if errors.Is(err, context.Canceled) {
		return newError(CodeUnknown, 0, "request canceled", nil, err)
	}
	return newError(CodeConnection, 0, "", nil, err)
}

// ClassifyStatus turns a non-2xx response into a classified error. body may
// be empty or non-JSON.
func ClassifyStatus(status int, body []byte) *Error {
	payload := parseErrorBody(body)

	code, known := statusCodes[status]
	if !known {
		return newError(CodeUnknown, status, "", nil, nil)
	}
	switch code {
	case CodeBadRequest:
		return newError(code, status, payload.Message, payload.fieldErrors(), nil)
	case CodeNotFound:
		return newError(code, status, payload.Message, nil, nil)
	default:
		return newError(code, status, "", nil, nil)
	}
}

// AsError returns err as a classified error. Errors that did not come out of
// the classifier become non-retryable UNKNOWN_ERROR values.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	return newError(CodeUnknown, 0, err.Error(), nil, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type errorBody struct {
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Errors  map[string]any `json:"errors"`
}

func parseErrorBody(body []byte) errorBody {
	var payload errorBody
	if len(body) == 0 {
		return payload
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return errorBody{}
	}
	return payload
}

// fieldErrors accepts both {"field": ["msg"]} and {"field": "msg"}.
func (b errorBody) fieldErrors() map[string][]string {
	if len(b.Errors) == 0 {
		return nil
	}
	out := make(map[string][]string, len(b.Errors))
	for field, raw := range b.Errors {
		switch v := raw.(type) {
		case string:
			out[field] = []string{v}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					out[field] = append(out[field], s)
				}
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
