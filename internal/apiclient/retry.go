package apiclient

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const maxBackoffShift = 20

// RetryConfig controls how many times an operation is retried and how long
// to wait in between.
type RetryConfig struct {
	MaxRetries int
	Delay      time.Duration
	Backoff    bool
}

// DefaultRetryConfig returns 3 retries, 1s base delay, exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, Delay: time.Second, Backoff: true}
}

// delayFor returns the wait after the given 0-based attempt.
func (c RetryConfig) delayFor(attempt int) time.Duration {
	if !c.Backoff {
		return c.Delay
	}
	shift := attempt
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return c.Delay * time.Duration(1<<shift)
}

// SleepFunc waits for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-timer SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retrier carries the collaborators the retry loop consults between
// attempts.
type Retrier struct {
	conn  Connectivity
	sleep SleepFunc
}

// NewRetrier returns a Retrier. Nil arguments fall back to AlwaysOnline and
// Sleep.
func NewRetrier(conn Connectivity, sleep SleepFunc) *Retrier {
	if conn == nil {
		conn = AlwaysOnline
	}
	if sleep == nil {
		sleep = Sleep
	}
	return &Retrier{conn: conn, sleep: sleep}
}

// Retry runs op up to cfg.MaxRetries+1 times. Every error it returns is an
// *Error.
//
// Attempts stop early when the error is not retryable, when the client
// reports itself offline (NETWORK_ERROR is returned without waiting), or
// when ctx ends during a backoff wait.
func Retry[T any](ctx context.Context, r *Retrier, cfg RetryConfig, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	var last *Error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		last = AsError(err)

		if !shouldRetry(last) {
			return zero, last
		}
		if !r.conn.Online() {
			if last.Code == CodeNetwork {
				return zero, last
			}
			return zero, newError(CodeNetwork, 0, "", nil, last)
		}
		if attempt == cfg.MaxRetries {
			break
		}

		wait := cfg.delayFor(attempt)
		slog.Info("request failed, retrying",
			"code", last.Code,
			"status", last.Status,
			"attempt", attempt+1,
			"max_attempts", cfg.MaxRetries+1,
			"delay_ms", wait.Milliseconds(),
		)
		if err := r.sleep(ctx, wait); err != nil {
			return zero, newError(CodeUnknown, 0, "request canceled", nil, err)
		}
	}
	return zero, last
}

// shouldRetry applies the classifier's verdict and additionally refuses any
// 4xx other than 408, 429 and 504.
func shouldRetry(e *Error) bool {
	if !e.IsRetryable {
		return false
	}
	if e.Status >= 400 && e.Status < 500 {
		switch e.Status {
		case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusGatewayTimeout:
		default:
			return false
		}
	}
	return true
}
