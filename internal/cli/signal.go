package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

var errUnhealthy = errors.New("gateway is not healthy")

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
