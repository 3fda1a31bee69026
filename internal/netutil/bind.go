// Package netutil picks the address the gateway listens on.
package netutil

import (
	"errors"
	"fmt"
	"net"
)

// ErrNoAddress is returned when neither the preferred address nor any
// fallback can be bound.
var ErrNoAddress = errors.New("no available gateway bind addresses")

// Listen binds preferred, or the first free candidate when autoFallback is
// set. The returned listener is already bound, so the chosen port cannot be
// taken between selection and serve.
func Listen(preferred string, candidates []string, autoFallback bool) (net.Listener, error) {
	if preferred != "" {
		ln, err := net.Listen("tcp", preferred)
		if err == nil {
			return ln, nil
		}
		if !autoFallback {
			return nil, fmt.Errorf("preferred bind address in use: %s: %w", preferred, err)
		}
	}

	for _, addr := range candidates {
		if addr == preferred {
			continue
		}
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, nil
		}
	}

	return nil, ErrNoAddress
}

// IsAddrAvailable returns true when an address can be listened on.
func IsAddrAvailable(addr string) (bool, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return false, nil
	}
	if closeErr := ln.Close(); closeErr != nil {
		return false, closeErr
	}
	return true, nil
}
