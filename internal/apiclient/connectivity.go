package apiclient

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const subscriberBufSize = 16

// Connectivity reports whether the network is currently believed to be up.
type Connectivity interface {
	Online() bool
}

// ConnectivityFunc adapts a plain function to Connectivity.
type ConnectivityFunc func() bool

func (f ConnectivityFunc) Online() bool { return f() }

// AlwaysOnline is the Connectivity used when none is configured.
var AlwaysOnline Connectivity = ConnectivityFunc(func() bool { return true })

// Monitor is a Connectivity whose state is pushed in from outside (SetOnline
// or Probe). Transitions are fanned out to subscribers.
type Monitor struct {
	online atomic.Bool

	mu          sync.RWMutex
	subscribers map[int64]chan bool
	nextID      atomic.Int64
}

// NewMonitor creates a Monitor starting in the given state.
func NewMonitor(initial bool) *Monitor {
	m := &Monitor{subscribers: make(map[int64]chan bool)}
	m.online.Store(initial)
	return m
}

func (m *Monitor) Online() bool { return m.online.Load() }

// SetOnline records the new state and reports whether it changed. Only
// changes are published.
func (m *Monitor) SetOnline(online bool) bool {
	if !m.online.CompareAndSwap(!online, online) {
		return false
	}
	if online {
		slog.Info("network connection restored")
	} else {
		slog.Warn("network connection lost")
	}
	m.publish(online)
	return true
}

// Subscribe registers for state transitions. The channel is buffered; a slow
// consumer misses transitions rather than blocking SetOnline.
func (m *Monitor) Subscribe() (int64, <-chan bool) {
	id := m.nextID.Add(1)
	ch := make(chan bool, subscriberBufSize)
	m.mu.Lock()
	m.subscribers[id] = ch
	m.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (m *Monitor) Unsubscribe(id int64) {
	m.mu.Lock()
	ch, ok := m.subscribers[id]
	if ok {
		delete(m.subscribers, id)
		close(ch)
	}
	m.mu.Unlock()
}

func (m *Monitor) publish(online bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.subscribers {
		select {
		case ch <- online:
		default:
		}
	}
}

// Probe runs check immediately and then every interval, feeding the result
// into SetOnline, until ctx is done. It returns ctx.Err().
func (m *Monitor) Probe(ctx context.Context, interval time.Duration, check func(context.Context) bool) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		online := check(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		m.SetOnline(online)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
