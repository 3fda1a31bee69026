package apiclient

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestMonitorPublishesTransitionsOnly(t *testing.T) {
	m := NewMonitor(true)
	id, ch := m.Subscribe()
	defer m.Unsubscribe(id)

	if m.SetOnline(true) {
		t.Fatal("SetOnline(true) on an online monitor reported a change")
	}
	if !m.SetOnline(false) {
		t.Fatal("SetOnline(false) did not report a change")
	}
	if m.Online() {
		t.Fatal("Online() = true after SetOnline(false)")
	}

	select {
	case got := <-ch:
		if got {
			t.Fatal("received online=true; want false")
		}
	default:
		t.Fatal("no transition delivered")
	}
	select {
	case got := <-ch:
		t.Fatalf("unexpected extra transition %v", got)
	default:
	}
}

func TestMonitorUnsubscribeClosesChannel(t *testing.T) {
	m := NewMonitor(false)
	id, ch := m.Subscribe()
	m.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Fatal("channel still open after Unsubscribe")
	}
	m.SetOnline(true)
}

func TestMonitorProbe(t *testing.T) {
	m := NewMonitor(true)
	id, ch := m.Subscribe()
	defer m.Unsubscribe(id)

	ctx, cancel := context.WithCancel(context.Background())
	var checks atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- m.Probe(ctx, 5*time.Millisecond, func(context.Context) bool {
			checks.Add(1)
			return false
		})
	}()

	select {
	case got := <-ch:
		if got {
			t.Fatal("probe reported online; want offline")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("probe did not publish a transition")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Probe() error = %v; want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Probe() did not stop after cancel")
	}
	if checks.Load() < 1 {
		t.Fatal("check never ran")
	}
}

func TestRetrierUsesMonitor(t *testing.T) {
	m := NewMonitor(true)
	sleeper := &sleepRecorder{}
	r := NewRetrier(m, sleeper.sleep)

	calls := 0
	op := func(context.Context) (int, error) {
		calls++
		m.SetOnline(false)
		return 0, ClassifyStatus(503, nil)
	}
	_, err := Retry(context.Background(), r, DefaultRetryConfig(), op)
	if got := AsError(err).Code; got != CodeNetwork {
		t.Fatalf("code = %s; want %s", got, CodeNetwork)
	}
	if calls != 1 {
		t.Fatalf("calls = %d; want 1", calls)
	}
}
