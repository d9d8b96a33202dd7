package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func recv(t *testing.T, ch <-chan State) State {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed")
		}
		return s
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for state")
	}
	return State{}
}

func TestSubscribeReceivesCurrentThenUpdates(t *testing.T) {
	h := startHub(t)
	started := "2026-01-01T10:00:00Z"
	if n := h.Publish(Update{IsActive: true, StartedAt: &started}); n != 0 {
		t.Fatalf("expected 0 subscribers, got %d", n)
	}

	cur, updates, unsubscribe, ok := h.Subscribe()
	if !ok {
		t.Fatalf("hub not running")
	}
	defer unsubscribe()
	if !cur.IsActive || cur.StartedAt == nil || *cur.StartedAt != started || cur.LastUpdated == nil {
		t.Fatalf("unexpected current state: %+v", cur)
	}

	if n := h.Publish(Update{IsActive: false}); n != 1 {
		t.Fatalf("expected 1 subscriber, got %d", n)
	}
	if s := recv(t, updates); s.IsActive || s.StartedAt != nil {
		t.Fatalf("unexpected update: %+v", s)
	}
	if h.Snapshot().IsActive {
		t.Fatalf("snapshot not updated")
	}
}

func TestSlowSubscriberSeesLatestState(t *testing.T) {
	h := startHub(t)
	_, updates, unsubscribe, _ := h.Subscribe()
	defer unsubscribe()

	for i := 0; i < 10; i++ {
		h.Publish(Update{IsActive: i%2 == 0})
	}
	// last publish was i=9, inactive
	if s := recv(t, updates); s.IsActive {
		t.Fatalf("expected latest (inactive) state, got %+v", s)
	}
	select {
	case s := <-updates:
		t.Fatalf("unexpected extra state %+v", s)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := startHub(t)
	_, updates, unsubscribe, _ := h.Subscribe()
	unsubscribe()
	select {
	case _, ok := <-updates:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed")
	}
	if n := h.Publish(Update{IsActive: true}); n != 0 {
		t.Fatalf("expected 0 subscribers after unsubscribe, got %d", n)
	}
	unsubscribe() // second call is harmless
}

func TestConcurrentPublishersAndSubscribers(t *testing.T) {
	h := startHub(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, updates, unsubscribe, _ := h.Subscribe()
			defer unsubscribe()
			select {
			case <-updates:
			case <-time.After(50 * time.Millisecond):
			}
		}()
		go func(i int) {
			defer wg.Done()
			h.Publish(Update{IsActive: i%2 == 0})
		}(i)
	}
	wg.Wait()
	if n := h.Publish(Update{}); n != 0 {
		t.Fatalf("leaked %d subscribers", n)
	}
}

func TestStoppedHubDoesNotBlock(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() { h.Run(ctx); close(stopped) }()
	_, updates, _, _ := h.Subscribe()
	cancel()
	<-stopped

	if _, ok := <-updates; ok {
		t.Fatalf("subscriber channel left open")
	}
	if _, _, _, ok := h.Subscribe(); ok {
		t.Fatalf("Subscribe succeeded on a stopped hub")
	}
	_ = h.Publish(Update{IsActive: true})
	_ = h.Snapshot()
}
