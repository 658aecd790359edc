package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "state.updated", Data: map[string]string{"field": "journal"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: state.updated") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"field":"journal"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishTransmissionEvent_DigestThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First event should trigger transmissions.updated.
	b.PublishTransmissionEvent("created", "t1", "The Witness")
	// Second event immediately should NOT trigger another digest.
	b.PublishTransmissionEvent("read", "t1", "The Witness")

	deadline := time.After(time.Second)
	var events []string
	for len(events) < 3 {
		select {
		case msg := <-ch:
			events = append(events, string(msg))
		case <-deadline:
			t.Fatalf("timeout; got %d events", len(events))
		}
	}

	digests := 0
	for _, e := range events {
		if strings.Contains(e, "event: transmissions.updated") {
			digests++
		}
	}
	if digests != 1 {
		t.Errorf("expected 1 throttled digest, got %d in %v", digests, events)
	}

	if !strings.Contains(events[0], "event: transmission.created") {
		t.Errorf("first event = %q, want transmission.created", events[0])
	}
	if !strings.Contains(events[0], `"id":"t1"`) || !strings.Contains(events[0], `"entity":"The Witness"`) {
		t.Errorf("created payload = %q", events[0])
	}
}

func TestPublishClearedEvent(t *testing.T) {
	b := NewBroker(time.Hour) // digest suppressed after the first
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishTransmissionEvent("cleared", "", "")

	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), "event: transmission.cleared") {
			t.Errorf("got %q, want transmission.cleared", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestServeHTTPStreamsEvents(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(rec, req)
		close(done)
	}()

	// Wait for the handler to subscribe, then publish.
	for i := 0; i < 50 && b.ClientCount() == 0; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	b.Publish(Event{Type: "ping", Data: map[string]string{}})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content-type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "event: ping") {
		t.Errorf("body = %q, want ping event", rec.Body.String())
	}
}

func TestCloseIdempotent(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	b.Close()
	b.Close()

	if _, ok := <-ch; ok {
		t.Error("client channel should be closed")
	}
	if b.ClientCount() != 0 {
		t.Error("count after close should be 0")
	}
}
