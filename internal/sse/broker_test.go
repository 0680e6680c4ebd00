package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// drain collects whatever is buffered on ch after a short settle.
func drain(ch chan []byte) []string {
	time.Sleep(50 * time.Millisecond)
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func countContaining(msgs []string, sub string) int {
	n := 0
	for _, m := range msgs {
		if strings.Contains(m, sub) {
			n++
		}
	}
	return n
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	all := b.Subscribe("")
	one := b.Subscribe("lumen")
	if got := b.ClientCount(); got != 2 {
		t.Fatalf("clients = %d, want 2", got)
	}
	b.Unsubscribe(all)
	b.Unsubscribe(one)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe("")
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "project.created", Data: ProjectEvent{Slug: "lumen"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.HasPrefix(s, "id: 1\nevent: project.created\n") {
			t.Errorf("frame header wrong in %q", s)
		}
		if !strings.Contains(s, `data: {"slug":"lumen"}`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishProjectEvent_IndexThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe("")
	defer b.Unsubscribe(ch)

	b.PublishProjectEvent(KindCreated, ProjectEvent{Slug: "a"})
	b.PublishProjectEvent(KindUpdated, ProjectEvent{Slug: "b", Checksum: "c1"})
	// Unknown kinds are dropped entirely.
	b.PublishProjectEvent("renamed", ProjectEvent{Slug: "c"})

	msgs := drain(ch)
	if got := countContaining(msgs, "event: project."); got != 2 {
		t.Errorf("project events = %d, want 2", got)
	}
	if got := countContaining(msgs, "event: index.updated"); got != 1 {
		t.Errorf("index events = %d, want 1 (throttled)", got)
	}
	if got := countContaining(msgs, `"checksum":"c1"`); got != 1 {
		t.Errorf("checksum missing from update in %q", msgs)
	}
}

func TestSubscribe_FollowsOneProject(t *testing.T) {
	b := NewBroker(time.Millisecond)
	defer b.Close()
	all := b.Subscribe("")
	defer b.Unsubscribe(all)
	lumen := b.Subscribe("lumen")
	defer b.Unsubscribe(lumen)

	b.PublishProjectEvent(KindUpdated, ProjectEvent{Slug: "lumen"})
	time.Sleep(5 * time.Millisecond)
	b.PublishProjectEvent(KindUpdated, ProjectEvent{Slug: "other"})
	b.Publish(Event{Type: "notice", Data: map[string]string{}})

	got := drain(lumen)
	if len(got) != 2 || !strings.Contains(got[0], `"slug":"lumen"`) || !strings.Contains(got[1], "event: notice") {
		t.Errorf("filtered client got %q", got)
	}
	if n := countContaining(got, "index.updated"); n != 0 {
		t.Errorf("filtered client received %d index events", n)
	}

	if n := countContaining(drain(all), "event: project.updated"); n != 2 {
		t.Errorf("unfiltered client got %d project events, want 2", n)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100*time.Millisecond, WithHeartbeat(0))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events?slug=x", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishProjectEvent(KindUpdated, ProjectEvent{Slug: "y"})
	b.PublishProjectEvent(KindUpdated, ProjectEvent{Slug: "x"})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.HasPrefix(body, "retry: 3000\n\n") {
		t.Errorf("missing retry preamble: %q", body)
	}
	if !strings.Contains(body, `"slug":"x"`) || strings.Contains(body, `"slug":"y"`) {
		t.Errorf("handler did not filter by slug: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content-type = %q", ct)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestSSEHandler_Heartbeat(t *testing.T) {
	b := NewBroker(time.Second, WithHeartbeat(10*time.Millisecond))
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	w := httptest.NewRecorder()
	b.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx))

	if !strings.Contains(w.Body.String(), ": ping\n\n") {
		t.Errorf("no heartbeat in %q", w.Body.String())
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe("")
	defer b.Unsubscribe(ch)

	// Buffer holds 64; the rest must be dropped without blocking.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	if got := len(drain(ch)); got != 64 {
		t.Errorf("buffered = %d, want 64", got)
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe("")
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}
	if late := b.Subscribe("x"); late != nil {
		if _, ok := <-late; ok {
			t.Error("subscribe after close should return a closed channel")
		}
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "project.updated", Data: ProjectEvent{Slug: "x"}})
	b.PublishProjectEvent(KindUpdated, ProjectEvent{Slug: "x"})
}
