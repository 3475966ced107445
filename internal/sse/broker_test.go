package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/rollcall/internal/models"
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

	b.publish(Event{Type: EventStudentUpdated, Data: map[string]string{"id": "s1"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: student.updated") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"id":"s1"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

// drain collects every message already queued on ch.
func drain(ch chan []byte) []string {
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

func count(msgs []string, eventType string) int {
	n := 0
	for _, m := range msgs {
		if strings.HasPrefix(m, "event: "+eventType+"\n") {
			n++
		}
	}
	return n
}

func TestPublishRosterEvent_SummaryThrottle(t *testing.T) {
	b := NewBroker(300 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First event sends summary.updated immediately.
	b.PublishRosterEvent(EventStudentUpdated, "s1", 2, models.Summary{Total: 2, Present: 1, Absent: 1})
	// Second event right after is throttled.
	b.PublishRosterEvent(EventStudentUpdated, "s2", 3, models.Summary{Total: 2, Present: 2})

	time.Sleep(50 * time.Millisecond)
	msgs := drain(ch)
	if n := count(msgs, EventStudentUpdated); n != 2 {
		t.Errorf("student events = %d, want 2", n)
	}
	if n := count(msgs, EventSummaryUpdated); n != 1 {
		t.Errorf("summary events = %d, want 1 (throttled)", n)
	}

	// The throttled counts are delivered once the interval passes.
	time.Sleep(400 * time.Millisecond)
	msgs = drain(ch)
	if n := count(msgs, EventSummaryUpdated); n != 1 {
		t.Fatalf("trailing summary events = %d, want 1", n)
	}
	if !strings.Contains(msgs[0], `"present":2`) {
		t.Errorf("trailing summary = %q, want latest counts", msgs[0])
	}
}

func TestPublishRosterEvent_DropsOlderSummary(t *testing.T) {
	b := NewBroker(300 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishRosterEvent(EventStudentUpdated, "s1", 2, models.Summary{Total: 3, Present: 1, Absent: 2})
	// Version 4 is throttled, then version 3 arrives late from a concurrent update.
	b.PublishRosterEvent(EventStudentUpdated, "s3", 4, models.Summary{Total: 3, Present: 2, Absent: 1})
	b.PublishRosterEvent(EventStudentUpdated, "s2", 3, models.Summary{Total: 3, Present: 1, Late: 1, Absent: 1})

	time.Sleep(50 * time.Millisecond)
	msgs := drain(ch)
	if n := count(msgs, EventStudentUpdated); n != 3 {
		t.Errorf("student events = %d, want 3", n)
	}

	time.Sleep(400 * time.Millisecond)
	msgs = drain(ch)
	if n := count(msgs, EventSummaryUpdated); n != 1 {
		t.Fatalf("trailing summary events = %d, want 1", n)
	}
	if !strings.Contains(msgs[0], `"present":2`) || !strings.Contains(msgs[0], `"late":0`) {
		t.Errorf("trailing summary = %q, want counts of version 4", msgs[0])
	}

	// An older reset still announces the newest counts.
	b.PublishRosterEvent(EventRosterReset, "", 1, models.Summary{Total: 9, Absent: 9})
	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), `"present":2`) {
			t.Errorf("reset message = %q, want latest counts", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for reset")
	}
}

func TestPublishRosterEvent_Reset(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishRosterEvent(EventRosterReset, "", 2, models.Summary{Total: 4, Absent: 4})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.HasPrefix(s, "event: roster.reset\n") || !strings.Contains(s, `"total":4`) {
			t.Errorf("reset message = %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for reset")
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
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

	b.publish(Event{Type: EventStudentUpdated, Data: map[string]string{"id": "s1"}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: student.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.publish(Event{Type: EventSummaryUpdated, Data: models.Summary{Total: i}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
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

	// Should be safe no-op after close.
	b.publish(Event{Type: EventStudentUpdated, Data: map[string]string{"id": "s1"}})
	b.PublishRosterEvent(EventStudentUpdated, "s1", 2, models.Summary{})
}
