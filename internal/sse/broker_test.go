package sse

import (
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker()
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

func TestPublishCommit(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishCommit("abc123", "update post")

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: commit.applied") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"revision":"abc123"`) {
			t.Errorf("missing revision in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishAfterClose(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	b.Close()

	// Must not panic or block.
	b.PublishCommit("abc123", "late")
	b.Publish(Event{Type: "x"})
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Error("clients after close")
	}
}
