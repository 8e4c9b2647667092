package notify

import (
	"context"
	"testing"
)

func TestHub_Broadcast(t *testing.T) {
	h := NewHub()
	ctx := context.Background()

	a, cancelA := h.Subscribe()
	defer cancelA()
	b, cancelB := h.Subscribe()
	defer cancelB()

	if h.Len() != 2 {
		t.Fatalf("Len = %d, want 2", h.Len())
	}

	msg := Message{Type: TypeNewVersionAvailable, Version: "2025-01-02T00:00:00Z"}
	h.Broadcast(ctx, msg)

	for name, ch := range map[string]<-chan Message{"a": a, "b": b} {
		select {
		case got := <-ch:
			if got != msg {
				t.Errorf("subscriber %s got %+v, want %+v", name, got, msg)
			}
		default:
			t.Errorf("subscriber %s received nothing", name)
		}
	}
}

func TestHub_Cancel(t *testing.T) {
	h := NewHub()
	ctx := context.Background()

	ch, cancel := h.Subscribe()
	cancel()
	cancel() // idempotent

	if h.Len() != 0 {
		t.Fatalf("Len = %d, want 0", h.Len())
	}

	h.Broadcast(ctx, Message{Type: TypeNewVersionAvailable})
	if _, open := <-ch; open {
		t.Error("channel should be closed after cancel")
	}
}

func TestHub_FullBufferDrops(t *testing.T) {
	h := NewHub(WithBuffer(1))
	ctx := context.Background()

	ch, cancel := h.Subscribe()
	defer cancel()

	// Second broadcast must not block even though nobody drains.
	h.Broadcast(ctx, Message{Type: TypeNewVersionAvailable, Version: "1"})
	h.Broadcast(ctx, Message{Type: TypeNewVersionAvailable, Version: "2"})

	got := <-ch
	if got.Version != "1" {
		t.Errorf("Version = %q, want 1", got.Version)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected extra message %+v", extra)
	default:
	}
}
