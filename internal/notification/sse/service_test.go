package sse

import (
	"testing"

	"dojoflow_backend/platform/logger"

	"github.com/google/uuid"
)

func TestRevalidateReachesOnlyFranchiseClients(t *testing.T) {
	s := New(logger.Nop())
	north, south := uuid.New(), uuid.New()

	a := &client{userID: uuid.New(), franchiseID: north, events: make(chan Event, 1)}
	b := &client{userID: uuid.New(), franchiseID: south, events: make(chan Event, 1)}
	s.addClient(a)
	s.addClient(b)

	s.Revalidate(north, "/leads")

	select {
	case ev := <-a.events:
		if ev.Type != EventRevalidate || ev.Path != "/leads" {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatal("expected event for north client")
	}
	if len(b.events) != 0 {
		t.Fatal("south client must not receive north events")
	}
}

func TestFullBufferDropsInsteadOfBlocking(t *testing.T) {
	s := New(logger.Nop())
	franchiseID := uuid.New()
	c := &client{userID: uuid.New(), franchiseID: franchiseID, events: make(chan Event, 1)}
	s.addClient(c)

	s.Revalidate(franchiseID, "/tasks")
	s.Revalidate(franchiseID, "/tours")

	if len(c.events) != 1 {
		t.Fatalf("expected one buffered event, got %d", len(c.events))
	}
}

func TestRemoveClient(t *testing.T) {
	s := New(logger.Nop())
	franchiseID := uuid.New()
	c := &client{userID: uuid.New(), franchiseID: franchiseID, events: make(chan Event, 1)}
	s.addClient(c)
	s.removeClient(c)

	if s.ClientCount(franchiseID) != 0 {
		t.Fatal("expected client removed")
	}
	if _, ok := <-c.events; ok {
		t.Fatal("expected channel closed")
	}
}
