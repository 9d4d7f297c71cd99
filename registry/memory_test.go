package registry

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestRegister(t *testing.T) {
	reg := NewMemoryRegistry()
	defer reg.Close()

	err := reg.Register(AgentDescriptor{
		ID:           "research-agent",
		Name:         "Research Agent",
		Capabilities: []string{"research"},
		Status:       StatusRunning,
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	desc, err := reg.Get("research-agent")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if desc.Name != "Research Agent" {
		t.Errorf("Name = %q, want %q", desc.Name, "Research Agent")
	}
	if desc.Status != StatusRunning {
		t.Errorf("Status = %v, want %v", desc.Status, StatusRunning)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewMemoryRegistry()
	defer reg.Close()

	desc := AgentDescriptor{ID: "a1", Capabilities: []string{"research"}}
	if err := reg.Register(desc); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := reg.Register(desc); err != ErrDuplicateAgent {
		t.Errorf("expected ErrDuplicateAgent, got %v", err)
	}
}

func TestRegisterInvalidID(t *testing.T) {
	reg := NewMemoryRegistry()
	defer reg.Close()

	if err := reg.Register(AgentDescriptor{}); err != ErrInvalidID {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestDeregisterIdempotent(t *testing.T) {
	reg := NewMemoryRegistry()
	defer reg.Close()

	reg.Register(AgentDescriptor{ID: "a1", Capabilities: []string{"research"}})

	if err := reg.Deregister("a1"); err != nil {
		t.Fatalf("Deregister error: %v", err)
	}
	// Second removal of the same agent is a no-op.
	if err := reg.Deregister("a1"); err != nil {
		t.Errorf("repeated Deregister should be a no-op, got %v", err)
	}
	if _, err := reg.Get("a1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after deregister, got %v", err)
	}
}

func TestLookupOrder(t *testing.T) {
	reg := NewMemoryRegistry()
	defer reg.Close()

	reg.Register(AgentDescriptor{ID: "a", Capabilities: []string{"research"}})
	reg.Register(AgentDescriptor{ID: "b", Capabilities: []string{"research"}})

	// Registration order is the tie-break, deterministically.
	for i := 0; i < 10; i++ {
		ids, err := reg.Lookup("research")
		if err != nil {
			t.Fatalf("Lookup error: %v", err)
		}
		if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
			t.Fatalf("Lookup = %v, want [a b]", ids)
		}
	}
}

func TestLookupUnknownCapability(t *testing.T) {
	reg := NewMemoryRegistry()
	defer reg.Close()

	ids, err := reg.Lookup("teleportation")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Lookup = %v, want empty", ids)
	}
}

func TestLookupAfterDeregister(t *testing.T) {
	reg := NewMemoryRegistry()
	defer reg.Close()

	reg.Register(AgentDescriptor{ID: "a", Capabilities: []string{"research", "analysis"}})
	reg.Register(AgentDescriptor{ID: "b", Capabilities: []string{"research"}})
	reg.Deregister("a")

	ids, _ := reg.Lookup("research")
	if len(ids) != 1 || ids[0] != "b" {
		t.Errorf("Lookup(research) = %v, want [b]", ids)
	}
	ids, _ = reg.Lookup("analysis")
	if len(ids) != 0 {
		t.Errorf("Lookup(analysis) = %v, want empty", ids)
	}
}

func TestSetStatus(t *testing.T) {
	reg := NewMemoryRegistry()
	defer reg.Close()

	reg.Register(AgentDescriptor{ID: "a1", Status: StatusStarting})

	if err := reg.SetStatus("a1", StatusRunning); err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}
	status, err := reg.Status("a1")
	if err != nil {
		t.Fatalf("Status error: %v", err)
	}
	if status != StatusRunning {
		t.Errorf("Status = %v, want %v", status, StatusRunning)
	}

	if err := reg.SetStatus("missing", StatusRunning); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWatch(t *testing.T) {
	reg := NewMemoryRegistry()
	defer reg.Close()

	events, err := reg.Watch()
	if err != nil {
		t.Fatalf("Watch error: %v", err)
	}

	reg.Register(AgentDescriptor{ID: "a1", Capabilities: []string{"research"}})
	reg.SetStatus("a1", StatusRunning)
	reg.Deregister("a1")

	want := []EventType{EventAdded, EventUpdated, EventRemoved}
	for _, wt := range want {
		select {
		case ev := <-events:
			if ev.Type != wt {
				t.Errorf("event type = %v, want %v", ev.Type, wt)
			}
			if ev.Agent.ID != "a1" {
				t.Errorf("event agent = %v, want a1", ev.Agent.ID)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %v event", wt)
		}
	}
}

func TestWatchClosedOnClose(t *testing.T) {
	reg := NewMemoryRegistry()

	events, _ := reg.Watch()
	reg.Close()

	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected closed channel after Close")
		}
	case <-time.After(time.Second):
		t.Error("timeout waiting for channel close")
	}
}

func TestClosedRegistry(t *testing.T) {
	reg := NewMemoryRegistry()
	reg.Close()

	if err := reg.Register(AgentDescriptor{ID: "a1"}); err != ErrClosed {
		t.Errorf("Register on closed = %v, want ErrClosed", err)
	}
	if _, err := reg.Lookup("research"); err != ErrClosed {
		t.Errorf("Lookup on closed = %v, want ErrClosed", err)
	}
	// Close is idempotent.
	if err := reg.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestConcurrentRegistration(t *testing.T) {
	reg := NewMemoryRegistry()
	defer reg.Close()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg.Register(AgentDescriptor{
				ID:           fmt.Sprintf("agent-%d", i),
				Capabilities: []string{"research"},
			})
		}(i)
	}
	wg.Wait()

	ids, err := reg.Lookup("research")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if len(ids) != n {
		t.Errorf("Lookup returned %d ids, want %d", len(ids), n)
	}

	// No duplicates regardless of interleaving.
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate id %s in capability index", id)
		}
		seen[id] = true
	}
}
