package registry

import (
	"sync"
)

// MemoryRegistry is an in-memory implementation of Registry.
// One instance per runtime; never a process-wide singleton.
type MemoryRegistry struct {
	mu       sync.RWMutex
	agents   map[string]AgentDescriptor
	byCap    map[string][]string // capability -> agent IDs in registration order
	watchers []chan Event
	closed   bool
}

// NewMemoryRegistry creates a new in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		agents: make(map[string]AgentDescriptor),
		byCap:  make(map[string][]string),
	}
}

// Register adds an agent and indexes its capabilities.
func (r *MemoryRegistry) Register(desc AgentDescriptor) error {
	if err := ValidateDescriptor(desc); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	if _, exists := r.agents[desc.ID]; exists {
		return ErrDuplicateAgent
	}

	r.agents[desc.ID] = desc
	for _, c := range desc.Capabilities {
		r.byCap[c] = append(r.byCap[c], desc.ID)
	}

	r.notifyWatchers(Event{Type: EventAdded, Agent: desc})

	return nil
}

// Deregister removes an agent and its capability index entries.
func (r *MemoryRegistry) Deregister(id string) error {
	if id == "" {
		return ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	desc, exists := r.agents[id]
	if !exists {
		// Idempotent: lookups for a stopped agent must fail closed, and
		// they already do.
		return nil
	}

	delete(r.agents, id)
	for _, c := range desc.Capabilities {
		r.byCap[c] = removeID(r.byCap[c], id)
		if len(r.byCap[c]) == 0 {
			delete(r.byCap, c)
		}
	}

	r.notifyWatchers(Event{Type: EventRemoved, Agent: desc})

	return nil
}

// Get retrieves a specific agent by ID.
func (r *MemoryRegistry) Get(id string) (*AgentDescriptor, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrClosed
	}

	desc, exists := r.agents[id]
	if !exists {
		return nil, ErrNotFound
	}

	return &desc, nil
}

// Lookup returns agent IDs advertising a capability in registration order.
func (r *MemoryRegistry) Lookup(capability string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrClosed
	}

	ids := r.byCap[capability]
	result := make([]string, len(ids))
	copy(result, ids)

	return result, nil
}

// Status reads an agent's lifecycle state.
func (r *MemoryRegistry) Status(id string) (Status, error) {
	desc, err := r.Get(id)
	if err != nil {
		return "", err
	}
	return desc.Status, nil
}

// SetStatus updates an agent's lifecycle state.
func (r *MemoryRegistry) SetStatus(id string, status Status) error {
	if id == "" {
		return ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	desc, exists := r.agents[id]
	if !exists {
		return ErrNotFound
	}

	desc.Status = status
	r.agents[id] = desc

	r.notifyWatchers(Event{Type: EventUpdated, Agent: desc})

	return nil
}

// Watch returns a channel of registry events.
func (r *MemoryRegistry) Watch() (<-chan Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	ch := make(chan Event, 64)
	r.watchers = append(r.watchers, ch)

	return ch, nil
}

// Close shuts down the registry.
func (r *MemoryRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true

	for _, ch := range r.watchers {
		close(ch)
	}
	r.watchers = nil

	return nil
}

// notifyWatchers sends an event to all watchers.
// Must be called with lock held.
func (r *MemoryRegistry) notifyWatchers(event Event) {
	for _, ch := range r.watchers {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}

// removeID removes the first occurrence of id, preserving order.
func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
