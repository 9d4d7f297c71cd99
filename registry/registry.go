// Package registry provides the agent directory for in-process A2A
// coordination. Agents self-register with capabilities and lifecycle
// status; the bus and orchestrator route by capability lookup.
package registry

import (
	"errors"
)

// Common errors.
var (
	ErrNotFound       = errors.New("agent not found")
	ErrClosed         = errors.New("registry closed")
	ErrInvalidID      = errors.New("invalid agent ID")
	ErrDuplicateAgent = errors.New("duplicate agent ID")
)

// Status represents an agent's lifecycle state.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// AgentDescriptor contains registration information for an agent.
type AgentDescriptor struct {
	// ID uniquely identifies the agent.
	ID string

	// Name is a human-readable name for the agent.
	Name string

	// Capabilities lists what the agent can do (e.g., "research", "analysis").
	Capabilities []string

	// Status is the agent's current lifecycle state.
	Status Status
}

// EventType represents the type of registry event.
type EventType string

const (
	EventAdded   EventType = "added"
	EventUpdated EventType = "updated"
	EventRemoved EventType = "removed"
)

// Event represents a change in the registry.
type Event struct {
	// Type indicates what happened.
	Type EventType

	// Agent contains the agent descriptor.
	// For removal events, this contains the last known state.
	Agent AgentDescriptor
}

// Registry provides agent registration and capability lookup.
type Registry interface {
	// Register adds an agent to the registry and indexes it under each
	// advertised capability. Returns ErrDuplicateAgent if the ID exists.
	Register(desc AgentDescriptor) error

	// Deregister removes an agent and its capability index entries.
	// Removing an unknown ID is a no-op.
	Deregister(id string) error

	// Get retrieves a specific agent by ID.
	// Returns nil, ErrNotFound if not found.
	Get(id string) (*AgentDescriptor, error)

	// Lookup returns the IDs of agents advertising a capability, in
	// registration order. An unknown capability yields an empty slice,
	// never an error. The first entry is the dispatch owner.
	Lookup(capability string) ([]string, error)

	// Status reads an agent's lifecycle state.
	Status(id string) (Status, error)

	// SetStatus updates an agent's lifecycle state.
	SetStatus(id string, status Status) error

	// Watch returns a channel of registry events.
	// The channel is closed when the registry is closed.
	// Multiple watchers are supported.
	Watch() (<-chan Event, error)

	// Close shuts down the registry.
	Close() error
}

// ValidateDescriptor checks if a descriptor is valid.
func ValidateDescriptor(desc AgentDescriptor) error {
	if desc.ID == "" {
		return ErrInvalidID
	}
	return nil
}

// HasCapability checks if a descriptor advertises a capability.
func HasCapability(desc AgentDescriptor, capability string) bool {
	for _, c := range desc.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
