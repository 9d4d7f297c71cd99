// Package registry provides agent registration and capability lookup for
// in-process A2A coordination.
//
// # Overview
//
// The Registry interface lets agents self-register with capabilities and a
// lifecycle status. The orchestrator discovers capability owners through
// Lookup; the bus consults Status before delivering.
//
// # Ordering
//
// Lookup returns agents in registration order, and the first entry is the
// dispatch owner. Registering A then B under the same capability always
// yields [A, B]. This tie-break is the routing contract: when multiple
// agents share a capability, the oldest registration wins.
//
// # Basic Usage
//
// Register an agent:
//
//	reg := registry.NewMemoryRegistry()
//	err := reg.Register(registry.AgentDescriptor{
//	    ID:           "research-agent",
//	    Name:         "Research Agent",
//	    Capabilities: []string{"research"},
//	    Status:       registry.StatusRunning,
//	})
//
// Discover the capability owner:
//
//	ids, _ := reg.Lookup("research")
//	if len(ids) > 0 {
//	    owner := ids[0]
//	}
//
// Watch for changes:
//
//	events, _ := reg.Watch()
//	for event := range events {
//	    switch event.Type {
//	    case registry.EventAdded:
//	        fmt.Printf("New agent: %s\n", event.Agent.ID)
//	    case registry.EventUpdated:
//	        fmt.Printf("Agent updated: %s (%s)\n", event.Agent.ID, event.Agent.Status)
//	    case registry.EventRemoved:
//	        fmt.Printf("Agent removed: %s\n", event.Agent.ID)
//	    }
//	}
//
// # Lifecycle
//
// A stopping agent deregisters before its Stop returns, so lookups fail
// closed: a capability whose only owner has stopped yields an empty slice.
package registry
