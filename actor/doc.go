// Package actor provides the lifecycle-managed agent loop that connects a
// capability handler to the bus and registry.
//
// # Overview
//
// An Actor owns exactly one inbox. Its loop takes requests in arrival
// order, invokes the injected Handler, and replies with a message carrying
// the request's correlation id. Handler failures — returned errors and
// panics alike — become Error responses; they never terminate the loop.
//
// # Lifecycle
//
//	Stopped → Starting → Running → Stopping → Stopped
//
// Start registers the agent as running and launches the loop; calling it
// on a non-stopped actor returns ErrAlreadyRunning. Stop is cooperative:
// the in-flight handler finishes, then the actor deregisters, so no
// message is silently dropped mid-processing. Stop on a non-running actor
// is a no-op.
//
// # Usage
//
//	research, _ := actor.New(actor.Config{
//	    ID:           "research-agent",
//	    Capabilities: []string{"research"},
//	    Registry:     reg,
//	    Bus:          b,
//	    Handler: actor.HandlerFunc(func(ctx context.Context, payload any) (any, error) {
//	        return lookUpSources(ctx, payload.(string))
//	    }),
//	})
//	research.Start()
//	defer research.Stop()
package actor
