// Package bus provides the in-process message bus for agent-to-agent
// communication.
//
// # Overview
//
// The Bus interface separates two concerns that look similar but behave
// differently:
//
//   - request delivery: fire-and-forget appends to a per-agent inbox,
//     ordered FIFO per recipient
//   - response correlation: one-shot resolution of a pending waiter keyed
//     by correlation id
//
// This split lets each agent actor behave like an ordinary loop over its
// inbox while the orchestrator behaves like a synchronous caller over an
// asynchronous substrate.
//
// # Request delivery
//
// Send validates the recipient against the registry (it must exist and be
// running) and appends to the recipient's bounded inbox. A full inbox
// either blocks the sender (Config.BlockOnFull) or fails with
// ErrInboxFull. Messages to a single inbox are consumed in arrival order;
// nothing is guaranteed across different inboxes.
//
// # Request/reply correlation
//
//	req := bus.NewRequest("orchestrator", "research-agent", "AI trends")
//	if err := b.Send(req); err != nil { ... }
//	reply, err := b.AwaitResponse(req.CorrelationID, 5*time.Second)
//
// A waiter resolves at most once. On timeout the waiter is removed, so a
// late reply for that correlation id is dropped with a diagnostic — it is
// never redelivered and never crashes the bus.
package bus
