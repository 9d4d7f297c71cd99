package bus

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/vinayprograms/a2akit/logging"
	"github.com/vinayprograms/a2akit/registry"
)

// MemoryBus implements Bus with channel-backed inboxes and a locked
// correlation table. One instance per runtime; never a process-wide
// singleton.
type MemoryBus struct {
	config Config
	reg    registry.Registry
	logger *logging.Logger

	mu      sync.RWMutex
	inboxes map[string]*Inbox
	closed  atomic.Bool

	// Correlation table for request/reply.
	replyMu sync.Mutex
	waiters map[string]chan Message

	dropped atomic.Uint64
}

// NewMemoryBus creates a new in-memory bus. The registry is consulted on
// every request delivery to reject non-running recipients.
func NewMemoryBus(reg registry.Registry, cfg Config) *MemoryBus {
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = DefaultConfig().InboxSize
	}

	return &MemoryBus{
		config:  cfg,
		reg:     reg,
		logger:  logging.Discard().WithComponent("bus"),
		inboxes: make(map[string]*Inbox),
		waiters: make(map[string]chan Message),
	}
}

// SetLogger installs a logger for delivery diagnostics.
func (b *MemoryBus) SetLogger(l *logging.Logger) {
	if l != nil {
		b.logger = l.WithComponent("bus")
	}
}

// Bind creates the inbox for an agent.
func (b *MemoryBus) Bind(agentID string) (*Inbox, error) {
	if agentID == "" {
		return nil, ErrInvalidMessage
	}
	if b.closed.Load() {
		return nil, ErrClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.inboxes[agentID]; exists {
		return nil, ErrAlreadyBound
	}

	in := &Inbox{
		agentID: agentID,
		ch:      make(chan Message, b.config.InboxSize),
	}
	b.inboxes[agentID] = in

	return in, nil
}

// Unbind detaches an agent's inbox. The channel is never closed here; the
// owning actor exits its loop via its own stop signal, so a sender blocked
// in backpressure cannot be panicked by teardown.
func (b *MemoryBus) Unbind(agentID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.inboxes, agentID)
	return nil
}

// Send delivers a message.
func (b *MemoryBus) Send(msg Message) error {
	if err := ValidateMessage(msg); err != nil {
		return err
	}
	if b.closed.Load() {
		return ErrClosed
	}

	if msg.IsReply() {
		b.resolveWaiter(msg)
		return nil
	}

	return b.deliverRequest(msg)
}

// deliverRequest validates the recipient and appends to its inbox.
func (b *MemoryBus) deliverRequest(msg Message) error {
	desc, err := b.reg.Get(msg.Recipient)
	if err != nil {
		return ErrAgentUnavailable
	}
	if desc.Status != registry.StatusRunning {
		return ErrAgentUnavailable
	}

	b.mu.RLock()
	in, ok := b.inboxes[msg.Recipient]
	b.mu.RUnlock()
	if !ok {
		return ErrAgentUnavailable
	}

	if b.config.BlockOnFull {
		// Backpressure: suspend the caller until the inbox has room.
		in.ch <- msg
		return nil
	}

	select {
	case in.ch <- msg:
		return nil
	default:
		return ErrInboxFull
	}
}

// resolveWaiter routes a reply to its pending waiter. A reply with no
// waiter — late after a timeout, or a duplicate — is dropped and recorded.
func (b *MemoryBus) resolveWaiter(msg Message) {
	b.replyMu.Lock()
	ch, ok := b.waiters[msg.CorrelationID]
	if ok {
		delete(b.waiters, msg.CorrelationID)
	}
	b.replyMu.Unlock()

	if !ok {
		b.dropped.Add(1)
		b.logger.Warn("dropping uncorrelated reply", map[string]interface{}{
			"correlation_id": msg.CorrelationID,
			"sender":         msg.Sender,
			"kind":           msg.Kind,
		})
		return
	}

	// Buffered size 1 and the waiter was just removed under the lock, so
	// this send resolves exactly once and never blocks.
	ch <- msg
}

// AwaitResponse blocks until the correlated reply arrives or the timeout
// elapses.
func (b *MemoryBus) AwaitResponse(correlationID string, timeout time.Duration) (*Message, error) {
	ch, err := b.addWaiter(correlationID)
	if err != nil {
		return nil, err
	}
	return b.await(ch, correlationID, timeout)
}

// Call registers the waiter, sends the request, and awaits the reply.
func (b *MemoryBus) Call(msg Message, timeout time.Duration) (*Message, error) {
	ch, err := b.addWaiter(msg.CorrelationID)
	if err != nil {
		return nil, err
	}

	if err := b.Send(msg); err != nil {
		b.removeWaiter(msg.CorrelationID)
		return nil, err
	}

	return b.await(ch, msg.CorrelationID, timeout)
}

// addWaiter registers the single-resolution slot for a correlation id.
func (b *MemoryBus) addWaiter(correlationID string) (chan Message, error) {
	if correlationID == "" {
		return nil, ErrInvalidMessage
	}
	if b.closed.Load() {
		return nil, ErrClosed
	}

	ch := make(chan Message, 1)

	b.replyMu.Lock()
	defer b.replyMu.Unlock()

	if _, exists := b.waiters[correlationID]; exists {
		return nil, ErrDuplicateWaiter
	}
	b.waiters[correlationID] = ch

	return ch, nil
}

// removeWaiter drops a registration; reports whether it was still pending.
func (b *MemoryBus) removeWaiter(correlationID string) bool {
	b.replyMu.Lock()
	defer b.replyMu.Unlock()

	if _, pending := b.waiters[correlationID]; pending {
		delete(b.waiters, correlationID)
		return true
	}
	return false
}

// await blocks on a registered waiter slot.
func (b *MemoryBus) await(ch chan Message, correlationID string, timeout time.Duration) (*Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		return &msg, nil
	case <-timer.C:
	}

	// Timed out. Remove the waiter so a stray late reply cannot resolve a
	// stale call. If the reply won the race and already consumed the
	// waiter, take the message instead.
	if !b.removeWaiter(correlationID) {
		if msg, ok := <-ch; ok {
			return &msg, nil
		}
		return nil, ErrClosed
	}

	return nil, ErrTimeout
}

// Dropped returns the number of uncorrelated replies discarded so far.
func (b *MemoryBus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close shuts down the bus and fails all pending waiters.
func (b *MemoryBus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	b.replyMu.Lock()
	for id, ch := range b.waiters {
		delete(b.waiters, id)
		close(ch)
	}
	b.replyMu.Unlock()

	b.mu.Lock()
	b.inboxes = make(map[string]*Inbox)
	b.mu.Unlock()

	return nil
}
