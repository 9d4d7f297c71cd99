// Package bus provides the in-process message bus for agent-to-agent
// communication: per-agent inboxes for request delivery and a correlation
// table for request/response matching.
package bus

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors.
var (
	ErrClosed           = errors.New("bus closed")
	ErrTimeout          = errors.New("timed out waiting for response")
	ErrInboxFull        = errors.New("recipient inbox full")
	ErrAgentUnavailable = errors.New("recipient agent unavailable")
	ErrAlreadyBound     = errors.New("inbox already bound for agent")
	ErrDuplicateWaiter  = errors.New("waiter already registered for correlation id")
	ErrInvalidMessage   = errors.New("invalid message")
)

// Kind identifies the role of a message in a request/response exchange.
type Kind string

const (
	// KindRequest asks the recipient to invoke a capability.
	KindRequest Kind = "request"

	// KindResponse carries a successful capability result.
	KindResponse Kind = "response"

	// KindError carries a structured failure instead of a result.
	KindError Kind = "error"
)

// Message is the unit of communication between agents. Messages are
// immutable once constructed; always pass them by value.
type Message struct {
	// ID uniquely identifies this message.
	ID string

	// CorrelationID groups a request with its response. For a request it
	// equals ID; for a response it equals the request's CorrelationID.
	CorrelationID string

	// Sender is the originating agent or orchestrator id.
	Sender string

	// Recipient is the target agent id. Responses carry the original
	// sender here; they are routed by correlation, not by inbox.
	Recipient string

	// Kind is one of Request, Response, Error.
	Kind Kind

	// Payload is an opaque structured value. By convention a KindError
	// payload is a structured *errors.Error.
	Payload any

	// Timestamp records construction time.
	Timestamp time.Time
}

// IsReply reports whether the message resolves a pending waiter.
func (m Message) IsReply() bool {
	return m.Kind == KindResponse || m.Kind == KindError
}

// NewRequest builds a request message with a fresh id. The correlation id
// equals the message id; the caller awaits the response under it.
func NewRequest(sender, recipient string, payload any) Message {
	id := uuid.NewString()
	return Message{
		ID:            id,
		CorrelationID: id,
		Sender:        sender,
		Recipient:     recipient,
		Kind:          KindRequest,
		Payload:       payload,
		Timestamp:     time.Now(),
	}
}

// NewResponse builds a response correlated to the given request.
func NewResponse(req Message, sender string, payload any) Message {
	return Message{
		ID:            uuid.NewString(),
		CorrelationID: req.CorrelationID,
		Sender:        sender,
		Recipient:     req.Sender,
		Kind:          KindResponse,
		Payload:       payload,
		Timestamp:     time.Now(),
	}
}

// NewErrorResponse builds an error reply correlated to the given request.
func NewErrorResponse(req Message, sender string, payload any) Message {
	msg := NewResponse(req, sender, payload)
	msg.Kind = KindError
	return msg
}

// Bus delivers requests to agent inboxes and resolves correlated responses.
type Bus interface {
	// Bind creates the inbox for an agent and returns its handle. The
	// owning actor is the only consumer; the bus only appends to it.
	Bind(agentID string) (*Inbox, error)

	// Unbind detaches an agent's inbox. Subsequent sends to the agent
	// fail with ErrAgentUnavailable.
	Unbind(agentID string) error

	// Send delivers a message. Requests are validated against the
	// registry (recipient must exist and be running) and appended to the
	// recipient's inbox. Responses resolve the matching pending waiter;
	// a late or duplicate response is dropped, never redelivered.
	Send(msg Message) error

	// AwaitResponse blocks until a Response or Error message with the
	// given correlation id arrives, or the timeout elapses. On timeout
	// the waiter is removed and ErrTimeout returned, so a stray late
	// response cannot resolve a newer call. At most one waiter may exist
	// per correlation id. The waiter must be registered before the reply
	// arrives; use Call when the responder may be faster than the caller.
	AwaitResponse(correlationID string, timeout time.Duration) (*Message, error)

	// Call sends a request and awaits its correlated reply. The pending
	// waiter is registered before delivery, so even an instant responder
	// cannot race it.
	Call(msg Message, timeout time.Duration) (*Message, error)

	// Close shuts down the bus. Pending waiters fail with ErrClosed.
	Close() error
}

// Config holds bus configuration.
type Config struct {
	// InboxSize bounds each agent inbox. Inboxes are never unbounded.
	// Default: 64
	InboxSize int

	// BlockOnFull selects backpressure over failure: when true, Send
	// blocks until the recipient inbox has room; when false, Send fails
	// with ErrInboxFull.
	BlockOnFull bool
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		InboxSize: 64,
	}
}

// ValidateMessage checks the fields every deliverable message must carry.
func ValidateMessage(msg Message) error {
	if msg.ID == "" || msg.CorrelationID == "" || msg.Recipient == "" {
		return ErrInvalidMessage
	}
	switch msg.Kind {
	case KindRequest, KindResponse, KindError:
		return nil
	default:
		return ErrInvalidMessage
	}
}

// Inbox is the bounded FIFO queue owned by a single agent actor. The bus
// holds the handle for delivery only; the owning actor is the sole reader.
type Inbox struct {
	agentID string
	ch      chan Message
}

// AgentID returns the owning agent's id.
func (in *Inbox) AgentID() string {
	return in.agentID
}

// C returns the receive channel. Only the owning actor may consume it.
func (in *Inbox) C() <-chan Message {
	return in.ch
}

// Len returns the number of queued messages.
func (in *Inbox) Len() int {
	return len(in.ch)
}

// Cap returns the inbox capacity.
func (in *Inbox) Cap() int {
	return cap(in.ch)
}
