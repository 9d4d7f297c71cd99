package errors

// ErrorCategory classifies errors by their nature and retry semantics.
type ErrorCategory string

// Error categories define how errors should be handled.
const (
	// CategoryTransient indicates temporary failures where retry may succeed.
	// Examples: delivery timeouts, full inboxes, an agent mid-restart.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	// Examples: duplicate agent id, capability nobody advertises.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryInternal indicates unexpected errors, bugs, or machinery
	// failures. Examples: handler panics, inbox teardown faults.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	return c == CategoryTransient
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

// Error codes for the runtime's failure taxonomy.
const (
	// Registry errors
	ErrCodeDuplicateAgent    ErrorCode = "DUPLICATE_AGENT"    // Agent id already registered
	ErrCodeAgentNotFound     ErrorCode = "AGENT_NOT_FOUND"    // Agent id not in the registry
	ErrCodeCapabilityMissing ErrorCode = "CAPABILITY_MISSING" // No agent advertises the capability

	// Bus errors
	ErrCodeAgentUnavailable ErrorCode = "AGENT_UNAVAILABLE" // Recipient exists but is not running
	ErrCodeInboxFull        ErrorCode = "INBOX_FULL"        // Recipient inbox at capacity
	ErrCodeDeliveryTimeout  ErrorCode = "DELIVERY_TIMEOUT"  // No correlated response before deadline

	// Actor errors
	ErrCodeAlreadyRunning ErrorCode = "ALREADY_RUNNING" // Start called on a non-stopped actor
	ErrCodeHandlerFailed  ErrorCode = "HANDLER_FAILED"  // Capability handler returned an error

	// General errors
	ErrCodeCanceled ErrorCode = "CANCELED" // Caller's context was canceled
	ErrCodeTimeout  ErrorCode = "TIMEOUT"  // Operation deadline exceeded
	ErrCodeInternal ErrorCode = "INTERNAL" // Unexpected internal error
	ErrCodePanic    ErrorCode = "PANIC"    // Recovered from a handler panic
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeAgentUnavailable, ErrCodeInboxFull, ErrCodeDeliveryTimeout, ErrCodeTimeout:
		return CategoryTransient
	case ErrCodeDuplicateAgent, ErrCodeAgentNotFound, ErrCodeCapabilityMissing,
		ErrCodeAlreadyRunning, ErrCodeHandlerFailed, ErrCodeCanceled:
		return CategoryPermanent
	default:
		return CategoryInternal
	}
}

// Description returns a human-readable default description for the code.
func (c ErrorCode) Description() string {
	switch c {
	case ErrCodeDuplicateAgent:
		return "agent id already registered"
	case ErrCodeAgentNotFound:
		return "agent not found"
	case ErrCodeCapabilityMissing:
		return "no agent advertises the required capability"
	case ErrCodeAgentUnavailable:
		return "target agent is not running"
	case ErrCodeInboxFull:
		return "target agent inbox is full"
	case ErrCodeDeliveryTimeout:
		return "timed out waiting for a correlated response"
	case ErrCodeAlreadyRunning:
		return "actor is already running"
	case ErrCodeHandlerFailed:
		return "capability handler failed"
	case ErrCodeCanceled:
		return "operation canceled"
	case ErrCodeTimeout:
		return "operation timed out"
	case ErrCodePanic:
		return "capability handler panicked"
	default:
		return "internal error"
	}
}
