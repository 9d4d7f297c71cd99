// Package errors provides the structured error taxonomy used across the
// a2akit runtime. Every failure that crosses a component boundary —
// registry rejections, bus delivery faults, capability handler errors —
// is expressed as an *Error carrying a code and a category.
//
// # Error Categories
//
//   - Transient: temporary failures where retry may succeed (delivery
//     timeouts, full inboxes)
//   - Permanent: failures where retry will not help (duplicate agent id,
//     missing capability)
//   - Internal: unexpected errors indicating bugs (handler panics,
//     inbox machinery faults)
//
// # Error Codes
//
// Codes identify the specific failure:
//
//   - DUPLICATE_AGENT: agent id already registered
//   - CAPABILITY_MISSING: no agent advertises the capability
//   - AGENT_UNAVAILABLE: recipient is not running
//   - INBOX_FULL: recipient inbox is at capacity
//   - DELIVERY_TIMEOUT: no response before the deadline
//   - ALREADY_RUNNING: actor started twice
//   - HANDLER_FAILED: capability handler returned an error
//   - And more...
//
// # Usage
//
// Create a new error:
//
//	err := errors.New(errors.ErrCodeDeliveryTimeout, "no response from analysis")
//
// Wrap an existing error with context:
//
//	wrapped := errors.Wrap(err, "dispatching stage")
//
// # JSON Serialization
//
// Errors marshal to JSON so an Error-kind bus message can carry the full
// failure description as its payload:
//
//	data, _ := json.Marshal(agentErr)
//
// and the orchestrator can decode it back:
//
//	var e errors.Error
//	_ = json.Unmarshal(data, &e)
package errors
