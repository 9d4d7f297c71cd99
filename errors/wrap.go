package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context while preserving the error
// chain. If err is nil, Wrap returns nil. If err is already an *Error its
// code and category are preserved; otherwise the result is an internal
// error wrapping the original. Context errors map to CANCELED / TIMEOUT.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	var agentErr *Error
	if errors.As(err, &agentErr) {
		wrapped := &Error{
			code:          agentErr.code,
			category:      agentErr.category,
			message:       message,
			cause:         err,
			retryable:     agentErr.retryable,
			agentID:       agentErr.agentID,
			correlationID: agentErr.correlationID,
		}
		for _, opt := range opts {
			opt(wrapped)
		}
		return wrapped
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(ErrCodeTimeout, message, append(opts, WithCause(err))...)
	}
	if errors.Is(err, context.Canceled) {
		return New(ErrCodeCanceled, message, append(opts, WithCause(err))...)
	}

	return New(ErrCodeInternal, message, append(opts, WithCause(err))...)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific error code.
func WrapWithCode(err error, code ErrorCode, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	opts = append(opts, WithCause(err))
	return New(code, message, opts...)
}

// AsAgentError extracts an *Error from an error chain.
func AsAgentError(err error) (*Error, bool) {
	var agentErr *Error
	if errors.As(err, &agentErr) {
		return agentErr, true
	}
	return nil, false
}

// CodeOf returns the error code of err, or ErrCodeInternal if err carries
// no structured code. A nil err returns the empty code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if agentErr, ok := AsAgentError(err); ok {
		return agentErr.Code()
	}
	return ErrCodeInternal
}

// IsRetryable reports whether err may succeed on retry.
func IsRetryable(err error) bool {
	if agentErr, ok := AsAgentError(err); ok {
		return agentErr.Retryable()
	}
	return false
}
