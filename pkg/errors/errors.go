package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Common sentinel errors for quick checks
var (
	// ErrInvalidInput is returned when caller input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClosed is returned when an operation is attempted on a closed component.
	ErrClosed = errors.New("closed")

	// ErrInternal is returned when an internal error occurs.
	ErrInternal = errors.New("internal error")
)

// Error is the base interface for all custom errors in the system.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
	stack   []uintptr
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// Stack returns the captured stack trace.
func (e *BaseError) Stack() []uintptr {
	return e.stack
}

// captureStack captures the current stack trace.
func captureStack(skip int) []uintptr {
	const maxDepth = 32
	stack := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, stack)
	return stack[:n]
}

// StackTrace returns a formatted stack trace string.
func (e *BaseError) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}

	var buf strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return buf.String()
}

// MalformedMessageError is reported when an inbound frame cannot be decoded.
// The frame is dropped; processing of later frames continues.
type MalformedMessageError struct {
	*BaseError
	Frame []byte
}

// NewMalformedMessageError creates a new malformed message error.
func NewMalformedMessageError(frame []byte, cause error) *MalformedMessageError {
	return &MalformedMessageError{
		BaseError: &BaseError{
			code:    CodeMalformedMessage,
			message: "malformed message",
			cause:   cause,
			stack:   captureStack(1),
		},
		Frame: frame,
	}
}

// Error implements the error interface.
func (e *MalformedMessageError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("malformed message (%d bytes): %v", len(e.Frame), e.cause)
	}
	return fmt.Sprintf("malformed message (%d bytes)", len(e.Frame))
}

// ListenerError is reported when a single listener fails during dispatch.
type ListenerError struct {
	*BaseError
	Topic    string
	Name     string
	Panicked bool
}

// NewListenerError creates a new listener failure error.
func NewListenerError(topic, name string, cause error) *ListenerError {
	return &ListenerError{
		BaseError: &BaseError{
			code:    CodeListenerFailure,
			message: "listener failed",
			cause:   cause,
			stack:   captureStack(1),
		},
		Topic: topic,
		Name:  name,
	}
}

// NewListenerPanic creates a listener failure error from a recovered panic value.
func NewListenerPanic(topic, name string, recovered interface{}) *ListenerError {
	cause, ok := recovered.(error)
	if !ok {
		cause = fmt.Errorf("%v", recovered)
	}
	return &ListenerError{
		BaseError: &BaseError{
			code:    CodeListenerFailure,
			message: "listener panicked",
			cause:   cause,
			stack:   captureStack(1),
		},
		Topic:    topic,
		Name:     name,
		Panicked: true,
	}
}

// Error implements the error interface.
func (e *ListenerError) Error() string {
	return fmt.Sprintf("%s: topic %q listener %q: %v", e.message, e.Topic, e.Name, e.cause)
}

// TransportError represents a connection-level failure.
type TransportError struct {
	*BaseError
	Op string
}

// NewTransportError creates a new transport failure error.
func NewTransportError(op string, cause error) *TransportError {
	return &TransportError{
		BaseError: &BaseError{
			code:    CodeTransportFailure,
			message: "transport failure",
			cause:   cause,
			stack:   captureStack(1),
		},
		Op: op,
	}
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("transport %s: %v", e.Op, e.cause)
	}
	return fmt.Sprintf("transport %s failed", e.Op)
}

// PublishError is the single error type returned by publish calls,
// whatever the underlying failure was.
type PublishError struct {
	*BaseError
	Topic      string
	Address    string
	StatusCode int
}

// NewPublishError creates a new publish failure error.
func NewPublishError(topic, address string, cause error) *PublishError {
	return &PublishError{
		BaseError: &BaseError{
			code:    CodePublishFailure,
			message: "publish failed",
			cause:   cause,
			stack:   captureStack(1),
		},
		Topic:   topic,
		Address: address,
	}
}

// WithStatus records the HTTP status returned by the broker.
func (e *PublishError) WithStatus(status int) *PublishError {
	e.StatusCode = status
	return e
}

// Error implements the error interface.
func (e *PublishError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("publish %q: status %d: %v", e.Topic, e.StatusCode, e.cause)
	}
	return fmt.Sprintf("publish %q: %v", e.Topic, e.cause)
}

// InternalError represents an internal error.
type InternalError struct {
	*BaseError
	Operation string
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		BaseError: &BaseError{
			code:    CodeInternal,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
	}
}

// WithOperation sets the operation context.
func (e *InternalError) WithOperation(op string) *InternalError {
	e.Operation = op
	return e
}

// Wrap wraps an error with additional context.
// If the error is already one of our custom types, it preserves the type
// and adds the cause chain. Otherwise, it creates an InternalError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already our error type, wrap it
	if e, ok := err.(Error); ok {
		return &BaseError{
			code:    e.Code(),
			message: message,
			cause:   err,
			stack:   captureStack(1),
		}
	}

	return &InternalError{
		BaseError: &BaseError{
			code:    CodeInternal,
			message: message,
			cause:   err,
			stack:   captureStack(1),
		},
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// New creates a new error with a message.
func New(message string) error {
	return &BaseError{
		code:    CodeInternal,
		message: message,
		stack:   captureStack(1),
	}
}

// Newf creates a new error with a formatted message.
func Newf(format string, args ...interface{}) error {
	return New(fmt.Sprintf(format, args...))
}
