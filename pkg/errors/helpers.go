package errors

import "errors"

// IsMalformedMessage checks if an error reports an undecodable inbound frame.
func IsMalformedMessage(err error) bool {
	if err == nil {
		return false
	}

	var malformedErr *MalformedMessageError
	return errors.As(err, &malformedErr)
}

// IsListenerFailure checks if an error reports a failing listener.
func IsListenerFailure(err error) bool {
	if err == nil {
		return false
	}

	var listenerErr *ListenerError
	return errors.As(err, &listenerErr)
}

// IsTransportFailure checks if an error reports a connection-level failure.
func IsTransportFailure(err error) bool {
	if err == nil {
		return false
	}

	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// IsPublishFailure checks if an error reports a failed publish call.
func IsPublishFailure(err error) bool {
	if err == nil {
		return false
	}

	var publishErr *PublishError
	return errors.As(err, &publishErr)
}

// IsInternal checks if an error is an internal error.
func IsInternal(err error) bool {
	if err == nil {
		return false
	}

	var internalErr *InternalError
	return errors.As(err, &internalErr) || errors.Is(err, ErrInternal)
}

// ShouldRetry checks if an operation should be retried based on the error.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return IsRetryable(customErr.Code())
	}

	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	if err == nil {
		return CodeOK
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Code()
	}

	if errors.Is(err, ErrInvalidInput) {
		return CodeInvalidArgument
	}
	return CodeInternal
}

// GetErrorMessage extracts a human-readable message from an error.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Message()
	}

	return err.Error()
}

// Cause returns the underlying cause of an error.
// It unwraps the error chain until it finds the root cause.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		underlying := unwrapper.Unwrap()
		if underlying == nil {
			return err
		}
		err = underlying
	}
}

// Is, As and Unwrap forward to the standard library so callers importing
// this package under the name "errors" keep the usual helpers.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)
