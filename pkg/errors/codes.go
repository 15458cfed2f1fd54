package errors

// Error codes for categorizing errors.
const (
	// CodeOK indicates success (not an error).
	CodeOK = "OK"

	// CodeInternal indicates internal errors.
	CodeInternal = "INTERNAL"

	// CodeInvalidArgument indicates the caller supplied an invalid argument.
	CodeInvalidArgument = "INVALID_ARGUMENT"

	// CodeUnavailable indicates the remote side is currently unavailable.
	CodeUnavailable = "UNAVAILABLE"

	// CodeMalformedMessage indicates an inbound frame could not be decoded.
	CodeMalformedMessage = "MALFORMED_MESSAGE"

	// CodeListenerFailure indicates a registered listener returned an error or panicked.
	CodeListenerFailure = "LISTENER_FAILURE"

	// CodeTransportFailure indicates the streaming connection failed.
	CodeTransportFailure = "TRANSPORT_FAILURE"

	// CodePublishFailure indicates an outbound publish call failed.
	CodePublishFailure = "PUBLISH_FAILURE"

	// CodeConfigError indicates a configuration error.
	CodeConfigError = "CONFIG_ERROR"
)

// ErrorCategory represents a high-level error category.
type ErrorCategory string

const (
	// CategoryLocal covers errors contained inside the client (bad frames, failing listeners).
	CategoryLocal ErrorCategory = "LOCAL_ERROR"

	// CategoryNetwork indicates a network-related error.
	CategoryNetwork ErrorCategory = "NETWORK_ERROR"

	// CategoryClient indicates a caller error.
	CategoryClient ErrorCategory = "CLIENT_ERROR"

	// CategoryServer indicates anything else.
	CategoryServer ErrorCategory = "SERVER_ERROR"
)

// GetCategory returns the category for an error code.
func GetCategory(code string) ErrorCategory {
	switch code {
	case CodeMalformedMessage, CodeListenerFailure:
		return CategoryLocal
	case CodeTransportFailure, CodePublishFailure, CodeUnavailable:
		return CategoryNetwork
	case CodeInvalidArgument, CodeConfigError:
		return CategoryClient
	default:
		return CategoryServer
	}
}

// IsRetryable returns true if an error with the given code may succeed on retry.
func IsRetryable(code string) bool {
	switch code {
	case CodeTransportFailure, CodePublishFailure, CodeUnavailable:
		return true
	default:
		return false
	}
}
