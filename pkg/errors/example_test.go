package errors_test

import (
	"fmt"
	"io"

	"github.com/DeBrosOfficial/hermes/pkg/errors"
)

// Example demonstrates the single error type returned by publish calls.
func ExampleNewPublishError() {
	err := errors.NewPublishError("ns:a", "/ns%3Aa", io.ErrUnexpectedEOF).WithStatus(502)
	fmt.Println(err.Error())
	fmt.Println("Code:", err.Code())
	fmt.Println("Retry:", errors.ShouldRetry(err))
	// Output:
	// publish "ns:a": status 502: unexpected EOF
	// Code: PUBLISH_FAILURE
	// Retry: true
}

// Example demonstrates checking listener failures.
func ExampleIsListenerFailure() {
	err := errors.NewListenerPanic("room1", "default", "index out of range")
	if errors.IsListenerFailure(err) {
		fmt.Println(err)
	}
	// Output:
	// listener panicked: topic "room1" listener "default": index out of range
}
