//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

// GetWSURL returns the broker WebSocket endpoint under test.
func GetWSURL() string {
	if v := strings.TrimSpace(os.Getenv("HERMES_E2E_WS_URL")); v != "" {
		return v
	}
	return "ws://localhost:2959"
}

// GetPublishURL returns the broker HTTP endpoint under test.
func GetPublishURL() string {
	if v := strings.TrimSpace(os.Getenv("HERMES_E2E_URL")); v != "" {
		return v
	}
	return "http://localhost:2960"
}

// SkipIfMissingBroker skips the test unless a broker answers on the
// publish endpoint.
func SkipIfMissingBroker(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, GetPublishURL(), nil)
	if err != nil {
		t.Skip("broker URL invalid; e2e tests skipped")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Skipf("broker not reachable at %s: %v", GetPublishURL(), err)
	}
	resp.Body.Close()
}

// GenerateUniqueID generates a unique identifier for test resources
func GenerateUniqueID(prefix string) string {
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano(), rand.Intn(10000))
}

// GenerateTopic generates a unique topic name for pubsub tests
func GenerateTopic() string {
	return GenerateUniqueID("e2e_topic")
}

// Delay pauses execution for the specified duration
func Delay(ms int) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// WaitForCondition waits for a condition with exponential backoff
func WaitForCondition(maxWait time.Duration, check func() bool) error {
	deadline := time.Now().Add(maxWait)
	backoff := 100 * time.Millisecond

	for {
		if check() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("condition not met within %v", maxWait)
		}
		time.Sleep(backoff)
		if backoff < 2*time.Second {
			backoff = backoff * 2
		}
	}
}

// NewTestLogger creates a test logger for debugging
func NewTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	logger, err := config.Build()
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return logger
}
