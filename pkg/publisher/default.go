package publisher

import (
	"context"
	"os"
	"sync"
)

var (
	defaultOnce sync.Once
	defaultMu   sync.RWMutex
	defaultPub  *Publisher
)

// Default returns the process-wide publisher. It is built once, on first
// use, from HERMES_URL and HERMES_NAMESPACE unless SetDefault ran first.
func Default() *Publisher {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		defer defaultMu.Unlock()
		if defaultPub != nil {
			return
		}
		cfg := DefaultConfig()
		if v := os.Getenv("HERMES_URL"); v != "" {
			cfg.URL = v
		}
		cfg.Namespace = os.Getenv("HERMES_NAMESPACE")
		p, err := New(cfg)
		if err != nil {
			cfg.URL = DefaultURL
			p, _ = New(cfg)
		}
		defaultPub = p
	})

	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultPub
}

// SetDefault replaces the process-wide publisher.
func SetDefault(p *Publisher) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultPub = p
}

// Publish publishes through the default publisher.
func Publish(ctx context.Context, topic string, payload interface{}) error {
	return Default().Publish(ctx, topic, payload)
}
