package client

import (
	"time"

	"github.com/DeBrosOfficial/hermes/pkg/logging"
	"github.com/DeBrosOfficial/hermes/pkg/pubsub"
)

// ClientConfig represents configuration for subscription clients
type ClientConfig struct {
	// Namespace is prepended to every topic unless a subscription bypasses it.
	Namespace string `json:"namespace"`
	// ListenerTimeout reports listeners running longer than this as failures. Zero disables it.
	ListenerTimeout time.Duration `json:"listener_timeout"`
}

// DefaultClientConfig returns a default client configuration
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{}
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the component logger.
func WithLogger(l *logging.ColoredLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithErrorHandler receives every contained error: malformed frames,
// listener failures and transport failures. The default logs them.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Client) {
		if fn != nil {
			c.onError = fn
		}
	}
}

// WithRegistry shares an existing dispatcher registry.
func WithRegistry(r *pubsub.Registry) Option {
	return func(c *Client) {
		if r != nil {
			c.registry = r
		}
	}
}

// SubscribeOption customizes a single Subscribe call.
type SubscribeOption func(*subscribeOptions)

type subscribeOptions struct {
	name     string
	verbatim bool
}

// WithName registers the listener under name instead of pubsub.DefaultName.
func WithName(name string) SubscribeOption {
	return func(o *subscribeOptions) { o.name = name }
}

// WithNamespaceOverride uses the topic verbatim, bypassing the configured namespace.
func WithNamespaceOverride() SubscribeOption {
	return func(o *subscribeOptions) { o.verbatim = true }
}

// WithListenerTimeout overrides ClientConfig.ListenerTimeout. It has no effect
// together with WithRegistry.
func WithListenerTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.listenerTimeout = d
	}
}
