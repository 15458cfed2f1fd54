package config

import (
	"fmt"
	"os"
	"time"
)

// Config represents the configuration shared by the hermes binaries
type Config struct {
	Client    ClientConfig    `yaml:"client"`
	Publisher PublisherConfig `yaml:"publisher"`
	Policy    PolicyConfig    `yaml:"policy"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ClientConfig contains subscriber connection settings
type ClientConfig struct {
	URL             string        `yaml:"url"`              // WebSocket endpoint of the broker
	Namespace       string        `yaml:"namespace"`        // Prepended to every subscribed topic
	Reconnect       bool          `yaml:"reconnect"`        // Redial after the connection drops
	MinBackoff      time.Duration `yaml:"min_backoff"`      // First reconnect delay
	MaxBackoff      time.Duration `yaml:"max_backoff"`      // Reconnect delay cap
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // Deadline for announcement frames
	ListenerTimeout time.Duration `yaml:"listener_timeout"` // 0 disables overrun reporting
}

// PublisherConfig contains publish endpoint settings
type PublisherConfig struct {
	URL       string        `yaml:"url"`       // HTTP base URL of the broker
	Namespace string        `yaml:"namespace"` // Applied when no scope is active
	Timeout   time.Duration `yaml:"timeout"`   // Per-publish timeout
	Reserved  string        `yaml:"reserved"`  // Extra characters escaped in addresses
}

// PolicyConfig contains cross-domain policy responder settings
type PolicyConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			URL:          "ws://localhost:2959",
			Reconnect:    true,
			MinBackoff:   500 * time.Millisecond,
			MaxBackoff:   30 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Publisher: PublisherConfig{
			URL:      "http://localhost:2960",
			Timeout:  10 * time.Second,
			Reserved: ":",
		},
		Policy: PolicyConfig{
			ListenAddr: ":843",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values; unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	if err := DecodeStrict(f, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from HERMES_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("HERMES_WS_URL"); v != "" {
		c.Client.URL = v
	}
	if v := os.Getenv("HERMES_URL"); v != "" {
		c.Publisher.URL = v
	}
	if v := os.Getenv("HERMES_NAMESPACE"); v != "" {
		c.Client.Namespace = v
		c.Publisher.Namespace = v
	}
	if v := os.Getenv("HERMES_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}
