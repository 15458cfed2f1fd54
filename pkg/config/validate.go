package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

// ValidationError represents a single validation error with context.
type ValidationError struct {
	Path    string // e.g., "client.url"
	Message string // e.g., "unsupported scheme"
	Hint    string // e.g., "expected ws:// or wss://"
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s; %s", e.Path, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate performs comprehensive validation of the entire config.
// It aggregates all errors and returns them, allowing the caller to print all issues at once.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateClient()...)
	errs = append(errs, c.validatePublisher()...)
	errs = append(errs, c.validatePolicy()...)
	errs = append(errs, c.validateLogging()...)

	return errs
}

func (c *Config) validateClient() []error {
	var errs []error
	cc := c.Client

	if err := validateURL(cc.URL, "ws", "wss"); err != nil {
		errs = append(errs, ValidationError{
			Path:    "client.url",
			Message: err.Error(),
			Hint:    "expected ws://host:port or wss://host:port",
		})
	}

	if cc.MinBackoff <= 0 {
		errs = append(errs, ValidationError{
			Path:    "client.min_backoff",
			Message: fmt.Sprintf("must be positive; got %s", cc.MinBackoff),
		})
	}
	if cc.MaxBackoff < cc.MinBackoff {
		errs = append(errs, ValidationError{
			Path:    "client.max_backoff",
			Message: fmt.Sprintf("must be >= client.min_backoff (%s); got %s", cc.MinBackoff, cc.MaxBackoff),
		})
	}
	if cc.WriteTimeout <= 0 {
		errs = append(errs, ValidationError{
			Path:    "client.write_timeout",
			Message: fmt.Sprintf("must be positive; got %s", cc.WriteTimeout),
		})
	}
	if cc.ListenerTimeout < 0 {
		errs = append(errs, ValidationError{
			Path:    "client.listener_timeout",
			Message: fmt.Sprintf("must not be negative; got %s", cc.ListenerTimeout),
			Hint:    "use 0 to disable",
		})
	}

	return errs
}

func (c *Config) validatePublisher() []error {
	var errs []error
	pc := c.Publisher

	if err := validateURL(pc.URL, "http", "https"); err != nil {
		errs = append(errs, ValidationError{
			Path:    "publisher.url",
			Message: err.Error(),
			Hint:    "expected http://host:port or https://host:port",
		})
	}
	if pc.Timeout < 0 {
		errs = append(errs, ValidationError{
			Path:    "publisher.timeout",
			Message: fmt.Sprintf("must not be negative; got %s", pc.Timeout),
		})
	}
	for i := 0; i < len(pc.Reserved); i++ {
		ch := pc.Reserved[i]
		if ch <= 0x20 || ch >= 0x7f || ch == '%' {
			errs = append(errs, ValidationError{
				Path:    "publisher.reserved",
				Message: fmt.Sprintf("unsupported character %q", ch),
				Hint:    "only printable ASCII other than '%' can be reserved",
			})
			break
		}
	}

	return errs
}

func (c *Config) validatePolicy() []error {
	var errs []error

	if err := validateListenAddr(c.Policy.ListenAddr); err != nil {
		errs = append(errs, ValidationError{
			Path:    "policy.listen_addr",
			Message: err.Error(),
			Hint:    "expected [host]:port, e.g. \":843\"",
		})
	}

	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error
	log := c.Logging

	// Validate level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[log.Level] {
		errs = append(errs, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("invalid value %q", log.Level),
			Hint:    "allowed values: debug, info, warn, error",
		})
	}

	// Validate format
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[log.Format] {
		errs = append(errs, ValidationError{
			Path:    "logging.format",
			Message: fmt.Sprintf("invalid value %q", log.Format),
			Hint:    "allowed values: json, console",
		})
	}

	// Validate output_file
	if log.OutputFile != "" {
		dir := filepath.Dir(log.OutputFile)
		if dir != "" && dir != "." {
			if err := validateDirWritable(dir); err != nil {
				errs = append(errs, ValidationError{
					Path:    "logging.output_file",
					Message: fmt.Sprintf("parent directory not writable: %v", err),
				})
			}
		}
	}

	return errs
}

// Helper validation functions

func validateURL(raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if u.Host == "" {
				return fmt.Errorf("missing host")
			}
			return nil
		}
	}
	return fmt.Errorf("unsupported scheme %q", u.Scheme)
}

func validateListenAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("expected format [host]:port")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("port must be a number between 0 and 65535; got %q", port)
	}
	return nil
}

func validateDirWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access directory: %v", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory")
	}

	// Try to write a test file
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte(""), 0644); err != nil {
		return fmt.Errorf("directory not writable: %v", err)
	}
	os.Remove(testFile)

	return nil
}
