package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hermes.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	if errs := DefaultConfig().Validate(); len(errs) != 0 {
		t.Fatalf("default config should be valid, got %v", errs)
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
client:
  url: wss://broker.example.com:2959
  namespace: "app:"
  max_backoff: 1m
publisher:
  reserved: ":@"
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Client.URL != "wss://broker.example.com:2959" {
		t.Errorf("client.url = %q", cfg.Client.URL)
	}
	if cfg.Client.Namespace != "app:" {
		t.Errorf("client.namespace = %q", cfg.Client.Namespace)
	}
	if cfg.Client.MaxBackoff != time.Minute {
		t.Errorf("client.max_backoff = %s", cfg.Client.MaxBackoff)
	}
	if cfg.Client.MinBackoff != 500*time.Millisecond {
		t.Errorf("client.min_backoff should keep its default, got %s", cfg.Client.MinBackoff)
	}
	if !cfg.Client.Reconnect {
		t.Error("client.reconnect should keep its default")
	}
	if cfg.Publisher.URL != "http://localhost:2960" {
		t.Errorf("publisher.url = %q", cfg.Publisher.URL)
	}
	if cfg.Publisher.Reserved != ":@" {
		t.Errorf("publisher.reserved = %q", cfg.Publisher.Reserved)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q", cfg.Logging.Level)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "client:\n  urll: ws://x\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Policy.ListenAddr != ":843" {
		t.Errorf("policy.listen_addr = %q", cfg.Policy.ListenAddr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("HERMES_WS_URL", "ws://env:1")
	t.Setenv("HERMES_URL", "http://env:2")
	t.Setenv("HERMES_NAMESPACE", "env:")
	t.Setenv("HERMES_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Client.URL != "ws://env:1" || cfg.Publisher.URL != "http://env:2" {
		t.Errorf("urls not overridden: %q %q", cfg.Client.URL, cfg.Publisher.URL)
	}
	if cfg.Client.Namespace != "env:" || cfg.Publisher.Namespace != "env:" {
		t.Errorf("namespace not overridden: %q %q", cfg.Client.Namespace, cfg.Publisher.Namespace)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("logging.level = %q", cfg.Logging.Level)
	}
}

func TestResolve_ExplicitPathThenEnv(t *testing.T) {
	t.Setenv("HERMES_NAMESPACE", "env:")
	path := writeConfig(t, "client:\n  namespace: \"file:\"\n")

	cfg, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cfg.Client.Namespace != "env:" {
		t.Errorf("env should win over file, got %q", cfg.Client.Namespace)
	}
}

func TestResolve_HomeFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.MkdirAll(filepath.Join(home, ".hermes"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, ".hermes", DefaultFile), []byte("policy:\n  listen_addr: \":8843\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cfg.Policy.ListenAddr != ":8843" {
		t.Errorf("policy.listen_addr = %q", cfg.Policy.ListenAddr)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, DefaultConfig()); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(buf.String(), "listen_addr") {
		t.Errorf("encoded config missing policy section:\n%s", buf.String())
	}

	var cfg Config
	if err := DecodeStrict(&buf, &cfg); err != nil {
		t.Fatalf("DecodeStrict failed: %v", err)
	}
	if cfg.Client.MaxBackoff != 30*time.Second {
		t.Errorf("client.max_backoff = %s", cfg.Client.MaxBackoff)
	}
}

func TestLoggingConfigOptions(t *testing.T) {
	tests := []struct {
		name       string
		cfg        LoggingConfig
		wantColors bool
	}{
		{"console stdout", LoggingConfig{Level: "info", Format: "console"}, true},
		{"json stdout", LoggingConfig{Level: "info", Format: "json"}, false},
		{"console file", LoggingConfig{Level: "info", Format: "console", OutputFile: "/tmp/x.log"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.cfg.Options()
			if opts.Colors != tt.wantColors {
				t.Errorf("Colors = %v, want %v", opts.Colors, tt.wantColors)
			}
			if opts.Level != tt.cfg.Level || opts.Format != tt.cfg.Format || opts.OutputFile != tt.cfg.OutputFile {
				t.Errorf("options not copied: %+v", opts)
			}
		})
	}
}
