package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/DeBrosOfficial/hermes/pkg/config"
)

type subOptions struct {
	cfg            *config.Config
	topics         []string
	verbatim       bool
	statusInterval time.Duration
}

// parseSubConfig resolves settings with priority flags > env > file > defaults.
func parseSubConfig(args []string) (*subOptions, error) {
	fs := flag.NewFlagSet("hermes-sub", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to hermes.yaml (default ~/.hermes/hermes.yaml when present)")
	url := fs.String("url", "", "Broker WebSocket URL (e.g., ws://localhost:2959)")
	ns := fs.String("namespace", "", "Namespace prepended to every topic")
	topics := fs.String("topics", "", "Comma-separated topics to subscribe to")
	verbatim := fs.Bool("raw", false, "Subscribe to topics verbatim, bypassing the namespace")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	noReconnect := fs.Bool("no-reconnect", false, "Exit when the connection drops instead of redialing")
	status := fs.Duration("status-interval", 0, "Log subscription status at this interval (0 disables)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			cfg.Client.URL = *url
		case "namespace":
			cfg.Client.Namespace = *ns
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "no-reconnect":
			cfg.Client.Reconnect = !*noReconnect
		}
	})

	if errs := cfg.Validate(); len(errs) > 0 {
		var msgs []string
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
	}

	opts := &subOptions{cfg: cfg, verbatim: *verbatim, statusInterval: *status}
	list := append(strings.Split(*topics, ","), fs.Args()...)
	for _, part := range list {
		if val := strings.TrimSpace(part); val != "" {
			opts.topics = append(opts.topics, val)
		}
	}
	if len(opts.topics) == 0 {
		return nil, fmt.Errorf("no topics given; use -topics or positional arguments")
	}
	return opts, nil
}
