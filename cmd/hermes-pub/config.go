package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/DeBrosOfficial/hermes/pkg/config"
)

type pubOptions struct {
	cfg   *config.Config
	topic string
	data  string
	scope string
	// scoped is set when -scope was given, even as an empty string.
	scoped bool
}

// parsePubConfig resolves settings with priority flags > env > file > defaults.
func parsePubConfig(args []string) (*pubOptions, error) {
	fs := flag.NewFlagSet("hermes-pub", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to hermes.yaml (default ~/.hermes/hermes.yaml when present)")
	url := fs.String("url", "", "Broker HTTP URL (e.g., http://localhost:2960)")
	ns := fs.String("namespace", "", "Base namespace prepended to the topic")
	scope := fs.String("scope", "", "Publish inside this namespace scope, replacing the base namespace")
	data := fs.String("data", "{}", "JSON payload, or - to read it from stdin")
	timeout := fs.Duration("timeout", 0, "Publish timeout (e.g., 5s)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return nil, err
	}

	scoped := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			cfg.Publisher.URL = *url
		case "namespace":
			cfg.Publisher.Namespace = *ns
		case "timeout":
			cfg.Publisher.Timeout = *timeout
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "scope":
			scoped = true
		}
	})

	if errs := cfg.Validate(); len(errs) > 0 {
		var msgs []string
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
	}

	if fs.NArg() != 1 {
		return nil, fmt.Errorf("usage: hermes-pub [flags] <topic>")
	}

	return &pubOptions{
		cfg:    cfg,
		topic:  fs.Arg(0),
		data:   *data,
		scope:  *scope,
		scoped: scoped,
	}, nil
}
