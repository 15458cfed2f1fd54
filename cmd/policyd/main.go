package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DeBrosOfficial/hermes/pkg/config"
	"github.com/DeBrosOfficial/hermes/pkg/logging"
	"github.com/DeBrosOfficial/hermes/pkg/policy"
)

// parsePolicyConfig resolves settings with priority flags > env > file > defaults.
func parsePolicyConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("policyd", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to hermes.yaml (default ~/.hermes/hermes.yaml when present)")
	addr := fs.String("addr", "", "Listen address (e.g., :843)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Policy.ListenAddr = *addr
		case "log-level":
			cfg.Logging.Level = *logLevel
		}
	})

	// Only the policy and logging sections matter here.
	var msgs []string
	for _, e := range cfg.Validate() {
		if ve, ok := e.(config.ValidationError); ok &&
			!strings.HasPrefix(ve.Path, "policy.") && !strings.HasPrefix(ve.Path, "logging.") {
			continue
		}
		msgs = append(msgs, e.Error())
	}
	if len(msgs) > 0 {
		return nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
	}
	return cfg, nil
}

func main() {
	cfg, err := parsePolicyConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.Logging.Options())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := policy.NewServer(logger, policy.Config{ListenAddr: cfg.Policy.ListenAddr})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.ComponentInfo(logging.ComponentPolicy, "shutting down policy server")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.ComponentError(logging.ComponentPolicy, "policy server failed", zap.Error(err))
		os.Exit(1)
	}
	logger.ComponentInfo(logging.ComponentPolicy, "policy server shutdown complete")
}
