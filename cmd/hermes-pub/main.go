package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/hermes/pkg/errors"
	"github.com/DeBrosOfficial/hermes/pkg/logging"
	"github.com/DeBrosOfficial/hermes/pkg/publisher"
)

func main() {
	opts, err := parsePubConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(opts.cfg.Logging.Options())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, opts, os.Stdin); err != nil {
		var perr *errors.PublishError
		if errors.As(err, &perr) {
			logger.ComponentError(logging.ComponentPublisher, "publish failed",
				zap.String("topic", perr.Topic),
				zap.String("address", perr.Address),
				zap.Int("status", perr.StatusCode),
				zap.Error(errors.Cause(err)))
		} else {
			logger.ComponentError(logging.ComponentGeneral, "publish failed", zap.Error(err))
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *logging.ColoredLogger, opts *pubOptions, stdin io.Reader) error {
	pc := opts.cfg.Publisher
	pub, err := publisher.New(publisher.Config{
		URL:       pc.URL,
		Namespace: pc.Namespace,
		Timeout:   pc.Timeout,
		Reserved:  pc.Reserved,
	}, publisher.WithLogger(logger))
	if err != nil {
		return err
	}

	payload, err := readPayload(opts.data, stdin)
	if err != nil {
		return err
	}

	publish := func(ctx context.Context) error {
		logger.ComponentInfo(logging.ComponentPublisher, "publishing",
			zap.String("topic", pub.EffectiveTopic(ctx, opts.topic)),
			zap.String("address", pub.Address(ctx, opts.topic)))
		return pub.Publish(ctx, opts.topic, payload)
	}

	if opts.scoped {
		return pub.InNamespace(ctx, opts.scope, publish)
	}
	return publish(ctx)
}

func readPayload(data string, stdin io.Reader) (json.RawMessage, error) {
	raw := []byte(data)
	if data == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload from stdin: %w", err)
		}
		raw = b
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", errors.ErrInvalidInput)
	}
	return json.RawMessage(raw), nil
}
