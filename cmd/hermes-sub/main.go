package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DeBrosOfficial/hermes/pkg/client"
	"github.com/DeBrosOfficial/hermes/pkg/errors"
	"github.com/DeBrosOfficial/hermes/pkg/logging"
	"github.com/DeBrosOfficial/hermes/pkg/pubsub"
	"github.com/DeBrosOfficial/hermes/pkg/transport"
)

// printedMessage is the line written to stdout per delivered message.
type printedMessage struct {
	Topic     string          `json:"topic"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

func main() {
	opts, err := parseSubConfig(os.Args[1:])
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

	if err := run(ctx, logger, opts); err != nil {
		logger.ComponentError(logging.ComponentGeneral, "subscriber stopped", zap.Error(err))
		os.Exit(1)
	}
	logger.ComponentInfo(logging.ComponentGeneral, "subscriber shutdown complete")
}

func run(ctx context.Context, logger *logging.ColoredLogger, opts *subOptions) error {
	cc := opts.cfg.Client

	c := client.NewClient(&client.ClientConfig{
		Namespace:       cc.Namespace,
		ListenerTimeout: cc.ListenerTimeout,
	},
		client.WithLogger(logger),
		client.WithErrorHandler(func(err error) {
			logger.ComponentWarn(logging.ComponentClient, "delivery problem",
				zap.String("code", errors.GetErrorCode(err)),
				zap.Bool("retryable", errors.ShouldRetry(err)),
				zap.Error(err))
		}),
	)

	var outMu sync.Mutex
	enc := json.NewEncoder(os.Stdout)
	printer := func(msg *pubsub.Message) error {
		outMu.Lock()
		defer outMu.Unlock()
		return enc.Encode(printedMessage{Topic: msg.Topic, Data: msg.Data, Timestamp: msg.Timestamp})
	}

	var subOpts []client.SubscribeOption
	if opts.verbatim {
		subOpts = append(subOpts, client.WithNamespaceOverride())
	}
	for _, topic := range opts.topics {
		c.Subscribe(topic, printer, subOpts...)
	}

	tcfg := transport.DefaultConfig(cc.URL)
	tcfg.Reconnect = cc.Reconnect
	tcfg.MinBackoff = cc.MinBackoff
	tcfg.MaxBackoff = cc.MaxBackoff
	tcfg.WriteTimeout = cc.WriteTimeout
	ws := transport.New(tcfg, transport.WithLogger(logger))

	logger.ComponentInfo(logging.ComponentGeneral, "subscriber starting",
		zap.String("url", cc.URL),
		zap.String("namespace", cc.Namespace),
		zap.Strings("topics", opts.topics))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Run(gctx, ws)
	})
	if opts.statusInterval > 0 {
		g.Go(func() error {
			reportStatus(gctx, logger, c, opts.statusInterval)
			return nil
		})
	}
	return g.Wait()
}

func reportStatus(ctx context.Context, logger *logging.ColoredLogger, c *client.Client, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bound := 0
			topics := c.Topics()
			for _, ts := range topics {
				if ts.State == client.Bound {
					bound++
				}
			}
			logger.ComponentInfo(logging.ComponentGeneral, "subscription status",
				zap.Stringer("connection", c.State()),
				zap.String("handle", c.HandleID()),
				zap.Int("topics", len(topics)),
				zap.Int("bound", bound))
		}
	}
}
