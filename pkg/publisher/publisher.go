package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/hermes/pkg/errors"
	"github.com/DeBrosOfficial/hermes/pkg/logging"
	"github.com/DeBrosOfficial/hermes/pkg/pubsub"
)

// DefaultURL is the broker's publish endpoint when nothing else is configured.
const DefaultURL = "http://localhost:2960"

// Config holds publisher settings.
type Config struct {
	// URL is the broker base URL; the escaped topic is appended as a path segment.
	URL string
	// Namespace applies when no scope is active on the call context.
	Namespace string
	// Timeout bounds every publish call. Zero means no client-side timeout.
	Timeout time.Duration
	// Reserved is the extra set of characters escaped in addresses.
	Reserved string
}

// DefaultConfig returns the publisher defaults.
func DefaultConfig() Config {
	return Config{
		URL:      DefaultURL,
		Timeout:  10 * time.Second,
		Reserved: DefaultReserved,
	}
}

// Publisher pushes messages to the broker with one HTTP PUT per message.
// It keeps no per-call state and is safe for concurrent use.
type Publisher struct {
	baseURL    string
	namespace  string
	syntax     AddressSyntax
	httpClient *http.Client
	logger     *logging.ColoredLogger
}

// Option customizes a Publisher.
type Option func(*Publisher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Publisher) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// WithSyntax replaces the address syntax.
func WithSyntax(s AddressSyntax) Option {
	return func(p *Publisher) {
		if s != nil {
			p.syntax = s
		}
	}
}

// WithLogger sets the component logger.
func WithLogger(l *logging.ColoredLogger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a publisher for cfg.
func New(cfg Config, opts ...Option) (*Publisher, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: publisher url: %v", errors.ErrInvalidInput, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: publisher url must be http or https, got %q", errors.ErrInvalidInput, cfg.URL)
	}

	p := &Publisher{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		namespace:  cfg.Namespace,
		syntax:     NewPathSegment(cfg.Reserved),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// URL returns the broker base URL.
func (p *Publisher) URL() string {
	return p.baseURL
}

// EffectiveTopic returns topic prefixed with the namespace active on ctx,
// or with the configured namespace when no scope is active.
func (p *Publisher) EffectiveTopic(ctx context.Context, topic string) string {
	if ns, ok := pubsub.NamespaceFrom(ctx); ok {
		return pubsub.Namespaced(ns, topic)
	}
	return pubsub.Namespaced(p.namespace, topic)
}

// Address returns the URL a publish of topic on ctx is sent to.
func (p *Publisher) Address(ctx context.Context, topic string) string {
	return p.baseURL + "/" + p.syntax.Escape(p.EffectiveTopic(ctx, topic))
}

// Unescape recovers the effective topic from an address path segment.
func (p *Publisher) Unescape(segment string) (string, error) {
	return p.syntax.Unescape(segment)
}

// Publish sends payload to topic. A nil payload is sent as an empty JSON
// object; json.RawMessage is sent as is. Every failure is returned as a
// *errors.PublishError.
func (p *Publisher) Publish(ctx context.Context, topic string, payload interface{}) error {
	effective := p.EffectiveTopic(ctx, topic)
	address := p.baseURL + "/" + p.syntax.Escape(effective)

	body, err := encodePayload(payload)
	if err != nil {
		return errors.NewPublishError(effective, address, fmt.Errorf("failed to encode payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, address, bytes.NewReader(body))
	if err != nil {
		return errors.NewPublishError(effective, address, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.ComponentWarn(logging.ComponentPublisher, "publish request failed",
			zap.String("topic", effective),
			zap.Error(err))
		return errors.NewPublishError(effective, address, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		p.logger.ComponentWarn(logging.ComponentPublisher, "publish rejected",
			zap.String("topic", effective),
			zap.Int("status", resp.StatusCode))
		return errors.NewPublishError(effective, address,
			fmt.Errorf("broker rejected publish: %s", strings.TrimSpace(string(snippet)))).
			WithStatus(resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	p.logger.ComponentDebug(logging.ComponentPublisher, "published",
		zap.String("topic", effective),
		zap.Int("bytes", len(body)),
		zap.Duration("took", time.Since(start)))
	return nil
}

// PublishFunc publishes the payload computed by fn. An error from fn is
// returned as a *errors.PublishError and nothing is sent.
func (p *Publisher) PublishFunc(ctx context.Context, topic string, fn func() (interface{}, error)) error {
	payload, err := fn()
	if err != nil {
		effective := p.EffectiveTopic(ctx, topic)
		return errors.NewPublishError(effective, p.baseURL+"/"+p.syntax.Escape(effective),
			fmt.Errorf("failed to compute payload: %w", err))
	}
	return p.Publish(ctx, topic, payload)
}

// InNamespace runs fn with ns as the active namespace. The previous namespace
// is active again once fn returns, whether it returns or panics.
func (p *Publisher) InNamespace(ctx context.Context, ns string, fn func(ctx context.Context) error) error {
	return InNamespace(ctx, ns, fn)
}

func encodePayload(payload interface{}) ([]byte, error) {
	switch v := payload.(type) {
	case nil:
		return []byte("{}"), nil
	case json.RawMessage:
		if !json.Valid(v) {
			return nil, fmt.Errorf("raw payload is not valid JSON")
		}
		return v, nil
	default:
		return json.Marshal(v)
	}
}
