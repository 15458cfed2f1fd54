package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/hermes/pkg/errors"
	"github.com/DeBrosOfficial/hermes/pkg/logging"
	"github.com/DeBrosOfficial/hermes/pkg/pubsub"
)

// Client tracks topic interests for one streaming connection and forwards
// inbound messages to a local Registry.
//
// Interests can be declared at any time. While the connection is not open
// they are kept Unbound and announced, in the order they were first
// requested, as soon as the transport reports an open connection.
type Client struct {
	config   *ClientConfig
	registry *pubsub.Registry
	logger   *logging.ColoredLogger
	onError  func(error)

	listenerTimeout time.Duration

	// mu guards the subscription table and the connection handle.
	// Announcements are written while holding it so that a Subscribe racing
	// with OnOpen can neither double-announce nor reorder topics.
	mu     sync.Mutex
	order  []string
	states map[string]SubscriptionState
	handle *connectionHandle
}

// NewClient creates a client in the Connecting state.
func NewClient(config *ClientConfig, opts ...Option) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}

	c := &Client{
		config:          config,
		logger:          logging.NewNop(),
		states:          make(map[string]SubscriptionState),
		handle:          newConnectingHandle(),
		listenerTimeout: config.ListenerTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = pubsub.NewRegistry(
			pubsub.WithLogger(c.logger),
			pubsub.WithListenerBudget(c.listenerTimeout),
		)
	}
	if c.onError == nil {
		c.onError = c.logError
	}
	return c
}

// Run hands the client to a transport and blocks until ctx is cancelled.
func (c *Client) Run(ctx context.Context, t Transport) error {
	return t.Run(ctx, c)
}

// Registry returns the dispatcher the client delivers to.
func (c *Client) Registry() *pubsub.Registry {
	return c.registry
}

// Namespace returns the configured namespace.
func (c *Client) Namespace() string {
	return c.config.Namespace
}

// EffectiveTopic returns the topic as announced and dispatched.
func (c *Client) EffectiveTopic(topic string, opts ...SubscribeOption) string {
	o := c.subscribeOptions(opts)
	if o.verbatim {
		return topic
	}
	return pubsub.Namespaced(c.config.Namespace, topic)
}

// Subscribe registers listener for topic and announces the topic if the
// connection is open. It never fails: without an open connection the
// interest is kept and announced on the next open. Re-subscribing replaces
// the listener registered under the same name.
func (c *Client) Subscribe(topic string, listener pubsub.Listener, opts ...SubscribeOption) {
	o := c.subscribeOptions(opts)
	effective := topic
	if !o.verbatim {
		effective = pubsub.Namespaced(c.config.Namespace, topic)
	}

	c.registry.Register(effective, o.name, listener)

	var failure error
	c.mu.Lock()
	state, known := c.states[effective]
	if !known {
		c.order = append(c.order, effective)
		c.states[effective] = Unbound
		state = Unbound
	}
	if c.handle.state == Open && state == Unbound {
		failure = c.announceLocked(effective)
	}
	handleState := c.handle.state
	c.mu.Unlock()

	c.logger.ComponentDebug(logging.ComponentClient, "subscribed",
		zap.String("topic", effective),
		zap.String("listener", o.name),
		zap.Stringer("connection", handleState))

	if failure != nil {
		c.onError(failure)
	}
}

// Unsubscribe removes the listener slot for topic. The topic interest itself
// is kept for the lifetime of the client; the broker has no unsubscribe frame.
func (c *Client) Unsubscribe(topic string, opts ...SubscribeOption) bool {
	o := c.subscribeOptions(opts)
	return c.registry.Unregister(c.EffectiveTopic(topic, opts...), o.name)
}

// OnOpen installs a fresh open handle for conn and replays every topic
// interest in the order it was first requested.
func (c *Client) OnOpen(conn Sender) {
	var failure error

	c.mu.Lock()
	c.handle = newOpenHandle(conn)
	for _, topic := range c.order {
		c.states[topic] = Unbound
	}
	replayed := 0
	for _, topic := range c.order {
		if err := c.announceLocked(topic); err != nil {
			failure = err
			break
		}
		replayed++
	}
	handleID := c.handle.id
	c.mu.Unlock()

	c.logger.ComponentInfo(logging.ComponentClient, "connection open",
		zap.String("handle", handleID),
		zap.Int("replayed", replayed))

	if failure != nil {
		c.onError(failure)
	}
}

// OnClose marks the handle closed and every topic Unbound. A non-nil err is
// reported as a transport failure.
func (c *Client) OnClose(err error) {
	c.mu.Lock()
	c.handle.close()
	for _, topic := range c.order {
		c.states[topic] = Unbound
	}
	handleID := c.handle.id
	c.mu.Unlock()

	c.logger.ComponentInfo(logging.ComponentClient, "connection closed",
		zap.String("handle", handleID),
		zap.Error(err))

	if err != nil {
		if !errors.IsTransportFailure(err) {
			err = errors.NewTransportError("read", err)
		}
		c.onError(err)
	}
}

// OnMessage decodes frame and dispatches it. Keep-alive frames are ignored;
// undecodable frames and failing listeners are reported, never propagated.
func (c *Client) OnMessage(frame []byte) {
	if pubsub.IsKeepAlive(frame) {
		return
	}

	msg, err := pubsub.DecodeMessage(frame)
	if err != nil {
		c.onError(err)
		return
	}

	n, err := c.registry.Dispatch(msg.Topic, msg)
	c.logger.ComponentDebug(logging.ComponentClient, "message dispatched",
		zap.String("topic", msg.Topic),
		zap.Int("listeners", n))
	for _, lerr := range multierr.Errors(err) {
		c.onError(lerr)
	}
}

// State returns the state of the current connection handle.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle.state
}

// HandleID returns the id of the current connection handle.
func (c *Client) HandleID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle.id
}

// Topics returns every topic interest in request order.
func (c *Client) Topics() []TopicStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]TopicStatus, 0, len(c.order))
	for _, topic := range c.order {
		out = append(out, TopicStatus{Topic: topic, State: c.states[topic]})
	}
	return out
}

// announceLocked sends the announcement for topic and marks it Bound.
// A send failure closes the handle, since the connection can no longer be
// trusted; the transport's own close notification follows.
func (c *Client) announceLocked(topic string) error {
	if err := c.handle.conn.Send(topic); err != nil {
		c.handle.close()
		for _, t := range c.order {
			c.states[t] = Unbound
		}
		return errors.NewTransportError("announce", err)
	}
	c.states[topic] = Bound
	return nil
}

func (c *Client) subscribeOptions(opts []SubscribeOption) subscribeOptions {
	o := subscribeOptions{name: pubsub.DefaultName}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = pubsub.DefaultName
	}
	return o
}

func (c *Client) logError(err error) {
	c.logger.ComponentWarn(logging.ComponentClient, "contained error",
		zap.String("code", errors.GetErrorCode(err)),
		zap.Error(err))
}
