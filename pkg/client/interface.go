package client

import (
	"context"

	"github.com/DeBrosOfficial/hermes/pkg/pubsub"
)

// Sender writes one text frame on a live connection.
type Sender interface {
	Send(frame string) error
}

// Handler receives the events of one streaming connection. Transports call
// these sequentially from a single goroutine, in the order events occur.
type Handler interface {
	OnOpen(conn Sender)
	OnClose(err error)
	OnMessage(frame []byte)
}

// Transport drives a Handler until ctx is cancelled.
type Transport interface {
	Run(ctx context.Context, h Handler) error
}

// Subscriber is the caller-facing surface of Client.
type Subscriber interface {
	Subscribe(topic string, listener pubsub.Listener, opts ...SubscribeOption)
	Unsubscribe(topic string, opts ...SubscribeOption) bool
	Topics() []TopicStatus
	State() ConnState
}

// TopicStatus is a snapshot of one topic interest.
type TopicStatus struct {
	Topic string
	State SubscriptionState
}

var (
	_ Handler    = (*Client)(nil)
	_ Subscriber = (*Client)(nil)
)
