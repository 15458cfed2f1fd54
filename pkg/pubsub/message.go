package pubsub

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/DeBrosOfficial/hermes/pkg/errors"
)

// Message is one inbound frame after decoding.
type Message struct {
	// Topic is the effective topic the broker delivered the message for.
	Topic string
	// Data is the raw JSON of the "data" field; nil when the field is absent.
	Data json.RawMessage
	// Timestamp is the broker timestamp in unix milliseconds, 0 when absent.
	Timestamp int64
	// Raw is the complete frame as received.
	Raw []byte
}

// wireMessage mirrors the inbound envelope. "topic" is the legacy name of
// "subscription" and is only consulted when "subscription" is empty.
type wireMessage struct {
	Subscription string          `json:"subscription"`
	Topic        string          `json:"topic"`
	Data         json.RawMessage `json:"data"`
	Timestamp    int64           `json:"timestamp"`
}

// IsKeepAlive reports whether frame carries no payload.
func IsKeepAlive(frame []byte) bool {
	return len(bytes.TrimSpace(frame)) == 0
}

// DecodeMessage parses an inbound frame. Failures are returned as
// *errors.MalformedMessageError.
func DecodeMessage(frame []byte) (*Message, error) {
	var w wireMessage
	if err := json.Unmarshal(frame, &w); err != nil {
		return nil, errors.NewMalformedMessageError(frame, err)
	}

	topic := w.Subscription
	if topic == "" {
		topic = w.Topic
	}
	if topic == "" {
		return nil, errors.NewMalformedMessageError(frame, fmt.Errorf("missing subscription"))
	}

	data := w.Data
	if bytes.Equal(data, []byte("null")) {
		data = nil
	}

	return &Message{
		Topic:     topic,
		Data:      data,
		Timestamp: w.Timestamp,
		Raw:       frame,
	}, nil
}

// Decode unmarshals the message data into v.
func (m *Message) Decode(v interface{}) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("message for %q has no data", m.Topic)
	}
	return json.Unmarshal(m.Data, v)
}
