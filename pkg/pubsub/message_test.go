package pubsub

import (
	"testing"

	hermeserrors "github.com/DeBrosOfficial/hermes/pkg/errors"
)

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name      string
		frame     string
		topic     string
		data      string
		timestamp int64
	}{
		{
			name:  "subscription field",
			frame: `{"subscription":"room1","data":{"n":1}}`,
			topic: "room1",
			data:  `{"n":1}`,
		},
		{
			name:      "legacy topic field",
			frame:     `{"topic":"room2","data":"hi","timestamp":1700000000000}`,
			topic:     "room2",
			data:      `"hi"`,
			timestamp: 1700000000000,
		},
		{
			name:  "subscription wins over topic",
			frame: `{"subscription":"new","topic":"old","data":[1,2]}`,
			topic: "new",
			data:  `[1,2]`,
		},
		{
			name:  "absent data",
			frame: `{"subscription":"room1"}`,
			topic: "room1",
		},
		{
			name:  "null data",
			frame: `{"subscription":"room1","data":null}`,
			topic: "room1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeMessage([]byte(tt.frame))
			if err != nil {
				t.Fatalf("DecodeMessage: %v", err)
			}
			if msg.Topic != tt.topic {
				t.Errorf("expected topic %q, got %q", tt.topic, msg.Topic)
			}
			if string(msg.Data) != tt.data {
				t.Errorf("expected data %q, got %q", tt.data, string(msg.Data))
			}
			if msg.Timestamp != tt.timestamp {
				t.Errorf("expected timestamp %d, got %d", tt.timestamp, msg.Timestamp)
			}
			if string(msg.Raw) != tt.frame {
				t.Errorf("expected raw frame to be kept")
			}
		})
	}
}

func TestDecodeMessage_Malformed(t *testing.T) {
	frames := []string{
		`not json`,
		`{"subscription":`,
		`["room1"]`,
		`{"data":{"n":1}}`,
		`{"subscription":42}`,
	}
	for _, f := range frames {
		_, err := DecodeMessage([]byte(f))
		if !hermeserrors.IsMalformedMessage(err) {
			t.Errorf("frame %q: expected malformed message error, got %v", f, err)
		}
	}
}

func TestIsKeepAlive(t *testing.T) {
	for _, f := range []string{"", " ", "\n\t"} {
		if !IsKeepAlive([]byte(f)) {
			t.Errorf("expected %q to be a keep-alive", f)
		}
	}
	if IsKeepAlive([]byte(`{}`)) {
		t.Error("non-empty frame is not a keep-alive")
	}
}

func TestMessageDecode(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"subscription":"room1","data":{"n":1}}`))
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	var payload struct {
		N int `json:"n"`
	}
	if err := msg.Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.N != 1 {
		t.Errorf("expected n=1, got %d", payload.N)
	}

	empty := &Message{Topic: "t"}
	if err := empty.Decode(&payload); err == nil {
		t.Error("expected error decoding message without data")
	}
}
