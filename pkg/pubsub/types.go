package pubsub

// DefaultName is the slot used when a listener is registered without a name.
const DefaultName = "default"

// Listener receives messages dispatched for a topic. A returned error is
// reported as a listener failure but never stops delivery to the other
// listeners of the same topic.
type Listener func(msg *Message) error

// HandlerID identifies an anonymous listener added with RegisterAdditional.
type HandlerID string
