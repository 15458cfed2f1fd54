package client

// SubscriptionState tells whether a topic has been announced on the current connection.
type SubscriptionState int

const (
	// Unbound: registered locally, not yet announced on the current connection.
	Unbound SubscriptionState = iota
	// Bound: announced on the current, open connection.
	Bound
)

func (s SubscriptionState) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Bound:
		return "bound"
	default:
		return "unknown"
	}
}

// ConnState is the lifecycle state of a connection handle.
type ConnState int

const (
	Connecting ConnState = iota
	Open
	Closed
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
