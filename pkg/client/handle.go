package client

import (
	"time"

	"github.com/google/uuid"
)

// connectionHandle is the client's view of one transport connection.
// A handle never goes back to Open once closed; reconnecting mints a new one.
type connectionHandle struct {
	id       string
	state    ConnState
	conn     Sender
	openedAt time.Time
}

func newConnectingHandle() *connectionHandle {
	return &connectionHandle{
		id:    uuid.NewString(),
		state: Connecting,
	}
}

func newOpenHandle(conn Sender) *connectionHandle {
	return &connectionHandle{
		id:       uuid.NewString(),
		state:    Open,
		conn:     conn,
		openedAt: time.Now(),
	}
}

func (h *connectionHandle) close() {
	h.state = Closed
	h.conn = nil
}
