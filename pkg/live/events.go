package live

import "github.com/tinyland-inc/parley/pkg/chat"

// EventType discriminates the events a Channel delivers.
type EventType int

const (
	// EventOpen fires once when the connection is established.
	EventOpen EventType = iota
	// EventMessage carries one inbound message frame.
	EventMessage
	// EventError carries a transport-level or connect failure.
	EventError
	// EventClosed fires once when the channel reaches its terminal state.
	EventClosed
)

func (t EventType) String() string {
	switch t {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is one entry in a channel's event queue. Consumers read these
// from Channel.Events instead of registering callbacks, so tests can
// drive a session with synthetic events.
type Event struct {
	Type    EventType
	Message *chat.Message // set for EventMessage
	Err     error         // set for EventError
}
