// Package live owns the room-scoped WebSocket connection that delivers
// newly sent messages in real time.
//
// A Channel is scoped to exactly one room for its whole life. It starts
// connecting, delivers its lifecycle and inbound frames through an event
// queue, and ends closed; a closed channel never reconnects.
package live

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tinyland-inc/parley/pkg/chat"
)

// Status is the lifecycle state of a Channel.
type Status int32

const (
	StatusConnecting Status = iota
	StatusOpen
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	// ErrChannelNotOpen is returned by Send when the channel is still
	// connecting or already closed. Sends are never buffered for retry.
	ErrChannelNotOpen = errors.New("live channel is not open")

	// ErrChannelTimeout is surfaced when the connection is not
	// established within the dialer's connect timeout.
	ErrChannelTimeout = errors.New("live channel connect timed out")
)

// OpenError reports a failed connection attempt for a room.
type OpenError struct {
	RoomID string
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("opening live channel for room %s: %v", e.RoomID, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 16
	eventQueueSize = 64
)

// Dialer opens Channels against a WebSocket endpoint.
type Dialer struct {
	url            string
	connectTimeout time.Duration
	dialer         *websocket.Dialer
}

func NewDialer(wsURL string, connectTimeout time.Duration) *Dialer {
	return &Dialer{
		url:            wsURL,
		connectTimeout: connectTimeout,
		dialer:         websocket.DefaultDialer,
	}
}

// Open starts connecting to the room-scoped endpoint and returns the
// channel immediately in StatusConnecting. The outcome arrives on the
// event queue: EventOpen on success, EventError then EventClosed on
// failure.
func (d *Dialer) Open(ctx context.Context, roomID string) *Channel {
	c := &Channel{
		roomID: roomID,
		events: make(chan Event, eventQueueSize),
		done:   make(chan struct{}),
	}
	c.status.Store(int32(StatusConnecting))

	go c.dial(ctx, d)
	return c
}

// Channel is one live connection, owned by the session that opened it.
type Channel struct {
	roomID string
	status atomic.Int32
	alive  atomic.Bool // liveness flag: frames after Close are dropped
	events chan Event
	done   chan struct{}
	once   sync.Once

	mu   sync.Mutex // guards conn writes
	conn *websocket.Conn
}

func (c *Channel) RoomID() string { return c.roomID }

func (c *Channel) Status() Status { return Status(c.status.Load()) }

// Events returns the channel's event queue. The queue is never closed;
// EventClosed is the terminal entry.
func (c *Channel) Events() <-chan Event { return c.events }

// Done returns a signal that is closed when the channel reaches its
// terminal state. Unlike the EventClosed queue entry, which a full
// queue can drop, the signal always fires.
func (c *Channel) Done() <-chan struct{} { return c.done }

func (c *Channel) dial(ctx context.Context, d *Dialer) {
	target := d.url
	if u, err := url.Parse(d.url); err == nil {
		q := u.Query()
		q.Set("roomId", c.roomID)
		u.RawQuery = q.Encode()
		target = u.String()
	}

	dialCtx, cancel := context.WithTimeout(ctx, d.connectTimeout)
	defer cancel()

	conn, _, err := d.dialer.DialContext(dialCtx, target, nil)
	if err != nil {
		if errors.Is(dialCtx.Err(), context.DeadlineExceeded) {
			err = ErrChannelTimeout
		}
		c.finish(&OpenError{RoomID: c.roomID, Err: err})
		return
	}

	// The done re-check and the open transition share one critical
	// section with finish: a Close landing mid-dial runs either before
	// this block (the socket is discarded) or after it (finish closes
	// the conn), never between.
	c.mu.Lock()
	select {
	case <-c.done:
		// Closed while connecting; the handle is stale.
		c.mu.Unlock()
		conn.Close()
		return
	default:
	}
	c.conn = conn
	c.alive.Store(true)
	c.status.Store(int32(StatusOpen))
	c.mu.Unlock()

	c.emit(Event{Type: EventOpen})
	log.Debug().Str("room", c.roomID).Msg("live channel open")

	go c.pingLoop()
	c.readPump()
}

func (c *Channel) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg chat.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && c.alive.Load() {
				c.finish(fmt.Errorf("live channel for room %s: %w", c.roomID, err))
			} else {
				c.finish(nil)
			}
			return
		}

		if !c.alive.Load() {
			// Frame raced with Close; it belongs to a stale handle.
			continue
		}
		if msg.RoomID != c.roomID {
			log.Warn().Str("room", c.roomID).Str("frame_room", msg.RoomID).Msg("dropping frame for foreign room")
			continue
		}

		c.emit(Event{Type: EventMessage, Message: &msg})
	}
}

func (c *Channel) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()
			if err != nil {
				c.finish(nil)
				return
			}
		case <-c.done:
			return
		}
	}
}

// Send writes one frame. It fails with ErrChannelNotOpen unless the
// channel is open; a failed send is a hard failure, never queued.
func (c *Channel) Send(out chat.Outbound) error {
	if c.Status() != StatusOpen {
		return ErrChannelNotOpen
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrChannelNotOpen
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(out); err != nil {
		return fmt.Errorf("send on room %s: %w", c.roomID, err)
	}
	return nil
}

// Close tears the channel down. Closing an already-closed channel is a
// no-op.
func (c *Channel) Close() {
	c.finish(nil)
}

func (c *Channel) finish(err error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.alive.Store(false)
		c.status.Store(int32(StatusClosed))
		close(c.done)
		conn := c.conn
		c.mu.Unlock()

		if err != nil {
			log.Warn().Err(err).Str("room", c.roomID).Msg("live channel error")
			c.tryEmit(Event{Type: EventError, Err: err})
		}
		c.tryEmit(Event{Type: EventClosed})

		if conn != nil {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			conn.Close()
		}
	})
}

func (c *Channel) emit(ev Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// tryEmit never blocks; terminal events are dropped rather than wedging
// teardown when no consumer remains.
func (c *Channel) tryEmit(ev Event) {
	select {
	case c.events <- ev:
	default:
	}
}
