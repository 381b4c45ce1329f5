package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/parley/pkg/chat"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// echoServer upgrades each request and broadcasts every received frame
// back, stamping it with the roomId from the query string.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("roomId")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var out chat.Outbound
			if err := conn.ReadJSON(&out); err != nil {
				return
			}
			echo := chat.Message{
				ID:           "srv-1",
				RoomID:       roomID,
				SenderUserID: out.SenderUserID,
				Content:      out.Content,
				CreatedAt:    time.Now().UTC(),
			}
			if err := conn.WriteJSON(echo); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitEvent(t *testing.T, ch *Channel, typ EventType) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch.Events():
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", typ)
		}
	}
}

func TestOpenSendReceive(t *testing.T) {
	srv := echoServer(t)
	d := NewDialer(wsURL(srv), 2*time.Second)

	ch := d.Open(context.Background(), "room-1")
	defer ch.Close()

	assert.Equal(t, "room-1", ch.RoomID())
	waitEvent(t, ch, EventOpen)
	assert.Equal(t, StatusOpen, ch.Status())

	require.NoError(t, ch.Send(chat.Outbound{
		RoomID:       "room-1",
		SenderUserID: "me",
		Content:      "hello",
	}))

	ev := waitEvent(t, ch, EventMessage)
	require.NotNil(t, ev.Message)
	assert.Equal(t, "room-1", ev.Message.RoomID)
	assert.Equal(t, "hello", ev.Message.Content)
}

func TestSendWhileConnecting(t *testing.T) {
	// The handler stalls before upgrading, so the dial never completes
	// within the test body.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Second)
	}))
	t.Cleanup(srv.Close)

	d := NewDialer(wsURL(srv), 10*time.Second)
	ch := d.Open(context.Background(), "room-1")
	defer ch.Close()

	assert.Equal(t, StatusConnecting, ch.Status())
	assert.ErrorIs(t, ch.Send(chat.Outbound{RoomID: "room-1", Content: "x"}), ErrChannelNotOpen)
}

func TestConnectTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Second)
	}))
	t.Cleanup(srv.Close)

	d := NewDialer(wsURL(srv), 50*time.Millisecond)
	ch := d.Open(context.Background(), "room-1")

	ev := waitEvent(t, ch, EventError)
	assert.ErrorIs(t, ev.Err, ErrChannelTimeout)
	var openErr *OpenError
	require.ErrorAs(t, ev.Err, &openErr)
	assert.Equal(t, "room-1", openErr.RoomID)

	waitEvent(t, ch, EventClosed)
	assert.Equal(t, StatusClosed, ch.Status())
}

func TestCloseIsIdempotent(t *testing.T) {
	srv := echoServer(t)
	d := NewDialer(wsURL(srv), 2*time.Second)

	ch := d.Open(context.Background(), "room-1")
	waitEvent(t, ch, EventOpen)

	ch.Close()
	ch.Close()
	waitEvent(t, ch, EventClosed)

	assert.Equal(t, StatusClosed, ch.Status())
	assert.ErrorIs(t, ch.Send(chat.Outbound{RoomID: "room-1", Content: "x"}), ErrChannelNotOpen)
}

func TestCloseDuringDialNeverReopens(t *testing.T) {
	srv := echoServer(t)
	d := NewDialer(wsURL(srv), 2*time.Second)

	// Race Close against the dial goroutine at varying offsets. Once
	// Close has returned, the handle must stay closed: a dial that
	// completes afterwards discards its socket instead of flipping the
	// status back to open.
	for i := 0; i < 300; i++ {
		ch := d.Open(context.Background(), "room-1")
		if i%3 > 0 {
			time.Sleep(time.Duration(i%3) * 100 * time.Microsecond)
		}
		ch.Close()
		require.Equal(t, StatusClosed, ch.Status())

		waitEvent(t, ch, EventClosed)
		time.Sleep(time.Millisecond)
		require.Equal(t, StatusClosed, ch.Status(), "late dial resurrected a closed handle")
		require.ErrorIs(t, ch.Send(chat.Outbound{RoomID: "room-1", Content: "x"}), ErrChannelNotOpen)
	}
}

func TestForeignRoomFrameDropped(t *testing.T) {
	// The handler pushes a frame stamped with another room's id, then one
	// with the right id. Only the second may surface.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteJSON(chat.Message{ID: "f-1", RoomID: "room-other", Content: "leak"})
		conn.WriteJSON(chat.Message{ID: "f-2", RoomID: "room-1", Content: "mine"})
		time.Sleep(time.Second)
	}))
	t.Cleanup(srv.Close)

	d := NewDialer(wsURL(srv), 2*time.Second)
	ch := d.Open(context.Background(), "room-1")
	defer ch.Close()
	waitEvent(t, ch, EventOpen)

	ev := waitEvent(t, ch, EventMessage)
	assert.Equal(t, "f-2", ev.Message.ID)
}

func TestServerCloseEndsChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}))
	t.Cleanup(srv.Close)

	d := NewDialer(wsURL(srv), 2*time.Second)
	ch := d.Open(context.Background(), "room-1")
	waitEvent(t, ch, EventOpen)

	// A clean server-side close is terminal but not an error, and the
	// channel never redials on its own.
	waitEvent(t, ch, EventClosed)
	assert.Equal(t, StatusClosed, ch.Status())
}
