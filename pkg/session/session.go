// Package session orchestrates the sync engine for the currently active
// room: it tears down the previous live channel on a room switch, loads
// the latest history page, seeds the message store, opens a new live
// channel, and drives "load older" requests.
//
// Each room selection creates one activation, identified by a token.
// Every asynchronous completion re-checks the token before mutating
// state, so results belonging to an abandoned activation are discarded
// rather than applied to the wrong room.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tinyland-inc/parley/pkg/chat"
	"github.com/tinyland-inc/parley/pkg/live"
	"github.com/tinyland-inc/parley/pkg/scroll"
	"github.com/tinyland-inc/parley/pkg/store"
)

// State is the lifecycle of one activation. A closed activation never
// transitions again; selecting another room creates a new activation.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLive:
		return "live"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// HistoryFetcher loads one page of a room's history.
type HistoryFetcher interface {
	FetchPage(ctx context.Context, roomID string, page int) (*chat.Page, error)
}

// Channel is the session-facing surface of a live connection.
type Channel interface {
	RoomID() string
	Status() live.Status
	Events() <-chan live.Event
	Done() <-chan struct{}
	Send(out chat.Outbound) error
	Close()
}

// Opener opens a live channel for a room.
type Opener interface {
	Open(ctx context.Context, roomID string) Channel
}

// DialOpener adapts a live.Dialer to the Opener interface.
type DialOpener struct {
	Dialer *live.Dialer
}

func (o DialOpener) Open(ctx context.Context, roomID string) Channel {
	return o.Dialer.Open(ctx, roomID)
}

// Viewport abstracts the scrollable message list of a UI. A nil
// viewport disables scroll handling; everything else works the same.
type Viewport interface {
	Geometry() scroll.Viewport
	ScrollTo(top float64)
	InsertedMessages(n int)
	Reset()
}

// UpdateKind discriminates entries on the session's update feed.
type UpdateKind int

const (
	UpdateSeeded UpdateKind = iota
	UpdatePrepended
	UpdateAppended
	UpdateChannelOpen
	UpdateChannelClosed
	UpdateError
)

// Update is one entry on the feed a UI consumes to re-render.
type Update struct {
	Kind     UpdateKind
	RoomID   string
	Message  *chat.Message // set for UpdateAppended
	Inserted int           // set for UpdateSeeded and UpdatePrepended
	Err      error         // set for UpdateError
}

// pageState is the pagination half of a room's sync state, retained per
// room for the lifetime of the session.
type pageState struct {
	page         int
	totalPages   int
	hasMore      bool
	loadingOlder bool
}

// Session owns the single mutable channel slot and the per-room
// pagination state. It is the only writer of the channel lifecycle.
type Session struct {
	fetcher HistoryFetcher
	opener  Opener
	store   *store.Store
	vp      Viewport
	userID  string

	mu      sync.Mutex
	state   State
	room    chat.Room
	token   string
	channel Channel
	paging  map[string]*pageState

	updates chan Update
}

func New(fetcher HistoryFetcher, opener Opener, st *store.Store, vp Viewport, userID string) *Session {
	return &Session{
		fetcher: fetcher,
		opener:  opener,
		store:   st,
		vp:      vp,
		userID:  userID,
		state:   StateIdle,
		paging:  make(map[string]*pageState),
		updates: make(chan Update, 64),
	}
}

// Updates returns the feed of store and channel changes. The feed is
// best-effort: entries are dropped rather than blocking the engine when
// no one is consuming.
func (s *Session) Updates() <-chan Update { return s.updates }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Room() chat.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.paging[s.room.ID]
	return ok && ps.hasMore
}

func (s *Session) LoadingOlder() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.paging[s.room.ID]
	return ok && ps.loadingOlder
}

// Messages returns the active room's log in chronological order.
func (s *Session) Messages() []chat.Message {
	s.mu.Lock()
	roomID := s.room.ID
	s.mu.Unlock()
	return s.store.Messages(roomID)
}

// Select makes room the active room. Any previous activation's channel
// is closed and its in-flight results are invalidated before the new
// activation begins loading history.
func (s *Session) Select(ctx context.Context, room chat.Room) {
	s.mu.Lock()
	if s.channel != nil {
		s.channel.Close()
		s.channel = nil
	}
	token := uuid.NewString()
	s.token = token
	s.room = room
	s.state = StateLoading
	s.mu.Unlock()

	log.Debug().Str("room", room.ID).Msg("room selected")
	go s.activate(ctx, room, token)
}

func (s *Session) activate(ctx context.Context, room chat.Room, token string) {
	page, err := s.fetcher.FetchPage(ctx, room.ID, 0)

	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		log.Debug().Str("room", room.ID).Msg("discarding stale initial page")
		return
	}
	if err != nil {
		// The activation stays in Loading: no seed, no channel.
		s.mu.Unlock()
		log.Error().Err(err).Str("room", room.ID).Msg("initial history load failed")
		s.publish(Update{Kind: UpdateError, RoomID: room.ID, Err: err})
		return
	}

	msgs := page.Chronological()
	s.store.Seed(room.ID, msgs)

	ps := s.pageLocked(room.ID)
	ps.page = page.Number
	ps.totalPages = page.TotalPages
	ps.hasMore = page.HasMore()
	ps.loadingOlder = false

	if s.vp != nil {
		s.vp.Reset()
		s.vp.InsertedMessages(len(msgs))
		s.vp.ScrollTo(scroll.Bottom(s.vp.Geometry()))
	}

	// History is fully applied before the channel opens, so no live
	// message can land ahead of not-yet-loaded history.
	ch := s.opener.Open(ctx, room.ID)
	s.channel = ch
	s.state = StateLive
	s.mu.Unlock()

	s.publish(Update{Kind: UpdateSeeded, RoomID: room.ID, Inserted: len(msgs)})
	go s.pump(ch, room.ID, token)
}

// pump drains one channel's event queue until the terminal EventClosed.
// The done signal backstops teardown: a full queue can drop the
// terminal entry, and the pump must not wait on it forever.
func (s *Session) pump(ch Channel, roomID, token string) {
	for {
		select {
		case ev := <-ch.Events():
			if s.handleEvent(roomID, token, ev) {
				return
			}
		case <-ch.Done():
			// Drain what is already queued, then end the activation.
			for {
				select {
				case ev := <-ch.Events():
					if s.handleEvent(roomID, token, ev) {
						return
					}
				default:
					s.publish(Update{Kind: UpdateChannelClosed, RoomID: roomID})
					return
				}
			}
		}
	}
}

// handleEvent applies one channel event; true means the channel is
// finished and the pump should exit.
func (s *Session) handleEvent(roomID, token string, ev live.Event) bool {
	switch ev.Type {
	case live.EventOpen:
		s.publish(Update{Kind: UpdateChannelOpen, RoomID: roomID})
	case live.EventMessage:
		s.handleLive(roomID, token, *ev.Message)
	case live.EventError:
		log.Warn().Err(ev.Err).Str("room", roomID).Msg("live channel error")
		s.publish(Update{Kind: UpdateError, RoomID: roomID, Err: ev.Err})
	case live.EventClosed:
		s.publish(Update{Kind: UpdateChannelClosed, RoomID: roomID})
		return true
	}
	return false
}

func (s *Session) handleLive(roomID, token string, msg chat.Message) {
	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		log.Debug().Str("room", roomID).Str("message", msg.ID).Msg("dropping frame from stale activation")
		return
	}

	inserted := s.store.Append(roomID, msg)
	if inserted && s.vp != nil {
		s.vp.InsertedMessages(1)
		if g := s.vp.Geometry(); scroll.ShouldAutoScrollOnAppend(g) {
			s.vp.ScrollTo(scroll.Bottom(g))
		}
	}
	s.mu.Unlock()

	if inserted {
		s.publish(Update{Kind: UpdateAppended, RoomID: roomID, Message: &msg})
	}
}

// LoadOlder requests the next older history page for the active room.
// It reports whether a fetch was started; it is a no-op while another
// older-page fetch is in flight or when no older pages remain.
func (s *Session) LoadOlder(ctx context.Context) bool {
	s.mu.Lock()
	if s.state != StateLive {
		s.mu.Unlock()
		return false
	}
	roomID := s.room.ID
	token := s.token
	ps := s.pageLocked(roomID)
	if !ps.hasMore || ps.loadingOlder {
		s.mu.Unlock()
		return false
	}
	ps.loadingOlder = true
	next := ps.page + 1

	var anchor scroll.Anchor
	if s.vp != nil {
		anchor = scroll.CaptureBeforePrepend(s.vp.Geometry())
	}
	s.mu.Unlock()

	go s.fetchOlder(ctx, roomID, next, token, anchor)
	return true
}

// OnScroll is the UI's scroll hook: when the viewer is near the top of
// the list it triggers a load-older request.
func (s *Session) OnScroll(ctx context.Context) bool {
	if s.vp == nil || !scroll.NearTop(s.vp.Geometry()) {
		return false
	}
	return s.LoadOlder(ctx)
}

func (s *Session) fetchOlder(ctx context.Context, roomID string, pageNum int, token string, anchor scroll.Anchor) {
	page, err := s.fetcher.FetchPage(ctx, roomID, pageNum)

	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		log.Debug().Str("room", roomID).Int("page", pageNum).Msg("discarding stale older page")
		return
	}
	ps := s.pageLocked(roomID)
	if err != nil {
		// Revert the optimistic flag; everything else is untouched.
		ps.loadingOlder = false
		s.mu.Unlock()
		log.Error().Err(err).Str("room", roomID).Int("page", pageNum).Msg("older page load failed")
		s.publish(Update{Kind: UpdateError, RoomID: roomID, Err: err})
		return
	}

	inserted := s.store.PrependOlder(roomID, page.Chronological())
	ps.page = page.Number
	ps.totalPages = page.TotalPages
	ps.hasMore = page.HasMore()
	ps.loadingOlder = false

	if s.vp != nil && inserted > 0 {
		s.vp.InsertedMessages(inserted)
		s.vp.ScrollTo(scroll.RestoreAfterPrepend(s.vp.Geometry(), anchor))
	}
	s.mu.Unlock()

	s.publish(Update{Kind: UpdatePrepended, RoomID: roomID, Inserted: inserted})
}

// Send writes one message over the active room's live channel. It never
// touches the store; the echoed broadcast is what lands in the log.
func (s *Session) Send(content string) error {
	s.mu.Lock()
	ch := s.channel
	roomID := s.room.ID
	state := s.state
	s.mu.Unlock()

	if state != StateLive || ch == nil {
		return live.ErrChannelNotOpen
	}
	return ch.Send(chat.Outbound{
		RoomID:       roomID,
		SenderUserID: s.userID,
		Content:      content,
	})
}

// Close ends the current activation: the channel slot is released and
// any in-flight results are invalidated.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channel != nil {
		s.channel.Close()
		s.channel = nil
	}
	s.token = ""
	s.state = StateClosed
}

func (s *Session) pageLocked(roomID string) *pageState {
	ps, ok := s.paging[roomID]
	if !ok {
		ps = &pageState{}
		s.paging[roomID] = ps
	}
	return ps
}

func (s *Session) publish(u Update) {
	select {
	case s.updates <- u:
	default:
		log.Debug().Str("room", u.RoomID).Msg("update feed full, dropping entry")
	}
}
