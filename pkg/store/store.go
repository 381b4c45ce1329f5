// Package store holds the per-room ordered message log: the single
// source of truth for what a UI renders.
package store

import (
	"sync"

	"github.com/tinyland-inc/parley/pkg/chat"
)

// Store keeps one chronological log per room id. All operations
// preserve two invariants: messages are non-decreasing by CreatedAt and
// no message id appears twice within a room.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*roomLog
}

type roomLog struct {
	messages []chat.Message
	ids      map[string]struct{}
}

func New() *Store {
	return &Store{rooms: make(map[string]*roomLog)}
}

func (s *Store) room(roomID string) *roomLog {
	rl, ok := s.rooms[roomID]
	if !ok {
		rl = &roomLog{ids: make(map[string]struct{})}
		s.rooms[roomID] = rl
	}
	return rl
}

// Seed replaces a room's log wholesale with messages already in
// chronological order (a reversed history page). Duplicate ids within
// the input are collapsed, keeping the first occurrence.
func (s *Store) Seed(roomID string, messages []chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rl := &roomLog{
		messages: make([]chat.Message, 0, len(messages)),
		ids:      make(map[string]struct{}, len(messages)),
	}
	for _, m := range messages {
		if _, dup := rl.ids[m.ID]; dup {
			continue
		}
		rl.ids[m.ID] = struct{}{}
		rl.messages = append(rl.messages, m)
	}
	s.rooms[roomID] = rl
}

// PrependOlder inserts an older, chronologically ordered batch at the
// head of the room's log, skipping any message whose id is already
// present. It returns the number of messages actually inserted.
func (s *Store) PrependOlder(roomID string, older []chat.Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	rl := s.room(roomID)
	fresh := make([]chat.Message, 0, len(older))
	for _, m := range older {
		if _, dup := rl.ids[m.ID]; dup {
			continue
		}
		rl.ids[m.ID] = struct{}{}
		fresh = append(fresh, m)
	}
	if len(fresh) == 0 {
		return 0
	}
	rl.messages = append(fresh, rl.messages...)
	return len(fresh)
}

// Append adds a live message at its chronological position, which is
// the tail in all but pathological cases. An id already in the log
// (an echo of a just-sent message under at-least-once delivery) is a
// silent no-op; Append reports whether the message was inserted.
func (s *Store) Append(roomID string, msg chat.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rl := s.room(roomID)
	if _, dup := rl.ids[msg.ID]; dup {
		return false
	}
	rl.ids[msg.ID] = struct{}{}

	// Walk back from the tail past any later-stamped messages so the
	// ordering invariant holds even for a delayed frame.
	i := len(rl.messages)
	for i > 0 && rl.messages[i-1].CreatedAt.After(msg.CreatedAt) {
		i--
	}
	rl.messages = append(rl.messages, chat.Message{})
	copy(rl.messages[i+1:], rl.messages[i:])
	rl.messages[i] = msg
	return true
}

// Messages returns a copy of the room's log in chronological order.
func (s *Store) Messages(roomID string) []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rl, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]chat.Message, len(rl.messages))
	copy(out, rl.messages)
	return out
}

// Len returns the number of messages logged for the room.
func (s *Store) Len(roomID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rl, ok := s.rooms[roomID]
	if !ok {
		return 0
	}
	return len(rl.messages)
}
