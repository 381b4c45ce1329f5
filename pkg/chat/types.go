// Package chat defines the wire and domain types shared by the history,
// directory, live-channel and session packages.
package chat

import "time"

// Room is a two-party conversation. Rooms are created server-side on
// first contact and never mutated by the client.
type Room struct {
	ID         string `json:"id"`
	User1ID    string `json:"user1Id"`
	User2ID    string `json:"user2Id"`
	RoomType   string `json:"roomType"`
	Name       string `json:"name"`
	PeerUserID string `json:"peerUserId,omitempty"` // set when the server resolves the counterpart
}

// RoomTypePrivate is the only room type the client creates.
const RoomTypePrivate = "PRIVATE"

// PeerID returns the participant id that is not the current user.
// It prefers the server-resolved PeerUserID when present.
func (r Room) PeerID(currentUserID string) string {
	if r.PeerUserID != "" {
		return r.PeerUserID
	}
	if r.User1ID == currentUserID {
		return r.User2ID
	}
	if r.User2ID == currentUserID {
		return r.User1ID
	}
	return ""
}

// Message is a single chat message as delivered by the backend, either
// inside a history page or as a live frame.
type Message struct {
	ID           string    `json:"id"`
	RoomID       string    `json:"roomId"`
	SenderUserID string    `json:"senderUserId"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Outbound is the client->server frame sent over the live channel. The
// server assigns ID and CreatedAt and echoes the full Message back.
type Outbound struct {
	RoomID       string `json:"roomId"`
	SenderUserID string `json:"senderUserId"`
	Content      string `json:"content"`
}

// Page is one server-paginated slice of a room's history. Items are
// ordered newest to oldest within the page; callers that want display
// order use Chronological.
type Page struct {
	Items      []Message `json:"content"`
	Number     int       `json:"number"`
	TotalPages int       `json:"totalPages"`
}

// Chronological returns the page items reversed into oldest-to-newest
// order. The receiver is not modified.
func (p *Page) Chronological() []Message {
	out := make([]Message, len(p.Items))
	for i, m := range p.Items {
		out[len(p.Items)-1-i] = m
	}
	return out
}

// HasMore reports whether older pages remain after this one.
func (p *Page) HasMore() bool {
	return p.Number+1 < p.TotalPages
}
