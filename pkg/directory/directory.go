// Package directory lists and creates conversation rooms and resolves
// the counterpart's display name for labelling a room.
package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/tinyland-inc/parley/pkg/chat"
)

// Client talks to the room directory and profile endpoints.
type Client struct {
	client *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{client: resty.New().SetBaseURL(baseURL).SetTimeout(timeout)}
}

// roomPage is the paginated envelope the directory returns room lists in.
type roomPage struct {
	Content    []chat.Room `json:"content"`
	Number     int         `json:"number"`
	TotalPages int         `json:"totalPages"`
}

// Rooms returns every room the user participates in, flattened across
// the directory's pagination.
func (c *Client) Rooms(ctx context.Context, userID string) ([]chat.Room, error) {
	var rooms []chat.Room
	for page := 0; ; page++ {
		var result roomPage
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParam("userId", userID).
			SetQueryParam("page", fmt.Sprint(page)).
			SetResult(&result).
			Get("/rooms")
		if err != nil {
			return nil, fmt.Errorf("listing rooms for user %s: %w", userID, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("listing rooms for user %s: server returned %s", userID, resp.Status())
		}

		rooms = append(rooms, result.Content...)
		if result.Number+1 >= result.TotalPages {
			return rooms, nil
		}
	}
}

// CreateRoom opens a private room between two users. The server returns
// the existing room when one is already established.
func (c *Client) CreateRoom(ctx context.Context, user1ID, user2ID string) (chat.Room, error) {
	var room chat.Room
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"user1Id":  user1ID,
			"user2Id":  user2ID,
			"roomType": chat.RoomTypePrivate,
		}).
		SetResult(&room).
		Post("/rooms")
	if err != nil {
		return chat.Room{}, fmt.Errorf("creating room: %w", err)
	}
	if resp.IsError() {
		return chat.Room{}, fmt.Errorf("creating room: server returned %s", resp.Status())
	}
	return room, nil
}

// profileEnvelope matches the public-profile response shape.
type profileEnvelope struct {
	User struct {
		FullName string `json:"fullName"`
		Username string `json:"username"`
	} `json:"user"`
}

// PeerName resolves a user's display name, preferring the full name.
func (c *Client) PeerName(ctx context.Context, userID string) (string, error) {
	var result profileEnvelope
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("userId", userID).
		SetResult(&result).
		Get("/profiles/{userId}")
	if err != nil {
		return "", fmt.Errorf("resolving profile %s: %w", userID, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("resolving profile %s: server returned %s", userID, resp.Status())
	}
	if result.User.FullName != "" {
		return result.User.FullName, nil
	}
	return result.User.Username, nil
}

// DisplayName labels a room with the counterpart's name. The peer is
// identified by participant id, never by parsing the room name; when no
// peer id can be determined, the raw room name (minus any "Chat:"
// prefix) is used as-is.
func (c *Client) DisplayName(ctx context.Context, room chat.Room, currentUserID string) string {
	fallback := strings.TrimSpace(strings.TrimPrefix(room.Name, "Chat:"))
	if fallback == "" {
		fallback = "Chat"
	}

	peerID := room.PeerID(currentUserID)
	if peerID == "" {
		return fallback
	}

	name, err := c.PeerName(ctx, peerID)
	if err != nil {
		log.Warn().Err(err).Str("room", room.ID).Str("peer", peerID).Msg("peer name lookup failed")
		return fallback
	}
	if name == "" {
		return fallback
	}
	return name
}
