// Package history fetches paginated message history for a room.
//
// Page 0 is the most recent slice; items within a page arrive newest to
// oldest and are reversed by the caller before display. Fetches are
// idempotent and carry no client-side state.
package history

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tinyland-inc/parley/pkg/chat"
)

// FetchError reports a failed page fetch, carrying the room so the UI
// can surface a room-scoped error.
type FetchError struct {
	RoomID string
	Page   int
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch messages for room %s (page %d): %v", e.RoomID, e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher requests history pages from the chat REST API.
type Fetcher struct {
	client   *resty.Client
	pageSize int
}

func NewFetcher(baseURL string, pageSize int, timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:   resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		pageSize: pageSize,
	}
}

// PageSize returns the fixed page size used for every request.
func (f *Fetcher) PageSize() int { return f.pageSize }

// FetchPage retrieves one page of a room's history. page must be >= 0.
func (f *Fetcher) FetchPage(ctx context.Context, roomID string, page int) (*chat.Page, error) {
	if page < 0 {
		return nil, &FetchError{RoomID: roomID, Page: page, Err: fmt.Errorf("negative page index %d", page)}
	}

	var result chat.Page
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("roomId", roomID).
		SetQueryParam("page", strconv.Itoa(page)).
		SetQueryParam("size", strconv.Itoa(f.pageSize)).
		SetResult(&result).
		Get("/rooms/{roomId}/messages")
	if err != nil {
		return nil, &FetchError{RoomID: roomID, Page: page, Err: err}
	}
	if resp.IsError() {
		return nil, &FetchError{RoomID: roomID, Page: page, Err: fmt.Errorf("server returned %s", resp.Status())}
	}

	return &result, nil
}
