package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeerID(t *testing.T) {
	room := Room{User1ID: "u-1", User2ID: "u-2"}
	assert.Equal(t, "u-2", room.PeerID("u-1"))
	assert.Equal(t, "u-1", room.PeerID("u-2"))
	assert.Equal(t, "", room.PeerID("u-3"), "non-participant has no peer")

	room.PeerUserID = "u-9"
	assert.Equal(t, "u-9", room.PeerID("u-1"), "server-resolved peer wins")
}

func TestPageChronological(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	p := &Page{Items: []Message{
		{ID: "m-3", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "m-2", CreatedAt: base.Add(time.Minute)},
		{ID: "m-1", CreatedAt: base},
	}}

	got := p.Chronological()
	assert.Equal(t, []string{"m-1", "m-2", "m-3"}, []string{got[0].ID, got[1].ID, got[2].ID})
	// The page itself keeps its wire order.
	assert.Equal(t, "m-3", p.Items[0].ID)
}

func TestPageHasMore(t *testing.T) {
	assert.True(t, (&Page{Number: 0, TotalPages: 3}).HasMore())
	assert.True(t, (&Page{Number: 1, TotalPages: 3}).HasMore())
	assert.False(t, (&Page{Number: 2, TotalPages: 3}).HasMore())
	assert.False(t, (&Page{Number: 0, TotalPages: 1}).HasMore())
	assert.False(t, (&Page{Number: 0, TotalPages: 0}).HasMore(), "empty history has no older pages")
}
