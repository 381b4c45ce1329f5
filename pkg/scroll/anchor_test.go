package scroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceFromBottom(t *testing.T) {
	v := Viewport{Top: 300, Height: 1000, ViewHeight: 600}
	assert.Equal(t, float64(100), v.DistanceFromBottom())

	v.Top = 400
	assert.Equal(t, float64(0), v.DistanceFromBottom())
}

func TestRestoreAfterPrependKeepsContentStationary(t *testing.T) {
	before := Viewport{Top: 20, Height: 960, ViewHeight: 600}
	a := CaptureBeforePrepend(before)

	// 20 messages at 24px were inserted above the fold.
	after := Viewport{Top: before.Top, Height: 1440, ViewHeight: 600}
	got := RestoreAfterPrepend(after, a)
	assert.Equal(t, float64(500), got)

	// The viewer's distance from the bottom is unchanged.
	after.Top = got
	assert.Equal(t, before.DistanceFromBottom(), after.DistanceFromBottom())
}

func TestRestoreAfterPrependFromTop(t *testing.T) {
	a := CaptureBeforePrepend(Viewport{Top: 0, Height: 480, ViewHeight: 600})
	got := RestoreAfterPrepend(Viewport{Height: 960, ViewHeight: 600}, a)
	assert.Equal(t, float64(480), got)
}

func TestShouldAutoScrollOnAppend(t *testing.T) {
	tests := []struct {
		name string
		v    Viewport
		want bool
	}{
		{"at bottom", Viewport{Top: 400, Height: 1000, ViewHeight: 600}, true},
		{"just inside threshold", Viewport{Top: 251, Height: 1000, ViewHeight: 600}, true},
		{"at threshold", Viewport{Top: 250, Height: 1000, ViewHeight: 600}, false},
		{"scrolled up reading history", Viewport{Top: 0, Height: 1000, ViewHeight: 600}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldAutoScrollOnAppend(tt.v))
		})
	}
}

func TestNearTop(t *testing.T) {
	assert.True(t, NearTop(Viewport{Top: 0}))
	assert.True(t, NearTop(Viewport{Top: 50}))
	assert.False(t, NearTop(Viewport{Top: 51}))
}

func TestBottom(t *testing.T) {
	assert.Equal(t, float64(400), Bottom(Viewport{Height: 1000, ViewHeight: 600}))
	// Content shorter than the view never yields a negative offset.
	assert.Equal(t, float64(0), Bottom(Viewport{Height: 200, ViewHeight: 600}))
}

func TestSim(t *testing.T) {
	s := NewSim(600, 24)
	assert.Equal(t, Viewport{ViewHeight: 600}, s.Geometry())

	s.InsertedMessages(40)
	assert.Equal(t, float64(960), s.Geometry().Height)

	s.ScrollTo(Bottom(s.Geometry()))
	assert.Equal(t, float64(360), s.Geometry().Top)

	// Clamped at both ends.
	s.ScrollTo(-10)
	assert.Equal(t, float64(0), s.Geometry().Top)
	s.ScrollTo(9999)
	assert.Equal(t, float64(360), s.Geometry().Top)

	s.Reset()
	assert.Equal(t, Viewport{ViewHeight: 600}, s.Geometry())
}
