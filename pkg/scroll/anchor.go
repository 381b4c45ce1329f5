// Package scroll computes viewport adjustments for a message list:
// keeping content visually stationary when older messages are prepended,
// and deciding when a new arrival should force-scroll to the bottom.
//
// Everything here is a pure function of viewport geometry; the session
// owns the state and a UI owns the real (or simulated) viewport.
package scroll

// Viewport is a snapshot of message-list geometry. Height is the total
// content height, ViewHeight the visible portion, Top the scroll offset.
type Viewport struct {
	Top        float64
	Height     float64
	ViewHeight float64
}

// DistanceFromBottom is how far the viewer is scrolled above the bottom
// edge of the content.
func (v Viewport) DistanceFromBottom() float64 {
	return v.Height - v.Top - v.ViewHeight
}

const (
	// AutoScrollThreshold is the distance from the bottom within which an
	// incoming live message force-scrolls the view to the bottom.
	AutoScrollThreshold = 150

	// LoadOlderThreshold is the scroll offset at or below which the view
	// counts as "near the top", triggering an older-page fetch.
	LoadOlderThreshold = 50
)

// Anchor records geometry captured before older messages are inserted.
type Anchor struct {
	Top    float64
	Height float64
}

// CaptureBeforePrepend snapshots the viewport ahead of a prepend.
func CaptureBeforePrepend(v Viewport) Anchor {
	return Anchor{Top: v.Top, Height: v.Height}
}

// RestoreAfterPrepend returns the scroll offset that keeps the content
// the viewer was looking at stationary: the old offset shifted down by
// exactly the height the prepend added.
func RestoreAfterPrepend(v Viewport, a Anchor) float64 {
	return v.Height - a.Height + a.Top
}

// ShouldAutoScrollOnAppend reports whether the viewer is close enough to
// the bottom that a new message should snap the view down.
func ShouldAutoScrollOnAppend(v Viewport) bool {
	return v.DistanceFromBottom() < AutoScrollThreshold
}

// NearTop reports whether the viewer has scrolled close enough to the
// top to request older history.
func NearTop(v Viewport) bool {
	return v.Top <= LoadOlderThreshold
}

// Bottom returns the scroll offset for a fully scrolled-down view.
func Bottom(v Viewport) float64 {
	off := v.Height - v.ViewHeight
	if off < 0 {
		return 0
	}
	return off
}
