package scroll

import "sync"

// Sim is a simulated viewport: a message list where every message
// renders at a fixed height. It stands in for a real UI viewport in the
// terminal client and in tests.
type Sim struct {
	mu        sync.Mutex
	v         Viewport
	msgHeight float64
}

func NewSim(viewHeight, msgHeight float64) *Sim {
	return &Sim{
		v:         Viewport{ViewHeight: viewHeight},
		msgHeight: msgHeight,
	}
}

func (s *Sim) Geometry() Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v
}

func (s *Sim) ScrollTo(top float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if top < 0 {
		top = 0
	}
	if max := s.v.Height - s.v.ViewHeight; top > max && max >= 0 {
		top = max
	}
	s.v.Top = top
}

// InsertedMessages grows the content height by n message heights.
func (s *Sim) InsertedMessages(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Height += float64(n) * s.msgHeight
}

// Reset clears the content, as when a room's log is replaced.
func (s *Sim) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Top = 0
	s.v.Height = 0
}
