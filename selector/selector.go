// Package selector picks the active overlay from the platform's frame number.
package selector

// DefaultAdvanceEvery is the number of frames each overlay stays active.
const DefaultAdvanceEvery = 3

// Selector cycles an index through [0, overlayCount) advancing on every frame
// number that is a non-zero multiple of advanceEvery.
type Selector struct {
	index        int
	counter      int64
	advanceEvery int64
	overlayCount int
}

// New returns a selector at index 0. Values below 1 fall back to one overlay
// and DefaultAdvanceEvery.
func New(overlayCount, advanceEvery int) *Selector {
	if overlayCount < 1 {
		overlayCount = 1
	}
	if advanceEvery < 1 {
		advanceEvery = DefaultAdvanceEvery
	}
	return &Selector{advanceEvery: int64(advanceEvery), overlayCount: overlayCount}
}

// Advance processes frame and returns the active index. Frame 0 never
// advances.
func (s *Selector) Advance(frame int64) int {
	s.counter++
	if frame != 0 && frame%s.advanceEvery == 0 {
		s.index = (s.index + 1) % s.overlayCount
	}
	return s.index
}

// Index returns the active index without advancing.
func (s *Selector) Index() int {
	return s.index
}

// Frames is the number of frames processed so far.
func (s *Selector) Frames() int64 {
	return s.counter
}
