// Package overlay holds the process-wide overlay state shared between the
// click-through controller and the cursor polling loop.
package overlay

import "sync"

// Snapshot is a consistent copy of both flags.
type Snapshot struct {
	ClickThrough bool `json:"click_through"`
	Tracking     bool `json:"tracking"`
}

// State guards the click-through and tracking flags. Tracking always equals
// click-through: it is derived from every mutation, never set on its own.
// Only the click-through controller mutates a State.
type State struct {
	mu           sync.Mutex
	clickThrough bool
	tracking     bool
}

// NewState returns a State in the given mode.
func NewState(clickThrough bool) *State {
	return &State{
		clickThrough: clickThrough,
		tracking:     clickThrough,
	}
}

// Get returns both flags read under one lock.
func (s *State) Get() (clickThrough, tracking bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clickThrough, s.tracking
}

// Snapshot returns Get as a struct.
func (s *State) Snapshot() Snapshot {
	ct, tr := s.Get()
	return Snapshot{ClickThrough: ct, Tracking: tr}
}

// ClickThrough returns the click-through flag.
func (s *State) ClickThrough() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clickThrough
}

// TrackingEnabled returns the tracking flag.
func (s *State) TrackingEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracking
}

// CompareAndSetClickThrough sets click-through (and tracking) to next only if
// the current value equals expected. It reports whether it changed anything.
func (s *State) CompareAndSetClickThrough(expected, next bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clickThrough != expected {
		return false
	}
	s.clickThrough = next
	s.tracking = next
	return true
}

// Toggle flips click-through and tracking together and returns the new value.
func (s *State) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clickThrough = !s.clickThrough
	s.tracking = s.clickThrough
	return s.clickThrough
}
