package platform

import (
	"fmt"
	"sync"
)

// Toolkit is what the host UI toolkit offers when no native adapter exists.
type Toolkit interface {
	// SetIgnoreCursorEvents asks the toolkit to stop reacting to the pointer.
	SetIgnoreCursorEvents(ignore bool) error
	// Screens lists monitors; primary is the index of the primary one.
	Screens() (monitors []Rect, primary int, err error)
	// WindowBounds returns the overlay window rectangle.
	WindowBounds() (Rect, error)
	// Cover moves and resizes the window to r and keeps it above others.
	Cover(r Rect) error
}

// Fallback is the generic "ignore cursor events" variant. It carries none of
// the native guarantees: there is no layered prerequisite, no global cursor
// query, and click-through only holds as far as the toolkit honours it.
type Fallback struct {
	toolkit Toolkit

	mu      sync.Mutex
	ignored bool
	applied bool
}

// NewFallback wraps a toolkit.
func NewFallback(toolkit Toolkit) *Fallback {
	return &Fallback{toolkit: toolkit}
}

func (f *Fallback) Name() string { return "fallback" }

func (f *Fallback) SetClickThrough(_ Handle, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.applied && f.ignored == enabled {
		return nil
	}
	if err := f.toolkit.SetIgnoreCursorEvents(enabled); err != nil {
		return newError(f.Name(), "set click-through", err)
	}
	f.ignored = enabled
	f.applied = true
	return nil
}

func (f *Fallback) QueryClickThrough(Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ignored
}

func (f *Fallback) PositionOverMonitor(_ Handle, target MonitorTarget) error {
	monitors, primary, err := f.toolkit.Screens()
	if err != nil {
		return newError(f.Name(), "query monitors", err)
	}
	window, err := f.toolkit.WindowBounds()
	if err != nil {
		return newError(f.Name(), "query window bounds", err)
	}
	monitor, err := pickMonitor(monitors, primary, window, target)
	if err != nil {
		return newError(f.Name(), "pick monitor", err)
	}
	if err := f.toolkit.Cover(monitor); err != nil {
		return newError(f.Name(), fmt.Sprintf("cover %s monitor", target), err)
	}
	return nil
}

func (f *Fallback) CursorPosition() (int, int, error) {
	return 0, 0, newError(f.Name(), "cursor position", ErrUnsupported)
}

func (f *Fallback) ScreenSize() (int, int, error) {
	monitors, primary, err := f.toolkit.Screens()
	if err != nil {
		return 0, 0, newError(f.Name(), "screen size", err)
	}
	if len(monitors) == 0 {
		return 0, 0, newError(f.Name(), "screen size", ErrNoMonitor)
	}
	if primary < 0 || primary >= len(monitors) {
		primary = 0
	}
	return monitors[primary].Width, monitors[primary].Height, nil
}

// FindWindow always succeeds: the toolkit addresses its own window.
func (f *Fallback) FindWindow(string) (Handle, error) {
	return 0, nil
}

func (f *Fallback) Close() error { return nil }
