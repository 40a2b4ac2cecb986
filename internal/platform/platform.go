// Package platform isolates every native windowing call the overlay makes.
//
// One Adapter exists per OS family (Win32, AppKit, X11). Each variant keeps
// its own guarantees; the Fallback adapter is a separate, lower-fidelity
// variant for hosts where none of them is available.
package platform

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Handle is a borrowed native window reference (HWND, NSWindow*, X11 window id).
// Callers resolve it per operation and never keep it across operations.
type Handle uintptr

// MonitorTarget selects which monitor PositionOverMonitor covers.
type MonitorTarget int

const (
	// MonitorNearest is the monitor with the largest overlap with the window.
	MonitorNearest MonitorTarget = iota
	// MonitorPrimary is the system primary monitor.
	MonitorPrimary
)

func (m MonitorTarget) String() string {
	switch m {
	case MonitorPrimary:
		return "primary"
	default:
		return "nearest"
	}
}

// ParseMonitorTarget accepts "nearest" or "primary". Anything else is nearest.
func ParseMonitorTarget(value string) MonitorTarget {
	if strings.EqualFold(strings.TrimSpace(value), "primary") {
		return MonitorPrimary
	}
	return MonitorNearest
}

// Rect is a monitor or window rectangle in global screen coordinates with the
// origin at the top-left of the primary monitor. Cursor positions use the
// same space.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Overlap returns the area shared by r and o.
func (r Rect) Overlap(o Rect) int {
	w := min(r.X+r.Width, o.X+o.Width) - max(r.X, o.X)
	h := min(r.Y+r.Height, o.Y+o.Height) - max(r.Y, o.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// ClickThrough toggles and reads whether a window lets mouse input through.
type ClickThrough interface {
	// SetClickThrough is idempotent. Disabling removes only the click-through
	// bit and leaves any prerequisite bits in place.
	SetClickThrough(h Handle, enabled bool) error
	// QueryClickThrough is a best-effort read of the native state.
	QueryClickThrough(h Handle) bool
}

// Geometry positions a window over a whole monitor.
type Geometry interface {
	// PositionOverMonitor covers the monitor's full rectangle, reserved
	// system areas included, and raises the window top-most without focus.
	PositionOverMonitor(h Handle, target MonitorTarget) error
}

// Cursor reads the global pointer and the screen size.
type Cursor interface {
	CursorPosition() (x, y int, err error)
	ScreenSize() (width, height int, err error)
}

// Locator resolves the overlay's native window.
type Locator interface {
	FindWindow(title string) (Handle, error)
}

// Options tunes a native adapter.
type Options struct {
	// Timeout bounds native calls that can block (X11 round trips).
	Timeout time.Duration
}

// Adapter is the full capability set of one platform variant.
type Adapter interface {
	ClickThrough
	Geometry
	Cursor
	Locator
	Name() string
	Close() error
}

var (
	// ErrUnsupported means the operation has no implementation on this host.
	ErrUnsupported = errors.New("operation not supported on this platform")
	// ErrInvalidHandle means the window handle no longer refers to a window.
	ErrInvalidHandle = errors.New("invalid window handle")
	// ErrWindowNotFound means no window with the requested title exists.
	ErrWindowNotFound = errors.New("window not found")
	// ErrNoMonitor means monitor geometry could not be determined.
	ErrNoMonitor = errors.New("no monitor available")
	// ErrTimeout means a native call did not return in time.
	ErrTimeout = errors.New("native call timed out")
)

// Error is the PlatformError reported by every adapter.
type Error struct {
	Op       string
	Platform string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Platform, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(platform, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Platform: platform, Err: err}
}

// pickMonitor chooses the target monitor from a list. primary is the index of
// the primary monitor; window is the current window rectangle.
func pickMonitor(monitors []Rect, primary int, window Rect, target MonitorTarget) (Rect, error) {
	if len(monitors) == 0 {
		return Rect{}, ErrNoMonitor
	}
	if primary < 0 || primary >= len(monitors) {
		primary = 0
	}
	if target == MonitorPrimary {
		return monitors[primary], nil
	}

	cx, cy := window.X+window.Width/2, window.Y+window.Height/2
	for _, m := range monitors {
		if m.Contains(cx, cy) {
			return m, nil
		}
	}

	best, bestArea := monitors[primary], 0
	for _, m := range monitors {
		if area := m.Overlap(window); area > bestArea {
			best, bestArea = m, area
		}
	}
	return best, nil
}
