package main

import (
	"context"
	"errors"
	"sort"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"fluid-overlay/internal/platform"
)

// eventIgnoreCursorEvents asks the frontend to stop handling pointer input.
// The fallback adapter uses it when no native click-through exists.
const eventIgnoreCursorEvents = "ignore-cursor-events"

var errShellNotReady = errors.New("wails runtime not started")

// wailsShell adapts the Wails runtime to the notify and platform toolkit
// interfaces.
type wailsShell struct {
	ctx context.Context
}

func newWailsShell(ctx context.Context) *wailsShell {
	return &wailsShell{ctx: ctx}
}

// Emit implements notify.Emitter.
func (s *wailsShell) Emit(event string, payload any) error {
	if s == nil || s.ctx == nil {
		return errShellNotReady
	}
	runtime.EventsEmit(s.ctx, event, payload)
	return nil
}

// SetIgnoreCursorEvents implements platform.Toolkit.
func (s *wailsShell) SetIgnoreCursorEvents(ignore bool) error {
	return s.Emit(eventIgnoreCursorEvents, ignore)
}

// Screens implements platform.Toolkit. Wails reports screen sizes but not
// their origins and positions the window relative to the screen it is on, so
// every rectangle starts at the origin and the current screen comes first.
func (s *wailsShell) Screens() ([]platform.Rect, int, error) {
	if s.ctx == nil {
		return nil, 0, errShellNotReady
	}
	screens, err := runtime.ScreenGetAll(s.ctx)
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(screens, func(i, j int) bool {
		return screens[i].IsCurrent && !screens[j].IsCurrent
	})

	rects := make([]platform.Rect, 0, len(screens))
	primary := 0
	for i, sc := range screens {
		if sc.IsPrimary {
			primary = i
		}
		rects = append(rects, platform.Rect{Width: sc.Size.Width, Height: sc.Size.Height})
	}
	return rects, primary, nil
}

// WindowBounds implements platform.Toolkit.
func (s *wailsShell) WindowBounds() (platform.Rect, error) {
	if s.ctx == nil {
		return platform.Rect{}, errShellNotReady
	}
	x, y := runtime.WindowGetPosition(s.ctx)
	w, h := runtime.WindowGetSize(s.ctx)
	return platform.Rect{X: x, Y: y, Width: w, Height: h}, nil
}

// Cover implements platform.Toolkit.
func (s *wailsShell) Cover(r platform.Rect) error {
	if s.ctx == nil {
		return errShellNotReady
	}
	runtime.WindowSetAlwaysOnTop(s.ctx, true)
	runtime.WindowSetPosition(s.ctx, r.X, r.Y)
	runtime.WindowSetSize(s.ctx, r.Width, r.Height)
	return nil
}

func (s *wailsShell) show() { runtime.WindowShow(s.ctx) }
func (s *wailsShell) hide() { runtime.WindowHide(s.ctx) }
func (s *wailsShell) quit() { runtime.Quit(s.ctx) }
