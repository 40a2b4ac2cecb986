//go:build linux

package platform

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

const defaultX11Timeout = 250 * time.Millisecond

// x11Adapter implements click-through with the SHAPE extension: an empty
// input region makes the server deliver pointer events to whatever is below.
type x11Adapter struct {
	xu       *xgbutil.XUtil
	conn     *xgb.Conn
	root     xproto.Window
	calls    *caller
	xinerama bool
}

// New connects to the X server named by $DISPLAY. It fails with
// ErrUnsupported when the toolkit will not draw through X11, as on Wayland
// sessions where XWayland is only a compatibility layer.
func New(opts Options) (Adapter, error) {
	if err := x11Session(os.Getenv); err != nil {
		return nil, newError("x11", "connect", err)
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, newError("x11", "connect", err)
	}
	conn := xu.Conn()

	if err := shape.Init(conn); err != nil {
		conn.Close()
		return nil, newError("x11", "init SHAPE extension", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultX11Timeout
	}

	return &x11Adapter{
		xu:       xu,
		conn:     conn,
		root:     xu.RootWin(),
		calls:    newCaller(timeout),
		xinerama: xinerama.Init(conn) == nil,
	}, nil
}

func (a *x11Adapter) Name() string { return "x11" }

func (a *x11Adapter) Close() error {
	a.conn.Close()
	return nil
}

// do runs one request/reply round trip under the adapter timeout.
func (a *x11Adapter) do(fn func() error) error {
	_, err := withTimeout(a.calls, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func (a *x11Adapter) FindWindow(title string) (Handle, error) {
	var found xproto.Window
	err := a.do(func() error {
		clients, err := ewmh.ClientListGet(a.xu)
		if err != nil {
			return err
		}
		for _, win := range clients {
			name, err := ewmh.WmNameGet(a.xu, win)
			if err != nil || name == "" {
				name, _ = icccm.WmNameGet(a.xu, win)
			}
			if name == title {
				found = win
				return nil
			}
		}
		return fmt.Errorf("%w: %q", ErrWindowNotFound, title)
	})
	if err != nil {
		return 0, newError(a.Name(), "find window", err)
	}
	return Handle(found), nil
}

func (a *x11Adapter) window(h Handle) (xproto.Window, error) {
	win := xproto.Window(h)
	if win == 0 {
		return 0, ErrInvalidHandle
	}
	err := a.do(func() error {
		_, err := xproto.GetGeometry(a.conn, xproto.Drawable(win)).Reply()
		return err
	})
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalidHandle, err)
	}
	return win, nil
}

func (a *x11Adapter) inputRegionEmpty(win xproto.Window) (bool, error) {
	var empty bool
	err := a.do(func() error {
		reply, err := shape.GetRectangles(a.conn, win, shape.SkInput).Reply()
		if err != nil {
			return err
		}
		empty = len(reply.Rectangles) == 0
		return nil
	})
	return empty, err
}

func (a *x11Adapter) SetClickThrough(h Handle, enabled bool) error {
	win, err := a.window(h)
	if err != nil {
		return newError(a.Name(), "set click-through", err)
	}

	current, err := a.inputRegionEmpty(win)
	if err != nil {
		return newError(a.Name(), "query input region", err)
	}
	if current == enabled {
		return nil
	}

	err = a.do(func() error {
		if enabled {
			return shape.RectanglesChecked(a.conn, shape.SoSet, shape.SkInput,
				xproto.ClipOrderingUnsorted, win, 0, 0, nil).Check()
		}
		// A None mask restores the default input region.
		return shape.MaskChecked(a.conn, shape.SoSet, shape.SkInput,
			win, 0, 0, xproto.PixmapNone).Check()
	})
	if err != nil {
		return newError(a.Name(), "set input region", err)
	}
	return nil
}

func (a *x11Adapter) QueryClickThrough(h Handle) bool {
	win, err := a.window(h)
	if err != nil {
		return false
	}
	empty, err := a.inputRegionEmpty(win)
	return err == nil && empty
}

func (a *x11Adapter) monitors() ([]Rect, error) {
	if a.xinerama {
		var rects []Rect
		err := a.do(func() error {
			reply, err := xinerama.QueryScreens(a.conn).Reply()
			if err != nil {
				return err
			}
			for _, s := range reply.ScreenInfo {
				rects = append(rects, Rect{
					X:      int(s.XOrg),
					Y:      int(s.YOrg),
					Width:  int(s.Width),
					Height: int(s.Height),
				})
			}
			return nil
		})
		if err == nil && len(rects) > 0 {
			return rects, nil
		}
	}

	w, h, err := a.ScreenSize()
	if err != nil {
		return nil, err
	}
	return []Rect{{Width: w, Height: h}}, nil
}

func (a *x11Adapter) windowRect(win xproto.Window) (Rect, error) {
	var r Rect
	err := a.do(func() error {
		geom, err := xproto.GetGeometry(a.conn, xproto.Drawable(win)).Reply()
		if err != nil {
			return err
		}
		pos, err := xproto.TranslateCoordinates(a.conn, win, a.root, 0, 0).Reply()
		if err != nil {
			return err
		}
		r = Rect{X: int(pos.DstX), Y: int(pos.DstY), Width: int(geom.Width), Height: int(geom.Height)}
		return nil
	})
	return r, err
}

func (a *x11Adapter) PositionOverMonitor(h Handle, target MonitorTarget) error {
	win, err := a.window(h)
	if err != nil {
		return newError(a.Name(), "position over monitor", err)
	}

	monitors, err := a.monitors()
	if err != nil {
		return newError(a.Name(), "query monitors", err)
	}
	current, err := a.windowRect(win)
	if err != nil {
		return newError(a.Name(), "query window geometry", err)
	}
	// Xinerama lists the primary output first.
	monitor, err := pickMonitor(monitors, 0, current, target)
	if err != nil {
		return newError(a.Name(), "pick monitor", err)
	}

	err = a.do(func() error {
		if err := ewmh.WmStateReq(a.xu, win, ewmh.StateAdd, "_NET_WM_STATE_ABOVE"); err != nil {
			return err
		}
		if err := ewmh.WmStateReq(a.xu, win, ewmh.StateAdd, "_NET_WM_STATE_SKIP_TASKBAR"); err != nil {
			return err
		}
		mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY |
			xproto.ConfigWindowWidth | xproto.ConfigWindowHeight |
			xproto.ConfigWindowStackMode)
		values := []uint32{
			uint32(int32(monitor.X)),
			uint32(int32(monitor.Y)),
			uint32(monitor.Width),
			uint32(monitor.Height),
			xproto.StackModeAbove,
		}
		return xproto.ConfigureWindowChecked(a.conn, win, mask, values).Check()
	})
	if err != nil {
		return newError(a.Name(), "configure window", err)
	}
	return nil
}

func (a *x11Adapter) CursorPosition() (int, int, error) {
	var x, y int
	err := a.do(func() error {
		reply, err := xproto.QueryPointer(a.conn, a.root).Reply()
		if err != nil {
			return err
		}
		x, y = int(reply.RootX), int(reply.RootY)
		return nil
	})
	if err != nil {
		return 0, 0, newError(a.Name(), "query pointer", err)
	}
	return x, y, nil
}

func (a *x11Adapter) ScreenSize() (int, int, error) {
	screen := a.xu.Screen()
	if screen == nil || screen.WidthInPixels == 0 {
		return 0, 0, newError(a.Name(), "screen size", ErrNoMonitor)
	}
	return int(screen.WidthInPixels), int(screen.HeightInPixels), nil
}
