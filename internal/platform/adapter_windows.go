//go:build windows

package platform

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	gwlExStyle int32 = -20

	lwaAlpha = 0x00000002

	swpNoSize       = 0x0001
	swpNoMove       = 0x0002
	swpNoZOrder     = 0x0004
	swpNoActivate   = 0x0010
	swpFrameChanged = 0x0020
	swpShowWindow   = 0x0040

	monitorDefaultToNearest = 0x00000002

	smCxScreen = 0
	smCyScreen = 1

	errorInvalidWindowHandle = 1400
)

// hwndTopmost is HWND_TOPMOST, (HWND)-1.
const hwndTopmost = ^uintptr(0)

var (
	user32   = windows.NewLazyDLL("user32.dll")
	kernel32 = windows.NewLazyDLL("kernel32.dll")

	procFindWindowW                = user32.NewProc("FindWindowW")
	procIsWindow                   = user32.NewProc("IsWindow")
	procGetWindowLongPtrW          = user32.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtrW          = user32.NewProc("SetWindowLongPtrW")
	procGetWindowLongW             = user32.NewProc("GetWindowLongW")
	procSetWindowLongW             = user32.NewProc("SetWindowLongW")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
	procSetWindowPos               = user32.NewProc("SetWindowPos")
	procMonitorFromWindow          = user32.NewProc("MonitorFromWindow")
	procGetMonitorInfoW            = user32.NewProc("GetMonitorInfoW")
	procGetCursorPos               = user32.NewProc("GetCursorPos")
	procGetSystemMetrics           = user32.NewProc("GetSystemMetrics")

	procSetLastError = kernel32.NewProc("SetLastError")
)

type point struct {
	X int32
	Y int32
}

type rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

type monitorInfo struct {
	CbSize    uint32
	RcMonitor rect
	RcWork    rect
	DwFlags   uint32
}

type win32Adapter struct{}

// New returns the Win32 adapter.
func New(Options) (Adapter, error) {
	if err := user32.Load(); err != nil {
		return nil, newError("windows", "load user32", err)
	}
	return &win32Adapter{}, nil
}

func (a *win32Adapter) Name() string { return "windows" }

func (a *win32Adapter) Close() error { return nil }

func (a *win32Adapter) FindWindow(title string) (Handle, error) {
	ptr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, newError(a.Name(), "find window", err)
	}
	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(ptr)))
	if hwnd == 0 {
		return 0, newError(a.Name(), "find window", fmt.Errorf("%w: %q", ErrWindowNotFound, title))
	}
	return Handle(hwnd), nil
}

func (a *win32Adapter) SetClickThrough(h Handle, enabled bool) error {
	if err := validateWindow(h); err != nil {
		return newError(a.Name(), "set click-through", err)
	}

	current, err := getExStyle(h)
	if err != nil {
		return newError(a.Name(), "read extended style", err)
	}
	next := clickThroughStyle(current, enabled)
	if next == current {
		return nil
	}

	if err := setExStyle(h, next); err != nil {
		return newError(a.Name(), "write extended style", err)
	}

	// A freshly layered window is not drawn until its attributes are set.
	if current&wsExLayered == 0 {
		ret, _, callErr := procSetLayeredWindowAttributes.Call(uintptr(h), 0, 255, lwaAlpha)
		if ret == 0 {
			return newError(a.Name(), "set layered attributes", callErr)
		}
	}

	procSetWindowPos.Call(uintptr(h), 0, 0, 0, 0, 0,
		swpNoMove|swpNoSize|swpNoZOrder|swpNoActivate|swpFrameChanged)
	return nil
}

func (a *win32Adapter) QueryClickThrough(h Handle) bool {
	if validateWindow(h) != nil {
		return false
	}
	style, err := getExStyle(h)
	if err != nil {
		return false
	}
	return hasClickThroughStyle(style)
}

func (a *win32Adapter) PositionOverMonitor(h Handle, target MonitorTarget) error {
	if err := validateWindow(h); err != nil {
		return newError(a.Name(), "position over monitor", err)
	}

	var bounds Rect
	switch target {
	case MonitorPrimary:
		// The primary monitor always sits at the origin.
		w, hgt, err := a.ScreenSize()
		if err != nil {
			return err
		}
		bounds = Rect{Width: w, Height: hgt}
	default:
		monitor, _, _ := procMonitorFromWindow.Call(uintptr(h), monitorDefaultToNearest)
		if monitor == 0 {
			return newError(a.Name(), "monitor from window", ErrNoMonitor)
		}
		info := monitorInfo{CbSize: uint32(unsafe.Sizeof(monitorInfo{}))}
		ret, _, callErr := procGetMonitorInfoW.Call(monitor, uintptr(unsafe.Pointer(&info)))
		if ret == 0 {
			return newError(a.Name(), "get monitor info", callErr)
		}
		// rcMonitor, not rcWork: the overlay covers the taskbar too.
		bounds = Rect{
			X:      int(info.RcMonitor.Left),
			Y:      int(info.RcMonitor.Top),
			Width:  int(info.RcMonitor.Right - info.RcMonitor.Left),
			Height: int(info.RcMonitor.Bottom - info.RcMonitor.Top),
		}
	}

	// Keep the overlay out of the taskbar and Alt+Tab.
	if style, err := getExStyle(h); err == nil && style&wsExToolWindow == 0 {
		if err := setExStyle(h, style|wsExToolWindow); err != nil {
			return newError(a.Name(), "write extended style", err)
		}
	}

	ret, _, callErr := procSetWindowPos.Call(
		uintptr(h),
		hwndTopmost,
		int32ToUintptr(int32(bounds.X)),
		int32ToUintptr(int32(bounds.Y)),
		int32ToUintptr(int32(bounds.Width)),
		int32ToUintptr(int32(bounds.Height)),
		swpNoActivate|swpShowWindow|swpFrameChanged,
	)
	if ret == 0 {
		return newError(a.Name(), "set window position", callErr)
	}
	return nil
}

func (a *win32Adapter) CursorPosition() (int, int, error) {
	var pt point
	ret, _, callErr := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return 0, 0, newError(a.Name(), "get cursor position", callErr)
	}
	return int(pt.X), int(pt.Y), nil
}

func (a *win32Adapter) ScreenSize() (int, int, error) {
	w, _, _ := procGetSystemMetrics.Call(smCxScreen)
	h, _, _ := procGetSystemMetrics.Call(smCyScreen)
	if w == 0 || h == 0 {
		return 0, 0, newError(a.Name(), "get screen size", ErrNoMonitor)
	}
	return int(int32(w)), int(int32(h)), nil
}

func validateWindow(h Handle) error {
	if h == 0 {
		return ErrInvalidHandle
	}
	ok, _, _ := procIsWindow.Call(uintptr(h))
	if ok == 0 {
		return ErrInvalidHandle
	}
	return nil
}

// GetWindowLongPtrW only exists in 64-bit user32; 32-bit builds use the
// plain variants, which have the same layout there.
func windowLongProcs() (get, set *windows.LazyProc) {
	if procGetWindowLongPtrW.Find() == nil && procSetWindowLongPtrW.Find() == nil {
		return procGetWindowLongPtrW, procSetWindowLongPtrW
	}
	return procGetWindowLongW, procSetWindowLongW
}

func getExStyle(h Handle) (uintptr, error) {
	get, _ := windowLongProcs()
	procSetLastError.Call(0)
	ret, _, callErr := get.Call(uintptr(h), int32ToUintptr(gwlExStyle))
	if ret == 0 {
		if err := lastError(callErr); err != nil {
			return 0, err
		}
	}
	return ret, nil
}

func setExStyle(h Handle, style uintptr) error {
	_, set := windowLongProcs()
	procSetLastError.Call(0)
	ret, _, callErr := set.Call(uintptr(h), int32ToUintptr(gwlExStyle), style)
	if ret == 0 {
		return lastError(callErr)
	}
	return nil
}

// lastError turns the errno of a Win32 call into an error, nil on success.
func lastError(err error) error {
	errno, ok := err.(windows.Errno)
	if !ok || errno == 0 {
		return nil
	}
	if errno == errorInvalidWindowHandle {
		return fmt.Errorf("%w: %v", ErrInvalidHandle, errno)
	}
	return errno
}

func int32ToUintptr(value int32) uintptr {
	return uintptr(uint32(value))
}
