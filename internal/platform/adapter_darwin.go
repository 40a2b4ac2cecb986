//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework Cocoa -framework CoreGraphics

#import <Cocoa/Cocoa.h>
#import <CoreGraphics/CoreGraphics.h>
#include <stdint.h>
#include <stdlib.h>

// AppKit objects may only be touched on the main thread.
static void overlay_on_main(void (^block)(void)) {
	if ([NSThread isMainThread]) {
		block();
	} else {
		dispatch_sync(dispatch_get_main_queue(), block);
	}
}

// Resolves a handle against the live window list. Main thread only.
static NSWindow *overlay_window(uintptr_t handle) {
	for (NSWindow *w in [NSApp windows]) {
		if ((uintptr_t)(__bridge void *)w == handle) {
			return w;
		}
	}
	return nil;
}

static uintptr_t overlay_find_window(const char *title) {
	__block uintptr_t found = 0;
	NSString *want = [NSString stringWithUTF8String:title];
	overlay_on_main(^{
		for (NSWindow *w in [NSApp windows]) {
			if ([[w title] isEqualToString:want]) {
				found = (uintptr_t)(__bridge void *)w;
				break;
			}
		}
	});
	return found;
}

// 0 on success, -1 when the handle is stale.
static int overlay_set_ignores(uintptr_t handle, int ignore) {
	__block int rc = -1;
	overlay_on_main(^{
		NSWindow *w = overlay_window(handle);
		if (w == nil) {
			return;
		}
		BOOL want = ignore ? YES : NO;
		if ([w ignoresMouseEvents] != want) {
			[w setIgnoresMouseEvents:want];
		}
		rc = 0;
	});
	return rc;
}

// 1 ignoring, 0 not ignoring, -1 stale handle.
static int overlay_get_ignores(uintptr_t handle) {
	__block int rc = -1;
	overlay_on_main(^{
		NSWindow *w = overlay_window(handle);
		if (w != nil) {
			rc = [w ignoresMouseEvents] ? 1 : 0;
		}
	});
	return rc;
}

// 0 on success, -1 stale handle, -2 no screen.
static int overlay_cover_screen(uintptr_t handle, int primary) {
	__block int rc = -1;
	overlay_on_main(^{
		NSWindow *w = overlay_window(handle);
		if (w == nil) {
			return;
		}
		NSScreen *screen = primary ? [[NSScreen screens] firstObject] : [w screen];
		if (screen == nil) {
			screen = [NSScreen mainScreen];
		}
		if (screen == nil) {
			rc = -2;
			return;
		}
		[w setCollectionBehavior:NSWindowCollectionBehaviorCanJoinAllSpaces |
			NSWindowCollectionBehaviorStationary |
			NSWindowCollectionBehaviorFullScreenAuxiliary];
		[w setLevel:NSScreenSaverWindowLevel];
		// frame, not visibleFrame: menu bar and Dock are covered too.
		[w setFrame:[screen frame] display:YES];
		[w orderFrontRegardless];
		rc = 0;
	});
	return rc;
}

// CoreGraphics reports the pointer with a top-left origin, matching Rect.
static int overlay_cursor(double *x, double *y) {
	CGEventRef event = CGEventCreate(NULL);
	if (event == NULL) {
		return -1;
	}
	CGPoint p = CGEventGetLocation(event);
	CFRelease(event);
	*x = p.x;
	*y = p.y;
	return 0;
}

static int overlay_screen_size(double *w, double *h) {
	CGRect bounds = CGDisplayBounds(CGMainDisplayID());
	if (bounds.size.width <= 0 || bounds.size.height <= 0) {
		return -1;
	}
	*w = bounds.size.width;
	*h = bounds.size.height;
	return 0;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"time"
	"unsafe"
)

const defaultDarwinTimeout = 500 * time.Millisecond

type appKitAdapter struct {
	calls *caller
}

// New returns the AppKit adapter.
func New(opts Options) (Adapter, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultDarwinTimeout
	}
	return &appKitAdapter{calls: newCaller(timeout)}, nil
}

func (a *appKitAdapter) Name() string { return "darwin" }

func (a *appKitAdapter) Close() error { return nil }

// onMain bounds calls that hop to the main thread; a busy run loop must not
// stall the caller forever.
func (a *appKitAdapter) onMain(fn func() C.int) (C.int, error) {
	return withTimeout(a.calls, func() (C.int, error) {
		return fn(), nil
	})
}

func (a *appKitAdapter) FindWindow(title string) (Handle, error) {
	h, err := withTimeout(a.calls, func() (Handle, error) {
		// Owned by this goroutine; it may outlive a timed-out caller.
		cTitle := C.CString(title)
		defer C.free(unsafe.Pointer(cTitle))
		return Handle(C.overlay_find_window(cTitle)), nil
	})
	if err != nil {
		return 0, newError(a.Name(), "find window", err)
	}
	if h == 0 {
		return 0, newError(a.Name(), "find window", fmt.Errorf("%w: %q", ErrWindowNotFound, title))
	}
	return h, nil
}

func (a *appKitAdapter) SetClickThrough(h Handle, enabled bool) error {
	ignore := C.int(0)
	if enabled {
		ignore = 1
	}
	rc, err := a.onMain(func() C.int {
		return C.overlay_set_ignores(C.uintptr_t(h), ignore)
	})
	if err != nil {
		return newError(a.Name(), "set ignores mouse events", err)
	}
	if rc != 0 {
		return newError(a.Name(), "set ignores mouse events", ErrInvalidHandle)
	}
	return nil
}

func (a *appKitAdapter) QueryClickThrough(h Handle) bool {
	rc, err := a.onMain(func() C.int {
		return C.overlay_get_ignores(C.uintptr_t(h))
	})
	return err == nil && rc == 1
}

func (a *appKitAdapter) PositionOverMonitor(h Handle, target MonitorTarget) error {
	primary := C.int(0)
	if target == MonitorPrimary {
		primary = 1
	}
	rc, err := a.onMain(func() C.int {
		return C.overlay_cover_screen(C.uintptr_t(h), primary)
	})
	if err != nil {
		return newError(a.Name(), "position over monitor", err)
	}
	switch rc {
	case 0:
		return nil
	case -2:
		return newError(a.Name(), "position over monitor", ErrNoMonitor)
	default:
		return newError(a.Name(), "position over monitor", ErrInvalidHandle)
	}
}

func (a *appKitAdapter) CursorPosition() (int, int, error) {
	var x, y C.double
	if C.overlay_cursor(&x, &y) != 0 {
		return 0, 0, newError(a.Name(), "cursor position", errors.New("CGEventCreate failed"))
	}
	return int(x), int(y), nil
}

func (a *appKitAdapter) ScreenSize() (int, int, error) {
	var w, h C.double
	if C.overlay_screen_size(&w, &h) != 0 {
		return 0, 0, newError(a.Name(), "screen size", ErrNoMonitor)
	}
	return int(w), int(h), nil
}
