package platform

import (
	"fmt"
	"strings"
)

// x11Session reports whether the toolkit window will be an X11 client. GTK
// picks Wayland whenever a compositor is reachable unless GDK_BACKEND puts
// x11 first, and a Wayland-native window never shows up in the X client list.
func x11Session(getenv func(string) string) error {
	if getenv("DISPLAY") == "" {
		return fmt.Errorf("%w: DISPLAY not set", ErrUnsupported)
	}

	wayland := getenv("WAYLAND_DISPLAY") != "" || strings.EqualFold(getenv("XDG_SESSION_TYPE"), "wayland")
	if !wayland {
		return nil
	}

	backend, _, _ := strings.Cut(getenv("GDK_BACKEND"), ",")
	if strings.TrimSpace(backend) == "x11" {
		return nil
	}
	return fmt.Errorf("%w: wayland session without GDK_BACKEND=x11", ErrUnsupported)
}
