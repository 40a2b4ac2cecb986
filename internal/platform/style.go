package platform

// Win32 extended window style bits. Kept outside the windows build so the
// bit arithmetic is tested on every host.
const (
	wsExTransparent uintptr = 0x00000020
	wsExToolWindow  uintptr = 0x00000080
	wsExLayered     uintptr = 0x00080000
)

// clickThroughStyle returns the extended style for the requested mode.
// WS_EX_TRANSPARENT has no effect without WS_EX_LAYERED, so layered is always
// set, and it stays set when click-through is turned off to avoid re-layering
// the window on every toggle. No other bit is touched.
func clickThroughStyle(current uintptr, enabled bool) uintptr {
	next := current | wsExLayered
	if enabled {
		next |= wsExTransparent
	} else {
		next &^= wsExTransparent
	}
	return next
}

func hasClickThroughStyle(style uintptr) bool {
	return style&wsExTransparent != 0 && style&wsExLayered != 0
}
