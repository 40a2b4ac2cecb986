// Package clickthrough switches the overlay window between passing mouse
// input through and capturing it.
package clickthrough

import (
	"errors"
	"fmt"
	"sync"

	"fluid-overlay/internal/logging"
	"fluid-overlay/internal/notify"
	"fluid-overlay/internal/overlay"
	"fluid-overlay/internal/platform"
)

// Tray labels name the action the toggle item would perform next.
const (
	LabelDisable = "Disable Click-Through"
	LabelEnable  = "Enable Click-Through"
)

// DefaultTrayItemID is the tray item whose label the controller rewrites.
const DefaultTrayItemID = "toggle_click_through"

// Window is the slice of the platform adapter the controller drives.
type Window interface {
	platform.ClickThrough
	platform.Geometry
	platform.Locator
}

// Options configures New.
type Options struct {
	State       *overlay.State
	Window      Window
	WindowTitle string
	Sink        notify.Sink
	Logger      logging.Logger
	TrayItemID  string
}

// Controller is the only writer of the overlay state. The tray handler and
// the bound frontend commands share one Controller.
type Controller struct {
	// mu serializes whole transitions (state, native call, notifications).
	// The state's own lock is only held for the flag update so the polling
	// loop never waits on a native call.
	mu sync.Mutex

	state    *overlay.State
	window   Window
	title    string
	sink     notify.Sink
	logger   logging.Logger
	trayItem string

	interactions int
	restore      bool
}

// New creates a controller. State and Window are required.
func New(opts Options) (*Controller, error) {
	if opts.State == nil {
		return nil, errors.New("clickthrough: nil state")
	}
	if opts.Window == nil {
		return nil, errors.New("clickthrough: nil window adapter")
	}

	c := &Controller{
		state:    opts.State,
		window:   opts.Window,
		title:    opts.WindowTitle,
		sink:     opts.Sink,
		logger:   opts.Logger,
		trayItem: opts.TrayItemID,
	}
	if c.sink == nil {
		c.sink = notify.Discard
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	if c.trayItem == "" {
		c.trayItem = DefaultTrayItemID
	}
	return c, nil
}

// Label returns the tray label for a click-through value.
func Label(enabled bool) string {
	if enabled {
		return LabelDisable
	}
	return LabelEnable
}

// State returns whether click-through is enabled. It has no side effects.
func (c *Controller) State() bool {
	return c.state.ClickThrough()
}

// Set switches click-through on or off. Setting the current value does
// nothing. A native failure is returned but the new state is kept, so calling
// Set again with the same value is a no-op.
func (c *Controller) Set(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set(enabled)
}

// Toggle flips click-through and returns the new value.
func (c *Controller) Toggle() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := !c.state.ClickThrough()
	return next, c.set(next)
}

func (c *Controller) set(enabled bool) error {
	if !c.state.CompareAndSetClickThrough(!enabled, enabled) {
		return nil
	}
	c.logger.Info("click-through changed", "enabled", enabled)

	err := c.applyNative(enabled)
	if err != nil {
		c.logger.Warn("native click-through update failed", "enabled", enabled, "error", err)
	}
	c.publish(enabled)
	return err
}

// Apply pushes the current state to the window and the tray without a
// transition. The shell calls it once the window exists.
func (c *Controller) Apply() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	enabled := c.state.ClickThrough()
	err := c.applyNative(enabled)
	if err != nil {
		c.logger.Warn("initial click-through apply failed", "enabled", enabled, "error", err)
	}
	if labelErr := c.sink.SetTrayLabel(c.trayItem, Label(enabled)); labelErr != nil {
		c.logger.Warn("tray label update failed", "item", c.trayItem, "error", labelErr)
	}
	return err
}

// CoverMonitor resizes the overlay to cover the chosen monitor and raises it
// without taking focus.
func (c *Controller) CoverMonitor(target platform.MonitorTarget) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, err := c.window.FindWindow(c.title)
	if err != nil {
		return fmt.Errorf("locate overlay window: %w", err)
	}
	if err := c.window.PositionOverMonitor(h, target); err != nil {
		return fmt.Errorf("cover %s monitor: %w", target, err)
	}
	c.logger.Debug("overlay covers monitor", "target", target.String())
	return nil
}

// BeginInteraction switches to capturing while the user works with an
// interactive panel and remembers the mode to go back to. Calls nest.
func (c *Controller) BeginInteraction() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.interactions++
	if c.interactions > 1 {
		return nil
	}
	c.restore = c.state.ClickThrough()
	if !c.restore {
		return nil
	}
	return c.set(false)
}

// EndInteraction closes one BeginInteraction. The last one restores
// click-through if it was on when the first began.
func (c *Controller) EndInteraction() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.interactions == 0 {
		return nil
	}
	c.interactions--
	if c.interactions > 0 || !c.restore {
		return nil
	}
	c.restore = false
	return c.set(true)
}

func (c *Controller) applyNative(enabled bool) error {
	h, err := c.window.FindWindow(c.title)
	if err != nil {
		return fmt.Errorf("locate overlay window: %w", err)
	}
	if err := c.window.SetClickThrough(h, enabled); err != nil {
		return fmt.Errorf("set click-through %t: %w", enabled, err)
	}
	return nil
}

// publish runs after the native call. Delivery failures are logged only.
func (c *Controller) publish(enabled bool) {
	if err := c.sink.SetTrayLabel(c.trayItem, Label(enabled)); err != nil {
		c.logger.Warn("tray label update failed", "item", c.trayItem, "error", err)
	}
	if err := c.sink.Emit(notify.EventClickThroughChanged, enabled); err != nil {
		c.logger.Warn("event emit failed", "event", notify.EventClickThroughChanged, "error", err)
	}
}
