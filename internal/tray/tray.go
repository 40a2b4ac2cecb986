// Package tray builds the overlay's system tray menu and routes its clicks.
package tray

import (
	"errors"
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"fluid-overlay/internal/logging"
)

// Menu item IDs.
const (
	ItemShow               = "show"
	ItemHide               = "hide"
	ItemToggleClickThrough = "toggle_click_through"
	ItemToggleFullscreen   = "toggle_fullscreen"
	ItemSettings           = "settings"
	ItemTheme              = "theme"
	ItemWelcome            = "welcome"
	ItemQuit               = "quit"
)

// ErrUnknownItem is returned for IDs that are not part of the menu.
var ErrUnknownItem = errors.New("unknown tray item")

// entry is one menu row. An empty ID is a separator.
type entry struct {
	ID      string
	Title   string
	Tooltip string
}

var menu = []entry{
	{ItemShow, "Show", "Show the overlay"},
	{ItemHide, "Hide", "Hide the overlay"},
	{},
	{ItemToggleClickThrough, "Toggle Click-Through", "Let clicks pass through the overlay"},
	{ItemToggleFullscreen, "Toggle Fullscreen", "Cover the whole monitor"},
	{},
	{ItemSettings, "Settings", "Open settings"},
	{ItemTheme, "Theme", "Customize colors"},
	{ItemWelcome, "Welcome", "Show the welcome screen"},
	{},
	{ItemQuit, "Quit", "Exit Fluid Overlay"},
}

// titler is the part of *systray.MenuItem the tray writes to.
type titler interface {
	SetTitle(string)
}

// Tray owns the menu. Labels set before the menu exists are applied once it
// is ready.
type Tray struct {
	tooltip string
	logger  logging.Logger

	mu       sync.Mutex
	ready    bool
	items    map[string]titler
	labels   map[string]string
	handlers map[string]func()
}

// New returns a tray that is not shown yet.
func New(tooltip string, logger logging.Logger) *Tray {
	if logger == nil {
		logger = logging.Discard()
	}
	t := &Tray{
		tooltip:  tooltip,
		logger:   logger,
		items:    make(map[string]titler),
		labels:   make(map[string]string),
		handlers: make(map[string]func()),
	}
	for _, e := range menu {
		if e.ID != "" {
			t.labels[e.ID] = e.Title
		}
	}
	return t
}

// Handle registers fn for clicks on the item id. It replaces any previous
// handler.
func (t *Tray) Handle(id string, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[id] = fn
}

// Start shows the tray icon. Call it after the Wails startup hook so the
// native run loop already exists.
func (t *Tray) Start() {
	go systray.Run(t.onReady, func() {})
}

// Quit removes the tray icon.
func (t *Tray) Quit() {
	t.mu.Lock()
	ready := t.ready
	t.mu.Unlock()
	if ready {
		systray.Quit()
	}
}

// SetTrayLabel changes the text of a menu item.
func (t *Tray) SetTrayLabel(itemID, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.labels[itemID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownItem, itemID)
	}
	t.labels[itemID] = text
	if item, ok := t.items[itemID]; ok {
		item.SetTitle(text)
	}
	return nil
}

// Label returns the current text of a menu item.
func (t *Tray) Label(itemID string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.labels[itemID]
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTooltip(t.tooltip)

	for _, e := range menu {
		if e.ID == "" {
			systray.AddSeparator()
			continue
		}
		item := systray.AddMenuItem(t.Label(e.ID), e.Tooltip)
		t.attach(e.ID, item)
		go t.listen(e.ID, item.ClickedCh)
	}
	t.logger.Debug("tray menu ready")
}

// attach registers a created item and applies the label it should show.
func (t *Tray) attach(id string, item titler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.items[id] = item
	item.SetTitle(t.labels[id])
	t.ready = true
}

func (t *Tray) listen(id string, clicks <-chan struct{}) {
	for range clicks {
		t.dispatch(id)
	}
}

func (t *Tray) dispatch(id string) {
	t.mu.Lock()
	fn := t.handlers[id]
	t.mu.Unlock()

	if fn == nil {
		t.logger.Debug("tray item has no handler", "item", id)
		return
	}
	t.logger.Debug("tray item clicked", "item", id)
	fn()
}
