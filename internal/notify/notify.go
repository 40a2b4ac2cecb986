// Package notify delivers overlay state changes to the tray menu and the
// frontend event bus.
package notify

import "fluid-overlay/internal/logging"

// Frontend event names.
const (
	EventClickThroughChanged = "click-through-changed"
	EventGlobalMouseMove     = "global-mouse-move"
	EventOpenSettings        = "open-settings"
	EventOpenThemeCustomizer = "open-theme-customizer"
	EventOpenWelcome         = "open-welcome"
)

// TrayLabeler updates the text of a tray menu item.
type TrayLabeler interface {
	SetTrayLabel(itemID, text string) error
}

// Emitter broadcasts a named event to the frontend.
type Emitter interface {
	Emit(event string, payload any) error
}

// Sink is everything the click-through controller notifies.
type Sink interface {
	TrayLabeler
	Emitter
}

// Join combines a labeler and an emitter. Either may be nil.
func Join(labeler TrayLabeler, emitter Emitter) Sink {
	return joined{labeler: labeler, emitter: emitter}
}

type joined struct {
	labeler TrayLabeler
	emitter Emitter
}

func (j joined) SetTrayLabel(itemID, text string) error {
	if j.labeler == nil {
		return nil
	}
	return j.labeler.SetTrayLabel(itemID, text)
}

func (j joined) Emit(event string, payload any) error {
	if j.emitter == nil {
		return nil
	}
	return j.emitter.Emit(event, payload)
}

// Logged wraps a sink so that delivery never fails: errors are logged at
// warn level and swallowed.
func Logged(sink Sink, logger logging.Logger) Sink {
	return logged{sink: sink, logger: logger}
}

type logged struct {
	sink   Sink
	logger logging.Logger
}

func (l logged) SetTrayLabel(itemID, text string) error {
	if err := l.sink.SetTrayLabel(itemID, text); err != nil {
		l.logger.Warn("tray label update failed", "item", itemID, "error", err)
	}
	return nil
}

func (l logged) Emit(event string, payload any) error {
	if err := l.sink.Emit(event, payload); err != nil {
		l.logger.Warn("event emit failed", "event", event, "error", err)
	}
	return nil
}

// Discard drops every notification.
var Discard Sink = joined{}
