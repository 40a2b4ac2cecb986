package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	wailswindows "github.com/wailsapp/wails/v2/pkg/options/windows"

	"fluid-overlay/internal/clickthrough"
	"fluid-overlay/internal/config"
	"fluid-overlay/internal/logging"
	"fluid-overlay/internal/notify"
	"fluid-overlay/internal/overlay"
	"fluid-overlay/internal/platform"
	"fluid-overlay/internal/tracker"
	"fluid-overlay/internal/tray"
)

//go:embed all:frontend/dist
var assets embed.FS

var errNotReady = errors.New("overlay not initialized")

// App struct
type App struct {
	ctx      context.Context
	config   *config.Service
	logger   *slog.Logger
	logLevel *slog.LevelVar

	shell      *wailsShell
	adapter    platform.Adapter
	state      *overlay.State
	controller *clickthrough.Controller
	tracker    *tracker.Service
	tray       *tray.Tray

	stopWatch context.CancelFunc
	domOnce   sync.Once
}

// NewApp creates a new App application struct
func NewApp(configSvc *config.Service) *App {
	return &App{config: configSvc}
}

// OnStartup is called when the app starts up
func (a *App) OnStartup(ctx context.Context) {
	a.ctx = ctx
	configSvc := a.config
	cfg := configSvc.Get()

	logger, level, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Printf("Invalid log settings in %s: %v\n", configSvc.Path(), err)
		logger, level, _ = logging.New(logging.Options{})
	}
	a.logger, a.logLevel = logger, level

	a.shell = newWailsShell(ctx)

	adapter, err := platform.New(platform.Options{
		Timeout: time.Duration(cfg.Overlay.NativeTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		logger.Warn("native window adapter unavailable, using fallback", "error", err)
		adapter = platform.NewFallback(a.shell)
	}
	a.adapter = adapter
	logger.Info("window adapter ready", "platform", adapter.Name())

	a.tray = tray.New(cfg.WindowTitle, logger)
	sink := notify.Logged(notify.Join(a.tray, a.shell), logger)

	a.state = overlay.NewState(true)
	controller, err := clickthrough.New(clickthrough.Options{
		State:       a.state,
		Window:      adapter,
		WindowTitle: cfg.WindowTitle,
		Sink:        sink,
		Logger:      logger,
		TrayItemID:  tray.ItemToggleClickThrough,
	})
	if err != nil {
		logger.Error("failed to initialize click-through controller", "error", err)
		os.Exit(1)
	}
	a.controller = controller

	// Samples go straight to the frontend; the tracker logs its own misses.
	a.tracker = tracker.NewService(a.state, adapter, a.shell, logger)
	a.applyTracking(cfg.Tracking)

	a.registerTrayHandlers()
	a.tray.Start()

	watchCtx, cancel := context.WithCancel(ctx)
	a.stopWatch = cancel
	configSvc.OnChange(a.onConfigChange)
	go func() {
		if err := configSvc.Watch(watchCtx, func(err error) {
			logger.Warn("config reload failed", "error", err)
		}); err != nil {
			logger.Warn("config hot reload disabled", "error", err)
		}
	}()
}

// OnDomReady runs once the window and page exist: it applies the initial
// click-through mode and starts cursor tracking.
func (a *App) OnDomReady(ctx context.Context) {
	a.domOnce.Do(func() {
		cfg := a.config.Get()

		if err := a.controller.Apply(); err != nil {
			a.logger.Warn("initial click-through not applied", "error", err)
		}
		if cfg.Overlay.CoverOnStartup {
			if err := a.controller.CoverMonitor(platform.ParseMonitorTarget(cfg.Overlay.Monitor)); err != nil {
				a.logger.Warn("initial cover failed", "error", err)
			}
		}

		if _, _, err := a.adapter.CursorPosition(); errors.Is(err, platform.ErrUnsupported) {
			a.logger.Info("global cursor position unavailable, tracking disabled", "platform", a.adapter.Name())
			return
		}
		a.tracker.Start()
	})
}

// OnShutdown is called when the app is shutting down
func (a *App) OnShutdown(ctx context.Context) {
	if a.tracker != nil {
		a.tracker.Stop()
	}
	if a.stopWatch != nil {
		a.stopWatch()
	}
	if a.tray != nil {
		a.tray.Quit()
	}
	if a.adapter != nil {
		if err := a.adapter.Close(); err != nil {
			a.logger.Warn("closing window adapter", "error", err)
		}
	}
	if a.config != nil {
		if err := a.config.Save(); err != nil {
			a.logger.Warn("saving config", "error", err)
		}
	}
}

func (a *App) registerTrayHandlers() {
	a.tray.Handle(tray.ItemShow, a.shell.show)
	a.tray.Handle(tray.ItemHide, a.shell.hide)
	a.tray.Handle(tray.ItemToggleClickThrough, func() {
		if _, err := a.ToggleClickThrough(); err != nil {
			a.logger.Warn("tray toggle click-through", "error", err)
		}
	})
	a.tray.Handle(tray.ItemToggleFullscreen, func() {
		if err := a.ToggleFullscreenOverlay(); err != nil {
			a.logger.Warn("tray toggle fullscreen", "error", err)
		}
	})
	a.tray.Handle(tray.ItemSettings, a.emitter(notify.EventOpenSettings))
	a.tray.Handle(tray.ItemTheme, a.emitter(notify.EventOpenThemeCustomizer))
	a.tray.Handle(tray.ItemWelcome, a.emitter(notify.EventOpenWelcome))
	a.tray.Handle(tray.ItemQuit, func() {
		a.tray.Quit()
		a.shell.quit()
	})
}

// emitter returns a tray handler that shows the window and opens a panel.
func (a *App) emitter(event string) func() {
	return func() {
		a.shell.show()
		if err := a.shell.Emit(event, nil); err != nil {
			a.logger.Warn("event emit failed", "event", event, "error", err)
		}
	}
}

func (a *App) applyTracking(t config.TrackingConfig) {
	a.tracker.SetIntervals(
		time.Duration(t.IntervalMs)*time.Millisecond,
		time.Duration(t.IdleIntervalMs)*time.Millisecond,
	)
}

func (a *App) onConfigChange(cfg *config.Config) {
	a.applyTracking(cfg.Tracking)
	if lvl, err := logging.ParseLevel(cfg.Log.Level); err == nil {
		a.logLevel.Set(lvl)
	}
	a.logger.Info("config reloaded", "path", a.config.Path())
}

// GetClickThroughState returns whether the overlay lets clicks pass through
func (a *App) GetClickThroughState() bool {
	if a.controller == nil {
		return false
	}
	return a.controller.State()
}

// GetOverlayState returns click-through and tracking as one consistent pair
func (a *App) GetOverlayState() overlay.Snapshot {
	if a.state == nil {
		return overlay.Snapshot{}
	}
	return a.state.Snapshot()
}

// SetClickThrough enables or disables click-through
func (a *App) SetClickThrough(enabled bool) error {
	if a.controller == nil {
		return errNotReady
	}
	return a.controller.Set(enabled)
}

// ToggleClickThrough flips click-through and returns the new state
func (a *App) ToggleClickThrough() (bool, error) {
	if a.controller == nil {
		return false, errNotReady
	}
	return a.controller.Toggle()
}

// ToggleFullscreenOverlay resizes the overlay to cover the configured monitor
func (a *App) ToggleFullscreenOverlay() error {
	if a.controller == nil {
		return errNotReady
	}
	return a.controller.CoverMonitor(platform.ParseMonitorTarget(a.config.Get().Overlay.Monitor))
}

// BeginInteraction captures input while a panel is open
func (a *App) BeginInteraction() error {
	if a.controller == nil {
		return errNotReady
	}
	return a.controller.BeginInteraction()
}

// EndInteraction restores the mode that was active before BeginInteraction
func (a *App) EndInteraction() error {
	if a.controller == nil {
		return errNotReady
	}
	return a.controller.EndInteraction()
}

// GetAppearance returns the persisted look of the overlay
func (a *App) GetAppearance() config.AppearanceConfig {
	if a.config == nil {
		return config.Default().Appearance
	}
	return a.config.Get().Appearance
}

// SaveAppearance persists the look of the overlay
func (a *App) SaveAppearance(appearance config.AppearanceConfig) error {
	if a.config == nil {
		return errNotReady
	}
	return a.config.UpdateAppearance(appearance)
}

// SetTrackingIntervals persists the cursor polling cadence and applies it
func (a *App) SetTrackingIntervals(intervalMs, idleIntervalMs int) error {
	if a.config == nil || a.tracker == nil {
		return errNotReady
	}
	if err := a.config.UpdateTracking(config.TrackingConfig{IntervalMs: intervalMs, IdleIntervalMs: idleIntervalMs}); err != nil {
		return err
	}
	a.applyTracking(a.config.Get().Tracking)
	return nil
}

// GetPlatform returns the name of the active window adapter
func (a *App) GetPlatform() string {
	if a.adapter == nil {
		return "unknown"
	}
	return a.adapter.Name()
}

func main() {
	configSvc, err := config.New()
	if err != nil {
		fmt.Printf("Failed to initialize config: %v\n", err)
		os.Exit(1)
	}
	app := NewApp(configSvc)

	err = wails.Run(&options.App{
		Title:  configSvc.Get().WindowTitle,
		Width:  1280,
		Height: 720,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Frameless:        true,
		AlwaysOnTop:      true,
		BackgroundColour: &options.RGBA{R: 0, G: 0, B: 0, A: 0}, // Transparent
		Windows: &wailswindows.Options{
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
		},
		Mac: &mac.Options{
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
		},
		OnStartup:  app.OnStartup,
		OnDomReady: app.OnDomReady,
		OnShutdown: app.OnShutdown,
		Bind:       []interface{}{app},
	})

	if err != nil {
		fmt.Printf("Error starting application: %v\n", err)
		os.Exit(1)
	}
}
