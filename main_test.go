package main

import (
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluid-overlay/internal/clickthrough"
	"fluid-overlay/internal/config"
	"fluid-overlay/internal/logging"
	"fluid-overlay/internal/notify"
	"fluid-overlay/internal/overlay"
	"fluid-overlay/internal/platform"
	"fluid-overlay/internal/tracker"
)

// stubAdapter is an in-memory platform.Adapter.
type stubAdapter struct {
	mu      sync.Mutex
	enabled bool
	sets    int
	covers  []platform.MonitorTarget
}

func (s *stubAdapter) Name() string { return "stub" }
func (s *stubAdapter) Close() error { return nil }

func (s *stubAdapter) FindWindow(string) (platform.Handle, error) { return 1, nil }

func (s *stubAdapter) SetClickThrough(_ platform.Handle, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	s.enabled = enabled
	return nil
}

func (s *stubAdapter) QueryClickThrough(platform.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *stubAdapter) PositionOverMonitor(_ platform.Handle, target platform.MonitorTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.covers = append(s.covers, target)
	return nil
}

func (s *stubAdapter) CursorPosition() (int, int, error) { return 10, 20, nil }
func (s *stubAdapter) ScreenSize() (int, int, error)     { return 1920, 1080, nil }

func newTestApp(t *testing.T) (*App, *stubAdapter) {
	t.Helper()

	cfgSvc, err := config.NewAt(t.TempDir())
	require.NoError(t, err)

	logger, level, err := logging.New(logging.Options{Level: "error"})
	require.NoError(t, err)

	adapter := &stubAdapter{}
	state := overlay.NewState(true)
	controller, err := clickthrough.New(clickthrough.Options{
		State:       state,
		Window:      adapter,
		WindowTitle: cfgSvc.Get().WindowTitle,
		Sink:        notify.Discard,
		Logger:      logger,
	})
	require.NoError(t, err)

	app := NewApp(cfgSvc)
	app.logger, app.logLevel = logger, level
	app.adapter = adapter
	app.state = state
	app.controller = controller
	app.tracker = tracker.NewService(state, adapter, notify.Discard, logger)
	return app, adapter
}

func TestApp_NotInitialized(t *testing.T) {
	app := NewApp(nil)

	assert.False(t, app.GetClickThroughState())
	assert.ErrorIs(t, app.SetClickThrough(true), errNotReady)
	_, err := app.ToggleClickThrough()
	assert.ErrorIs(t, err, errNotReady)
	assert.ErrorIs(t, app.ToggleFullscreenOverlay(), errNotReady)
	assert.ErrorIs(t, app.BeginInteraction(), errNotReady)
	assert.ErrorIs(t, app.EndInteraction(), errNotReady)
	assert.ErrorIs(t, app.SaveAppearance(config.AppearanceConfig{}), errNotReady)
	assert.ErrorIs(t, app.SetTrackingIntervals(16, 100), errNotReady)
	assert.Equal(t, overlay.Snapshot{}, app.GetOverlayState())
	assert.Equal(t, config.Default().Appearance, app.GetAppearance())
	assert.Equal(t, "unknown", app.GetPlatform())
}

func TestApp_ClickThroughCommands(t *testing.T) {
	app, adapter := newTestApp(t)

	assert.True(t, app.GetClickThroughState())

	got, err := app.ToggleClickThrough()
	require.NoError(t, err)
	assert.False(t, got)
	assert.False(t, app.GetClickThroughState())

	require.NoError(t, app.SetClickThrough(false))
	require.NoError(t, app.SetClickThrough(true))
	assert.True(t, app.GetClickThroughState())
	assert.Equal(t, 2, adapter.sets)
	assert.True(t, adapter.enabled)
}

func TestApp_InteractionCommands(t *testing.T) {
	app, _ := newTestApp(t)

	require.NoError(t, app.BeginInteraction())
	assert.False(t, app.GetClickThroughState())
	require.NoError(t, app.EndInteraction())
	assert.True(t, app.GetClickThroughState())
}

func TestApp_ToggleFullscreenUsesConfiguredMonitor(t *testing.T) {
	app, adapter := newTestApp(t)

	cfg := app.config.Get()
	cfg.Overlay.Monitor = "primary"
	app.config.Set(cfg)

	require.NoError(t, app.ToggleFullscreenOverlay())
	assert.Equal(t, []platform.MonitorTarget{platform.MonitorPrimary}, adapter.covers)
}

func TestApp_Appearance(t *testing.T) {
	app, _ := newTestApp(t)

	want := config.AppearanceConfig{Preset: "ember", HueMin: 0.02, HueMax: 0.12, Saturation: 1, Brightness: 0.8, WelcomeSeen: true}
	require.NoError(t, app.SaveAppearance(want))
	assert.Equal(t, want, app.GetAppearance())
	assert.Equal(t, "stub", app.GetPlatform())
}

func TestApp_OnConfigChange(t *testing.T) {
	app, _ := newTestApp(t)

	cfg := config.Default()
	cfg.Tracking = config.TrackingConfig{IntervalMs: 33, IdleIntervalMs: 250}
	cfg.Log.Level = "debug"
	app.onConfigChange(cfg)

	active, idle := app.tracker.Intervals()
	assert.Equal(t, 33*time.Millisecond, active)
	assert.Equal(t, 250*time.Millisecond, idle)
	assert.Equal(t, slog.LevelDebug, app.logLevel.Level())
}

func TestApp_GetOverlayState(t *testing.T) {
	app, _ := newTestApp(t)

	assert.Equal(t, overlay.Snapshot{ClickThrough: true, Tracking: true}, app.GetOverlayState())
	require.NoError(t, app.BeginInteraction())
	assert.Equal(t, overlay.Snapshot{}, app.GetOverlayState())
}

func TestApp_SetTrackingIntervals(t *testing.T) {
	app, _ := newTestApp(t)

	require.NoError(t, app.SetTrackingIntervals(40, 0))

	active, idle := app.tracker.Intervals()
	assert.Equal(t, 40*time.Millisecond, active)
	assert.Equal(t, time.Millisecond, idle)

	reloaded, err := config.NewAt(filepath.Dir(app.config.Path()))
	require.NoError(t, err)
	assert.Equal(t, config.TrackingConfig{IntervalMs: 40, IdleIntervalMs: 1}, reloaded.Get().Tracking)
}
