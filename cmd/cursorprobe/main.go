// Command cursorprobe exercises the native window adapter without the
// overlay UI: it streams cursor samples as JSON lines and can flip
// click-through on a running overlay window.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"fluid-overlay/internal/clickthrough"
	"fluid-overlay/internal/config"
	"fluid-overlay/internal/logging"
	"fluid-overlay/internal/notify"
	"fluid-overlay/internal/overlay"
	"fluid-overlay/internal/platform"
	"fluid-overlay/internal/tracker"
)

// jsonLines writes every event as one JSON object per line.
type jsonLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newJSONLines(w io.Writer) *jsonLines {
	return &jsonLines{enc: json.NewEncoder(w)}
}

func (j *jsonLines) Emit(event string, payload any) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(struct {
		Event   string `json:"event"`
		Time    string `json:"time"`
		Payload any    `json:"payload"`
	}{event, time.Now().Format(time.RFC3339Nano), payload})
}

func (j *jsonLines) SetTrayLabel(string, string) error { return nil }

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configDir = flag.String("config", "", "config directory (default ~/.fluid-overlay)")
		title     = flag.String("window", "", "overlay window title (default from config)")
		toggle    = flag.Bool("toggle", false, "flip click-through on the window, restore on exit")
		cover     = flag.String("cover", "", "cover a monitor with the window: nearest or primary")
		duration  = flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
		interval  = flag.Duration("interval", 0, "sampling interval (default from config)")
		logLevel  = flag.String("log-level", "", "debug, info, warn or error (default from config)")
	)
	flag.Parse()

	var (
		cfgSvc *config.Service
		err    error
	)
	if *configDir != "" {
		cfgSvc, err = config.NewAt(*configDir)
	} else {
		cfgSvc, err = config.New()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	cfg := cfgSvc.Get()

	level := cfg.Log.Level
	if *logLevel != "" {
		level = *logLevel
	}
	logger, _, err := logging.New(logging.Options{Level: level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		return 2
	}

	adapter, err := platform.New(platform.Options{
		Timeout: time.Duration(cfg.Overlay.NativeTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		logger.Error("no native window adapter", "error", err)
		return 1
	}
	defer adapter.Close()
	logger.Info("adapter ready", "platform", adapter.Name())

	windowTitle := cfg.WindowTitle
	if *title != "" {
		windowTitle = *title
	}

	out := newJSONLines(os.Stdout)
	state := overlay.NewState(true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	if *toggle || *cover != "" {
		controller, err := clickthrough.New(clickthrough.Options{
			State:       state,
			Window:      adapter,
			WindowTitle: windowTitle,
			Sink:        notify.Logged(out, logger),
			Logger:      logger,
		})
		if err != nil {
			logger.Error("controller", "error", err)
			return 1
		}
		if *cover != "" {
			if err := controller.CoverMonitor(platform.ParseMonitorTarget(*cover)); err != nil {
				logger.Error("cover monitor", "error", err)
				return 1
			}
		}
		if *toggle {
			if _, err := controller.Toggle(); err != nil {
				logger.Error("toggle click-through", "error", err)
				return 1
			}
			defer func() {
				if _, err := controller.Toggle(); err != nil {
					logger.Warn("restore click-through", "error", err)
				}
			}()
		}
	}

	// The probe always samples, whatever mode the window is in.
	svc := tracker.NewService(alwaysOn{}, adapter, out, logger)
	active := time.Duration(cfg.Tracking.IntervalMs) * time.Millisecond
	if *interval > 0 {
		active = *interval
	}
	svc.SetIntervals(active, time.Duration(cfg.Tracking.IdleIntervalMs)*time.Millisecond)

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("tracker", "error", err)
		return 1
	}
	return 0
}

type alwaysOn struct{}

func (alwaysOn) TrackingEnabled() bool { return true }
