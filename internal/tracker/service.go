// Package tracker polls the global cursor position and forwards it to the
// frontend while the overlay is in click-through mode.
package tracker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"fluid-overlay/internal/logging"
	"fluid-overlay/internal/notify"
	"fluid-overlay/internal/platform"
)

const (
	DefaultInterval     = 16 * time.Millisecond
	DefaultIdleInterval = 100 * time.Millisecond
)

// CursorSample is the payload of a global-mouse-move event.
type CursorSample struct {
	X            int `json:"x"`
	Y            int `json:"y"`
	ScreenWidth  int `json:"screenWidth"`
	ScreenHeight int `json:"screenHeight"`
}

// Gate reports whether samples are wanted right now.
type Gate interface {
	TrackingEnabled() bool
}

// Service runs the polling loop. It only reads the gate; it never changes
// overlay state.
type Service struct {
	gate    Gate
	cursor  platform.Cursor
	emitter notify.Emitter
	logger  logging.Logger

	interval     atomic.Int64
	idleInterval atomic.Int64

	mu       sync.Mutex
	stopChan chan struct{}
	done     chan struct{}

	// Only touched by the loop goroutine.
	screenW, screenH int
	screenKnown      bool
}

// NewService creates a stopped polling service.
func NewService(gate Gate, cursor platform.Cursor, emitter notify.Emitter, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	if emitter == nil {
		emitter = notify.Discard
	}
	s := &Service{
		gate:    gate,
		cursor:  cursor,
		emitter: emitter,
		logger:  logger,
	}
	s.interval.Store(int64(DefaultInterval))
	s.idleInterval.Store(int64(DefaultIdleInterval))
	return s
}

// SetIntervals changes the active and idle cadence. Values below one
// millisecond are raised to one millisecond. The running loop picks them up on
// its next cycle.
func (s *Service) SetIntervals(active, idle time.Duration) {
	s.interval.Store(int64(clampInterval(active)))
	s.idleInterval.Store(int64(clampInterval(idle)))
}

// Intervals returns the active and idle cadence.
func (s *Service) Intervals() (active, idle time.Duration) {
	return time.Duration(s.interval.Load()), time.Duration(s.idleInterval.Load())
}

func clampInterval(d time.Duration) time.Duration {
	if d < time.Millisecond {
		return time.Millisecond
	}
	return d
}

// Start launches the loop. Calling Start on a running service does nothing.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopChan != nil {
		return
	}
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	go s.pollLoop(s.stopChan, s.done)
	s.logger.Info("cursor tracking started")
}

// Stop signals the loop and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	stop, done := s.stopChan, s.done
	s.stopChan, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	s.logger.Info("cursor tracking stopped")
}

// IsPolling reports whether the loop is running.
func (s *Service) IsPolling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopChan != nil
}

// Run starts the loop and blocks until ctx is done, then stops it.
func (s *Service) Run(ctx context.Context) error {
	s.Start()
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

func (s *Service) pollLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(time.Duration(s.interval.Load()))
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
			next := time.Duration(s.interval.Load())
			if s.gate.TrackingEnabled() {
				s.poll()
			} else {
				next = time.Duration(s.idleInterval.Load())
			}
			timer.Reset(next)
		}
	}
}

// poll takes one sample. Failures skip the tick.
func (s *Service) poll() {
	if !s.screenKnown {
		w, h, err := s.cursor.ScreenSize()
		if err != nil {
			s.logger.Debug("screen size query failed", "error", err)
			return
		}
		s.screenW, s.screenH, s.screenKnown = w, h, true
	}

	x, y, err := s.cursor.CursorPosition()
	if err != nil {
		s.logger.Debug("cursor position query failed", "error", err)
		// Geometry may have changed with the failure (display hotplug).
		s.screenKnown = false
		return
	}

	sample := CursorSample{X: x, Y: y, ScreenWidth: s.screenW, ScreenHeight: s.screenH}
	if err := s.emitter.Emit(notify.EventGlobalMouseMove, sample); err != nil {
		s.logger.Debug("cursor sample emit failed", "error", err)
	}
}
