package tracker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluid-overlay/internal/notify"
	"fluid-overlay/internal/overlay"
)

type fakeCursor struct {
	positionCalls atomic.Int64
	screenCalls   atomic.Int64
	failPosition  atomic.Int64 // fail this many position queries first
	failScreen    atomic.Int64
}

func (f *fakeCursor) CursorPosition() (int, int, error) {
	f.positionCalls.Add(1)
	if f.failPosition.Add(-1) >= 0 {
		return 0, 0, errors.New("pointer query failed")
	}
	return 640, 360, nil
}

func (f *fakeCursor) ScreenSize() (int, int, error) {
	f.screenCalls.Add(1)
	if f.failScreen.Add(-1) >= 0 {
		return 0, 0, errors.New("no screen")
	}
	return 1920, 1080, nil
}

type sampleSink struct {
	mu      sync.Mutex
	samples []CursorSample
}

func (s *sampleSink) Emit(event string, payload any) error {
	if event != notify.EventGlobalMouseMove {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, payload.(CursorSample))
	return nil
}

func (s *sampleSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

func TestService_NoQueriesWhileDisabled(t *testing.T) {
	cursor := &fakeCursor{}
	sink := &sampleSink{}
	svc := NewService(overlay.NewState(false), cursor, sink, nil)
	svc.SetIntervals(time.Millisecond, 5*time.Millisecond)

	svc.Start()
	time.Sleep(150 * time.Millisecond)
	svc.Stop()

	assert.Zero(t, cursor.positionCalls.Load())
	assert.Zero(t, cursor.screenCalls.Load())
	assert.Zero(t, sink.count())
}

func TestService_SamplesWhileEnabled(t *testing.T) {
	cursor := &fakeCursor{}
	sink := &sampleSink{}
	svc := NewService(overlay.NewState(true), cursor, sink, nil)

	svc.Start()
	time.Sleep(320 * time.Millisecond)
	svc.Stop()

	// 20 windows of 16ms; allow generous scheduling slack.
	assert.GreaterOrEqual(t, cursor.positionCalls.Load(), int64(5))
	require.Positive(t, sink.count())
	assert.Equal(t, CursorSample{X: 640, Y: 360, ScreenWidth: 1920, ScreenHeight: 1080}, sink.samples[0])
	assert.Equal(t, int64(1), cursor.screenCalls.Load(), "screen size is cached")
}

func TestService_FollowsGate(t *testing.T) {
	state := overlay.NewState(true)
	cursor := &fakeCursor{}
	svc := NewService(state, cursor, nil, nil)
	svc.SetIntervals(2*time.Millisecond, 10*time.Millisecond)

	svc.Start()
	defer svc.Stop()

	require.Eventually(t, func() bool { return cursor.positionCalls.Load() > 0 }, time.Second, 5*time.Millisecond)

	state.Toggle()
	// One idle cycle is enough for the loop to notice.
	time.Sleep(30 * time.Millisecond)
	before := cursor.positionCalls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, cursor.positionCalls.Load())
}

func TestService_FailuresSkipTick(t *testing.T) {
	cursor := &fakeCursor{}
	cursor.failPosition.Store(3)
	cursor.failScreen.Store(2)
	sink := &sampleSink{}
	svc := NewService(overlay.NewState(true), cursor, sink, nil)
	svc.SetIntervals(time.Millisecond, time.Millisecond)

	svc.Start()
	defer svc.Stop()

	require.Eventually(t, func() bool { return sink.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, svc.IsPolling())
	// A failed position query drops the cached screen size.
	assert.GreaterOrEqual(t, cursor.screenCalls.Load(), int64(6))
}

type failingEmitter struct{}

func (failingEmitter) Emit(string, any) error { return errors.New("webview gone") }

func TestService_EmitFailureLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cursor := &fakeCursor{}
	svc := NewService(overlay.NewState(true), cursor, failingEmitter{}, logger)
	svc.SetIntervals(time.Millisecond, time.Millisecond)

	svc.Start()
	require.Eventually(t, func() bool { return cursor.positionCalls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	svc.Stop()

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "cursor sample emit failed")
	assert.NotContains(t, out, "level=WARN")
	assert.False(t, svc.IsPolling())
}

func TestService_StartStop(t *testing.T) {
	cursor := &fakeCursor{}
	svc := NewService(overlay.NewState(true), cursor, nil, nil)
	svc.SetIntervals(time.Millisecond, time.Millisecond)

	assert.False(t, svc.IsPolling())
	svc.Start()
	svc.Start()
	assert.True(t, svc.IsPolling())

	svc.Stop()
	assert.False(t, svc.IsPolling())
	after := cursor.positionCalls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, cursor.positionCalls.Load(), "no calls after Stop returns")

	svc.Stop()
	svc.Start()
	assert.True(t, svc.IsPolling())
	svc.Stop()
}

func TestService_Run(t *testing.T) {
	svc := NewService(overlay.NewState(false), &fakeCursor{}, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := svc.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, svc.IsPolling())
}

func TestSetIntervals_Clamps(t *testing.T) {
	svc := NewService(overlay.NewState(false), &fakeCursor{}, nil, nil)

	active, idle := svc.Intervals()
	assert.Equal(t, DefaultInterval, active)
	assert.Equal(t, DefaultIdleInterval, idle)

	svc.SetIntervals(0, -time.Second)
	active, idle = svc.Intervals()
	assert.Equal(t, time.Millisecond, active)
	assert.Equal(t, time.Millisecond, idle)
}
