package overlay

import (
	"sync"
	"testing"
)

func TestNewState(t *testing.T) {
	for _, initial := range []bool{true, false} {
		s := NewState(initial)
		ct, tr := s.Get()
		if ct != initial || tr != initial {
			t.Errorf("NewState(%v).Get() = (%v, %v); want (%v, %v)", initial, ct, tr, initial, initial)
		}
	}
}

func TestState_CompareAndSet(t *testing.T) {
	s := NewState(true)

	if s.CompareAndSetClickThrough(false, true) {
		t.Error("CAS(false, true) on enabled state should fail")
	}
	if !s.ClickThrough() {
		t.Error("failed CAS must not mutate")
	}

	if !s.CompareAndSetClickThrough(true, false) {
		t.Fatal("CAS(true, false) on enabled state should succeed")
	}
	ct, tr := s.Get()
	if ct || tr {
		t.Errorf("Get() = (%v, %v); want (false, false)", ct, tr)
	}

	// Setting to the current value is a successful no-op change only when
	// expected matches; callers pass !next to get "changed" semantics.
	if s.CompareAndSetClickThrough(true, false) {
		t.Error("CAS(true, false) on disabled state should fail")
	}
}

func TestState_Toggle(t *testing.T) {
	s := NewState(true)

	for i, want := range []bool{false, true, false} {
		got := s.Toggle()
		if got != want {
			t.Errorf("Toggle #%d = %v; want %v", i+1, got, want)
		}
		snap := s.Snapshot()
		if snap.ClickThrough != want || snap.Tracking != want {
			t.Errorf("after Toggle #%d Snapshot() = %+v; want both %v", i+1, snap, want)
		}
		if s.TrackingEnabled() != s.ClickThrough() {
			t.Errorf("tracking and click-through diverged after Toggle #%d", i+1)
		}
	}
}

func TestState_ConcurrentTogglesNoLostUpdates(t *testing.T) {
	const workers = 8
	const perWorker = 1001

	s := NewState(true)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Readers assert the pair is never observed torn.
	var torn sync.Once
	tornSeen := false
	var readers sync.WaitGroup
	for i := 0; i < 2; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				ct, tr := s.Get()
				if ct != tr {
					torn.Do(func() { tornSeen = true })
				}
			}
		}()
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				s.Toggle()
			}
		}()
	}
	wg.Wait()
	close(stop)
	readers.Wait()

	if tornSeen {
		t.Error("observed click-through != tracking")
	}
	// 8*1001 flips is even, so the state returns to its start value.
	if !s.ClickThrough() {
		t.Errorf("after %d toggles ClickThrough() = false; want true", workers*perWorker)
	}
}
