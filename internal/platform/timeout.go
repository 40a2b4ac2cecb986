package platform

import "time"

// caller bounds native calls with a timeout and runs at most one of them at
// a time. A call that outlives its caller keeps the slot until it returns, so
// a hung server costs one goroutine rather than one per attempt.
type caller struct {
	timeout time.Duration
	slot    chan struct{}
}

func newCaller(timeout time.Duration) *caller {
	return &caller{timeout: timeout, slot: make(chan struct{}, 1)}
}

// withTimeout runs fn on c and gives up after c.timeout, counting the time
// spent waiting for an earlier call to finish. A non-positive timeout runs fn
// inline and waits forever.
func withTimeout[T any](c *caller, fn func() (T, error)) (T, error) {
	var zero T
	if c.timeout <= 0 {
		return fn()
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case c.slot <- struct{}{}:
	case <-timer.C:
		return zero, ErrTimeout
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		<-c.slot
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-timer.C:
		return zero, ErrTimeout
	}
}
