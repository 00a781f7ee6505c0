package gfx

import (
	"context"
	"sync"
	"time"
)

// Fence is signalled by the queue when a submission completes. The host
// waits on it before reusing the resources of that submission.
type Fence struct {
	mu       sync.Mutex
	done     chan struct{}
	signaled bool
}

func newFence(signaled bool) *Fence {
	f := &Fence{done: make(chan struct{})}
	if signaled {
		f.Signal()
	}
	return f
}

func (f *Fence) Signal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.signaled {
		f.signaled = true
		close(f.done)
	}
}

func (f *Fence) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signaled {
		f.signaled = false
		f.done = make(chan struct{})
	}
}

func (f *Fence) Signaled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signaled
}

// Wait blocks until the fence is signalled, ctx is done or timeout passes.
// It reports false on timeout.
func (f *Fence) Wait(ctx context.Context, timeout time.Duration) (bool, error) {
	f.mu.Lock()
	done := f.done
	f.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-timer.C:
		return false, nil
	}
}

// Semaphore orders work between the queue and presentation. It holds at
// most one pending signal.
type Semaphore struct {
	ch chan struct{}
}

func newSemaphore() *Semaphore {
	return &Semaphore{ch: make(chan struct{}, 1)}
}

func (s *Semaphore) Signal() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s *Semaphore) Wait(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset drops a pending signal.
func (s *Semaphore) Reset() {
	select {
	case <-s.ch:
	default:
	}
}

func (s *Semaphore) pending() bool {
	return len(s.ch) > 0
}
