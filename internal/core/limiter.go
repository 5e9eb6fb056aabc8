package core

// limiter.go bounds how many transforms run at once.
//
// Every transform holds its whole table in memory, so parallel uploads are
// capped with a semaphore. Requests that cannot get a slot within maxWait
// fail with ErrTooManyTransforms. WaitForDrain lets shutdown wait for
// in-flight transforms.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyTransforms is returned when every slot stays occupied for the
// whole wait window. Clients should retry after a short delay.
var ErrTooManyTransforms = errors.New("too many uploads in progress, please try again later")

const (
	// DefaultMaxConcurrentTransforms is the default limit for parallel transforms.
	DefaultMaxConcurrentTransforms = 5

	// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
	DefaultMaxWaitTime = 30 * time.Second

	drainPollInterval = 50 * time.Millisecond
)

// Limiter is a counting semaphore for transform slots.
type Limiter struct {
	slots   chan struct{}
	maxWait time.Duration

	active  atomic.Int64
	waiting atomic.Int64
	served  atomic.Int64
	refused atomic.Int64
}

// NewLimiter allows at most maxConcurrent simultaneous transforms. Values
// <= 0 fall back to the defaults.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentTransforms
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &Limiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. It returns ErrTooManyTransforms when maxWait
// elapses first, or ctx's error when ctx ends first. A nil return must be
// paired with exactly one Release.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.TryAcquire() {
		return nil
	}

	l.waiting.Add(1)
	defer l.waiting.Add(-1)

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.took()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		l.refused.Add(1)
		return ErrTooManyTransforms
	}
}

// TryAcquire takes a slot without blocking and reports whether it did.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.took()
		return true
	default:
		return false
	}
}

func (l *Limiter) took() {
	l.active.Add(1)
	l.served.Add(1)
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *Limiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// ActiveCount returns the number of transforms currently holding a slot.
func (l *Limiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the slot count.
func (l *Limiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *Limiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no transform holds a slot or ctx ends.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	if l.ActiveCount() == 0 {
		return nil
	}

	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}

// LimiterStatus is a point-in-time view of the limiter.
type LimiterStatus struct {
	Active        int   `json:"active"`
	Waiting       int   `json:"waiting"`
	Available     int   `json:"available"`
	MaxConcurrent int   `json:"max_concurrent"`
	Served        int64 `json:"served"`
	Refused       int64 `json:"refused"`
}

// Status returns the current limiter state for /api/status.
func (l *Limiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Waiting:       int(l.waiting.Load()),
		Available:     l.Available(),
		MaxConcurrent: cap(l.slots),
		Served:        l.served.Load(),
		Refused:       l.refused.Load(),
	}
}
