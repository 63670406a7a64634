package reports

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyUploads is returned when no upload slot frees up in time.
// Clients should retry after a short delay.
var ErrTooManyUploads = errors.New("too many concurrent uploads, rate limit reached")

const (
	// DefaultMaxConcurrentUploads is used when the limit is not positive.
	DefaultMaxConcurrentUploads = 5

	// DefaultMaxWait is used when the wait is not positive.
	DefaultMaxWait = 30 * time.Second
)

// Limiter admits a bounded number of uploads at once. The occupied slots
// are the channel's buffered elements, so occupancy is always len(slots).
type Limiter struct {
	slots   chan struct{}
	maxWait time.Duration

	// idle is closed when the last slot is returned. It only exists while
	// someone is waiting in WaitForDrain.
	mu   sync.Mutex
	idle chan struct{}
}

// NewLimiter allows at most maxConcurrent simultaneous uploads.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentUploads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Limiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to maxWait, and returns the func that
// gives it back. The release func is safe to call more than once.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTooManyUploads
	}

	var once sync.Once
	return func() { once.Do(l.release) }, nil
}

func (l *Limiter) release() {
	<-l.slots

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.slots) == 0 && l.idle != nil {
		close(l.idle)
		l.idle = nil
	}
}

// Active returns the number of uploads in flight.
func (l *Limiter) Active() int {
	return len(l.slots)
}

// WaitForDrain blocks until no upload is in flight or ctx ends.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	if len(l.slots) == 0 {
		l.mu.Unlock()
		return nil
	}
	if l.idle == nil {
		l.idle = make(chan struct{})
	}
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LimiterStatus is a snapshot for the admin API.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

func (l *Limiter) Status() LimiterStatus {
	active := len(l.slots)
	return LimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - active,
		MaxConcurrent: cap(l.slots),
	}
}
