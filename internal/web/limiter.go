package web

// limiter.go bounds how many uploaded sheets are parsed at once. Opening an
// XLSX workbook holds the whole archive in memory, so a burst of uploads is
// queued for up to maxWait and then rejected with ErrTooManyParses.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyParses is returned when no parse slot frees up in time.
var ErrTooManyParses = errors.New("too many sheets being read, please try again later")

const (
	defaultMaxParses    = 4
	defaultMaxParseWait = 10 * time.Second
)

// parseLimiter is a counting semaphore over sheet parsing.
type parseLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

func newParseLimiter(maxConcurrent int, maxWait time.Duration) *parseLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxParses
	}
	if maxWait <= 0 {
		maxWait = defaultMaxParseWait
	}
	return &parseLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// acquire waits for a slot. The caller must call release exactly once after
// a nil return.
func (l *parseLimiter) acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyParses
	}
}

func (l *parseLimiter) release() {
	l.active.Add(-1)
	<-l.slots
}

// LimiterStatus is a snapshot of the parse limiter for /healthz.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

func (l *parseLimiter) status() LimiterStatus {
	return LimiterStatus{
		Active:        int(l.active.Load()),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}

// waitForDrain blocks until no parse is running or ctx ends.
func (l *parseLimiter) waitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.active.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
