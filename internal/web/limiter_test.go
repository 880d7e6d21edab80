package web

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseLimiter_AcquireRelease(t *testing.T) {
	l := newParseLimiter(2, time.Second)
	ctx := context.Background()

	if got := l.status(); got != (LimiterStatus{Active: 0, Available: 2, MaxConcurrent: 2}) {
		t.Errorf("initial status = %+v", got)
	}

	if err := l.acquire(ctx); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if err := l.acquire(ctx); err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}
	if got := l.status(); got.Active != 2 || got.Available != 0 {
		t.Errorf("after two acquires, status = %+v", got)
	}

	l.release()
	if got := l.status(); got.Active != 1 || got.Available != 1 {
		t.Errorf("after release, status = %+v", got)
	}
	l.release()
	if got := l.status(); got.Active != 0 {
		t.Errorf("after second release, Active = %d, want 0", got.Active)
	}
}

func TestParseLimiter_Defaults(t *testing.T) {
	l := newParseLimiter(0, 0)
	if got := l.status().MaxConcurrent; got != defaultMaxParses {
		t.Errorf("MaxConcurrent = %d, want %d", got, defaultMaxParses)
	}
	if l.maxWait != defaultMaxParseWait {
		t.Errorf("maxWait = %v, want %v", l.maxWait, defaultMaxParseWait)
	}
}

func TestParseLimiter_TimesOutWhenFull(t *testing.T) {
	l := newParseLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	if err := l.acquire(ctx); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer l.release()

	start := time.Now()
	err := l.acquire(ctx)
	if !errors.Is(err, ErrTooManyParses) {
		t.Errorf("acquire() error = %v, want ErrTooManyParses", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("timeout too fast: %v", elapsed)
	}
}

func TestParseLimiter_ContextCancel(t *testing.T) {
	l := newParseLimiter(1, time.Second)
	if err := l.acquire(context.Background()); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer l.release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("acquire() error = %v, want context.Canceled", err)
	}
}

func TestParseLimiter_Concurrent(t *testing.T) {
	const maxConcurrent = 3
	l := newParseLimiter(maxConcurrent, time.Second)

	var (
		wg      sync.WaitGroup
		current atomic.Int64
		peak    atomic.Int64
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.acquire(context.Background()); err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			defer l.release()

			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > maxConcurrent {
		t.Errorf("peak concurrency = %d, want <= %d", got, maxConcurrent)
	}
}

func TestParseLimiter_WaitForDrain(t *testing.T) {
	l := newParseLimiter(1, time.Second)
	if err := l.acquire(context.Background()); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.waitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("waitForDrain() with busy slot = %v, want DeadlineExceeded", err)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		l.release()
	}()
	if err := l.waitForDrain(context.Background()); err != nil {
		t.Errorf("waitForDrain() = %v, want nil", err)
	}
}
