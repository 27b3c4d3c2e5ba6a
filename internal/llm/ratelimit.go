package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Veraticus/textami/internal/metrics"
)

// rateLimiter is a token bucket refilled lazily from elapsed time, so it owns
// no goroutine and needs no Close.
type rateLimiter struct {
	last     time.Time
	now      func() time.Time
	interval time.Duration
	tokens   float64
	capacity float64
	mu       sync.Mutex
}

// newRateLimiter allows requestsPerMinute calls per minute, bursting up to the
// same number. Zero or negative means 60.
func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &rateLimiter{
		tokens:   float64(requestsPerMinute),
		capacity: float64(requestsPerMinute),
		interval: time.Minute / time.Duration(requestsPerMinute),
		now:      time.Now,
		last:     time.Now(),
	}
}

// wait blocks until a token is available or ctx is done.
func (rl *rateLimiter) wait(ctx context.Context) error {
	for {
		delay := rl.reserve()
		if delay == 0 {
			return nil
		}

		metrics.InferenceThrottled.Inc()
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// reserve takes a token and returns zero, or returns how long until the next
// token becomes available.
func (rl *rateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	if rl.tokens >= 1 {
		rl.tokens--
		return 0
	}
	missing := 1 - rl.tokens
	return time.Duration(missing * float64(rl.interval))
}

func (rl *rateLimiter) tryAcquire() bool {
	return rl.reserve() == 0
}

func (rl *rateLimiter) refillLocked() {
	now := rl.now()
	elapsed := now.Sub(rl.last)
	if elapsed <= 0 {
		return
	}
	rl.last = now
	rl.tokens += float64(elapsed) / float64(rl.interval)
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
}
