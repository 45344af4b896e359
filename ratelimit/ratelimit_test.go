package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func newTestLimiter(max int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	rl := NewRateLimiter(&RateLimiterConfig{MaxRequests: max, WindowSize: window, CleanupInterval: time.Hour})
	rl.now = clock.Now
	return rl, clock
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Second)
	defer rl.Stop()

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys are limited independently")
	assert.Equal(t, 2, rl.Count("a"))

	clock.now = clock.now.Add(1100 * time.Millisecond)
	assert.Equal(t, 0, rl.Count("a"))
	assert.True(t, rl.Allow("a"))
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter(5, time.Second)
	defer rl.Stop()

	rl.Allow("a")
	rl.Allow("b")
	clock.now = clock.now.Add(2 * time.Second)
	rl.Allow("b")
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	_, hasA := rl.requests["a"]
	assert.False(t, hasA)
	assert.Len(t, rl.requests["b"], 1)
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(nil)
	rl.Stop()
	rl.Stop()
}

func TestWriteLimiter(t *testing.T) {
	assert.Nil(t, NewWriteLimiter(0, 0, time.Second))
	var disabled *WriteLimiter
	assert.True(t, disabled.AllowWrite("anyone"))
	disabled.Stop()

	wl := NewWriteLimiter(1, 2, time.Minute)
	defer wl.Stop()

	assert.True(t, wl.AllowWrite("10.0.0.1"))
	assert.False(t, wl.AllowWrite("10.0.0.1"), "per-client limit")
	assert.True(t, wl.AllowWrite("10.0.0.2"))
	assert.False(t, wl.AllowWrite("10.0.0.3"), "global limit")
}
