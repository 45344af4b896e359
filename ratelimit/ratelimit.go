package ratelimit

import (
	"sync"
	"time"

	"github.com/mezonai/simplechain/exception"
)

const globalKey = "global"

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	MaxRequests     int           // Maximum number of requests allowed per window
	WindowSize      time.Duration // Time window for rate limiting
	CleanupInterval time.Duration // How often to drop expired entries
}

// DefaultConfig returns a default configuration
func DefaultConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		MaxRequests:     10,
		WindowSize:      time.Second,
		CleanupInterval: 5 * time.Minute,
	}
}

// RateLimiter implements sliding window rate limiting per key
type RateLimiter struct {
	config      *RateLimiterConfig
	requests    map[string][]time.Time
	mu          sync.Mutex
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewRateLimiter creates a limiter and starts its cleanup goroutine; call Stop to end it
func NewRateLimiter(config *RateLimiterConfig) *RateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	rl := &RateLimiter{
		config:      config,
		requests:    make(map[string][]time.Time),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	exception.SafeGo("RateLimiterCleanup", rl.cleanupExpiredEntries)
	return rl
}

// Allow records a request for key and reports whether it fits in the window
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()
	cutoff := now.Add(-rl.config.WindowSize)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	kept := prune(rl.requests[key], cutoff)
	if len(kept) >= rl.config.MaxRequests {
		rl.requests[key] = kept
		return false
	}
	rl.requests[key] = append(kept, now)
	return true
}

// Count returns the number of requests for key inside the current window
func (rl *RateLimiter) Count(key string) int {
	cutoff := rl.now().Add(-rl.config.WindowSize)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for _, ts := range rl.requests[key] {
		if ts.After(cutoff) {
			n++
		}
	}
	return n
}

func (rl *RateLimiter) cleanupExpiredEntries() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	cutoff := rl.now().Add(-rl.config.WindowSize)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, requests := range rl.requests {
		kept := prune(requests, cutoff)
		if len(kept) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = kept
		}
	}
}

// Stop ends the cleanup goroutine; safe to call more than once
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// prune keeps timestamps after cutoff, reusing the backing array
func prune(requests []time.Time, cutoff time.Time) []time.Time {
	kept := requests[:0]
	for _, ts := range requests {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}

// WriteLimiter guards block appends with a per-client and a node-wide window
type WriteLimiter struct {
	client *RateLimiter
	global *RateLimiter
}

// NewWriteLimiter returns nil when both limits are disabled (zero or negative)
func NewWriteLimiter(perClient, global int, window time.Duration) *WriteLimiter {
	if perClient <= 0 && global <= 0 {
		return nil
	}
	wl := &WriteLimiter{}
	if perClient > 0 {
		wl.client = NewRateLimiter(&RateLimiterConfig{MaxRequests: perClient, WindowSize: window, CleanupInterval: 5 * time.Minute})
	}
	if global > 0 {
		wl.global = NewRateLimiter(&RateLimiterConfig{MaxRequests: global, WindowSize: window, CleanupInterval: 5 * time.Minute})
	}
	return wl
}

// AllowWrite checks the client limit first so a noisy client does not burn the global budget
func (wl *WriteLimiter) AllowWrite(client string) bool {
	if wl == nil {
		return true
	}
	if wl.client != nil && !wl.client.Allow(client) {
		return false
	}
	if wl.global != nil && !wl.global.Allow(globalKey) {
		return false
	}
	return true
}

func (wl *WriteLimiter) Stop() {
	if wl == nil {
		return
	}
	if wl.client != nil {
		wl.client.Stop()
	}
	if wl.global != nil {
		wl.global.Stop()
	}
}
