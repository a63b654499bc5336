package ratelimit

import (
	"sync"
	"time"
)

type RateLimit interface {
	Allow(key string) bool
}

type windowData struct {
	count       int
	windowStart time.Time
}

// FixedWindowLimiter allows at most maxRequests per key per window.
type FixedWindowLimiter struct {
	maxRequests int
	window      time.Duration
	requests    map[string]*windowData
	mutex       sync.Mutex
}

func New(maxRequests int, interval time.Duration) RateLimit {
	return &FixedWindowLimiter{
		maxRequests: maxRequests,
		window:      interval,
		requests:    make(map[string]*windowData),
	}
}

func (rl *FixedWindowLimiter) Allow(key string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	wd := rl.requests[key]

	if wd == nil || now.Sub(wd.windowStart) > rl.window {
		if rl.maxRequests == 0 {
			return false
		}

		rl.requests[key] = &windowData{
			count:       1,
			windowStart: now,
		}
		return true
	}

	if wd.count >= rl.maxRequests {
		return false
	}
	wd.count++

	return true
}
