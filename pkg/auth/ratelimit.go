package auth

import (
	"sync"
	"time"
)

// RateLimiter throttles authentication attempts per client IP using a
// windowed attempt counter with exponential block-out. The auth engine's
// failure path is cheap, so limiting sits in front of it at the boundary.
type RateLimiter struct {
	mu          sync.Mutex
	attempts    map[string]*clientAttempts
	maxAttempts int
	windowSize  time.Duration
	cleanupTime time.Duration
}

type clientAttempts struct {
	attempts     int
	lastAttempt  time.Time
	blockedUntil time.Time
	resetTime    time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(maxAttempts int, windowSize time.Duration) *RateLimiter {
	rl := &RateLimiter{
		attempts:    make(map[string]*clientAttempts),
		maxAttempts: maxAttempts,
		windowSize:  windowSize,
		cleanupTime: 24 * time.Hour,
	}

	// Start cleanup goroutine
	go rl.cleanup()

	return rl
}

// AllowRequest checks if the request should be allowed
func (rl *RateLimiter) AllowRequest(identifier string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	attempt, exists := rl.attempts[identifier]

	if !exists {
		rl.attempts[identifier] = &clientAttempts{
			attempts:    1,
			lastAttempt: now,
			resetTime:   now.Add(rl.windowSize),
		}
		return true
	}

	if attempt.blockedUntil.After(now) {
		return false
	}

	// Reset if window has passed
	if now.After(attempt.resetTime) {
		attempt.attempts = 1
		attempt.lastAttempt = now
		attempt.resetTime = now.Add(rl.windowSize)
		attempt.blockedUntil = time.Time{}
		return true
	}

	attempt.attempts++
	attempt.lastAttempt = now

	if attempt.attempts > rl.maxAttempts {
		// Block for exponential backoff: base 1 min * 2^violations
		violations := attempt.attempts - rl.maxAttempts
		blockDuration := 1 * time.Minute
		if violations > 0 && violations < 10 {
			blockDuration = time.Duration(1<<uint(violations-1)) * time.Minute
		}
		attempt.blockedUntil = now.Add(blockDuration)
		return false
	}

	return true
}

// Reset clears the rate limit for an identifier
func (rl *RateLimiter) Reset(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.attempts, identifier)
}

// IsBlocked checks if an identifier is currently blocked
func (rl *RateLimiter) IsBlocked(identifier string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if attempt, exists := rl.attempts[identifier]; exists {
		return attempt.blockedUntil.After(time.Now())
	}
	return false
}

// cleanup periodically removes old entries
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for id, attempt := range rl.attempts {
			if now.Sub(attempt.lastAttempt) > rl.cleanupTime {
				delete(rl.attempts, id)
			}
		}
		rl.mu.Unlock()
	}
}
