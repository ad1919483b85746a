package cnpj

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a token bucket used to keep batch consultations
// polite towards the public registry providers.
type RateLimiter struct {
	tokens         int
	maxTokens      int
	refillInterval time.Duration
	lastRefill     time.Time
	mu             sync.Mutex
}

// NewRateLimiter creates a new rate limiter with the specified requests per
// second, clamped to a minimum of one.
func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	return &RateLimiter{
		tokens:         requestsPerSecond,
		maxTokens:      requestsPerSecond,
		refillInterval: time.Second / time.Duration(requestsPerSecond),
		lastRefill:     time.Now(),
	}
}

// Wait blocks until a token is available, respecting context cancellation.
// Returns an error if the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()

	for rl.tokens <= 0 {
		rl.mu.Unlock()
		select {
		case <-ctx.Done():
			rl.mu.Lock() // Re-lock before returning so defer can unlock
			return ctx.Err()
		case <-time.After(rl.refillInterval):
		}
		rl.mu.Lock()
		rl.refill()
	}

	rl.tokens--
	return nil
}

// refill adds tokens for the time elapsed since the last refill. Caller
// must hold the mutex.
func (rl *RateLimiter) refill() {
	now := time.Now()
	tokensToAdd := int(now.Sub(rl.lastRefill) / rl.refillInterval)
	if tokensToAdd > 0 {
		rl.tokens = min(rl.maxTokens, rl.tokens+tokensToAdd)
		rl.lastRefill = now
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
