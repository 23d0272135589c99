package api

import (
	"context"
	"sync"
	"time"
)

// RateLimiter defines the interface for rate limiting implementations
type RateLimiter interface {
	// Wait blocks until it's safe to make another API call or the context ends
	Wait(ctx context.Context) error
	// CanProceed returns true if a request can be made without waiting
	CanProceed() bool
}

// SimpleRateLimiter implements basic rate limiting with minimum delay between calls
type SimpleRateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	minDelay time.Duration
}

// NewSimpleRateLimiter creates a new simple rate limiter with minimum delay between calls
func NewSimpleRateLimiter(minDelay time.Duration) *SimpleRateLimiter {
	return &SimpleRateLimiter{
		minDelay: minDelay,
	}
}

// Wait blocks until it's safe to make another API call
func (rl *SimpleRateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	elapsed := time.Since(rl.lastCall)
	if elapsed < rl.minDelay {
		if err := sleepContext(ctx, rl.minDelay-elapsed); err != nil {
			return err
		}
	}
	rl.lastCall = time.Now()
	return nil
}

// CanProceed returns true if a request can be made without waiting
func (rl *SimpleRateLimiter) CanProceed() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return time.Since(rl.lastCall) >= rl.minDelay
}

// TokenBucketRateLimiter implements token bucket algorithm for rate limiting
type TokenBucketRateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewTokenBucketRateLimiter creates a new token bucket rate limiter
func NewTokenBucketRateLimiter(maxTokens int, refillRate time.Duration) *TokenBucketRateLimiter {
	return &TokenBucketRateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available
func (rl *TokenBucketRateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillTokens()

	for rl.tokens <= 0 {
		rl.mu.Unlock()
		err := sleepContext(ctx, rl.refillRate)
		rl.mu.Lock()
		if err != nil {
			return err
		}
		rl.refillTokens()
	}

	rl.tokens--
	return nil
}

// CanProceed returns true if a token is available
func (rl *TokenBucketRateLimiter) CanProceed() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillTokens()
	return rl.tokens > 0
}

// refillTokens adds tokens based on elapsed time (internal method)
func (rl *TokenBucketRateLimiter) refillTokens() {
	now := time.Now()
	tokensToAdd := int(now.Sub(rl.lastRefill) / rl.refillRate)

	if tokensToAdd > 0 {
		rl.tokens = min(rl.tokens+tokensToAdd, rl.maxTokens)
		rl.lastRefill = now
	}
}

// NoOpRateLimiter implements the RateLimiter interface but performs no rate limiting
type NoOpRateLimiter struct{}

// NewNoOpRateLimiter creates a rate limiter that performs no limiting
func NewNoOpRateLimiter() *NoOpRateLimiter {
	return &NoOpRateLimiter{}
}

// Wait returns immediately
func (rl *NoOpRateLimiter) Wait(ctx context.Context) error {
	return ctx.Err()
}

// CanProceed always returns true (no rate limiting)
func (rl *NoOpRateLimiter) CanProceed() bool {
	return true
}
