package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSimpleRateLimiter(t *testing.T) {
	tests := []struct {
		name     string
		minDelay time.Duration
		calls    int
		expected time.Duration
	}{
		{
			name:     "single call no delay",
			minDelay: 100 * time.Millisecond,
			calls:    1,
			expected: 0,
		},
		{
			name:     "multiple calls with delay",
			minDelay: 50 * time.Millisecond,
			calls:    3,
			expected: 100 * time.Millisecond, // 2 delays * 50ms each
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewSimpleRateLimiter(tt.minDelay)
			start := time.Now()

			for i := 0; i < tt.calls; i++ {
				if err := rl.Wait(context.Background()); err != nil {
					t.Fatalf("Wait() error = %v", err)
				}
			}

			elapsed := time.Since(start)
			tolerance := 10 * time.Millisecond
			if elapsed < tt.expected-tolerance || elapsed > tt.expected+tolerance+100*time.Millisecond {
				t.Errorf("SimpleRateLimiter.Wait() took %v, expected around %v", elapsed, tt.expected)
			}
		})
	}
}

func TestSimpleRateLimiter_CanProceed(t *testing.T) {
	rl := NewSimpleRateLimiter(100 * time.Millisecond)

	if !rl.CanProceed() {
		t.Errorf("CanProceed() should return true for first call")
	}

	_ = rl.Wait(context.Background())

	if rl.CanProceed() {
		t.Errorf("CanProceed() should return false immediately after Wait()")
	}

	time.Sleep(120 * time.Millisecond)
	if !rl.CanProceed() {
		t.Errorf("CanProceed() should return true after delay")
	}
}

func TestSimpleRateLimiter_Concurrent(t *testing.T) {
	rl := NewSimpleRateLimiter(50 * time.Millisecond)

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = rl.Wait(context.Background())
		}()
	}

	wg.Wait()

	// 5 calls with 4 delays between them
	if totalTime := time.Since(start); totalTime < 200*time.Millisecond {
		t.Errorf("Concurrent calls took %v, expected at least 200ms", totalTime)
	}
}

func TestSimpleRateLimiter_ContextCancelled(t *testing.T) {
	rl := NewSimpleRateLimiter(time.Hour)
	_ = rl.Wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestTokenBucketRateLimiter(t *testing.T) {
	rl := NewTokenBucketRateLimiter(2, 50*time.Millisecond)

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := rl.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("burst of maxTokens should not block, took %v", elapsed)
	}

	if rl.CanProceed() {
		t.Error("CanProceed() should be false once the bucket is empty")
	}

	start = time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Wait() on empty bucket returned after %v, expected a refill delay", elapsed)
	}
}

func TestTokenBucketRateLimiter_MaxTokensCap(t *testing.T) {
	rl := NewTokenBucketRateLimiter(3, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	rl.mu.Lock()
	rl.refillTokens()
	tokens := rl.tokens
	rl.mu.Unlock()

	if tokens != 3 {
		t.Errorf("tokens = %d, want capped at 3", tokens)
	}
}

func TestNoOpRateLimiter(t *testing.T) {
	rl := NewNoOpRateLimiter()

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := rl.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("NoOpRateLimiter took %v", elapsed)
	}
	if !rl.CanProceed() {
		t.Error("NoOpRateLimiter.CanProceed() should always be true")
	}
}

func TestRateLimiterInterface(t *testing.T) {
	var _ RateLimiter = NewSimpleRateLimiter(time.Second)
	var _ RateLimiter = NewTokenBucketRateLimiter(1, time.Second)
	var _ RateLimiter = NewNoOpRateLimiter()
}
