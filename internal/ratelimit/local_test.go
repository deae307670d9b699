package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLocalRateLimiterAllowBurst(t *testing.T) {
	t.Parallel()

	limiter := NewLocalRateLimiter(2)

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(context.Background(), "twilio")
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !allowed {
			t.Fatalf("call %d should be allowed within burst", i+1)
		}
	}

	allowed, err := limiter.Allow(context.Background(), "twilio")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if allowed {
		t.Fatal("third call should be rejected")
	}
}

func TestLocalRateLimiterKeysAreIndependent(t *testing.T) {
	t.Parallel()

	limiter := NewLocalRateLimiter(1)

	if allowed, _ := limiter.Allow(context.Background(), "twilio"); !allowed {
		t.Fatal("twilio should be allowed")
	}
	if allowed, _ := limiter.Allow(context.Background(), " FAST2SMS "); !allowed {
		t.Fatal("fast2sms should be allowed")
	}
	if allowed, _ := limiter.Allow(context.Background(), "TWILIO"); allowed {
		t.Fatal("keys should be case-insensitive")
	}
}

func TestLocalRateLimiterWaitRespectsContext(t *testing.T) {
	t.Parallel()

	limiter := NewLocalRateLimiter(1)
	if err := limiter.Wait(context.Background(), "log"); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx, "log")
	if err == nil {
		t.Fatal("Wait() should fail when the next token is past the deadline")
	}
	if errors.Is(err, context.Canceled) {
		t.Fatalf("Wait() error = %v, did not expect cancellation", err)
	}
}

func TestLocalRateLimiterRejectsBlankKey(t *testing.T) {
	t.Parallel()

	limiter := NewLocalRateLimiter(0)
	if _, err := limiter.Allow(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank key")
	}
}
