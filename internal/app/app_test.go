package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	infraredis "github.com/kursadbilgin/donor-dispatch/internal/infra/redis"
	"github.com/kursadbilgin/donor-dispatch/internal/ratelimit"
	"github.com/redis/go-redis/v9"
)

func TestNewRateLimiter(t *testing.T) {
	t.Parallel()

	limiter, err := NewRateLimiter(nil, 0)
	if err != nil || limiter != nil {
		t.Fatalf("NewRateLimiter(nil, 0) = %v, %v, want disabled", limiter, err)
	}

	limiter, err = NewRateLimiter(nil, 5)
	if err != nil {
		t.Fatalf("NewRateLimiter(nil, 5) error = %v", err)
	}
	if _, ok := limiter.(*ratelimit.LocalRateLimiter); !ok {
		t.Fatalf("limiter = %T, want *ratelimit.LocalRateLimiter", limiter)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	limiter, err = NewRateLimiter(rdb, 5)
	if err != nil {
		t.Fatalf("NewRateLimiter(rdb, 5) error = %v", err)
	}
	if _, ok := limiter.(*infraredis.RedisRateLimiter); !ok {
		t.Fatalf("limiter = %T, want *redis.RedisRateLimiter", limiter)
	}

	allowed, err := limiter.Allow(context.Background(), "twilio")
	if err != nil || !allowed {
		t.Fatalf("Allow() = %v, %v, want true", allowed, err)
	}
}

func TestNewRequiresConfig(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), nil, nil); err == nil {
		t.Fatal("New(nil config) error = nil, want error")
	}
}
