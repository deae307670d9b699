package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/donor-dispatch/internal/ratelimit"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultBatchesPerSec int64 = 10
	keyPrefix                  = "sms:ratelimit"
	bucketWindow               = time.Second
	// Buckets outlive their second so processes with slightly skewed clocks
	// still share one counter.
	bucketTTL = 2 * bucketWindow
)

var errLimiterNotInitialized = errors.New("rate limiter is not initialized")

// reserveScript bumps the bucket counter and returns the new count.
var reserveScript = goredis.NewScript(`
local used = redis.call("INCR", KEYS[1])
if used == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return used
`)

var _ ratelimit.RateLimiter = (*RedisRateLimiter)(nil)

// RedisRateLimiter caps provider batches per second across every process
// sharing one redis instance. Each wall-clock second has its own counter; a
// caller that finds the current second full sleeps until the next one opens.
type RedisRateLimiter struct {
	client        *goredis.Client
	batchesPerSec int64
	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration) error
}

func NewRedisRateLimiter(client *goredis.Client, batchesPerSec int) (*RedisRateLimiter, error) {
	return newRedisRateLimiter(client, int64(batchesPerSec), time.Now, sleepWithContext)
}

func newRedisRateLimiter(
	client *goredis.Client,
	batchesPerSec int64,
	nowFn func() time.Time,
	sleepFn func(ctx context.Context, d time.Duration) error,
) (*RedisRateLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if batchesPerSec <= 0 {
		batchesPerSec = defaultBatchesPerSec
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if sleepFn == nil {
		sleepFn = sleepWithContext
	}

	return &RedisRateLimiter{
		client:        client,
		batchesPerSec: batchesPerSec,
		now:           nowFn,
		sleep:         sleepFn,
	}, nil
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	delay, err := r.reserve(ctx, key)
	if err != nil {
		return false, err
	}
	return delay == 0, nil
}

// Wait blocks until key gets a slot or ctx ends.
func (r *RedisRateLimiter) Wait(ctx context.Context, key string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		delay, err := r.reserve(ctx, key)
		if err != nil {
			return err
		}
		if delay == 0 {
			return nil
		}

		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// reserve claims a slot in the current bucket. A zero delay means the slot
// was granted; otherwise delay is the time left until the next bucket.
func (r *RedisRateLimiter) reserve(ctx context.Context, key string) (time.Duration, error) {
	if r == nil || r.client == nil {
		return 0, errLimiterNotInitialized
	}

	providerKey := strings.ToLower(strings.TrimSpace(key))
	if providerKey == "" {
		return 0, fmt.Errorf("rate limit key is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := r.now().UTC()
	bucket := now.Truncate(bucketWindow)
	bucketKey := fmt.Sprintf("%s:%s:%d", keyPrefix, providerKey, bucket.Unix())

	used, err := reserveScript.Run(ctx, r.client, []string{bucketKey}, bucketTTL.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}
	if used <= r.batchesPerSec {
		return 0, nil
	}

	return bucket.Add(bucketWindow).Sub(now), nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
