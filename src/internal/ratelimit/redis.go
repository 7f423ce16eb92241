package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultKeyPrefix = "rate_limit:"

// checkScript increments the counter unless the window is full and returns
// {allowed, count, pttl}. The window starts at the first attempt and is only
// set on a key without an expiry, so a counter decremented back to zero keeps
// its original window.
var checkScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

if count >= limit then
	return {0, count, redis.call('PTTL', KEYS[1])}
end

count = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], window)
end
return {1, count, redis.call('PTTL', KEYS[1])}
`)

var decrementScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
if count > 0 then
	return redis.call('DECR', KEYS[1])
end
return 0
`)

// RedisLimiter shares counters between replicas through Redis.
type RedisLimiter struct {
	client redis.Scripter
	prefix string
}

func NewRedisLimiter(client redis.Scripter, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

func (l *RedisLimiter) key(identifier string) string {
	return l.prefix + identifier
}

func (l *RedisLimiter) Check(ctx context.Context, identifier string, policy Policy) (Result, error) {
	res, err := checkScript.Run(ctx, l.client, []string{l.key(identifier)},
		policy.Limit, policy.Window.Milliseconds()).Int64Slice()
	if err != nil {
		logrus.WithError(err).WithField("identifier", identifier).Error("Failed to run rate limit check")
		return Result{}, fmt.Errorf("rate limit check: %w", err)
	}
	if len(res) != 3 {
		return Result{}, fmt.Errorf("rate limit check: unexpected reply %v", res)
	}

	allowed, count, pttl := res[0] == 1, int(res[1]), res[2]
	if pttl < 0 {
		pttl = policy.Window.Milliseconds()
	}

	result := Result{
		Allowed:   allowed,
		Limit:     policy.Limit,
		Remaining: remaining(policy.Limit, count),
		ResetAt:   time.Now().Add(time.Duration(pttl) * time.Millisecond),
	}

	if !allowed {
		logrus.WithFields(logrus.Fields{
			"identifier": identifier,
			"count":      count,
			"reset_at":   result.ResetAt,
		}).Warn("Rate limit exceeded")
	}

	return result, nil
}

func (l *RedisLimiter) Decrement(ctx context.Context, identifier string) error {
	if err := decrementScript.Run(ctx, l.client, []string{l.key(identifier)}).Err(); err != nil {
		logrus.WithError(err).WithField("identifier", identifier).Error("Failed to decrement rate limit counter")
		return fmt.Errorf("rate limit decrement: %w", err)
	}
	return nil
}
