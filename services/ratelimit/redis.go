package ratelimit

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/shafisadique/school-project-sub003/core"
)

const keyPrefix = "shule:login:"

// RedisLimiter shares attempt records between API instances.
// `<prefix><key>:failures` counts failures and expires an hour after the last one;
// `<prefix><key>:lock` exists while the key is locked out.
type RedisLimiter struct {
	policy policy
	rdb    redis.UniversalClient
}

var _ core.AttemptLimiter = (*RedisLimiter)(nil) // interface compliance check

func NewRedisLimiter(rdb redis.UniversalClient, conf core.RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{policy: newPolicy(conf), rdb: rdb}
}

func NewRedisLimiterFromURL(url string, conf core.RateLimitConfig) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis url")
	}
	return NewRedisLimiter(redis.NewClient(opts), conf), nil
}

func failuresKey(key string) string { return keyPrefix + key + ":failures" }
func lockKey(key string) string     { return keyPrefix + key + ":lock" }

func (l *RedisLimiter) Check(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := l.rdb.PTTL(ctx, lockKey(key)).Result()
	if err != nil {
		return 0, errors.Wrap(err, "reading lockout")
	}
	if ttl <= 0 { // -2: no lock, -1: cannot happen, locks always expire
		return 0, nil
	}
	return ttl, nil
}

func (l *RedisLimiter) RecordFailure(ctx context.Context, key string) error {
	fk := failuresKey(key)
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, fk)
	pipe.Expire(ctx, fk, attemptExpiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "recording failure")
	}

	if lockout := l.policy.lockout(int(incr.Val())); lockout > 0 {
		if err := l.rdb.Set(ctx, lockKey(key), 1, lockout).Err(); err != nil {
			return errors.Wrap(err, "locking out")
		}
	}
	return nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.rdb.Del(ctx, failuresKey(key), lockKey(key)).Err(); err != nil {
		return errors.Wrap(err, "resetting attempts")
	}
	return nil
}

func (l *RedisLimiter) Close() error {
	return l.rdb.Close()
}
