package ratelimit

import (
	"time"

	"github.com/shafisadique/school-project-sub003/core"
)

// attemptExpiry is how long after the last failure a key's failures are forgotten.
const attemptExpiry = time.Hour

// NowFunc is mocked in tests.
var NowFunc = time.Now

type policy struct {
	maxFailures int
	baseLockout time.Duration
	maxLockout  time.Duration
}

func newPolicy(conf core.RateLimitConfig) policy {
	p := policy{maxFailures: conf.MaxFailures, baseLockout: conf.BaseLockout, maxLockout: conf.MaxLockout}
	if p.maxFailures <= 0 {
		p.maxFailures = 5
	}
	if p.baseLockout <= 0 {
		p.baseLockout = time.Minute
	}
	if p.maxLockout < p.baseLockout {
		p.maxLockout = p.baseLockout
	}
	return p
}

// lockout returns the lockout after the given number of consecutive failures:
// none below maxFailures, then baseLockout * 2^(failures - maxFailures) capped at maxLockout.
func (p policy) lockout(failures int) time.Duration {
	if failures < p.maxFailures {
		return 0
	}
	lockout := p.baseLockout
	for i := 0; i < failures-p.maxFailures; i++ {
		lockout *= 2
		if lockout >= p.maxLockout {
			return p.maxLockout
		}
	}
	return lockout
}

// New returns the Redis limiter when a Redis URL is configured, the in-memory one otherwise.
func New(conf *core.Config) (core.AttemptLimiter, error) {
	if conf.Redis.URL == "" {
		return NewMemoryLimiter(conf.RateLimit), nil
	}
	return NewRedisLimiterFromURL(conf.Redis.URL, conf.RateLimit)
}
