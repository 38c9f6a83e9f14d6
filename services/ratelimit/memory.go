package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/shafisadique/school-project-sub003/core"
)

type attemptRecord struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

// MemoryLimiter keeps attempt records in process memory. Records of a key expire an hour after its last failure.
type MemoryLimiter struct {
	policy   policy
	mu       sync.Mutex
	attempts map[string]*attemptRecord
}

var _ core.AttemptLimiter = (*MemoryLimiter)(nil) // interface compliance check

func NewMemoryLimiter(conf core.RateLimitConfig) *MemoryLimiter {
	return &MemoryLimiter{
		policy:   newPolicy(conf),
		attempts: make(map[string]*attemptRecord),
	}
}

func (l *MemoryLimiter) Check(_ context.Context, key string) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.attempts[key]
	if !ok {
		return 0, nil
	}
	now := NowFunc()
	if now.Sub(rec.lastFailure) > attemptExpiry {
		delete(l.attempts, key)
		return 0, nil
	}
	if now.Before(rec.lockedUntil) {
		return rec.lockedUntil.Sub(now), nil
	}
	return 0, nil
}

func (l *MemoryLimiter) RecordFailure(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := NowFunc()
	rec, ok := l.attempts[key]
	if !ok || now.Sub(rec.lastFailure) > attemptExpiry {
		rec = &attemptRecord{}
		l.attempts[key] = rec
	}
	rec.failures++
	rec.lastFailure = now
	if lockout := l.policy.lockout(rec.failures); lockout > 0 {
		rec.lockedUntil = now.Add(lockout)
	}
	return nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
	return nil
}

// Sweep removes expired records.
func (l *MemoryLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := NowFunc()
	for key, rec := range l.attempts {
		if now.Sub(rec.lastFailure) > attemptExpiry {
			delete(l.attempts, key)
		}
	}
}

// RunSweeper sweeps every interval until ctx is done.
func (l *MemoryLimiter) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
