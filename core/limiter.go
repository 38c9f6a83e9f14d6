package core

import (
	"context"
	"time"
)

// AttemptLimiter tracks failed login attempts per key and locks keys out with exponential backoff.
type AttemptLimiter interface {
	// Check returns how long key is still locked out; zero means the attempt may proceed.
	Check(ctx context.Context, key string) (time.Duration, error)
	RecordFailure(ctx context.Context, key string) error
	// Reset forgets the failures of key (successful login).
	Reset(ctx context.Context, key string) error
}
