package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shafisadique/school-project-sub003/core"
)

// The attempt limiter fails open: a broken backend is logged, never turned into a locked-out login.

func checkLockout(ctx echo.Context, limiter core.AttemptLimiter, logger core.Logger, key string) error {
	if limiter == nil {
		return nil
	}
	wait, err := limiter.Check(ctx.Request().Context(), key)
	if err != nil {
		logger.Error("checking login lockout", errors.Wrap(err, "checking login lockout"))
		return nil
	}
	if wait > 0 {
		return &rateLimitedError{retryAfter: wait}
	}
	return nil
}

func recordFailure(ctx echo.Context, limiter core.AttemptLimiter, logger core.Logger, key string) {
	if limiter == nil {
		return
	}
	if err := limiter.RecordFailure(ctx.Request().Context(), key); err != nil {
		logger.Error("recording login failure", errors.Wrap(err, "recording login failure"))
	}
}

func resetAttempts(ctx echo.Context, limiter core.AttemptLimiter, logger core.Logger, key string) {
	if limiter == nil {
		return
	}
	if err := limiter.Reset(ctx.Request().Context(), key); err != nil {
		logger.Error("resetting login attempts", errors.Wrap(err, "resetting login attempts"))
	}
}
