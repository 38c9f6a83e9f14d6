package auth

import "errors"

var (
	// ErrInvalidCredentials is returned by every login failure: unknown identifier & wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized is returned for a missing, malformed, forged or expired session token.
	ErrUnauthorized = errors.New("invalid or expired token")

	// ErrForbidden is returned when a valid session lacks the role or entitlement a resource requires.
	ErrForbidden = errors.New("permission denied")

	// ErrInvalidOrExpiredResetToken is returned for an unknown, consumed or expired reset ticket.
	ErrInvalidOrExpiredResetToken = errors.New("invalid or expired token")

	// ErrRefreshExpired is returned when a session is older than the refresh window.
	ErrRefreshExpired = errors.New("refresh has expired")
)
