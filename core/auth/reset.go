package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"
)

const resetTokenBytes = 32

// ResetTicket is a single-use password-reset grant.
// Only Hash & ExpiresAt are persisted; Token is handed to the account owner and never stored.
type ResetTicket struct {
	Token     string
	Hash      string
	ExpiresAt time.Time
}

// NewResetTicket generates an opaque random reset token valid for ttl.
func NewResetTicket(ttl time.Duration) (ResetTicket, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return ResetTicket{}, errors.Wrap(err, "reading random bytes")
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	return ResetTicket{
		Token:     token,
		Hash:      HashResetToken(token),
		ExpiresAt: now().Add(ttl).UTC(),
	}, nil
}

// HashResetToken returns the value a reset token is stored & looked up by.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// ResetTicketMatches reports whether token redeems the stored ticket (storedHash, expiresAt) at instant t:
// the token must hash to storedHash exactly and t must be strictly before expiresAt.
func ResetTicketMatches(storedHash string, expiresAt time.Time, token string, t time.Time) bool {
	if storedHash == "" || token == "" || expiresAt.IsZero() {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(storedHash), []byte(HashResetToken(token))) != 1 {
		return false
	}
	return t.Before(expiresAt)
}

// Now returns the current instant of the auth clock.
func Now() time.Time { return now() }
