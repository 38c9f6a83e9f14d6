package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Role         Role   `json:"role"`
	TenantID     string `json:"tenantId,omitempty"` // empty for superadmin
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
}

// HasAnyRole reports whether the claims role is one of roles. No roles means any authenticated subject.
func (c *Claims) HasAnyRole(roles ...Role) bool {
	return RoleIn(c.Role, roles)
}

func (c *Claims) ExpiresAtTime() time.Time {
	return time.Unix(c.ExpiresAt, 0).UTC()
}
