package echoapi

import (
	"crypto/subtle"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/auth"
)

const (
	contextClaimsKey = "claims"

	headerMasterKey = "X-Master-Key"
	headerDeviceFp  = "X-Device-Fp"
)

// jwtMiddleware verifies the bearer token against domain only: its key, its algorithm.
// Every failure is the same 401; the reason is only counted.
func jwtMiddleware(domain *auth.Domain, metrics *Metrics) echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    domain.Key(),
		SigningMethod: auth.SigningMethod,
		ContextKey:    domain.Name() + "Token",
		Claims:        new(auth.Claims),
		ErrorHandlerWithContext: func(err error, ctx echo.Context) error {
			metrics.tokenRejection(domain.Name())
			return errUnauthorized
		},
	})
}

// claimsMiddleware checks what the signature check does not (audience, role, strict expiry)
// and stores the claims for downstream handlers. It must run after jwtMiddleware(domain).
func claimsMiddleware(domain *auth.Domain, metrics *Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, ok := ctx.Get(domain.Name() + "Token").(*jwt.Token)
			if !ok {
				metrics.tokenRejection(domain.Name())
				return errUnauthorized
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok || domain.Check(claims) != nil {
				metrics.tokenRejection(domain.Name())
				return errUnauthorized
			}
			ctx.Set(contextClaimsKey, claims)
			return next(ctx)
		}
	}
}

// authMiddlewares is the full verifier of a trust domain.
func authMiddlewares(domain *auth.Domain, metrics *Metrics) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{jwtMiddleware(domain, metrics), claimsMiddleware(domain, metrics)}
}

// rolesMiddleware lets through sessions holding one of roles. No roles: any authenticated subject.
func rolesMiddleware(roles ...auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := contextClaims(ctx)
			if err != nil {
				return err
			}
			if !claims.HasAnyRole(roles...) {
				return auth.ErrForbidden
			}
			return next(ctx)
		}
	}
}

// masterKeyMiddleware gates the superadmin domain behind two static headers, checked before any token.
// An unconfigured master key denies everything.
func masterKeyMiddleware(conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if conf.MasterKey == "" || conf.DeviceFingerprint == "" {
				return auth.ErrForbidden
			}
			key := ctx.Request().Header.Get(headerMasterKey)
			fp := ctx.Request().Header.Get(headerDeviceFp)
			keyOK := subtle.ConstantTimeCompare([]byte(key), []byte(conf.MasterKey))
			fpOK := subtle.ConstantTimeCompare([]byte(fp), []byte(conf.DeviceFingerprint))
			if keyOK&fpOK != 1 {
				return auth.ErrForbidden
			}
			return next(ctx)
		}
	}
}

func contextClaims(ctx echo.Context) (*auth.Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(*auth.Claims); ok {
		return claims, nil
	}
	return nil, errUnauthorized
}

type TokenResponse struct {
	Token     string    `json:"token"`
	Role      auth.Role `json:"role"`
	TenantID  string    `json:"tenantId"`
	UserID    string    `json:"userId"`
	ExpiresAt int64     `json:"expiresAt"` // unix seconds
}

func newTokenResponse(token string, claims *auth.Claims) TokenResponse {
	return TokenResponse{
		Token:     token,
		Role:      claims.Role,
		TenantID:  claims.TenantID,
		UserID:    claims.Subject,
		ExpiresAt: claims.ExpiresAt,
	}
}
