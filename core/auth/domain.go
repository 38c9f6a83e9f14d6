package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/shafisadique/school-project-sub003/core"
)

// SigningMethod is the only algorithm tokens are signed & accepted with.
const SigningMethod = "HS256"

const (
	UsersDomainName      = "users"
	SuperadminDomainName = "superadmin"
)

type (
	// Domain is a trust domain: tokens it issues are only ever accepted by the same Domain.
	// Each domain has its own key & audience; verifiers receive their Domain explicitly.
	Domain struct {
		name        string
		issuer      string
		audience    string
		key         []byte
		ttl         time.Duration
		elevatedTTL time.Duration
		refreshTTL  time.Duration
	}

	DomainOptions struct {
		Name        string
		Issuer      string
		Key         string
		TTL         time.Duration
		ElevatedTTL time.Duration
		RefreshTTL  time.Duration
	}

	// Subject is what a session token is issued for.
	Subject struct {
		ID       string
		Role     Role
		TenantID string
		Username string
		Email    string
	}
)

// now is the clock shared by token issuance and jwt-go's own claims validation.
func now() time.Time { return jwt.TimeFunc() }

func NewDomain(opts DomainOptions) (*Domain, error) {
	if opts.Name == "" {
		return nil, errors.New("domain name is required")
	}
	// an empty issuer never passes jwt-go's required issuer check
	if opts.Issuer == "" {
		return nil, errors.Errorf("%s domain: issuer is required", opts.Name)
	}
	if opts.Key == "" {
		return nil, errors.Errorf("%s domain: signing key is required", opts.Name)
	}
	if opts.TTL <= 0 {
		return nil, errors.Errorf("%s domain: token TTL must be positive", opts.Name)
	}
	elevated := opts.ElevatedTTL
	if elevated <= 0 {
		elevated = opts.TTL
	}
	return &Domain{
		name:        opts.Name,
		issuer:      opts.Issuer,
		audience:    opts.Issuer + "/" + opts.Name,
		key:         []byte(opts.Key),
		ttl:         opts.TTL,
		elevatedTTL: elevated,
		refreshTTL:  opts.RefreshTTL,
	}, nil
}

// NewUsersDomain returns the trust domain of school accounts (admin, teacher, student, parent).
func NewUsersDomain(conf *core.Config) (*Domain, error) {
	return NewDomain(DomainOptions{
		Name:        UsersDomainName,
		Issuer:      conf.AppName,
		Key:         conf.SecretKey,
		TTL:         conf.Server.JWTExpirationDelta,
		ElevatedTTL: conf.Server.JWTElevatedExpirationDelta,
		RefreshTTL:  conf.Server.JWTRefreshExpirationDelta,
	})
}

// NewSuperadminDomain returns the trust domain of platform superadmins.
func NewSuperadminDomain(conf *core.Config) (*Domain, error) {
	return NewDomain(DomainOptions{
		Name:        SuperadminDomainName,
		Issuer:      conf.AppName,
		Key:         conf.SuperadminSecretKey,
		TTL:         conf.Server.JWTElevatedExpirationDelta,
		ElevatedTTL: conf.Server.JWTElevatedExpirationDelta,
		RefreshTTL:  conf.Server.JWTElevatedExpirationDelta,
	})
}

func (d *Domain) Name() string     { return d.name }
func (d *Domain) Audience() string { return d.audience }

// Key returns the HMAC key. Only the HTTP verifier of this very domain should need it.
func (d *Domain) Key() []byte { return d.key }

// TTLFor returns the validity window of a token issued for role.
func (d *Domain) TTLFor(role Role) time.Duration {
	if role.IsElevated() {
		return d.elevatedTTL
	}
	return d.ttl
}

// NewClaims builds the claims of a fresh session for sub. origIat keeps the original login time on refresh.
func (d *Domain) NewClaims(sub Subject, origIat ...int64) *Claims {
	t := now()
	nownix := t.Unix()

	oriat := nownix
	if len(origIat) > 0 && origIat[0] > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    d.issuer,
			Subject:   sub.ID,
			Audience:  d.audience,
			ExpiresAt: t.Add(d.TTLFor(sub.Role)).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Role:         sub.Role,
		TenantID:     sub.TenantID,
		Username:     sub.Username,
		Email:        sub.Email,
	}
}

// Sign generates a signed JWT token string representing the claims.
func (d *Domain) Sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(SigningMethod), claims)
	ss, err := token.SignedString(d.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Issue mints & signs a session token for sub.
func (d *Domain) Issue(sub Subject, origIat ...int64) (string, *Claims, error) {
	claims := d.NewClaims(sub, origIat...)
	token, err := d.Sign(claims)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Parse verifies the signature, expiry & audience of token. Every failure is ErrUnauthorized.
func (d *Domain) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != SigningMethod {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return d.key, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}
	if err = d.Check(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Check validates the claims that a bare signature check does not cover.
func (d *Domain) Check(claims *Claims) error {
	if claims == nil || claims.Subject == "" {
		return ErrUnauthorized
	}
	// jwt-go still accepts a token at its exact expiry second
	if claims.ExpiresAt == 0 || now().Unix() >= claims.ExpiresAt {
		return ErrUnauthorized
	}
	if !claims.VerifyAudience(d.audience, true) || !claims.VerifyIssuer(d.issuer, true) {
		return ErrUnauthorized
	}
	if _, ok := ParseRole(string(claims.Role)); !ok {
		return ErrUnauthorized
	}
	if (d.name == SuperadminDomainName) != (claims.Role == RoleSuperadmin) {
		return ErrUnauthorized
	}
	return nil
}

// CanRefresh reports whether a session may still be re-issued: refresh is bounded by the original login time.
func (d *Domain) CanRefresh(claims *Claims) error {
	if d.refreshTTL <= 0 {
		return ErrRefreshExpired
	}
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(d.refreshTTL)
	if now().After(expTime) {
		return ErrRefreshExpired
	}
	return nil
}
