package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/auth"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrUserExists         = errors.New("a user with this username or email already exists")
	ErrAccountDeactivated = errors.New("account deactivated")

	// compared against when the identifier is unknown, so both login failures cost one bcrypt round
	dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.DefaultCost)
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedIDs ...string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, identifier string) (User, error)
		// GetUserByResetToken returns the user whose ticket hash is hash and whose ticket expires after now.
		GetUserByResetToken(ctx context.Context, hash string, now time.Time) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		SetLastLogin(ctx context.Context, id string, at time.Time) error
		// SetResetTicket overwrites any previous ticket of the user.
		SetResetTicket(ctx context.Context, id, hash string, expiresAt time.Time) error
		// ConsumeResetTicket stores passwordHash and clears the ticket, only if the ticket still matches hash & now.
		// It returns ErrNotFound when no ticket matched.
		ConsumeResetTicket(ctx context.Context, hash string, now time.Time, passwordHash []byte) (User, error)
	}

	ServiceInterface interface {
		Authenticate(ctx context.Context, identifier, pwd string) (User, error)
		Create(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, identifier string) (User, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetPassword) (User, error)
		SetPassword(ctx context.Context, identifier, pwd string) (User, error)
	}

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		resetTTL time.Duration
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		mailSvc:  mailSvc,
		resetTTL: conf.PasswordResetTimeoutDelta,
	}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email string, exclIDs ...string) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, exclIDs...); err != nil {
		if err == ErrUserExists {
			return core.NewFieldError("username", err)
		}
		return errors.Wrap(err, "checking uniqueness")
	}
	return nil
}

// Authenticate checks the credentials of a school account.
// An unknown identifier and a wrong password both return auth.ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, identifier, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(identifier, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pwd))
			return User{}, auth.ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, auth.ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}

	usr.LastLogin = auth.Now().UTC()
	if err = svc.repo.SetLastLogin(ctx, usr.ID, usr.LastLogin); err != nil {
		return User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.checkUniqueness(ctx, nu.Username, nu.Email); err != nil {
		return User{}, err
	}
	now := time.Now().UTC()
	usr := User{
		SchoolID:  nu.SchoolID,
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, identifier string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(identifier, true /* lower */))
}

// RequestPasswordReset issues a new reset ticket for the active account registered with email,
// replacing any previous ticket, and mails it. Callers must answer uniformly whatever this returns.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrAccountDeactivated
	}

	ticket, err := auth.NewResetTicket(svc.resetTTL)
	if err != nil {
		return errors.Wrap(err, "generating reset ticket")
	}
	if err = svc.repo.SetResetTicket(ctx, usr.ID, ticket.Hash, ticket.ExpiresAt); err != nil {
		return errors.Wrap(err, "saving reset ticket")
	}

	svc.mailSvc.SendMessages(svc.passwordResetMail(usr, ticket.Token))
	return nil
}

func (svc *Service) passwordResetMail(usr User, token string) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: PasswordResetMailData{
			Name:      usr.Name,
			Token:     token,
			ExpiresIn: humanizeDuration(svc.resetTTL),
		},
	}
}

// ResetPassword redeems a reset ticket: the password is replaced and the ticket cleared, so it cannot be replayed.
// Unknown, consumed and expired tickets all return auth.ErrInvalidOrExpiredResetToken.
func (svc *Service) ResetPassword(ctx context.Context, data ResetPassword) (User, error) {
	hash := auth.HashResetToken(data.Token)
	now := auth.Now().UTC()

	usr, err := svc.repo.GetUserByResetToken(ctx, hash, now)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, auth.ErrInvalidOrExpiredResetToken
		}
		return User{}, errors.Wrap(err, "finding user by reset token")
	}
	if !auth.ResetTicketMatches(usr.ResetTokenHash, usr.ResetExpiresAt, data.Token, now) {
		return User{}, auth.ErrInvalidOrExpiredResetToken
	}
	if tag := checkPasswordSimilarity(data.NewPassword, usr.Name, usr.Username, usr.Email); tag != "" {
		return User{}, core.NewValidationError(errors.New("invalid password"), core.FieldError{Field: "newPassword", Error: passwordPolicyTexts[tag]})
	}

	if err = usr.SetPassword(data.NewPassword); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err = svc.repo.ConsumeResetTicket(ctx, hash, now, usr.PasswordHash)
	if err != nil {
		if errors.Cause(err) == ErrNotFound { // consumed concurrently
			return User{}, auth.ErrInvalidOrExpiredResetToken
		}
		return User{}, errors.Wrap(err, "consuming reset ticket")
	}
	return usr, nil
}

// SetPassword replaces the password of the account identified by username or email (admin CLI).
func (svc *Service) SetPassword(ctx context.Context, identifier, pwd string) (User, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx, identifier)
	if err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if h := int(d / time.Hour); h > 1 {
			return fmt.Sprintf("%d hours", h)
		}
		return "1 hour"
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
