package superadmin

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/auth"
)

var (
	ErrNotFound = errors.New("superadmin not found")
	ErrExists   = errors.New("a superadmin with this email already exists")

	dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.DefaultCost)
)

// Superadmin is a platform operator. It belongs to no school.
type Superadmin struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	LastLogin    time.Time `json:"lastLogin"` // UTC
}

func (sa *Superadmin) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	sa.PasswordHash = hash
	return nil
}

func (sa *Superadmin) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(sa.PasswordHash, []byte(pwd))
}

func (sa Superadmin) Subject() auth.Subject {
	return auth.Subject{ID: sa.ID, Role: auth.RoleSuperadmin, Email: sa.Email}
}

func (sa Superadmin) Person() core.Person {
	return core.Person{ID: sa.ID, Email: sa.Email}
}

type NewSuperadmin struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=12"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (ns *NewSuperadmin) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}

type Repository interface {
	CreateSuperadmin(ctx context.Context, sa Superadmin) (Superadmin, error)
	GetSuperadminByID(ctx context.Context, id string) (Superadmin, error)
	GetSuperadminByEmail(ctx context.Context, email string) (Superadmin, error)
	SetLastLogin(ctx context.Context, id string, at time.Time) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate checks superadmin credentials. Unknown email & wrong password both return auth.ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (Superadmin, error) {
	sa, err := svc.repo.GetSuperadminByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pwd))
			return Superadmin{}, auth.ErrInvalidCredentials
		}
		return Superadmin{}, errors.Wrap(err, "finding superadmin by email")
	}
	if err = sa.CheckPassword(pwd); err != nil {
		return Superadmin{}, auth.ErrInvalidCredentials
	}

	sa.LastLogin = auth.Now().UTC()
	if err = svc.repo.SetLastLogin(ctx, sa.ID, sa.LastLogin); err != nil {
		return Superadmin{}, errors.Wrap(err, "setting lastLogin")
	}
	return sa, nil
}

func (svc *Service) Create(ctx context.Context, ns NewSuperadmin) (Superadmin, error) {
	if _, err := svc.repo.GetSuperadminByEmail(ctx, ns.Email); err == nil {
		return Superadmin{}, core.NewFieldError("email", ErrExists)
	} else if errors.Cause(err) != ErrNotFound {
		return Superadmin{}, errors.Wrap(err, "checking email uniqueness")
	}

	sa := Superadmin{
		Name:      ns.Name,
		Email:     ns.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := sa.SetPassword(ns.Password); err != nil {
		return Superadmin{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateSuperadmin(ctx, sa)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Superadmin, error) {
	return svc.repo.GetSuperadminByID(ctx, id)
}
