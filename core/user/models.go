package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/auth"
)

type User struct {
	ID             string    `json:"id"`
	SchoolID       string    `json:"schoolId"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Role           auth.Role `json:"role"`
	IsActive       bool      `json:"isActive"`
	PasswordHash   []byte    `json:"-"`
	ResetTokenHash string    `json:"-"`
	ResetExpiresAt time.Time `json:"-"` // UTC
	CreatedAt      time.Time `json:"createdAt"` // UTC
	UpdatedAt      time.Time `json:"updatedAt"` // UTC
	LastLogin      time.Time `json:"lastLogin"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// Subject is what the session token of u is issued for.
func (u User) Subject() auth.Subject {
	return auth.Subject{
		ID:       u.ID,
		Role:     u.Role,
		TenantID: u.SchoolID,
		Username: u.Username,
		Email:    u.Email,
	}
}

func (u User) Person() core.Person {
	return core.Person{ID: u.ID, Username: u.Username, Email: u.Email}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	SchoolID        string    `json:"schoolId" validate:"required,uuid"`
	Name            string    `json:"name" validate:"required"`
	Username        string    `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email           string    `json:"email" validate:"omitempty,email"`
	Role            auth.Role `json:"role" validate:"required,tenantrole"`
	Password        string    `json:"password" validate:"required"`
	PasswordConfirm string    `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	return validate.Struct(nu)
}

// ResetPassword redeems a reset ticket.
type ResetPassword struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

func (rp *ResetPassword) Validate(validate *validator.Validate) error {
	rp.Token = core.CleanString(rp.Token)
	return validate.Struct(rp)
}

// PasswordResetMailData feeds the password_reset email templates.
type PasswordResetMailData struct {
	Name      string
	Token     string
	ExpiresIn string
}
