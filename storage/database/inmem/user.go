package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shafisadique/school-project-sub003/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) find(match func(u *user.User) bool) (*user.User, bool) {
	for _, u := range repo.db.table {
		if match(u) {
			return u, true
		}
	}
	return nil, false
}

func (repo *userRepository) findOne(match func(u *user.User) bool) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if u, ok := repo.find(match); ok {
		return *u, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedIDs ...string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	_, found := repo.find(func(u *user.User) bool {
		if excluded[u.ID] {
			return false
		}
		return (username != "" && u.Username == username) || (email != "" && u.Email == email)
	})
	if found {
		return user.ErrUserExists
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, found := repo.find(func(u *user.User) bool {
		return (usr.Username != "" && u.Username == usr.Username) || (usr.Email != "" && u.Email == usr.Email)
	}); found {
		return user.User{}, user.ErrUserExists
	}
	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	return repo.findOne(func(u *user.User) bool { return u.ID == id })
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	return repo.findOne(func(u *user.User) bool { return email != "" && u.Email == email })
}

func (repo *userRepository) GetUserByUsernameOrEmail(_ context.Context, identifier string) (user.User, error) {
	return repo.findOne(func(u *user.User) bool {
		return identifier != "" && (u.Username == identifier || u.Email == identifier)
	})
}

func (repo *userRepository) GetUserByResetToken(_ context.Context, hash string, now time.Time) (user.User, error) {
	return repo.findOne(func(u *user.User) bool {
		return hash != "" && u.ResetTokenHash == hash && now.Before(u.ResetExpiresAt)
	})
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	orig.SchoolID = usr.SchoolID
	orig.Name = usr.Name
	orig.Username = usr.Username
	orig.Email = usr.Email
	orig.Role = usr.Role
	orig.IsActive = usr.IsActive
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	orig.UpdatedAt = usr.UpdatedAt
	return *orig, nil
}

func (repo *userRepository) update(id string, fn func(u *user.User)) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	u, ok := repo.db.table[id]
	if !ok {
		return user.ErrNotFound
	}
	fn(u)
	return nil
}

func (repo *userRepository) SetLastLogin(_ context.Context, id string, at time.Time) error {
	return repo.update(id, func(u *user.User) { u.LastLogin = at })
}

func (repo *userRepository) SetResetTicket(_ context.Context, id, hash string, expiresAt time.Time) error {
	return repo.update(id, func(u *user.User) {
		u.ResetTokenHash = hash
		u.ResetExpiresAt = expiresAt
	})
}

func (repo *userRepository) ConsumeResetTicket(_ context.Context, hash string, now time.Time, passwordHash []byte) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	u, ok := repo.find(func(u *user.User) bool {
		return hash != "" && u.ResetTokenHash == hash && now.Before(u.ResetExpiresAt)
	})
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetTokenHash = ""
	u.ResetExpiresAt = time.Time{}
	u.UpdatedAt = now
	return *u, nil
}
