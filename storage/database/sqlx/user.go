package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/auth"
	"github.com/shafisadique/school-project-sub003/core/user"
)

const userColumns = `id, school_id, name, username, email, role, is_active, password_hash,
	reset_token_hash, reset_expires_at, created_at, updated_at, last_login`

type userRow struct {
	ID             string      `db:"id"`
	SchoolID       null.String `db:"school_id"`
	Name           string      `db:"name"`
	Username       null.String `db:"username"`
	Email          null.String `db:"email"`
	Role           string      `db:"role"`
	IsActive       bool        `db:"is_active"`
	PasswordHash   []byte      `db:"password_hash"`
	ResetTokenHash null.String `db:"reset_token_hash"`
	ResetExpiresAt null.Time   `db:"reset_expires_at"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
	LastLogin      null.Time   `db:"last_login"`
}

func nullString(s string) null.String { return null.NewString(s, s != "") }
func nullTime(t time.Time) null.Time  { return null.NewTime(t, !t.IsZero()) }

func toUserRow(usr user.User) userRow {
	return userRow{
		ID:             usr.ID,
		SchoolID:       nullString(usr.SchoolID),
		Name:           usr.Name,
		Username:       nullString(usr.Username),
		Email:          nullString(usr.Email),
		Role:           usr.Role.String(),
		IsActive:       usr.IsActive,
		PasswordHash:   usr.PasswordHash,
		ResetTokenHash: nullString(usr.ResetTokenHash),
		ResetExpiresAt: nullTime(usr.ResetExpiresAt),
		CreatedAt:      usr.CreatedAt,
		UpdatedAt:      usr.UpdatedAt,
		LastLogin:      nullTime(usr.LastLogin),
	}
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:             r.ID,
		SchoolID:       r.SchoolID.String,
		Name:           r.Name,
		Username:       r.Username.String,
		Email:          r.Email.String,
		Role:           auth.Role(r.Role),
		IsActive:       r.IsActive,
		PasswordHash:   r.PasswordHash,
		ResetTokenHash: r.ResetTokenHash.String,
		ResetExpiresAt: r.ResetExpiresAt.Time.UTC(),
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		LastLogin:      r.LastLogin.Time.UTC(),
	}
}

type userRepository struct {
	db core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DBExecutor) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) getOne(ctx context.Context, query string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, core.WrapDBError(err, "selecting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedIDs ...string) error {
	if excludedIDs == nil {
		excludedIDs = []string{}
	}
	var count int
	err := repo.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM users WHERE (username = $1 OR email = $2) AND id <> ALL($3::uuid[])`,
		nullString(username), nullString(email), pq.Array(excludedIDs),
	)
	if err != nil {
		return core.WrapDBError(err, "counting users")
	}
	if count > 0 {
		return user.ErrUserExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	_, err := sqlx.NamedExecContext(ctx, repo.db,
		`INSERT INTO users (`+userColumns+`) VALUES (:id, :school_id, :name, :username, :email, :role, :is_active,
			:password_hash, :reset_token_hash, :reset_expires_at, :created_at, :updated_at, :last_login)`,
		toUserRow(usr),
	)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, core.WrapDBError(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	return repo.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, identifier string) (user.User, error) {
	return repo.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1 LIMIT 1`, identifier)
}

func (repo *userRepository) GetUserByResetToken(ctx context.Context, hash string, now time.Time) (user.User, error) {
	return repo.getOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token_hash = $1 AND reset_expires_at > $2`,
		hash, now,
	)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := toUserRow(usr)
	return repo.getOne(ctx,
		`UPDATE users SET school_id = $2, name = $3, username = $4, email = $5, role = $6, is_active = $7,
			password_hash = $8, updated_at = $9
		WHERE id = $1 RETURNING `+userColumns,
		row.ID, row.SchoolID, row.Name, row.Username, row.Email, row.Role, row.IsActive, row.PasswordHash, row.UpdatedAt,
	)
}

func (repo *userRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.WrapDBError(err, "updating user")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.WrapDBError(err, "updating user")
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepository) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	return repo.exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
}

func (repo *userRepository) SetResetTicket(ctx context.Context, id, hash string, expiresAt time.Time) error {
	return repo.exec(ctx, `UPDATE users SET reset_token_hash = $2, reset_expires_at = $3 WHERE id = $1`, id, hash, expiresAt)
}

func (repo *userRepository) ConsumeResetTicket(ctx context.Context, hash string, now time.Time, passwordHash []byte) (user.User, error) {
	return repo.getOne(ctx,
		`UPDATE users SET password_hash = $3, reset_token_hash = NULL, reset_expires_at = NULL, updated_at = $2
		WHERE reset_token_hash = $1 AND reset_expires_at > $2 RETURNING `+userColumns,
		hash, now, passwordHash,
	)
}
