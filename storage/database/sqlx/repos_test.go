package sqlxrepos

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/auth"
	"github.com/shafisadique/school-project-sub003/core/school"
	"github.com/shafisadique/school-project-sub003/core/superadmin"
	"github.com/shafisadique/school-project-sub003/core/user"
)

const (
	userID   = "4c0ee1d4-3b5e-4b63-a43b-4e4c8a1c7d01"
	schoolID = "8f14e45f-ceea-467f-a0e6-1b1c4e4a2d02"
)

var (
	ctx = context.Background()
	now = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	userCols = []string{"id", "school_id", "name", "username", "email", "role", "is_active", "password_hash",
		"reset_token_hash", "reset_expires_at", "created_at", "updated_at", "last_login"}
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return sqlx.NewDb(db, "postgres"), mock
}

func TestUserRepository_GetUserByUsernameOrEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \$1 OR email = \$1 LIMIT 1`).
		WithArgs("jdoe").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(
			userID, schoolID, "John Doe", "jdoe", nil, "teacher", true, []byte("hash"),
			nil, nil, now, now, nil,
		))

	usr, err := repo.GetUserByUsernameOrEmail(ctx, "jdoe")
	require.NoError(t, err)
	assert.Equal(t, userID, usr.ID)
	assert.Equal(t, schoolID, usr.SchoolID)
	assert.Equal(t, auth.RoleTeacher, usr.Role)
	assert.Empty(t, usr.Email)
	assert.Empty(t, usr.ResetTokenHash)
	assert.True(t, usr.ResetExpiresAt.IsZero())
	assert.True(t, usr.LastLogin.IsZero())
}

func TestUserRepository_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.GetUserByEmail(ctx, "ghost@example.com")
	assert.Equal(t, user.ErrNotFound, err)

	_, err = repo.GetUserByID(ctx, "not-a-uuid")
	assert.Equal(t, user.ErrNotFound, err, "no query for malformed ids")
}

func TestUserRepository_ConnectionErrors(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("ada@example.com").
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("ada@example.com").
		WillReturnError(sql.ErrConnDone)

	_, err := repo.GetUserByEmail(ctx, "ada@example.com")
	assert.EqualError(t, err, "selecting user: deadlock detected")
	assert.False(t, core.IsShutdown(err))

	_, err = repo.GetUserByEmail(ctx, "ada@example.com")
	assert.True(t, core.IsShutdown(err), "a closed pool stops the server")
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestUserRepository_CheckUsernameUniqueness(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE \(username = \$1 OR email = \$2\) AND id <> ALL\(\$3::uuid\[\]\)`).
		WithArgs("jdoe", nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WithArgs("jdoe", "jdoe@example.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	assert.Equal(t, user.ErrUserExists, repo.CheckUsernameUniqueness(ctx, "jdoe", ""))
	assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "jdoe", "jdoe@example.com", userID))
}

func TestUserRepository_CreateUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO users \(.+\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7,\s+\$8, \$9, \$10, \$11, \$12, \$13\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	usr, err := repo.CreateUser(ctx, user.User{Name: "John Doe", Username: "jdoe", Role: auth.RoleTeacher, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
}

func TestUserRepository_SetResetTicket(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	expiresAt := now.Add(30 * time.Minute)

	mock.ExpectExec(`UPDATE users SET reset_token_hash = \$2, reset_expires_at = \$3 WHERE id = \$1`).
		WithArgs(userID, "hash", expiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET reset_token_hash`).
		WithArgs(schoolID, "hash", expiresAt).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.SetResetTicket(ctx, userID, "hash", expiresAt))
	assert.Equal(t, user.ErrNotFound, repo.SetResetTicket(ctx, schoolID, "hash", expiresAt))
}

func TestUserRepository_ConsumeResetTicket(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	query := `UPDATE users SET password_hash = \$3, reset_token_hash = NULL, reset_expires_at = NULL, updated_at = \$2\s+` +
		`WHERE reset_token_hash = \$1 AND reset_expires_at > \$2 RETURNING`

	mock.ExpectQuery(query).
		WithArgs("hash", now, []byte("new-hash")).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(
			userID, schoolID, "John Doe", "jdoe", "jdoe@example.com", "teacher", true, []byte("new-hash"),
			nil, nil, now, now, now,
		))
	mock.ExpectQuery(query).
		WithArgs("hash", now, []byte("new-hash")).
		WillReturnRows(sqlmock.NewRows(userCols))

	usr, err := repo.ConsumeResetTicket(ctx, "hash", now, []byte("new-hash"))
	require.NoError(t, err)
	assert.Equal(t, []byte("new-hash"), usr.PasswordHash)
	assert.Empty(t, usr.ResetTokenHash)

	_, err = repo.ConsumeResetTicket(ctx, "hash", now, []byte("new-hash"))
	assert.Equal(t, user.ErrNotFound, err, "a consumed ticket matches no row")
}

func TestSuperadminRepository(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSuperadminRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM superadmins WHERE email = \$1`).
		WithArgs("root@shule.io").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at", "last_login"}).
			AddRow(userID, "Root", "root@shule.io", []byte("hash"), now, now))
	mock.ExpectExec(`UPDATE superadmins SET last_login = \$2 WHERE id = \$1`).
		WithArgs(userID, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM superadmins WHERE email = \$1`).
		WithArgs("ghost@shule.io").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	sa, err := repo.GetSuperadminByEmail(ctx, "root@shule.io")
	require.NoError(t, err)
	assert.Equal(t, now, sa.LastLogin)
	assert.NoError(t, repo.SetLastLogin(ctx, sa.ID, now))

	_, err = repo.GetSuperadminByEmail(ctx, "ghost@shule.io")
	assert.Equal(t, superadmin.ErrNotFound, err)
}

func TestSchoolRepository_ListSchools(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSchoolRepository(db)
	cols := []string{"id", "name", "plan", "is_active", "subscription_ends_at", "created_at"}

	mock.ExpectQuery(`SELECT .+ FROM schools ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(schoolID, "Lycée Wima", "premium", true, nil, now).
			AddRow(userID, "Institut Bobote", "free", false, now, now))
	mock.ExpectQuery(`SELECT .+ FROM schools ORDER BY name ASC`).
		WillReturnRows(sqlmock.NewRows(cols))

	schools, err := repo.ListSchools(ctx, core.DBOrdering{Field: "created_at"})
	require.NoError(t, err)
	require.Len(t, schools, 2)
	assert.Equal(t, school.PlanPremium, schools[0].Plan)
	assert.True(t, schools[0].SubscriptionEndsAt.IsZero())
	assert.Equal(t, now, schools[1].SubscriptionEndsAt)

	_, err = repo.ListSchools(ctx, core.DBOrdering{Field: "name; DROP TABLE schools", Ascending: false})
	assert.NoError(t, err, "unknown columns fall back to the default ordering")
}
