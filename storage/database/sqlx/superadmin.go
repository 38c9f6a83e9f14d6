package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/superadmin"
)

const superadminColumns = `id, name, email, password_hash, created_at, last_login`

type superadminRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	LastLogin    null.Time `db:"last_login"`
}

func (r superadminRow) toSuperadmin() superadmin.Superadmin {
	return superadmin.Superadmin{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		LastLogin:    r.LastLogin.Time.UTC(),
	}
}

type superadminRepository struct {
	db core.DBExecutor
}

var _ superadmin.Repository = (*superadminRepository)(nil) // interface compliance check

func NewSuperadminRepository(db core.DBExecutor) superadmin.Repository {
	return &superadminRepository{db: db}
}

func (repo *superadminRepository) getOne(ctx context.Context, query string, args ...interface{}) (superadmin.Superadmin, error) {
	var row superadminRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return superadmin.Superadmin{}, superadmin.ErrNotFound
		}
		return superadmin.Superadmin{}, core.WrapDBError(err, "selecting superadmin")
	}
	return row.toSuperadmin(), nil
}

func (repo *superadminRepository) CreateSuperadmin(ctx context.Context, sa superadmin.Superadmin) (superadmin.Superadmin, error) {
	if sa.ID == "" {
		sa.ID = uuid.NewString()
	}
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO superadmins (`+superadminColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		sa.ID, sa.Name, sa.Email, sa.PasswordHash, sa.CreatedAt, nullTime(sa.LastLogin),
	)
	if err != nil {
		return superadmin.Superadmin{}, core.WrapDBError(err, "inserting superadmin")
	}
	return sa, nil
}

func (repo *superadminRepository) GetSuperadminByID(ctx context.Context, id string) (superadmin.Superadmin, error) {
	if _, err := uuid.Parse(id); err != nil {
		return superadmin.Superadmin{}, superadmin.ErrNotFound
	}
	return repo.getOne(ctx, `SELECT `+superadminColumns+` FROM superadmins WHERE id = $1`, id)
}

func (repo *superadminRepository) GetSuperadminByEmail(ctx context.Context, email string) (superadmin.Superadmin, error) {
	return repo.getOne(ctx, `SELECT `+superadminColumns+` FROM superadmins WHERE email = $1`, email)
}

func (repo *superadminRepository) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	if _, err := repo.db.ExecContext(ctx, `UPDATE superadmins SET last_login = $2 WHERE id = $1`, id, at); err != nil {
		return core.WrapDBError(err, "updating superadmin")
	}
	return nil
}
