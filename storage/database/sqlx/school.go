package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/school"
)

const schoolColumns = `id, name, plan, is_active, subscription_ends_at, created_at`

type schoolRow struct {
	ID                 string    `db:"id"`
	Name               string    `db:"name"`
	Plan               string    `db:"plan"`
	IsActive           bool      `db:"is_active"`
	SubscriptionEndsAt null.Time `db:"subscription_ends_at"`
	CreatedAt          time.Time `db:"created_at"`
}

func (r schoolRow) toSchool() school.School {
	return school.School{
		ID:                 r.ID,
		Name:               r.Name,
		Plan:               school.Plan(r.Plan),
		IsActive:           r.IsActive,
		SubscriptionEndsAt: r.SubscriptionEndsAt.Time.UTC(),
		CreatedAt:          r.CreatedAt.UTC(),
	}
}

type schoolRepository struct {
	db core.DBExecutor
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db core.DBExecutor) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	if sch.ID == "" {
		sch.ID = uuid.NewString()
	}
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO schools (`+schoolColumns+`, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		sch.ID, sch.Name, string(sch.Plan), sch.IsActive, nullTime(sch.SubscriptionEndsAt), sch.CreatedAt,
	)
	if err != nil {
		return school.School{}, core.WrapDBError(err, "inserting school")
	}
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.School{}, school.ErrNotFound
	}
	var row schoolRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+schoolColumns+` FROM schools WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return school.School{}, school.ErrNotFound
		}
		return school.School{}, core.WrapDBError(err, "selecting school")
	}
	return row.toSchool(), nil
}

// ListSchools orders by ordering.Field, which must be one of school.OrderingFields' columns.
func (repo *schoolRepository) ListSchools(ctx context.Context, ordering core.DBOrdering) ([]school.School, error) {
	if !isSchoolColumn(ordering.Field) {
		ordering = school.DefaultOrdering
	}
	var rows []schoolRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+schoolColumns+` FROM schools ORDER BY `+ordering.String()); err != nil {
		return nil, core.WrapDBError(err, "selecting schools")
	}
	schools := make([]school.School, 0, len(rows))
	for _, row := range rows {
		schools = append(schools, row.toSchool())
	}
	return schools, nil
}

func isSchoolColumn(col string) bool {
	for _, c := range school.OrderingFields {
		if c == col {
			return true
		}
	}
	return false
}
