package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/school"
)

type schoolRepository struct {
	db *schoolTable
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db.school}
}

func (repo *schoolRepository) CreateSchool(_ context.Context, sch school.School) (school.School, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if sch.ID == "" {
		sch.ID = uuid.NewString()
	}
	repo.db.table[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(_ context.Context, id string) (school.School, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sch, ok := repo.db.table[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) ListSchools(_ context.Context, ordering core.DBOrdering) ([]school.School, error) {
	repo.db.RLock()
	schools := make([]school.School, 0, len(repo.db.table))
	for _, sch := range repo.db.table {
		schools = append(schools, *sch)
	}
	repo.db.RUnlock()

	less := func(a, b school.School) bool { return a.Name < b.Name }
	switch ordering.Field {
	case "plan":
		less = func(a, b school.School) bool { return a.Plan < b.Plan }
	case "created_at":
		less = func(a, b school.School) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
	sort.SliceStable(schools, func(i, j int) bool {
		if ordering.Ascending {
			return less(schools[i], schools[j])
		}
		return less(schools[j], schools[i])
	})
	return schools, nil
}
