package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shafisadique/school-project-sub003/core/superadmin"
)

type superadminRepository struct {
	db *superadminTable
}

var _ superadmin.Repository = (*superadminRepository)(nil) // interface compliance check

func NewSuperadminRepository(db *DB) superadmin.Repository {
	return &superadminRepository{db: db.superadmin}
}

func (repo *superadminRepository) CreateSuperadmin(_ context.Context, sa superadmin.Superadmin) (superadmin.Superadmin, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, other := range repo.db.table {
		if other.Email == sa.Email {
			return superadmin.Superadmin{}, superadmin.ErrExists
		}
	}
	if sa.ID == "" {
		sa.ID = uuid.NewString()
	}
	repo.db.table[sa.ID] = &sa
	return sa, nil
}

func (repo *superadminRepository) GetSuperadminByID(_ context.Context, id string) (superadmin.Superadmin, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sa, ok := repo.db.table[id]; ok {
		return *sa, nil
	}
	return superadmin.Superadmin{}, superadmin.ErrNotFound
}

func (repo *superadminRepository) GetSuperadminByEmail(_ context.Context, email string) (superadmin.Superadmin, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, sa := range repo.db.table {
		if sa.Email == email {
			return *sa, nil
		}
	}
	return superadmin.Superadmin{}, superadmin.ErrNotFound
}

func (repo *superadminRepository) SetLastLogin(_ context.Context, id string, at time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	sa, ok := repo.db.table[id]
	if !ok {
		return superadmin.ErrNotFound
	}
	sa.LastLogin = at
	return nil
}
