package inmemdb

import (
	"sync"

	"github.com/shafisadique/school-project-sub003/core/school"
	"github.com/shafisadique/school-project-sub003/core/superadmin"
	"github.com/shafisadique/school-project-sub003/core/user"
)

type (
	// DB is a process-local store used by tests and the `memory` database engine.
	DB struct {
		user       *userTable
		superadmin *superadminTable
		school     *schoolTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	superadminTable struct {
		sync.RWMutex
		table map[string]*superadmin.Superadmin
	}

	schoolTable struct {
		sync.RWMutex
		table map[string]*school.School
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		superadmin: &superadminTable{table: make(map[string]*superadmin.Superadmin)},
		school:     &schoolTable{table: make(map[string]*school.School)},
	}
}
