package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/school"
	"github.com/shafisadique/school-project-sub003/core/superadmin"
	"github.com/shafisadique/school-project-sub003/core/user"
	appfs "github.com/shafisadique/school-project-sub003/fs"
	"github.com/shafisadique/school-project-sub003/services/email"
	"github.com/shafisadique/school-project-sub003/services/logger"
	"github.com/shafisadique/school-project-sub003/storage/database"
	"github.com/shafisadique/school-project-sub003/storage/database/inmem"
	"github.com/shafisadique/school-project-sub003/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	defer logger.Close()

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	tmpls, err := core.ParseEmailTemplates(appfs.FS, conf.FrontendBaseURL, conf.Debug)
	if err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}
	mailSvc := emailsvc.NewService(conf, tmpls, logger)

	cli := commandLine{validate: validate, out: os.Stdout}

	if conf.Database.Engine == "memory" {
		db := inmemdb.Open()
		cli.usrSvc = user.NewService(inmemdb.NewUserRepository(db), mailSvc, conf)
		cli.saSvc = superadmin.NewService(inmemdb.NewSuperadminRepository(db))
		cli.schoolSvc = school.NewService(inmemdb.NewSchoolRepository(db))
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err = database.CreateIfNotExist(ctx, conf); err != nil {
			logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
		}
		db, err := database.Open(ctx, conf)
		cancel()
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		defer func(db *sql.DB) { _ = db.Close() }(db.DB)

		cli.db = db.DB
		cli.usrSvc = user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf)
		cli.saSvc = superadmin.NewService(sqlxrepos.NewSuperadminRepository(db))
		cli.schoolSvc = school.NewService(sqlxrepos.NewSchoolRepository(db))
	}

	if err = cli.run(os.Args[1:]); err != nil {
		logger.Error(fmt.Sprintf("error: %v", err), err)
		logger.Close()
		os.Exit(1)
	}
}
