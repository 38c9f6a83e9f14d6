package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"

	echoapi "github.com/shafisadique/school-project-sub003/apps/api/echo"
	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/auth"
	"github.com/shafisadique/school-project-sub003/core/school"
	"github.com/shafisadique/school-project-sub003/core/superadmin"
	"github.com/shafisadique/school-project-sub003/core/user"
	appfs "github.com/shafisadique/school-project-sub003/fs"
	"github.com/shafisadique/school-project-sub003/services/email"
	"github.com/shafisadique/school-project-sub003/services/logger"
	"github.com/shafisadique/school-project-sub003/services/ratelimit"
	"github.com/shafisadique/school-project-sub003/storage/database"
	"github.com/shafisadique/school-project-sub003/storage/database/inmem"
	"github.com/shafisadique/school-project-sub003/storage/database/sqlx"
)

type repositories struct {
	users       user.Repository
	superadmins superadmin.Repository
	schools     school.Repository
	close       func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	if err := conf.Validate(); err != nil {
		logger.Fatal(fmt.Sprintf("invalid configuration: %v", err), err)
	}

	usersDomain, err := auth.NewUsersDomain(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up users domain: %v", err), err)
	}
	saDomain, err := auth.NewSuperadminDomain(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up superadmin domain: %v", err), err)
	}

	// set up storage
	repos, err := setUpStorage(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = repos.close(); err != nil {
			logger.Error(fmt.Sprintf("closing storage: %v", err), err)
		}
	}()

	limiter, err := ratelimit.New(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up attempt limiter: %v", err), err)
	}
	bgCtx, stopBg := context.WithCancel(context.Background())
	defer stopBg()
	switch l := limiter.(type) {
	case *ratelimit.MemoryLimiter:
		go l.RunSweeper(bgCtx, time.Minute)
	case *ratelimit.RedisLimiter:
		defer func() { _ = l.Close() }()
	}

	// set up services
	tmpls, err := core.ParseEmailTemplates(appfs.FS, conf.FrontendBaseURL, conf.Debug)
	if err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}
	mailSvc := emailsvc.NewService(conf, tmpls, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:             conf,
		Logger:           logger,
		UsersDomain:      usersDomain,
		SuperadminDomain: saDomain,
		UserSvc:          user.NewService(repos.users, mailSvc, conf),
		SuperadminSvc:    superadmin.NewService(repos.superadmins),
		SchoolSvc:        school.NewService(repos.schools),
		Limiter:          limiter,
		Validate:         validate,
		Translator:       translator,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpStorage opens the configured database engine: "memory" keeps everything in process (DEV), anything else is postgres.
func setUpStorage(conf *core.Config) (repositories, error) {
	if conf.Database.Engine == "memory" {
		db := inmemdb.Open()
		return repositories{
			users:       inmemdb.NewUserRepository(db),
			superadmins: inmemdb.NewSuperadminRepository(db),
			schools:     inmemdb.NewSchoolRepository(db),
			close:       func() error { return nil },
		}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return repositories{}, err
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		return repositories{}, err
	}
	if err = database.Migrate(db.DB, "up"); err != nil {
		_ = db.Close()
		return repositories{}, errors.Wrap(err, "migrating")
	}
	return repositories{
		users:       sqlxrepos.NewUserRepository(db),
		superadmins: sqlxrepos.NewSuperadminRepository(db),
		schools:     sqlxrepos.NewSchoolRepository(db),
		close:       db.Close,
	}, nil
}
