package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/auth"
	"github.com/shafisadique/school-project-sub003/core/school"
	"github.com/shafisadique/school-project-sub003/core/superadmin"
	"github.com/shafisadique/school-project-sub003/core/user"
)

type (
	// ServerDeps holds everything the API needs. Each trust domain comes with its own auth.Domain.
	ServerDeps struct {
		Conf             *core.Config
		Logger           core.Logger
		UsersDomain      *auth.Domain
		SuperadminDomain *auth.Domain
		UserSvc          user.ServiceInterface
		SuperadminSvc    *superadmin.Service
		SchoolSvc        *school.Service
		Limiter          core.AttemptLimiter
		Metrics          *Metrics
		Validate         *validator.Validate
		Translator       ut.Translator
		DisableReqLogs   bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/metrics", s.deps.Metrics.handler())

	v1 := s.app.Group("/v1")

	registerUserAPI(v1, &userApi{
		domain:   s.deps.UsersDomain,
		svc:      s.deps.UserSvc,
		limiter:  s.deps.Limiter,
		logger:   s.deps.Logger,
		metrics:  s.deps.Metrics,
		validate: s.deps.Validate,
	})
	registerSchoolAPI(v1, &schoolApi{
		domain:  s.deps.UsersDomain,
		svc:     s.deps.SchoolSvc,
		metrics: s.deps.Metrics,
	})
	registerSuperadminAPI(v1, &superadminApi{
		conf:      conf,
		domain:    s.deps.SuperadminDomain,
		svc:       s.deps.SuperadminSvc,
		schoolSvc: s.deps.SchoolSvc,
		limiter:   s.deps.Limiter,
		logger:    s.deps.Logger,
		metrics:   s.deps.Metrics,
		validate:  s.deps.Validate,
	})
}

// Start blocks until the server stops. Errors other than a graceful shutdown are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
