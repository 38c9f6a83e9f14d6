package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/auth"
	"github.com/shafisadique/school-project-sub003/core/school"
	"github.com/shafisadique/school-project-sub003/core/superadmin"
)

type superadminApi struct {
	conf      *core.Config
	domain    *auth.Domain
	svc       *superadmin.Service
	schoolSvc *school.Service
	limiter   core.AttemptLimiter
	logger    core.Logger
	metrics   *Metrics
	validate  *validator.Validate
}

func registerSuperadminAPI(g *echo.Group, api *superadminApi) {
	// the master key gate comes before any token check, login included
	sg := g.Group("/superadmin", masterKeyMiddleware(api.conf))

	sg.POST("/login", api.login)

	authed := authMiddlewares(api.domain, api.metrics)
	sg.GET("/me", api.me, authed...)
	sg.GET("/schools", api.listSchools, append(authed, rolesMiddleware(auth.RoleSuperadmin))...)
}

type SuperadminLoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (lr *SuperadminLoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (api *superadminApi) login(ctx echo.Context) error {
	var data SuperadminLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SuperadminLoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	key := api.domain.Name() + ":" + data.Email
	if locked := checkLockout(ctx, api.limiter, api.logger, key); locked != nil {
		api.metrics.login(api.domain.Name(), loginLocked)
		return locked
	}

	sa, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if errors.Cause(err) == auth.ErrInvalidCredentials {
			api.metrics.login(api.domain.Name(), loginFailure)
			recordFailure(ctx, api.limiter, api.logger, key)
			return auth.ErrInvalidCredentials
		}
		return errors.Wrap(err, "authenticating superadmin")
	}
	resetAttempts(ctx, api.limiter, api.logger, key)

	token, claims, err := api.domain.Issue(sa.Subject())
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	api.metrics.login(api.domain.Name(), loginSuccess)
	return ctx.JSON(http.StatusOK, newTokenResponse(token, claims))
}

func (api *superadminApi) me(ctx echo.Context) error {
	claims, err := contextClaims(ctx)
	if err != nil {
		return err
	}
	sa, err := api.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == superadmin.ErrNotFound {
			return errUnauthorized
		}
		return errors.Wrap(err, "finding superadmin by ID")
	}
	return ctx.JSON(http.StatusOK, sa)
}

func (api *superadminApi) listSchools(ctx echo.Context) error {
	var ord Ordering
	ord.Bind(ctx)

	schools, err := api.schoolSvc.List(ctx.Request().Context(), ord.Column(school.OrderingFields, school.DefaultOrdering))
	if err != nil {
		return errors.Wrap(err, "listing schools")
	}
	if schools == nil {
		schools = []school.School{}
	}
	return ctx.JSON(http.StatusOK, schools)
}
