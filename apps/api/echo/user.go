package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/auth"
	"github.com/shafisadique/school-project-sub003/core/user"
)

const (
	forgotPasswordMsg = "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."
	resetPasswordMsg = "Password has been reset with the new password."
)

type userApi struct {
	domain   *auth.Domain
	svc      user.ServiceInterface
	limiter  core.AttemptLimiter
	logger   core.Logger
	metrics  *Metrics
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, api *userApi) {
	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.POST("/forgot-password", api.forgotPassword)
	ag.POST("/reset-password", api.resetPassword)

	// authed endpoints
	authed := authMiddlewares(api.domain, api.metrics)
	ag.POST("/token-refresh", api.refreshToken, authed...)
	ag.GET("/me", api.me, authed...)

	g.GET("/admin/ping", api.adminPing, append(authed, rolesMiddleware(auth.RoleAdmin))...)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	key := api.domain.Name() + ":" + data.Identifier
	if locked := checkLockout(ctx, api.limiter, api.logger, key); locked != nil {
		api.metrics.login(api.domain.Name(), loginLocked)
		return locked
	}

	usr, err := api.svc.Authenticate(reqCtx, data.Identifier, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case auth.ErrInvalidCredentials:
			api.metrics.login(api.domain.Name(), loginFailure)
			recordFailure(ctx, api.limiter, api.logger, key)
			return auth.ErrInvalidCredentials
		case user.ErrAccountDeactivated:
			api.metrics.login(api.domain.Name(), loginDeactivated)
			return user.ErrAccountDeactivated
		}
		return errors.Wrap(err, "authenticating")
	}
	resetAttempts(ctx, api.limiter, api.logger, key)

	token, claims, err := api.domain.Issue(usr.Subject())
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	api.metrics.login(api.domain.Name(), loginSuccess)
	return ctx.JSON(http.StatusOK, newTokenResponse(token, claims))
}

func (api *userApi) forgotPassword(ctx echo.Context) error {
	var data ForgotPasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ForgotPasswordRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	switch errors.Cause(err) {
	case nil:
		api.metrics.passwordResetStage(resetRequested)
	case user.ErrNotFound, user.ErrAccountDeactivated:
	default:
		// do not return errors to attackers
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: forgotPasswordMsg})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data user.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		if errors.Cause(err) == auth.ErrInvalidOrExpiredResetToken {
			api.metrics.passwordResetStage(resetRejected)
			return auth.ErrInvalidOrExpiredResetToken
		}
		return errors.Wrap(err, "resetting password")
	}
	api.metrics.passwordResetStage(resetCompleted)
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: resetPasswordMsg})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	claims, err := contextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.domain.CanRefresh(claims); err != nil {
		return err
	}

	usr, err := api.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUnauthorized
		}
		return errors.Wrap(err, "finding user by ID")
	}
	// check if user is still active
	if !usr.IsActive {
		return user.ErrAccountDeactivated
	}

	token, newClaims, err := api.domain.Issue(usr.Subject(), claims.OrigIssuedAt)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, newTokenResponse(token, newClaims))
}

func (api *userApi) me(ctx echo.Context) error {
	claims, err := contextClaims(ctx)
	if err != nil {
		return err
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUnauthorized
		}
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) adminPing(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "pong"})
}

type (
	LoginRequest struct {
		Identifier string `json:"identifier" validate:"required"`
		Password   string `json:"password" validate:"required"`
	}

	ForgotPasswordRequest struct {
		Email string `json:"email" validate:"required"`
	}

	SuccessResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Identifier = core.CleanString(lr.Identifier, true /* lower */)
	return validate.Struct(lr)
}

func (fr *ForgotPasswordRequest) Validate(validate *validator.Validate) error {
	fr.Email = core.CleanString(fr.Email, true /* lower */)
	return validate.Struct(fr)
}
