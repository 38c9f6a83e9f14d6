package echoapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/auth"
	"github.com/shafisadique/school-project-sub003/core/superadmin"
	"github.com/shafisadique/school-project-sub003/core/user"
)

const invalidDataMsg = "invalid data"

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, auth.ErrUnauthorized.Error())
	errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")
)

type (
	// ErrorResponse is the body of every failed request.
	ErrorResponse struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors,omitempty"`
	}

	rateLimitedError struct {
		retryAfter time.Duration
	}
)

func (e *rateLimitedError) Error() string {
	return "too many failed login attempts, try again later"
}

func (e *rateLimitedError) retryAfterSeconds() string {
	secs := int((e.retryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// authErrorStatus maps the auth error taxonomy to HTTP status codes.
func authErrorStatus(err error) (int, bool) {
	switch err {
	case auth.ErrInvalidCredentials, auth.ErrUnauthorized:
		return http.StatusUnauthorized, true
	case auth.ErrForbidden, auth.ErrRefreshExpired, user.ErrAccountDeactivated:
		return http.StatusForbidden, true
	case auth.ErrInvalidOrExpiredResetToken:
		return http.StatusBadRequest, true
	case user.ErrNotFound, superadmin.ErrNotFound:
		return http.StatusNotFound, true
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		resp := ErrorResponse{Success: false}
		var code int

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			resp.Message = fmt.Sprint(origErr.Message)
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			resp.Message = invalidDataMsg
			resp.Errors = core.TranslateValidationErrors(origErr, translator)
		case *core.ValidationError:
			code = http.StatusBadRequest
			resp.Message = origErr.Error()
			if resp.Message == "" {
				resp.Message = invalidDataMsg
			}
			resp.Errors = origErr.FieldMap()
		case *rateLimitedError:
			code = http.StatusTooManyRequests
			resp.Message = origErr.Error()
			ctx.Response().Header().Set("Retry-After", origErr.retryAfterSeconds())
		default:
			if status, ok := authErrorStatus(origErr); ok {
				code = status
				resp.Message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			resp.Message = http.StatusText(http.StatusInternalServerError)

			var person core.Person
			if claims, cErr := contextClaims(ctx); cErr == nil {
				person = core.Person{ID: claims.Subject, Username: claims.Username, Email: claims.Email}
			}
			logger.Error(resp.Message, errors.Wrap(err, resp.Message), person)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
			if ctx.Echo().Debug {
				resp.Message = err.Error()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
