package echoapi

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/testutil"
)

func Test_appHTTPErrorHandler(t *testing.T) {
	_, translator := core.NewValidator()
	tests := []struct {
		name         string
		err          error
		wantCode     int
		wantMsg      string
		wantErrors   map[string]string
		wantShutdown bool
	}{
		{
			name:       "field error",
			err:        errors.Wrap(core.NewFieldError("email", errors.New("email is taken")), "creating"),
			wantCode:   http.StatusBadRequest,
			wantMsg:    "email is taken",
			wantErrors: map[string]string{"email": "email is taken"},
		},
		{
			name:     "server error",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantMsg:  http.StatusText(http.StatusInternalServerError),
		},
		{
			name:         "closed database",
			err:          errors.Wrap(core.WrapDBError(sql.ErrConnDone, "selecting user"), "authenticating"),
			wantCode:     http.StatusInternalServerError,
			wantMsg:      http.StatusText(http.StatusInternalServerError),
			wantShutdown: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &testutil.Logger{}
			shutdown := false
			handler := newAppHTTPErrorHandler(logger, translator, func() { shutdown = true })

			req, rec := newRequest(http.MethodGet, "/")
			handler(tt.err, echo.New().NewContext(req, rec))

			assert.Equal(t, tt.wantCode, rec.Code)
			want := marshallObj(t, ErrorResponse{Success: false, Message: tt.wantMsg, Errors: tt.wantErrors})
			ok, err := jsonBytesEqual(rec.Body.Bytes(), want)
			assert.NoError(t, err)
			assert.True(t, ok, rec.Body.String())
			assert.Equal(t, tt.wantShutdown, shutdown)
			assert.Equal(t, tt.wantCode == http.StatusInternalServerError, len(logger.Entries("error")) == 1)
		})
	}
}

