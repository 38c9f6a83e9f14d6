package core

import (
	"database/sql"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var errTaken = errors.New("username is taken")

func TestValidationError(t *testing.T) {
	err := errors.Wrap(NewFieldError("username", errTaken), "creating user")

	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Equal(t, "username is taken", vErr.Error())
	assert.Equal(t, map[string]string{"username": "username is taken"}, vErr.FieldMap())
	assert.True(t, errors.Is(err, errTaken))

	bare := &ValidationError{}
	assert.Empty(t, bare.Error())
	assert.Nil(t, bare.FieldMap())
}

func TestWrapDBError(t *testing.T) {
	assert.NoError(t, WrapDBError(nil, "selecting user"))

	err := WrapDBError(errors.New("syntax error"), "selecting user")
	assert.EqualError(t, err, "selecting user: syntax error")
	assert.False(t, IsShutdown(err))

	err = errors.Wrap(WrapDBError(sql.ErrConnDone, "selecting user"), "authenticating")
	assert.True(t, IsShutdown(err))
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.EqualError(t, err, "authenticating: selecting user: "+sql.ErrConnDone.Error())

	assert.True(t, IsShutdown(NewShutdownError("integrity check failed")))
}
