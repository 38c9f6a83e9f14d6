package core

import (
	"database/sql"

	"github.com/pkg/errors"
)

// FieldError is the message of one invalid request field, keyed by its JSON name.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a request the domain refused for bad data. It maps to a 400.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

// NewFieldError reports err against a single field, with err's text as the field message.
func NewFieldError(field string, err error) error {
	return NewValidationError(err, FieldError{Field: field, Error: err.Error()})
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err *ValidationError) Unwrap() error { return err.Err }

// FieldMap returns the field messages as they go in an error response; nil when there are none.
func (err *ValidationError) FieldMap() map[string]string {
	if len(err.Fields) == 0 {
		return nil
	}
	flds := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		flds[f.Field] = f.Error
	}
	return flds
}

// shutdown is an error the API cannot recover from: serving it stops the server.
type shutdown struct {
	message string
	cause   error
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s *shutdown) Error() string {
	if s.cause == nil {
		return s.message
	}
	return s.message + ": " + s.cause.Error()
}

func (s *shutdown) Unwrap() error { return s.cause }

func IsShutdown(err error) bool {
	var s *shutdown
	return errors.As(err, &s)
}

// WrapDBError annotates a storage error with msg. A closed connection pool is a shutdown error.
func WrapDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) {
		return &shutdown{message: msg, cause: err}
	}
	return errors.Wrap(err, msg)
}
