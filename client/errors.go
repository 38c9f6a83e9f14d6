package client

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// APIError is a response the server answered with a 4xx or 5xx status.
type APIError struct {
	Status  int
	Message string
	Errors  map[string]string // field errors, if any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// NetworkError is a request that got no response at all (connectivity, CORS, cancelled context).
// It never means the session is invalid.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsUnauthorized(err error) bool { return statusOf(err) == http.StatusUnauthorized }

func IsForbidden(err error) bool { return statusOf(err) == http.StatusForbidden }

func IsNetworkFailure(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
