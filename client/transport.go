package client

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/shafisadique/school-project-sub003/client/session"
	"github.com/shafisadique/school-project-sub003/core"
)

// Navigator is the client-side router as seen by the Transport.
type Navigator interface {
	CurrentPath() string
	RedirectToLogin(ctx context.Context, returnURL string) error
}

type anonymousKey struct{}

// Anonymous marks the requests made with ctx as login calls: sent without a token and not guarded,
// whatever their path.
func Anonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey{}, true)
}

func isAnonymous(ctx context.Context) bool {
	anon, _ := ctx.Value(anonymousKey{}).(bool)
	return anon
}

// DefaultSkipPaths are the requests sent without a token and not guarded: the login calls.
var DefaultSkipPaths = []string{"/v1/auth/login", "/v1/superadmin/login"}

// Transport attaches the session token to outgoing requests and unwinds the session
// when the server rejects it (401 or 403).
type Transport struct {
	Base      http.RoundTripper // http.DefaultTransport when nil
	Store     *session.Store
	Navigator Navigator // optional
	Notifier  Notifier  // optional
	Logger    core.Logger
	SkipPaths []string // DefaultSkipPaths when nil
}

var _ http.RoundTripper = (*Transport)(nil)

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) skipped(path string) bool {
	skips := t.SkipPaths
	if skips == nil {
		skips = DefaultSkipPaths
	}
	for _, p := range skips {
		if p == path {
			return true
		}
	}
	return false
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	skip := isAnonymous(req.Context()) || t.skipped(req.URL.Path)

	// each request carries the token as it is at dispatch
	out := req.Clone(req.Context())
	if !skip {
		if s, ok := t.Store.Snapshot(); ok {
			out.Header.Set("Authorization", "Bearer "+s.Token)
		}
	}

	resp, err := t.base().RoundTrip(out)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	if !skip && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		t.unwind(req.Context())
	}
	return resp, nil
}

// unwind logs the user out and sends them to the login page, back to where they were afterwards.
func (t *Transport) unwind(ctx context.Context) {
	if err := t.Store.Clear(); err != nil {
		t.logError("clearing session", err)
	}
	notify(t.Notifier, NoticeWarning, SessionExpiredNotice)
	if t.Navigator == nil {
		return
	}
	if err := t.Navigator.RedirectToLogin(ctx, t.Navigator.CurrentPath()); err != nil {
		t.logError("redirecting to login", err)
	}
}

func (t *Transport) logError(msg string, err error) {
	if t.Logger != nil {
		t.Logger.Error(msg, errors.Wrap(err, msg))
	}
}
