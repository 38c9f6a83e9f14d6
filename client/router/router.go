// Package router is the client-side route table: navigation runs the route's guards,
// and only an allowed navigation reaches the route's handler.
package router

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/shafisadique/school-project-sub003/client"
	"github.com/shafisadique/school-project-sub003/client/session"
	"github.com/shafisadique/school-project-sub003/core/auth"
)

const (
	returnURLParam = "returnUrl"
	maxRedirects   = 5
)

var (
	ErrRouteNotFound = errors.New("route not found")
	ErrRedirectLoop  = errors.New("too many redirects")
)

type (
	// Handler activates a route.
	Handler func(ctx context.Context, req Request) error

	Route struct {
		Path    string
		Roles   []auth.Role // empty: any logged-in user (when RequireRoles is among the guards)
		Guards  []Guard
		Handler Handler
	}

	// Request is a navigation being authorized.
	Request struct {
		URL      string // as requested, query included
		Path     string
		Query    url.Values
		Route    *Route
		Session  session.Session
		LoggedIn bool
	}

	Options struct {
		Store       *session.Store
		Notifier    client.Notifier
		LoginPath   string
		DefaultPath string // landing route
		UpgradePath string // where missing entitlements send the user
	}

	Router struct {
		opts   Options
		routes map[string]*Route

		mu      sync.RWMutex
		current string
	}
)

var _ client.Navigator = (*Router)(nil)

func New(opts Options, routes ...Route) *Router {
	r := &Router{opts: opts, routes: make(map[string]*Route, len(routes))}
	for i := range routes {
		route := routes[i]
		r.routes[route.Path] = &route
	}
	return r
}

// CurrentPath is the URL of the latest navigation, query included.
func (r *Router) CurrentPath() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Router) setCurrent(target string) {
	r.mu.Lock()
	r.current = target
	r.mu.Unlock()
}

// Navigate authorizes target and activates its route. A denied navigation follows the guard's redirect.
// It returns the error of the handler finally activated.
func (r *Router) Navigate(ctx context.Context, target string) error {
	for i := 0; i < maxRedirects; i++ {
		req, err := r.newRequest(target)
		if err != nil {
			return err
		}
		// the navigation is current while it is authorized & handled,
		// so requests it triggers know where to come back to
		r.setCurrent(target)

		decision := r.authorize(ctx, req)
		if decision.Err != nil {
			return decision.Err
		}
		if decision.allowed() {
			if req.Route.Handler == nil {
				return nil
			}
			return req.Route.Handler(ctx, req)
		}
		if decision.Notice != "" && r.opts.Notifier != nil {
			r.opts.Notifier.Notify(client.Notice{Level: client.NoticeWarning, Message: decision.Notice})
		}
		target = decision.Redirect
	}
	return ErrRedirectLoop
}

func (r *Router) newRequest(target string) (Request, error) {
	u, err := url.Parse(target)
	if err != nil {
		return Request{}, errors.Wrapf(err, "parsing %q", target)
	}
	route, ok := r.routes[u.Path]
	if !ok {
		return Request{}, errors.Wrap(ErrRouteNotFound, u.Path)
	}
	req := Request{URL: target, Path: u.Path, Query: u.Query(), Route: route}
	if r.opts.Store != nil {
		req.Session, req.LoggedIn = r.opts.Store.Snapshot()
	}
	return req, nil
}

// authorize runs the route's guards in order; the first denial wins.
func (r *Router) authorize(ctx context.Context, req Request) Decision {
	for _, guard := range req.Route.Guards {
		if d := guard(ctx, r, req); !d.allowed() {
			return d
		}
	}
	return Allow()
}

func (r *Router) loginURL(returnURL string) string {
	if returnURL == "" {
		return r.opts.LoginPath
	}
	return r.opts.LoginPath + "?" + url.Values{returnURLParam: {returnURL}}.Encode()
}

// RedirectToLogin navigates to the login page, to come back to returnURL after login.
func (r *Router) RedirectToLogin(ctx context.Context, returnURL string) error {
	if u, err := url.Parse(returnURL); err == nil && u.Path == r.opts.LoginPath {
		returnURL = u.Query().Get(returnURLParam) // already there
	}
	return r.Navigate(ctx, r.loginURL(returnURL))
}

// ResumeAfterLogin navigates to the page that sent the user to login, or to the landing route.
func (r *Router) ResumeAfterLogin(ctx context.Context) error {
	target := r.opts.DefaultPath
	if u, err := url.Parse(r.CurrentPath()); err == nil && u.Path == r.opts.LoginPath {
		if ret := u.Query().Get(returnURLParam); isLocalPath(ret) {
			target = ret
		}
	}
	return r.Navigate(ctx, target)
}

// isLocalPath rejects anything that would leave the app ("//host", "https://...").
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, "://")
}
