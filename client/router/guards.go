package router

import (
	"context"

	"github.com/shafisadique/school-project-sub003/client"
)

// Decision is what a guard says about a navigation. The zero value allows it.
type Decision struct {
	Redirect string
	Notice   string
	Err      error // ends the navigation where it is
}

func Allow() Decision { return Decision{} }

func RedirectTo(path, notice string) Decision {
	return Decision{Redirect: path, Notice: notice}
}

// Stop ends the navigation with err, without redirecting.
func Stop(err error) Decision {
	return Decision{Err: err}
}

func (d Decision) allowed() bool { return d.Redirect == "" && d.Err == nil }

// Guard is a predicate over a navigation.
type Guard func(ctx context.Context, r *Router, req Request) Decision

// EntitlementChecker tells whether the current school has a feature. *client.Client is one.
type EntitlementChecker interface {
	Feature(ctx context.Context, feature string) (bool, error)
}

// RequireLogin sends anonymous users to login, to come back to the requested URL.
func RequireLogin() Guard {
	return func(_ context.Context, r *Router, req Request) Decision {
		if req.LoggedIn {
			return Allow()
		}
		return RedirectTo(r.loginURL(req.URL), "")
	}
}

// RequireRoles sends users whose role the route does not declare to the landing route.
// The session is kept.
func RequireRoles() Guard {
	return func(_ context.Context, r *Router, req Request) Decision {
		if !req.LoggedIn {
			return RedirectTo(r.loginURL(req.URL), "")
		}
		if len(req.Route.Roles) == 0 {
			return Allow()
		}
		for _, role := range req.Route.Roles {
			if req.Session.Role == role {
				return Allow()
			}
		}
		return RedirectTo(r.opts.DefaultPath, client.NotAllowedNotice)
	}
}

// RequireEntitlement asks the backend whether the school has feature.
// No answer is a denial. A rejected session has already been sent to login by the client's transport.
func RequireEntitlement(checker EntitlementChecker, feature string) Guard {
	return func(ctx context.Context, r *Router, req Request) Decision {
		ok, err := checker.Feature(ctx, feature)
		if client.IsUnauthorized(err) || client.IsForbidden(err) {
			return Stop(err)
		}
		if err != nil || !ok {
			return RedirectTo(r.opts.UpgradePath, client.UpgradeNotice)
		}
		return Allow()
	}
}
