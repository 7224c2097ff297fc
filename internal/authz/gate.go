// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

/*
Package authz implements the route-level authorization gates.

Three gates cover the whole route surface:

  - RequireAuth: authenticated users only, with a live blocked re-check.
  - RequireAdmin: administrators only.
  - BlockAdminFromUserRoutes: keeps signed-in administrators out of the
    ordinary member area so they never accidentally operate as end users.

Every decision is negotiated: machine clients get structured 401/403 JSON,
browsers get a redirect with a flash notice or a rendered page.
*/
package authz

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/internal/platform/apperr"
	"github.com/inkpress/inkpress/internal/platform/constants"
	"github.com/inkpress/inkpress/internal/platform/ctxutil"
	"github.com/inkpress/inkpress/internal/platform/respond"
	"github.com/inkpress/inkpress/internal/session"
	"github.com/inkpress/inkpress/internal/web"
)

// Gate decision messages.
const (
	MsgSignInRequired = "Please sign in to continue."
	MsgAdminRequired  = "Administrator access required."
	MsgAdminArea      = "Administrators use the admin area."
	MsgNotOwner       = "You do not have permission to perform this action."
)

// UserDirectory is the live account lookup the gates re-check against.
// Block status can change after a session was issued, so the flag is read
// fresh on every guarded request instead of trusting the login snapshot.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*auth.User, error)
}

// Gate evaluates access decisions against the session and the live
// account record.
type Gate struct {
	users    UserDirectory
	sessions *session.Manager
	renderer *web.Renderer
}

// NewGate wires the authorization gates to their collaborators.
func NewGate(users UserDirectory, sessions *session.Manager, renderer *web.Renderer) *Gate {
	return &Gate{users: users, sessions: sessions, renderer: renderer}
}

// adminAllowList names the route prefixes an administrator may reach
// outside the admin area: teardown, the admin subtree itself, health
// probes, static assets, and upload retrieval.
var adminAllowList = []string{
	"/auth/logout",
	"/auth/admin",
	"/admin",
	"/health",
	"/ready",
	"/static/",
	"/uploads",
}

// # Gates

// RequireAuth admits only requests with an authenticated, unblocked user.
//
// The blocked flag is re-read from the directory on every call; a blocked
// account's session is forcibly destroyed rather than silently admitted
// or left usable.
func (g *Gate) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			current := session.FromContext(request.Context())

			if !current.IsAuthenticated() {
				g.challenge(writer, request, constants.RouteLogin)
				return
			}

			if !g.admitLiveUser(writer, request, current) {
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequireAdmin admits only authenticated administrators. A signed-in
// member is sent back to the content area with a warning, not just
// rejected; the two role gates never both pass for one request.
func (g *Gate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			current := session.FromContext(request.Context())

			if !current.IsAuthenticated() {
				g.challenge(writer, request, constants.RouteAdminLogin)
				return
			}

			if !g.admitLiveUser(writer, request, current) {
				return
			}

			if !current.IsAdmin() {
				if respond.WantsJSON(request) {
					respond.Error(writer, request, apperr.Forbidden(MsgAdminRequired))
					return
				}
				current.AddFlash(session.FlashWarning, MsgAdminRequired)
				_ = g.sessions.Save(request.Context(), current)
				http.Redirect(writer, request, constants.RouteArticles, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// BlockAdminFromUserRoutes redirects signed-in administrators away from
// the ordinary member area, except for the explicit allow-list.
func (g *Gate) BlockAdminFromUserRoutes() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			current := session.FromContext(request.Context())

			if current.IsAdmin() && !isAllowListed(request.URL.Path) {
				if respond.WantsJSON(request) {
					respond.Error(writer, request, apperr.Forbidden(MsgAdminArea))
					return
				}
				http.Redirect(writer, request, constants.RouteAdmin, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

func isAllowListed(path string) bool {
	for _, prefix := range adminAllowList {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// # Ownership

// AssertOwnership decides whether the session user may mutate a resource.
//
// Administrators always may. A resource with no recorded owner is mutable
// by any authenticated user. Otherwise the caller must be the owner.
func AssertOwnership(ownerID *string, current *session.Session) error {
	if !current.IsAuthenticated() {
		return apperr.Unauthorized(MsgSignInRequired)
	}
	if current.IsAdmin() {
		return nil
	}
	if ownerID == nil {
		return nil
	}
	if *ownerID == current.User.UserID {
		return nil
	}
	return apperr.Forbidden(MsgNotOwner)
}

// # Decision Plumbing

// admitLiveUser re-reads the account and enforces the blocked flag,
// destroying the session when the account is gone or blocked. Returns
// true when the request may proceed.
func (g *Gate) admitLiveUser(writer http.ResponseWriter, request *http.Request, current *session.Session) bool {
	ctx := request.Context()

	user, err := g.users.FindByID(ctx, current.User.UserID)
	if err != nil {
		// Account deleted out from under the session: treat as signed out.
		if apperr.IsCode(err, "NOT_FOUND") {
			_, _ = g.sessions.Destroy(ctx, writer, current)
			g.challenge(writer, request, constants.RouteLogin)
			return false
		}
		ctxutil.GetLogger(ctx).Error("authz directory lookup failed", slog.Any("error", err))
		respond.Error(writer, request, apperr.Internal(err))
		return false
	}

	if user.IsBlocked {
		if _, err := g.sessions.Destroy(ctx, writer, current); err != nil {
			ctxutil.GetLogger(ctx).Error("blocked session teardown failed", slog.Any("error", err))
		}
		if respond.WantsJSON(request) {
			respond.Error(writer, request, apperr.Forbidden(auth.MsgAccountBlocked))
			return false
		}
		g.renderer.Render(writer, http.StatusForbidden, "blocked", web.Page{Title: "Account blocked"})
		return false
	}

	return true
}

// challenge rejects an unauthenticated request: 401 for machine clients,
// redirect-to-login with a stored return target for browsers.
func (g *Gate) challenge(writer http.ResponseWriter, request *http.Request, loginRoute string) {
	if respond.WantsJSON(request) {
		respond.Error(writer, request, apperr.Unauthorized(MsgSignInRequired))
		return
	}

	ctx := request.Context()
	current, err := g.sessions.Ensure(ctx, writer, session.FromContext(ctx))
	if err == nil {
		// Remember where the challenge interrupted the user, but only for
		// idempotent navigation.
		if request.Method == http.MethodGet {
			current.RedirectTo = request.URL.RequestURI()
		}
		current.AddFlash(session.FlashWarning, MsgSignInRequired)
		_ = g.sessions.Save(ctx, current)
	}

	http.Redirect(writer, request, loginRoute, http.StatusSeeOther)
}
