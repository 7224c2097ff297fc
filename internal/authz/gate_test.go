// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package authz

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/internal/platform/apperr"
	"github.com/inkpress/inkpress/internal/platform/constants"
	"github.com/inkpress/inkpress/internal/session"
	"github.com/inkpress/inkpress/internal/web"
)

type fakeDirectory struct {
	users map[string]*auth.User
}

func (d *fakeDirectory) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, found := d.users[id]; found {
		copied := *user
		return &copied, nil
	}
	return nil, apperr.NotFound("Account")
}

type gateHarness struct {
	gate      *Gate
	sessions  *session.Manager
	store     *session.MemoryStore
	directory *fakeDirectory
}

func newGateHarness(t *testing.T) *gateHarness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	renderer, err := web.NewRenderer(logger)
	require.NoError(t, err)

	store := session.NewMemoryStore()
	sessions := session.NewManager(store, logger, false)
	directory := &fakeDirectory{users: map[string]*auth.User{}}

	return &gateHarness{
		gate:      NewGate(directory, sessions, renderer),
		sessions:  sessions,
		store:     store,
		directory: directory,
	}
}

// signIn creates a stored session for the user and returns its cookie token.
func (h *gateHarness) signIn(t *testing.T, user *auth.User) string {
	t.Helper()

	h.directory.users[user.ID] = user
	established, err := h.sessions.Establish(context.Background(), httptest.NewRecorder(), session.Identity{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	}, false, "")
	require.NoError(t, err)

	return established.Token
}

// request runs Load + the given gate over a path and reports the result.
func (h *gateHarness) request(t *testing.T, gate func(http.Handler) http.Handler, method, path, token, accept string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	reached := false
	inner := http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		reached = true
		writer.WriteHeader(http.StatusOK)
	})

	handler := h.sessions.Load()(gate(inner))

	request := httptest.NewRequest(method, path, nil)
	if token != "" {
		request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: token})
	}
	if accept != "" {
		request.Header.Set("Accept", accept)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder, reached
}

func member(id string) *auth.User {
	return &auth.User{ID: id, Email: id + "@inkpress.test", IsVerified: true}
}

func admin(id string) *auth.User {
	user := member(id)
	user.IsAdmin = true
	return user
}

// # RequireAuth

func TestRequireAuth_AnonymousBrowserIsRedirectedToLogin(t *testing.T) {
	h := newGateHarness(t)

	recorder, reached := h.request(t, h.gate.RequireAuth(), http.MethodGet, "/articles/new", "", "text/html")

	assert.False(t, reached)
	assert.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Equal(t, constants.RouteLogin, recorder.Header().Get("Location"))

	// The challenge stored a return target and a notice for the next page.
	cookie := recorder.Result().Cookies()[0]
	stored, err := h.store.Get(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "/articles/new", stored.RedirectTo)
	require.Len(t, stored.Flashes, 1)
	assert.Equal(t, MsgSignInRequired, stored.Flashes[0].Text)
}

func TestRequireAuth_AnonymousMachineGets401(t *testing.T) {
	h := newGateHarness(t)

	recorder, reached := h.request(t, h.gate.RequireAuth(), http.MethodGet, "/articles/new", "", "application/json")

	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), MsgSignInRequired)
}

func TestRequireAuth_MemberIsAdmitted(t *testing.T) {
	h := newGateHarness(t)
	token := h.signIn(t, member("u1"))

	_, reached := h.request(t, h.gate.RequireAuth(), http.MethodGet, "/articles/new", token, "text/html")
	assert.True(t, reached)
}

func TestRequireAuth_BlockedUserSessionIsDestroyed(t *testing.T) {
	h := newGateHarness(t)
	user := member("u1")
	token := h.signIn(t, user)

	// Block after the session was issued; the gate must notice live.
	h.directory.users["u1"].IsBlocked = true

	recorder, reached := h.request(t, h.gate.RequireAuth(), http.MethodGet, "/articles", token, "text/html")
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	// The session is gone; a retry with the same cookie is anonymous.
	_, err := h.store.Get(context.Background(), token)
	assert.ErrorIs(t, err, session.ErrNotFound)

	recorder, reached = h.request(t, h.gate.RequireAuth(), http.MethodGet, "/articles", token, "text/html")
	assert.False(t, reached)
	assert.Equal(t, http.StatusSeeOther, recorder.Code)
}

// # RequireAdmin

func TestRequireAdmin_MemberIsRedirectedWithWarning(t *testing.T) {
	h := newGateHarness(t)
	token := h.signIn(t, member("u1"))

	recorder, reached := h.request(t, h.gate.RequireAdmin(), http.MethodGet, "/admin", token, "text/html")

	assert.False(t, reached)
	assert.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Equal(t, constants.RouteArticles, recorder.Header().Get("Location"))

	stored, err := h.store.Get(context.Background(), token)
	require.NoError(t, err)
	require.Len(t, stored.Flashes, 1)
	assert.Equal(t, MsgAdminRequired, stored.Flashes[0].Text)
}

func TestRequireAdmin_AdminIsAdmitted(t *testing.T) {
	h := newGateHarness(t)
	token := h.signIn(t, admin("a1"))

	_, reached := h.request(t, h.gate.RequireAdmin(), http.MethodGet, "/admin", token, "text/html")
	assert.True(t, reached)
}

func TestRequireAdmin_AnonymousIsChallengedToAdminLogin(t *testing.T) {
	h := newGateHarness(t)

	recorder, reached := h.request(t, h.gate.RequireAdmin(), http.MethodGet, "/admin", "", "text/html")
	assert.False(t, reached)
	assert.Equal(t, constants.RouteAdminLogin, recorder.Header().Get("Location"))
}

// The two role gates are mutually exclusive for any one request: exactly
// one of them admits, never both and never neither.
func TestRoleGates_MutualExclusivity(t *testing.T) {
	h := newGateHarness(t)
	memberToken := h.signIn(t, member("u1"))
	adminToken := h.signIn(t, admin("a1"))

	_, memberAsUser := h.request(t, h.gate.RequireAuth(), http.MethodGet, "/articles", memberToken, "text/html")
	_, memberAsAdmin := h.request(t, h.gate.RequireAdmin(), http.MethodGet, "/admin", memberToken, "text/html")
	assert.True(t, memberAsUser)
	assert.False(t, memberAsAdmin)

	_, adminAsAdmin := h.request(t, h.gate.RequireAdmin(), http.MethodGet, "/admin", adminToken, "text/html")
	adminRecorder, adminAsUser := h.request(t, h.gate.BlockAdminFromUserRoutes(), http.MethodGet, "/articles", adminToken, "text/html")
	assert.True(t, adminAsAdmin)
	assert.False(t, adminAsUser)
	assert.Equal(t, constants.RouteAdmin, adminRecorder.Header().Get("Location"))
}

// # BlockAdminFromUserRoutes

func TestBlockAdminFromUserRoutes_AllowList(t *testing.T) {
	h := newGateHarness(t)
	token := h.signIn(t, admin("a1"))

	allowed := []string{"/auth/logout", "/auth/admin/login", "/admin/users", "/health", "/static/inkpress.css", "/uploads/x.png"}
	for _, path := range allowed {
		_, reached := h.request(t, h.gate.BlockAdminFromUserRoutes(), http.MethodGet, path, token, "text/html")
		assert.True(t, reached, "expected %s to be allow-listed", path)
	}

	_, reached := h.request(t, h.gate.BlockAdminFromUserRoutes(), http.MethodGet, "/articles", token, "text/html")
	assert.False(t, reached)
}

func TestBlockAdminFromUserRoutes_MembersPassThrough(t *testing.T) {
	h := newGateHarness(t)
	token := h.signIn(t, member("u1"))

	_, reached := h.request(t, h.gate.BlockAdminFromUserRoutes(), http.MethodGet, "/articles", token, "text/html")
	assert.True(t, reached)
}

// # Ownership

func TestAssertOwnership(t *testing.T) {
	owner := "u1"
	other := "u2"

	memberSession := &session.Session{User: &session.Identity{UserID: "u1"}}
	otherSession := &session.Session{User: &session.Identity{UserID: other}}
	adminSession := &session.Session{User: &session.Identity{UserID: "a1", IsAdmin: true}}

	testCases := []struct {
		name    string
		ownerID *string
		current *session.Session
		wantErr bool
	}{
		{"owner may mutate", &owner, memberSession, false},
		{"non-owner may not", &owner, otherSession, true},
		{"admin may mutate anything", &owner, adminSession, false},
		{"orphaned resource is mutable by any member", nil, otherSession, false},
		{"anonymous may not", &owner, nil, true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := AssertOwnership(testCase.ownerID, testCase.current)
			if testCase.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
