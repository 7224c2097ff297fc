// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package session

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/platform/constants"
)

func newTestManager(t *testing.T) (*Manager, *MemoryStore, *time.Time) {
	t.Helper()

	store := NewMemoryStore()
	manager := NewManager(store, slog.New(slog.NewTextHandler(io.Discard, nil)), false)

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return current }
	store.now = func() time.Time { return current }

	return manager, store, &current
}

// loadSession runs the Load middleware over a request carrying the cookie
// and returns whatever session reached the inner handler.
func loadSession(t *testing.T, manager *Manager, token string) *Session {
	t.Helper()

	var captured *Session
	handler := manager.Load()(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
		captured = FromContext(request.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/articles", nil)
	if token != "" {
		request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: token})
	}
	handler.ServeHTTP(httptest.NewRecorder(), request)

	return captured
}

func TestManager_EstablishAndLoad(t *testing.T) {
	manager, _, _ := newTestManager(t)

	recorder := httptest.NewRecorder()
	established, err := manager.Establish(context.Background(), recorder, Identity{
		UserID: "u1", Email: "a@b.com", IsAdmin: false,
	}, false, "")
	require.NoError(t, err)
	require.NotEmpty(t, established.Token)

	// The cookie must be HttpOnly and carry the token.
	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.SessionCookieName, cookies[0].Name)
	assert.Equal(t, established.Token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	loaded := loadSession(t, manager, established.Token)
	require.NotNil(t, loaded)
	assert.True(t, loaded.IsAuthenticated())
	assert.Equal(t, "a@b.com", loaded.User.Email)
}

func TestManager_KeepLoggedInExtendsLifetime(t *testing.T) {
	manager, _, _ := newTestManager(t)

	recorder := httptest.NewRecorder()
	short, err := manager.Establish(context.Background(), recorder, Identity{UserID: "u1"}, false, "")
	require.NoError(t, err)
	long, err := manager.Establish(context.Background(), recorder, Identity{UserID: "u2"}, true, "")
	require.NoError(t, err)

	assert.Equal(t, constants.SessionMaxAge, short.MaxAge())
	assert.Equal(t, constants.SessionMaxAgeExtended, long.MaxAge())
}

func TestManager_WarningShownExactlyOnce(t *testing.T) {
	manager, _, clock := newTestManager(t)

	recorder := httptest.NewRecorder()
	established, err := manager.Establish(context.Background(), recorder, Identity{UserID: "u1"}, false, "")
	require.NoError(t, err)

	// Move inside the warning window: 23h into a 24h session.
	*clock = clock.Add(23 * time.Hour)

	first := loadSession(t, manager, established.Token)
	require.NotNil(t, first)
	assert.True(t, first.IsAuthenticated())
	assert.True(t, first.WarningShown)

	flashes := first.PopFlashes()
	require.Len(t, flashes, 1)
	assert.Equal(t, FlashWarning, flashes[0].Kind)
	require.NoError(t, manager.Save(context.Background(), first))

	// A later request in the same window must not re-raise the notice.
	*clock = clock.Add(30 * time.Minute)
	second := loadSession(t, manager, established.Token)
	require.NotNil(t, second)
	assert.True(t, second.WarningShown)
	assert.Empty(t, second.Flashes)
}

func TestManager_ExpiryClearsIdentityAndFlashes(t *testing.T) {
	manager, _, clock := newTestManager(t)

	recorder := httptest.NewRecorder()
	established, err := manager.Establish(context.Background(), recorder, Identity{UserID: "u1"}, false, "")
	require.NoError(t, err)

	*clock = clock.Add(25 * time.Hour)

	loaded := loadSession(t, manager, established.Token)
	require.NotNil(t, loaded)
	assert.False(t, loaded.IsAuthenticated())

	flashes := loaded.PopFlashes()
	require.Len(t, flashes, 1)
	assert.Contains(t, flashes[0].Text, "expired")
}

func TestManager_ExpiryNoticeSurvivesLateReturn(t *testing.T) {
	manager, _, clock := newTestManager(t)

	recorder := httptest.NewRecorder()
	established, err := manager.Establish(context.Background(), recorder, Identity{UserID: "u1"}, false, "")
	require.NoError(t, err)

	// The cookie must outlive the logical 24h lifetime, or the browser
	// discards it before the notice can ever be shown.
	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Greater(t, cookies[0].MaxAge, int(constants.SessionMaxAge.Seconds()))

	// A user coming back almost a full day after expiry still gets the
	// notice: the record is kept for the whole trailing notice window.
	*clock = clock.Add(47 * time.Hour)

	loaded := loadSession(t, manager, established.Token)
	require.NotNil(t, loaded)
	assert.False(t, loaded.IsAuthenticated())

	flashes := loaded.PopFlashes()
	require.Len(t, flashes, 1)
	assert.Contains(t, flashes[0].Text, "expired")

	// The cleared record survives the redirect that renders the notice.
	*clock = clock.Add(time.Minute)
	redirected := loadSession(t, manager, established.Token)
	require.NotNil(t, redirected)
	assert.False(t, redirected.IsAuthenticated())
}

func TestManager_RecordEvictedAfterNoticeWindow(t *testing.T) {
	manager, _, clock := newTestManager(t)

	recorder := httptest.NewRecorder()
	established, err := manager.Establish(context.Background(), recorder, Identity{UserID: "u1"}, false, "")
	require.NoError(t, err)

	// Past lifetime plus the notice window nothing is left to load.
	*clock = clock.Add(49 * time.Hour)

	loaded := loadSession(t, manager, established.Token)
	assert.Nil(t, loaded)
}

func TestManager_DestroyReportsAdmin(t *testing.T) {
	manager, store, _ := newTestManager(t)

	recorder := httptest.NewRecorder()
	established, err := manager.Establish(context.Background(), recorder, Identity{UserID: "u1", IsAdmin: true}, false, "")
	require.NoError(t, err)

	wasAdmin, err := manager.Destroy(context.Background(), httptest.NewRecorder(), established)
	require.NoError(t, err)
	assert.True(t, wasAdmin)

	_, err = store.Get(context.Background(), established.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_UnknownTokenIsAnonymous(t *testing.T) {
	manager, _, _ := newTestManager(t)

	loaded := loadSession(t, manager, "deadbeef")
	assert.Nil(t, loaded)
}

func TestSession_FlashesAreSingleRead(t *testing.T) {
	var s Session
	s.AddFlash(FlashSuccess, "saved")
	s.AddFlash(FlashError, "oops")

	first := s.PopFlashes()
	require.Len(t, first, 2)
	assert.Empty(t, s.PopFlashes())
}
