// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/inkpress/inkpress/internal/platform/constants"
	"github.com/inkpress/inkpress/internal/platform/ctxkey"
	"github.com/inkpress/inkpress/internal/platform/ctxutil"
	"github.com/inkpress/inkpress/internal/platform/sec"
)

// sessionTokenBytes is the entropy of the opaque cookie token.
const sessionTokenBytes = 32

// expiredNoticeWindow is how long past its logical lifetime a session
// record (and its cookie) stays around so that a late request still
// triggers the expiry transition and its notice. Expiry itself is
// enforced server-side by IsExpired, never by storage eviction.
const expiredNoticeWindow = 24 * time.Hour

// expiredGraceTTL keeps a logically expired record alive long enough to
// deliver its expiry notice on the next page load.
const expiredGraceTTL = 10 * time.Minute

// Manager owns the session lifecycle: establishment at login, the
// per-request expiry state machine, and teardown.
type Manager struct {
	store         Store
	logger        *slog.Logger
	secureCookies bool

	// now is swappable for lifecycle tests.
	now func() time.Time
}

// NewManager creates a session manager on top of the given store.
// secureCookies should be true in any TLS-terminated environment.
func NewManager(store Store, logger *slog.Logger, secureCookies bool) *Manager {
	return &Manager{
		store:         store,
		logger:        logger,
		secureCookies: secureCookies,
		now:           time.Now,
	}
}

// FromContext returns the session attached to the request, or nil.
func FromContext(ctx context.Context) *Session {
	if session, ok := ctx.Value(ctxkey.KeySession).(*Session); ok {
		return session
	}
	return nil
}

// # Per-Request Loading

/*
Load is the middleware that resolves the session cookie on every request
and runs the expiry state machine before any route-level authorization.

State transitions applied here:

  - Expired: the user identity is cleared, an expiry notice is flashed,
    and the record is kept briefly so the notice survives one redirect.
  - Warning: within the warning window a one-time relogin notice is
    flashed and marked shown.

Store failures degrade to an unauthenticated request rather than a 500;
the user re-authenticates instead of being locked out of public pages.
*/
func (m *Manager) Load() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()

			cookie, err := request.Cookie(constants.SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(writer, request)
				return
			}

			loaded, err := m.store.Get(ctx, cookie.Value)
			if err != nil {
				if !errors.Is(err, ErrNotFound) {
					ctxutil.GetLogger(ctx).Warn("session load failed", slog.Any("error", err))
				}
				m.clearCookie(writer)
				next.ServeHTTP(writer, request)
				return
			}

			now := m.now()
			switch {
			case loaded.IsAuthenticated() && loaded.IsExpired(now):
				// Logical expiry: drop the identity but keep the record
				// one more round trip to carry the notice.
				loaded.User = nil
				loaded.AddFlash(FlashWarning, "Your session has expired. Please sign in again.")
				if err := m.store.Set(ctx, loaded, expiredGraceTTL); err != nil {
					ctxutil.GetLogger(ctx).Warn("session expiry save failed", slog.Any("error", err))
				}

			case loaded.IsAuthenticated() && loaded.InWarningWindow(now) && !loaded.WarningShown:
				loaded.WarningShown = true
				loaded.AddFlash(FlashWarning, "Your session will expire soon. Please sign in again to stay logged in.")
				if err := m.Save(ctx, loaded); err != nil {
					ctxutil.GetLogger(ctx).Warn("session warning save failed", slog.Any("error", err))
				}
			}

			ctx = context.WithValue(ctx, ctxkey.KeySession, loaded)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Establishment & Teardown

/*
Establish creates a new authenticated session and sets its cookie.

# Parameters
  - identity: The user snapshot to bind to the session.
  - keepLoggedIn: Extends the lifetime from 24 hours to 7 days.
  - redirectTo: Optional post-login destination carried over from an
    authentication challenge.
*/
func (m *Manager) Establish(ctx context.Context, writer http.ResponseWriter, identity Identity, keepLoggedIn bool, redirectTo string) (*Session, error) {
	token, err := sec.GenerateToken(sessionTokenBytes)
	if err != nil {
		return nil, err
	}

	created := &Session{
		Token:        token,
		User:         &identity,
		LoginTime:    m.now(),
		KeepLoggedIn: keepLoggedIn,
		RedirectTo:   redirectTo,
	}

	// Both the record and the cookie outlive the logical lifetime by the
	// notice window; a request arriving after maxAge must still find the
	// record so the expiry transition can run.
	if err := m.store.Set(ctx, created, created.MaxAge()+expiredNoticeWindow); err != nil {
		return nil, err
	}

	m.setCookie(writer, token, int((created.MaxAge() + expiredNoticeWindow).Seconds()))

	m.logger.Info("session established",
		slog.String("user_id", identity.UserID),
		slog.Bool("keep_logged_in", keepLoggedIn),
	)

	return created, nil
}

// Ensure returns the request's session, creating an anonymous record (no
// user identity) when none exists. Anonymous sessions exist so flashes and
// redirect targets survive the next redirect for signed-out visitors; the
// cookie is a browser-session cookie, not a persistent one.
func (m *Manager) Ensure(ctx context.Context, writer http.ResponseWriter, current *Session) (*Session, error) {
	if current != nil {
		return current, nil
	}

	token, err := sec.GenerateToken(sessionTokenBytes)
	if err != nil {
		return nil, err
	}

	created := &Session{
		Token:     token,
		LoginTime: m.now(),
	}

	if err := m.store.Set(ctx, created, constants.SessionMaxAge); err != nil {
		return nil, err
	}

	m.setCookie(writer, token, 0)
	return created, nil
}

// Save persists in-place mutations (flashes, warning flag, redirect target)
// without touching the session's lifetime. Authenticated records keep their
// trailing notice window; anything already past it lives one more grace
// period so a pending flash still gets delivered.
func (m *Manager) Save(ctx context.Context, session *Session) error {
	remaining := session.ExpiresAt().Sub(m.now()) + expiredNoticeWindow
	if remaining < expiredGraceTTL {
		remaining = expiredGraceTTL
	}
	return m.store.Set(ctx, session, remaining)
}

// Destroy removes the session record and expires the cookie. It reports
// whether the destroyed session belonged to an administrator so the
// caller can pick the right re-login page.
func (m *Manager) Destroy(ctx context.Context, writer http.ResponseWriter, session *Session) (wasAdmin bool, err error) {
	if session == nil {
		return false, nil
	}

	wasAdmin = session.IsAdmin()
	if err := m.store.Delete(ctx, session.Token); err != nil {
		return wasAdmin, err
	}

	m.clearCookie(writer)
	return wasAdmin, nil
}

// # Cookie Handling

func (m *Manager) setCookie(writer http.ResponseWriter, token string, maxAgeSeconds int) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     constants.SessionCookiePath,
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		Secure:   m.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) clearCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
