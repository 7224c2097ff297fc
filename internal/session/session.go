// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

/*
Package session implements server-side browser sessions keyed by an opaque
cookie token.

A session is created at login (or at signup verification, which signs the
user in directly), carried across requests through the session store, and
torn down on logout, on expiry, or when the account is found to be blocked.

Lifecycle per request (the Load middleware):

  - No cookie, or unknown token: the request proceeds unauthenticated.
  - Active: the session is attached to the request context.
  - Warning: within two hours of expiry a one-time "sign in again soon"
    notice is flashed; the notice is never repeated for the same login.
  - Expired: the user identity is cleared but the record survives one more
    round trip so the expiry notice can be flashed; the request proceeds
    unauthenticated.

Flash messages are single-read: popped into the response and deleted from
the session in the same request cycle.
*/
package session

import (
	"time"

	"github.com/inkpress/inkpress/internal/platform/constants"
)

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

// Flash is a one-time notification attached to a session.
type Flash struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Identity is the user snapshot taken at login time.
type Identity struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// Session is the server-side state behind one browser cookie.
type Session struct {
	// Token is the opaque cookie value; it doubles as the store key and
	// is never serialized into the stored payload.
	Token string `json:"-"`

	// User is nil once the session has logically expired.
	User *Identity `json:"user,omitempty"`

	LoginTime    time.Time `json:"login_time"`
	KeepLoggedIn bool      `json:"keep_logged_in"`

	// WarningShown records that the one-time relogin notice was raised.
	WarningShown bool `json:"warning_shown"`

	// RedirectTo remembers where an authentication challenge interrupted
	// the user, so login can send them back.
	RedirectTo string `json:"redirect_to,omitempty"`

	Flashes []Flash `json:"flashes,omitempty"`
}

// IsAuthenticated reports whether the session carries a live user identity.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.User != nil
}

// IsAdmin reports whether the session user is an administrator.
func (s *Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.User.IsAdmin
}

// MaxAge is the total lifetime granted at login.
func (s *Session) MaxAge() time.Duration {
	if s.KeepLoggedIn {
		return constants.SessionMaxAgeExtended
	}
	return constants.SessionMaxAge
}

// ExpiresAt is the instant the session stops being authenticated.
func (s *Session) ExpiresAt() time.Time {
	return s.LoginTime.Add(s.MaxAge())
}

// IsExpired reports whether the session age exceeds its max age.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt())
}

// InWarningWindow reports whether the session is close enough to expiry
// that the relogin notice should be considered.
func (s *Session) InWarningWindow(now time.Time) bool {
	return now.After(s.ExpiresAt().Add(-constants.SessionWarningWindow))
}

// AddFlash queues a one-time notification.
func (s *Session) AddFlash(kind, text string) {
	s.Flashes = append(s.Flashes, Flash{Kind: kind, Text: text})
}

// PopFlashes returns all queued notifications and clears them.
func (s *Session) PopFlashes() []Flash {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}
