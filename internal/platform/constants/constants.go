// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: Session cookie configuration and credential windows.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "inkpress-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Sessions

const (
	// SessionCookieName is the name of the cookie holding the opaque session token.
	SessionCookieName = "inkpress_sid"

	// SessionCookiePath scopes the cookie to the whole site.
	SessionCookiePath = "/"

	// SessionMaxAge is the lifetime of an ordinary session.
	SessionMaxAge = 24 * time.Hour

	// SessionMaxAgeExtended is the lifetime when "keep me logged in" is chosen.
	SessionMaxAgeExtended = 7 * 24 * time.Hour

	// SessionWarningWindow is how long before expiry the one-time
	// "relogin soon" notice is raised.
	SessionWarningWindow = 2 * time.Hour
)

// # Credential Windows

const (
	// OTPExpiry bounds the validity of an email verification code.
	OTPExpiry = 10 * time.Minute

	// ResetTokenExpiry bounds the validity of a password-reset token.
	ResetTokenExpiry = 1 * time.Hour

	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # Route Areas

const (
	// RouteArticles is the default landing area for signed-in members.
	RouteArticles = "/articles"

	// RouteAdmin is the landing area for administrators.
	RouteAdmin = "/admin"

	// RouteLogin is the member sign-in form.
	RouteLogin = "/auth/login"

	// RouteAdminLogin is the administrator sign-in form.
	RouteAdminLogin = "/auth/admin/login"

	// RouteSignup is the start of the registration flow.
	RouteSignup = "/auth/signup"

	// RouteVerify is the OTP verification form.
	RouteVerify = "/auth/verify"

	// RouteForgotPassword is the password recovery entry form.
	RouteForgotPassword = "/auth/forgot-password"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixSession = "session:"
)

// # JSON Field Identifiers

const (
	FieldError   = "error"
	FieldErrors  = "errors"
	FieldCode    = "code"
	FieldMessage = "message"
	FieldStatus  = "status"
)
