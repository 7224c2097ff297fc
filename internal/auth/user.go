// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

// Package auth implements the credential store and the account lifecycle:
// signup, email verification by one-time code, login, password recovery.
//
// # Architecture
//
// The User entity is the "Truth" of the account subsystem. It has no
// dependencies on outer layers; the workflow rules live in [Service] and
// persistence behind [UserRepository].
package auth

import (
	"time"
)

// User represents a registered Inkpress account.
//
// # Rules
//   - Email is unique; comparisons are case-insensitive.
//   - PasswordHash is nil until the email is verified; a user without a
//     password is never verified.
//   - At most one one-time code is active per user; issuing a new code
//     overwrites the previous one.
//   - Blocking is reversible and carries an audit trail.
type User struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	PasswordHash *string `json:"-"` // Explicitly omitted from JSON for security.

	// One-time verification code, stored hashed.
	OTPHash      *string    `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`

	// Password-reset token, stored hashed.
	ResetTokenHash      *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`

	IsVerified bool `json:"is_verified"`
	IsAdmin    bool `json:"is_admin"`

	IsBlocked bool       `json:"is_blocked"`
	BlockedAt *time.Time `json:"blocked_at,omitempty"`
	BlockedBy *string    `json:"blocked_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPassword reports whether the account has completed verification far
// enough to hold a password hash.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// HasActiveOTP reports whether a one-time code is stored and not yet expired.
func (u *User) HasActiveOTP(now time.Time) bool {
	return u.OTPHash != nil && u.OTPExpiresAt != nil && now.Before(*u.OTPExpiresAt)
}

// ClearOTP removes the one-time code state after successful verification.
func (u *User) ClearOTP() {
	u.OTPHash = nil
	u.OTPExpiresAt = nil
}

// ClearResetToken removes the reset-token state after a successful reset.
func (u *User) ClearResetToken() {
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
}
