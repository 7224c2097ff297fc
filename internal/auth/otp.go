// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package auth

import (
	"time"

	"github.com/inkpress/inkpress/internal/platform/constants"
	"github.com/inkpress/inkpress/internal/platform/sec"
)

// otpCheck is the outcome of comparing a supplied one-time code against
// the stored state. Expiry is distinguished from a plain mismatch because
// the workflow self-heals on expiry (re-issue and resend) instead of
// rejecting.
type otpCheck int

const (
	otpValid otpCheck = iota
	otpInvalid
	otpExpired
)

// issueOTP generates a fresh six-digit code, stores its hash and a
// ten-minute expiry on the user, and returns the plaintext for delivery.
//
// Any previous code is overwritten unconditionally: at most one code is
// ever active per account.
func issueOTP(user *User, now time.Time) (string, error) {
	code, err := sec.GenerateOTP()
	if err != nil {
		return "", err
	}

	hash, err := sec.HashSecret(code)
	if err != nil {
		return "", err
	}

	expiresAt := now.Add(constants.OTPExpiry)
	user.OTPHash = &hash
	user.OTPExpiresAt = &expiresAt

	return code, nil
}

// checkOTP compares the supplied code against the stored state.
// Fails closed: no stored code reads as invalid.
func checkOTP(user *User, suppliedCode string, now time.Time) otpCheck {
	if user.OTPHash == nil || user.OTPExpiresAt == nil {
		return otpInvalid
	}
	if now.After(*user.OTPExpiresAt) {
		return otpExpired
	}
	if !sec.CompareSecret(suppliedCode, *user.OTPHash) {
		return otpInvalid
	}
	return otpValid
}
