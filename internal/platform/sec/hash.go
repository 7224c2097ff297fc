// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

// Package sec provides cryptographic primitives for credential handling.
//
// # Architecture
//
// This package isolates security-sensitive code (slow hashing, secure random
// generation) from the domain logic. Passwords, one-time codes, and reset
// tokens are all stored exclusively as bcrypt hashes; the plaintext exists
// only in-flight for out-of-band delivery.
package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret hashes a plain-text secret (password, OTP, or reset token)
// using the bcrypt algorithm.
//
// Default cost balances security and CPU utilization during signup spikes.
func HashSecret(plaintext string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash secret: %w", err)
	}
	return string(hashedBytes), nil
}

// CompareSecret compares a plain-text secret with its stored bcrypt hash.
//
// bcrypt performs a constant-time comparison internally, preventing timing
// attacks on any of the credential kinds.
func CompareSecret(plaintext, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plaintext))
	return err == nil
}
