// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package auth

import (
	"context"
	"time"

	"github.com/inkpress/inkpress/internal/platform/constants"
	"github.com/inkpress/inkpress/internal/platform/sec"
)

// resetTokenBytes gives a 256-bit token, rendered as 64 hex characters.
const resetTokenBytes = 32

// issueResetToken generates a fresh reset token, stores its hash and a
// one-hour expiry on the user, and returns the plaintext for embedding
// in the reset URL.
func issueResetToken(user *User, now time.Time) (string, error) {
	token, err := sec.GenerateToken(resetTokenBytes)
	if err != nil {
		return "", err
	}

	hash, err := sec.HashSecret(token)
	if err != nil {
		return "", err
	}

	expiresAt := now.Add(constants.ResetTokenExpiry)
	user.ResetTokenHash = &hash
	user.ResetTokenExpiresAt = &expiresAt

	return token, nil
}

// findUserByResetToken resolves a plaintext reset token to its account.
//
// Tokens are hashed at rest, so there is no indexed lookup: every account
// with a live token is fetched and the supplied plaintext is compared
// against each stored hash. The scan bounds itself to non-expired tokens,
// which keeps the candidate set tiny in practice.
func findUserByResetToken(ctx context.Context, users UserRepository, plaintext string, now time.Time) (*User, error) {
	candidates, err := users.FindWithActiveResetToken(ctx, now)
	if err != nil {
		return nil, err
	}

	for _, candidate := range candidates {
		if candidate.ResetTokenHash == nil {
			continue
		}
		if sec.CompareSecret(plaintext, *candidate.ResetTokenHash) {
			return candidate, nil
		}
	}

	return nil, nil
}
