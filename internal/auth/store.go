// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package auth

import (
	"context"
	"time"
)

// UserRepository defines the persistence contract for account records.
//
// Implementations map storage-specific failures (like pgx.ErrNoRows) to
// domain-friendly apperr types; callers never see driver errors directly.
type UserRepository interface {
	// Create persists a new account record.
	Create(ctx context.Context, user *User) error

	// FindByEmail retrieves an account by email, case-insensitively.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID retrieves an account by its ID.
	FindByID(ctx context.Context, id string) (*User, error)

	// Save persists all mutable credential and status fields of an
	// existing account in one atomic row update.
	Save(ctx context.Context, user *User) error

	// FindWithActiveResetToken returns every account whose reset-token
	// expiry lies after now. Reset tokens are hashed at rest, so the
	// caller must compare the supplied token against each candidate.
	FindWithActiveResetToken(ctx context.Context, now time.Time) ([]*User, error)

	// SetBlocked flips the blocked flag, recording who blocked and when.
	// Unblocking clears the audit fields.
	SetBlocked(ctx context.Context, userID string, blocked bool, blockedBy string) error

	// Count returns the total number of accounts.
	Count(ctx context.Context) (int64, error)
}
