// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkpress/inkpress/internal/platform/apperr"
)

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `
	id, email, password_hash,
	otp_hash, otp_expires_at,
	reset_token_hash, reset_token_expires_at,
	is_verified, is_admin,
	is_blocked, blocked_at, blocked_by,
	created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.OTPHash,
		&user.OTPExpiresAt,
		&user.ResetTokenHash,
		&user.ResetTokenExpiresAt,
		&user.IsVerified,
		&user.IsAdmin,
		&user.IsBlocked,
		&user.BlockedAt,
		&user.BlockedBy,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create persists a new account record into the users table.
func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	const query = `
		INSERT INTO users (
			id, email, password_hash,
			otp_hash, otp_expires_at,
			reset_token_hash, reset_token_expires_at,
			is_verified, is_admin,
			is_blocked, blocked_at, blocked_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.OTPHash,
		user.OTPExpiresAt,
		user.ResetTokenHash,
		user.ResetTokenExpiresAt,
		user.IsVerified,
		user.IsAdmin,
		user.IsBlocked,
		user.BlockedAt,
		user.BlockedBy,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

// FindByEmail retrieves an account by email. The comparison is
// case-insensitive; the lookup is served by the lower(email) index.
//
// # Returns
//
// Returns [*User] if found, or [apperr.NotFound] if no account exists.
func (repository *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	user, err := scanUser(repository.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

// FindByID retrieves an account by its ID.
func (repository *PostgresUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

// Save persists all mutable credential and status fields in one row update.
// The single-statement write is the only mutual exclusion the credential
// workflow relies on; concurrent issuance is last-write-wins.
func (repository *PostgresUserRepository) Save(ctx context.Context, user *User) error {
	const query = `
		UPDATE users
		SET email = $2,
			password_hash = $3,
			otp_hash = $4,
			otp_expires_at = $5,
			reset_token_hash = $6,
			reset_token_expires_at = $7,
			is_verified = $8,
			is_admin = $9,
			updated_at = $10
		WHERE id = $1`

	user.UpdatedAt = time.Now()
	commandTag, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.OTPHash,
		user.OTPExpiresAt,
		user.ResetTokenHash,
		user.ResetTokenExpiresAt,
		user.IsVerified,
		user.IsAdmin,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_user_repo_save_failed: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}

	return nil
}

// FindWithActiveResetToken returns every account whose reset token has not
// yet expired. Intentionally a scan: the token is hashed at rest, so an
// indexed equality lookup on the plaintext is impossible.
func (repository *PostgresUserRepository) FindWithActiveResetToken(ctx context.Context, now time.Time) ([]*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE reset_token_hash IS NOT NULL AND reset_token_expires_at > $1`

	rows, err := repository.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("postgres_user_repo_reset_scan_failed: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_user_repo_reset_scan_failed: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_user_repo_reset_scan_failed: %w", err)
	}

	return users, nil
}

// SetBlocked flips the blocked flag with its audit trail in one statement.
func (repository *PostgresUserRepository) SetBlocked(ctx context.Context, userID string, blocked bool, blockedBy string) error {
	const query = `
		UPDATE users
		SET is_blocked = $2,
			blocked_at = CASE WHEN $2 THEN now() ELSE NULL END,
			blocked_by = CASE WHEN $2 THEN $3 ELSE NULL END,
			updated_at = now()
		WHERE id = $1`

	commandTag, err := repository.pool.Exec(ctx, query, userID, blocked, blockedBy)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_blocked_failed: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}

	return nil
}

// Count returns the total number of accounts.
func (repository *PostgresUserRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := repository.pool.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("postgres_user_repo_count_failed: %w", err)
	}
	return total, nil
}
