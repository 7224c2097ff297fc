// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package complaint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkpress/inkpress/internal/platform/apperr"
)

// PostgresComplaintRepository implements the ComplaintRepository interface using pgx.
type PostgresComplaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository creates a new PostgreSQL implementation of the ComplaintRepository.
func NewComplaintRepository(pool *pgxpool.Pool) *PostgresComplaintRepository {
	return &PostgresComplaintRepository{pool: pool}
}

const complaintColumns = `
	id, reporter_id, article_id, subject, body, status,
	resolved_by, resolved_at, created_at, updated_at`

func scanComplaint(row pgx.Row) (*Complaint, error) {
	complaint := &Complaint{}
	err := row.Scan(
		&complaint.ID,
		&complaint.ReporterID,
		&complaint.ArticleID,
		&complaint.Subject,
		&complaint.Body,
		&complaint.Status,
		&complaint.ResolvedBy,
		&complaint.ResolvedAt,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

func scanComplaintRows(rows pgx.Rows) ([]*Complaint, error) {
	defer rows.Close()

	var complaints []*Complaint
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, complaint)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return complaints, nil
}

// Create persists a new complaint record.
func (repository *PostgresComplaintRepository) Create(ctx context.Context, complaint *Complaint) error {
	const query = `
		INSERT INTO complaints (
			id, reporter_id, article_id, subject, body, status,
			resolved_by, resolved_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now()
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = now
	}
	complaint.UpdatedAt = now

	_, err := repository.pool.Exec(ctx, query,
		complaint.ID,
		complaint.ReporterID,
		complaint.ArticleID,
		complaint.Subject,
		complaint.Body,
		complaint.Status,
		complaint.ResolvedBy,
		complaint.ResolvedAt,
		complaint.CreatedAt,
		complaint.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_complaint_repo_create_failed: %w", err)
	}

	return nil
}

// FindByID retrieves a complaint by its identifier.
func (repository *PostgresComplaintRepository) FindByID(ctx context.Context, id string) (*Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`

	complaint, err := scanComplaint(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Complaint")
		}
		return nil, fmt.Errorf("postgres_complaint_repo_find_failed: %w", err)
	}

	return complaint, nil
}

// ListByReporter returns the reporter's complaints, newest first.
func (repository *PostgresComplaintRepository) ListByReporter(ctx context.Context, reporterID string) ([]*Complaint, error) {
	query := `SELECT ` + complaintColumns + `
		FROM complaints WHERE reporter_id = $1 ORDER BY created_at DESC`

	rows, err := repository.pool.Query(ctx, query, reporterID)
	if err != nil {
		return nil, fmt.Errorf("postgres_complaint_repo_list_failed: %w", err)
	}

	complaints, err := scanComplaintRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres_complaint_repo_list_failed: %w", err)
	}

	return complaints, nil
}

// ListByStatus returns complaints in the given state, oldest first.
func (repository *PostgresComplaintRepository) ListByStatus(ctx context.Context, status Status) ([]*Complaint, error) {
	query := `SELECT ` + complaintColumns + `
		FROM complaints WHERE status = $1 ORDER BY created_at ASC`

	rows, err := repository.pool.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("postgres_complaint_repo_list_failed: %w", err)
	}

	complaints, err := scanComplaintRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres_complaint_repo_list_failed: %w", err)
	}

	return complaints, nil
}

// CountByStatus returns how many complaints sit in the given state.
func (repository *PostgresComplaintRepository) CountByStatus(ctx context.Context, status Status) (int64, error) {
	var count int64
	err := repository.pool.QueryRow(ctx,
		`SELECT count(*) FROM complaints WHERE status = $1`, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres_complaint_repo_count_failed: %w", err)
	}

	return count, nil
}

// SetStatus records a triage decision along with who made it and when.
func (repository *PostgresComplaintRepository) SetStatus(ctx context.Context, id string, status Status, resolvedBy string) error {
	const query = `
		UPDATE complaints SET
			status = $2,
			resolved_by = CASE WHEN $2 = 'open' THEN NULL ELSE $3 END,
			resolved_at = CASE WHEN $2 = 'open' THEN NULL ELSE now() END,
			updated_at = now()
		WHERE id = $1`

	tag, err := repository.pool.Exec(ctx, query, id, status, resolvedBy)
	if err != nil {
		return fmt.Errorf("postgres_complaint_repo_set_status_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Complaint")
	}

	return nil
}
