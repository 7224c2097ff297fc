// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package article

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkpress/inkpress/internal/platform/apperr"
	"github.com/inkpress/inkpress/pkg/pagination"
)

// PostgresArticleRepository implements the ArticleRepository interface using pgx.
type PostgresArticleRepository struct {
	pool *pgxpool.Pool
}

// NewArticleRepository creates a new PostgreSQL implementation of the ArticleRepository.
func NewArticleRepository(pool *pgxpool.Pool) *PostgresArticleRepository {
	return &PostgresArticleRepository{pool: pool}
}

const articleColumns = `
	id, author_id, title, slug, body, visibility,
	is_hidden, hidden_at, hidden_by,
	created_at, updated_at`

func scanArticle(row pgx.Row) (*Article, error) {
	article := &Article{}
	err := row.Scan(
		&article.ID,
		&article.AuthorID,
		&article.Title,
		&article.Slug,
		&article.Body,
		&article.Visibility,
		&article.IsHidden,
		&article.HiddenAt,
		&article.HiddenBy,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return article, nil
}

// Create persists a new article record.
func (repository *PostgresArticleRepository) Create(ctx context.Context, article *Article) error {
	const query = `
		INSERT INTO articles (
			id, author_id, title, slug, body, visibility,
			is_hidden, hidden_at, hidden_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	now := time.Now()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = now

	_, err := repository.pool.Exec(ctx, query,
		article.ID,
		article.AuthorID,
		article.Title,
		article.Slug,
		article.Body,
		article.Visibility,
		article.IsHidden,
		article.HiddenAt,
		article.HiddenBy,
		article.CreatedAt,
		article.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_article_repo_create_failed: %w", err)
	}

	return nil
}

// FindByID retrieves an article regardless of visibility or hidden state.
func (repository *PostgresArticleRepository) FindByID(ctx context.Context, id string) (*Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`

	article, err := scanArticle(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Article")
		}
		return nil, fmt.Errorf("postgres_article_repo_find_failed: %w", err)
	}

	return article, nil
}

// List returns the filtered page of articles, newest first.
//
// Visibility math happens in SQL: members see public articles plus their
// own private ones, and hidden articles are absent unless the filter says
// otherwise.
func (repository *PostgresArticleRepository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]*Article, int64, error) {
	where := "WHERE 1=1"
	args := []any{}
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.IncludeHidden {
		where += " AND is_hidden = FALSE"
	}
	if filter.ViewerID != "" {
		where += fmt.Sprintf(" AND (visibility = 'public' OR author_id = %s)", arg(filter.ViewerID))
	} else if !filter.IncludeHidden {
		where += " AND visibility = 'public'"
	}
	if filter.AuthorID != "" {
		where += fmt.Sprintf(" AND author_id = %s", arg(filter.AuthorID))
	}

	var total int64
	countQuery := "SELECT count(*) FROM articles " + where
	if err := repository.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_article_repo_count_failed: %w", err)
	}

	listQuery := fmt.Sprintf(
		"SELECT %s FROM articles %s ORDER BY created_at DESC LIMIT %s OFFSET %s",
		articleColumns, where, arg(page.Limit), arg(page.Offset()),
	)

	rows, err := repository.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_article_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var articles []*Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_article_repo_list_failed: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_article_repo_list_failed: %w", err)
	}

	return articles, total, nil
}

// Update persists the article's mutable fields.
func (repository *PostgresArticleRepository) Update(ctx context.Context, article *Article) error {
	const query = `
		UPDATE articles
		SET title = $2, slug = $3, body = $4, visibility = $5, updated_at = $6
		WHERE id = $1`

	article.UpdatedAt = time.Now()
	commandTag, err := repository.pool.Exec(ctx, query,
		article.ID,
		article.Title,
		article.Slug,
		article.Body,
		article.Visibility,
		article.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_article_repo_update_failed: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return apperr.NotFound("Article")
	}

	return nil
}

// Delete removes the article; the media rows go with it via ON DELETE CASCADE.
func (repository *PostgresArticleRepository) Delete(ctx context.Context, id string) error {
	commandTag, err := repository.pool.Exec(ctx, "DELETE FROM articles WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres_article_repo_delete_failed: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return apperr.NotFound("Article")
	}
	return nil
}

// SetHidden flips the moderation flag with its audit trail.
func (repository *PostgresArticleRepository) SetHidden(ctx context.Context, id string, hidden bool, hiddenBy string) error {
	const query = `
		UPDATE articles
		SET is_hidden = $2,
			hidden_at = CASE WHEN $2 THEN now() ELSE NULL END,
			hidden_by = CASE WHEN $2 THEN $3 ELSE NULL END,
			updated_at = now()
		WHERE id = $1`

	commandTag, err := repository.pool.Exec(ctx, query, id, hidden, hiddenBy)
	if err != nil {
		return fmt.Errorf("postgres_article_repo_set_hidden_failed: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return apperr.NotFound("Article")
	}

	return nil
}

// Count returns the total number of articles.
func (repository *PostgresArticleRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := repository.pool.QueryRow(ctx, "SELECT count(*) FROM articles").Scan(&total); err != nil {
		return 0, fmt.Errorf("postgres_article_repo_count_failed: %w", err)
	}
	return total, nil
}

// # Media

// AddMedia persists a media attachment record.
func (repository *PostgresArticleRepository) AddMedia(ctx context.Context, media *Media) error {
	const query = `
		INSERT INTO article_media (
			id, article_id, key, file_name, content_type, size_bytes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if media.CreatedAt.IsZero() {
		media.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(ctx, query,
		media.ID,
		media.ArticleID,
		media.Key,
		media.FileName,
		media.ContentType,
		media.SizeBytes,
		media.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_article_repo_add_media_failed: %w", err)
	}

	return nil
}

// ListMedia returns an article's attachments in upload order.
func (repository *PostgresArticleRepository) ListMedia(ctx context.Context, articleID string) ([]*Media, error) {
	const query = `
		SELECT id, article_id, key, file_name, content_type, size_bytes, created_at
		FROM article_media
		WHERE article_id = $1
		ORDER BY created_at ASC`

	rows, err := repository.pool.Query(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("postgres_article_repo_list_media_failed: %w", err)
	}
	defer rows.Close()

	var mediaList []*Media
	for rows.Next() {
		media := &Media{}
		err := rows.Scan(
			&media.ID,
			&media.ArticleID,
			&media.Key,
			&media.FileName,
			&media.ContentType,
			&media.SizeBytes,
			&media.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres_article_repo_list_media_failed: %w", err)
		}
		mediaList = append(mediaList, media)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_article_repo_list_media_failed: %w", err)
	}

	return mediaList, nil
}
