// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package article

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/inkpress/inkpress/internal/authz"
	"github.com/inkpress/inkpress/internal/platform/apperr"
	"github.com/inkpress/inkpress/internal/platform/storage"
	"github.com/inkpress/inkpress/internal/platform/validate"
	"github.com/inkpress/inkpress/internal/session"
	"github.com/inkpress/inkpress/pkg/pagination"
	"github.com/inkpress/inkpress/pkg/slug"
	"github.com/inkpress/inkpress/pkg/uuid"
)

const (
	maxTitleLength = 255
	// maxMediaBytes bounds a single upload (8 MiB).
	maxMediaBytes = 8 << 20
)

// Service implements the publishing use cases on top of the repository
// and blob storage.
type Service struct {
	articles ArticleRepository
	blobs    storage.Storage
	logger   *slog.Logger
}

// NewService wires the publishing use cases to their collaborators.
func NewService(articles ArticleRepository, blobs storage.Storage, logger *slog.Logger) *Service {
	return &Service{articles: articles, blobs: blobs, logger: logger}
}

// Input carries the article form fields.
type Input struct {
	Title      string
	Body       string
	Visibility string
}

func (s *Service) validateInput(input Input) error {
	v := &validate.Validator{}
	v.Required("Title", input.Title).
		MaxLen("Title", input.Title, maxTitleLength).
		Required("Body", input.Body).
		OneOf("Visibility", input.Visibility, string(VisibilityPublic), string(VisibilityPrivate))
	return v.Err()
}

// Create publishes a new article owned by the session user.
func (s *Service) Create(ctx context.Context, current *session.Session, input Input) (*Article, error) {
	if !current.IsAuthenticated() {
		return nil, apperr.Unauthorized(authz.MsgSignInRequired)
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	authorID := current.User.UserID
	created := &Article{
		ID:         uuid.New(),
		AuthorID:   &authorID,
		Title:      strings.TrimSpace(input.Title),
		Slug:       slug.From(input.Title),
		Body:       input.Body,
		Visibility: Visibility(input.Visibility),
	}

	if err := s.articles.Create(ctx, created); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("article created",
		slog.String("article_id", created.ID),
		slog.String("author_id", authorID),
	)

	return created, nil
}

// Get returns an article the viewer is allowed to read.
//
// A hidden article, or a private article belonging to someone else, reads
// as not-found rather than forbidden: its existence is not disclosed. The
// author may still open their own hidden article, though it stays out of
// listings and cannot be edited until an administrator unhides it.
func (s *Service) Get(ctx context.Context, current *session.Session, id string) (*Article, []*Media, error) {
	found, err := s.articles.FindByID(ctx, id)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, nil, err
		}
		return nil, nil, apperr.Internal(err)
	}

	isAdmin := current.IsAdmin()
	isOwner := current.IsAuthenticated() && found.IsOwnedBy(current.User.UserID)
	if found.IsHidden && !isAdmin && !isOwner {
		return nil, nil, apperr.NotFound("Article")
	}
	if found.Visibility == VisibilityPrivate && !isAdmin {
		if !current.IsAuthenticated() || !found.IsOwnedBy(current.User.UserID) {
			return nil, nil, apperr.NotFound("Article")
		}
	}

	mediaList, err := s.articles.ListMedia(ctx, id)
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}

	return found, mediaList, nil
}

// List returns the page of articles the viewer may see: public articles
// plus the viewer's own private ones. Hidden articles are excluded for
// everyone but admins.
func (s *Service) List(ctx context.Context, current *session.Session, page pagination.Params) ([]*Article, pagination.Meta, error) {
	filter := ListFilter{IncludeHidden: current.IsAdmin()}
	if current.IsAuthenticated() {
		filter.ViewerID = current.User.UserID
	}

	articles, total, err := s.articles.List(ctx, filter, page)
	if err != nil {
		return nil, pagination.Meta{}, apperr.Internal(err)
	}

	return articles, pagination.NewMeta(page.Page, page.Limit, int(total)), nil
}

// Update edits an article after the ownership check.
func (s *Service) Update(ctx context.Context, current *session.Session, id string, input Input) (*Article, error) {
	found, err := s.articles.FindByID(ctx, id)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}

	if found.IsHidden && !current.IsAdmin() {
		return nil, apperr.NotFound("Article")
	}
	if err := authz.AssertOwnership(found.AuthorID, current); err != nil {
		return nil, err
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	found.Title = strings.TrimSpace(input.Title)
	found.Slug = slug.From(input.Title)
	found.Body = input.Body
	found.Visibility = Visibility(input.Visibility)

	if err := s.articles.Update(ctx, found); err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}

	return found, nil
}

// Delete removes an article and its stored media after the ownership check.
func (s *Service) Delete(ctx context.Context, current *session.Session, id string) error {
	found, err := s.articles.FindByID(ctx, id)
	if err != nil {
		if apperr.IsAppError(err) {
			return err
		}
		return apperr.Internal(err)
	}

	if found.IsHidden && !current.IsAdmin() {
		return apperr.NotFound("Article")
	}
	if err := authz.AssertOwnership(found.AuthorID, current); err != nil {
		return err
	}

	mediaList, err := s.articles.ListMedia(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}

	if err := s.articles.Delete(ctx, id); err != nil {
		if apperr.IsAppError(err) {
			return err
		}
		return apperr.Internal(err)
	}

	// Blob cleanup is best-effort; orphaned objects are harmless.
	for _, media := range mediaList {
		if err := s.blobs.Delete(ctx, media.Key); err != nil {
			s.logger.Warn("media cleanup failed",
				slog.String("key", media.Key),
				slog.Any("error", err),
			)
		}
	}

	s.logger.Info("article deleted", slog.String("article_id", id))

	return nil
}

// AttachMedia stores an uploaded file and records it against the article.
// The caller must already own the article (or be an admin).
func (s *Service) AttachMedia(ctx context.Context, current *session.Session, articleID, fileName, contentType string, content io.Reader) (*Media, error) {
	found, err := s.articles.FindByID(ctx, articleID)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}
	if err := authz.AssertOwnership(found.AuthorID, current); err != nil {
		return nil, err
	}

	limited := io.LimitReader(content, maxMediaBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(data) > maxMediaBytes {
		return nil, apperr.ValidationError("Validation failed.", "Uploaded file exceeds the 8 MB limit.")
	}
	if len(data) == 0 {
		return nil, apperr.ValidationError("Validation failed.", "Uploaded file is empty.")
	}

	media := &Media{
		ID:          uuid.New(),
		ArticleID:   articleID,
		FileName:    filepath.Base(fileName),
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		CreatedAt:   time.Now(),
	}
	media.Key = mediaKey(articleID, media.ID, media.FileName)

	if err := s.blobs.Put(ctx, media.Key, bytes.NewReader(data), contentType); err != nil {
		return nil, apperr.Downstream("We couldn't store the uploaded file. Please try again.", err)
	}

	if err := s.articles.AddMedia(ctx, media); err != nil {
		return nil, apperr.Internal(err)
	}

	return media, nil
}

// OpenMedia streams a stored object for the /uploads route.
func (s *Service) OpenMedia(ctx context.Context, key string) (io.ReadCloser, string, error) {
	reader, contentType, err := s.blobs.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", apperr.NotFound("File")
		}
		return nil, "", apperr.Internal(err)
	}
	return reader, contentType, nil
}

// mediaKey lays objects out as articles/<article>/<media><ext>.
func mediaKey(articleID, mediaID, fileName string) string {
	return "articles/" + articleID + "/" + mediaID + strings.ToLower(filepath.Ext(fileName))
}
