// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package complaint

import (
	"context"
	"log/slog"
	"strings"

	"github.com/inkpress/inkpress/internal/article"
	"github.com/inkpress/inkpress/internal/authz"
	"github.com/inkpress/inkpress/internal/platform/apperr"
	"github.com/inkpress/inkpress/internal/platform/validate"
	"github.com/inkpress/inkpress/internal/session"
	"github.com/inkpress/inkpress/pkg/uuid"
)

const maxSubjectLength = 200

// MsgAlreadyHandled is shown when an administrator triages a complaint
// that another administrator already closed.
const MsgAlreadyHandled = "This complaint has already been handled."

// ArticleReader checks that a referenced article is readable by the
// reporter; a private or hidden article reads as missing, so a complaint
// cannot be used to probe for its existence. *article.Service satisfies it.
type ArticleReader interface {
	Get(ctx context.Context, current *session.Session, id string) (*article.Article, []*article.Media, error)
}

// Service implements complaint filing and administrator triage.
type Service struct {
	complaints ComplaintRepository
	articles   ArticleReader
	logger     *slog.Logger
}

// NewService wires the complaint use cases to their collaborators.
func NewService(complaints ComplaintRepository, articles ArticleReader, logger *slog.Logger) *Service {
	return &Service{complaints: complaints, articles: articles, logger: logger}
}

// Input carries the complaint form fields. ArticleID is optional.
type Input struct {
	ArticleID string
	Subject   string
	Body      string
}

func (s *Service) validateInput(input Input) error {
	v := &validate.Validator{}
	v.Required("Subject", input.Subject).
		MaxLen("Subject", input.Subject, maxSubjectLength).
		Required("Body", input.Body)
	return v.Err()
}

// File records a new complaint from the session user.
func (s *Service) File(ctx context.Context, current *session.Session, input Input) (*Complaint, error) {
	if !current.IsAuthenticated() {
		return nil, apperr.Unauthorized(authz.MsgSignInRequired)
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	var articleID *string
	if trimmed := strings.TrimSpace(input.ArticleID); trimmed != "" {
		if _, _, err := s.articles.Get(ctx, current, trimmed); err != nil {
			return nil, err
		}
		articleID = &trimmed
	}

	filed := &Complaint{
		ID:         uuid.New(),
		ReporterID: current.User.UserID,
		ArticleID:  articleID,
		Subject:    strings.TrimSpace(input.Subject),
		Body:       input.Body,
		Status:     StatusOpen,
	}

	if err := s.complaints.Create(ctx, filed); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("complaint filed",
		slog.String("complaint_id", filed.ID),
		slog.String("reporter_id", filed.ReporterID),
	)

	return filed, nil
}

// ListOwn returns the session user's complaints, newest first.
func (s *Service) ListOwn(ctx context.Context, current *session.Session) ([]*Complaint, error) {
	if !current.IsAuthenticated() {
		return nil, apperr.Unauthorized(authz.MsgSignInRequired)
	}

	complaints, err := s.complaints.ListByReporter(ctx, current.User.UserID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return complaints, nil
}

// # Triage

// ListOpen returns every open complaint, longest-waiting first.
func (s *Service) ListOpen(ctx context.Context) ([]*Complaint, error) {
	complaints, err := s.complaints.ListByStatus(ctx, StatusOpen)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return complaints, nil
}

// CountOpen returns the number of open complaints.
func (s *Service) CountOpen(ctx context.Context) (int64, error) {
	count, err := s.complaints.CountByStatus(ctx, StatusOpen)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return count, nil
}

// Resolve closes the complaint as handled.
func (s *Service) Resolve(ctx context.Context, current *session.Session, id string) error {
	return s.triage(ctx, current, id, StatusResolved)
}

// Dismiss closes the complaint without action.
func (s *Service) Dismiss(ctx context.Context, current *session.Session, id string) error {
	return s.triage(ctx, current, id, StatusDismissed)
}

func (s *Service) triage(ctx context.Context, current *session.Session, id string, status Status) error {
	if !current.IsAdmin() {
		return apperr.Forbidden(authz.MsgAdminRequired)
	}

	found, err := s.complaints.FindByID(ctx, id)
	if err != nil {
		if apperr.IsAppError(err) {
			return err
		}
		return apperr.Internal(err)
	}
	if found.Status.IsTerminal() {
		return apperr.Conflict(MsgAlreadyHandled)
	}

	if err := s.complaints.SetStatus(ctx, id, status, current.User.UserID); err != nil {
		if apperr.IsAppError(err) {
			return err
		}
		return apperr.Internal(err)
	}

	s.logger.Info("complaint triaged",
		slog.String("complaint_id", id),
		slog.String("status", string(status)),
		slog.String("resolved_by", current.User.UserID),
	)

	return nil
}
