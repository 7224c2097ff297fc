// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

// Package admin implements the moderation surface: the dashboard,
// article hiding, user blocking, and complaint triage. Every endpoint
// sits behind the administrator gate.
package admin

import (
	"context"
	"log/slog"

	"github.com/inkpress/inkpress/internal/article"
	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/internal/authz"
	"github.com/inkpress/inkpress/internal/complaint"
	"github.com/inkpress/inkpress/internal/platform/apperr"
	"github.com/inkpress/inkpress/internal/session"
)

const (
	// MsgCannotBlockSelf guards an administrator from locking themselves out.
	MsgCannotBlockSelf = "You cannot block your own account."

	// MsgCannotBlockAdmin keeps administrator accounts out of the block flow.
	MsgCannotBlockAdmin = "Administrator accounts cannot be blocked."
)

// Service implements the moderation use cases.
type Service struct {
	users      auth.UserRepository
	articles   article.ArticleRepository
	complaints *complaint.Service
	logger     *slog.Logger
}

// NewService wires the moderation use cases to their collaborators.
func NewService(users auth.UserRepository, articles article.ArticleRepository, complaints *complaint.Service, logger *slog.Logger) *Service {
	return &Service{users: users, articles: articles, complaints: complaints, logger: logger}
}

// Dashboard is the view model for the admin landing page.
type Dashboard struct {
	UserCount          int64                  `json:"user_count"`
	ArticleCount       int64                  `json:"article_count"`
	OpenComplaintCount int64                  `json:"open_complaint_count"`
	OpenComplaints     []*complaint.Complaint `json:"open_complaints"`
}

// Overview gathers the dashboard counts and the open complaint queue.
func (s *Service) Overview(ctx context.Context) (Dashboard, error) {
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return Dashboard{}, apperr.Internal(err)
	}

	articleCount, err := s.articles.Count(ctx)
	if err != nil {
		return Dashboard{}, apperr.Internal(err)
	}

	openComplaints, err := s.complaints.ListOpen(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		UserCount:          userCount,
		ArticleCount:       articleCount,
		OpenComplaintCount: int64(len(openComplaints)),
		OpenComplaints:     openComplaints,
	}, nil
}

// # Article Moderation

// HideArticle pulls an article from every non-admin surface.
func (s *Service) HideArticle(ctx context.Context, current *session.Session, articleID string) error {
	return s.setArticleHidden(ctx, current, articleID, true)
}

// UnhideArticle restores a hidden article.
func (s *Service) UnhideArticle(ctx context.Context, current *session.Session, articleID string) error {
	return s.setArticleHidden(ctx, current, articleID, false)
}

func (s *Service) setArticleHidden(ctx context.Context, current *session.Session, articleID string, hidden bool) error {
	if !current.IsAdmin() {
		return apperr.Forbidden(authz.MsgAdminRequired)
	}

	if err := s.articles.SetHidden(ctx, articleID, hidden, current.User.UserID); err != nil {
		if apperr.IsAppError(err) {
			return err
		}
		return apperr.Internal(err)
	}

	s.logger.Info("article moderation flag changed",
		slog.String("article_id", articleID),
		slog.Bool("hidden", hidden),
		slog.String("admin_id", current.User.UserID),
	)

	return nil
}

// # User Moderation

// BlockUser shuts a member out: the gate destroys their session on
// their next request, and sign-in is refused until they are unblocked.
func (s *Service) BlockUser(ctx context.Context, current *session.Session, userID string) error {
	if !current.IsAdmin() {
		return apperr.Forbidden(authz.MsgAdminRequired)
	}
	if current.User.UserID == userID {
		return apperr.Conflict(MsgCannotBlockSelf)
	}

	target, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if apperr.IsAppError(err) {
			return err
		}
		return apperr.Internal(err)
	}
	if target.IsAdmin {
		return apperr.Conflict(MsgCannotBlockAdmin)
	}

	if err := s.users.SetBlocked(ctx, userID, true, current.User.UserID); err != nil {
		if apperr.IsAppError(err) {
			return err
		}
		return apperr.Internal(err)
	}

	s.logger.Info("user blocked",
		slog.String("user_id", userID),
		slog.String("admin_id", current.User.UserID),
	)

	return nil
}

// UnblockUser clears the block and its audit fields.
func (s *Service) UnblockUser(ctx context.Context, current *session.Session, userID string) error {
	if !current.IsAdmin() {
		return apperr.Forbidden(authz.MsgAdminRequired)
	}

	if err := s.users.SetBlocked(ctx, userID, false, current.User.UserID); err != nil {
		if apperr.IsAppError(err) {
			return err
		}
		return apperr.Internal(err)
	}

	s.logger.Info("user unblocked",
		slog.String("user_id", userID),
		slog.String("admin_id", current.User.UserID),
	)

	return nil
}

// # Complaint Triage

// ResolveComplaint closes a complaint as handled.
func (s *Service) ResolveComplaint(ctx context.Context, current *session.Session, complaintID string) error {
	return s.complaints.Resolve(ctx, current, complaintID)
}

// DismissComplaint closes a complaint without action.
func (s *Service) DismissComplaint(ctx context.Context, current *session.Session, complaintID string) error {
	return s.complaints.Dismiss(ctx, current, complaintID)
}
