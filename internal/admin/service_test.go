// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package admin

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/article"
	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/internal/complaint"
	"github.com/inkpress/inkpress/internal/platform/apperr"
	"github.com/inkpress/inkpress/internal/session"
	"github.com/inkpress/inkpress/pkg/pagination"
)

// # Test Doubles

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*auth.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, found := r.users[id]; found {
		copied := *user
		return &copied, nil
	}
	return nil, apperr.NotFound("Account")
}

func (r *fakeUserRepo) Save(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.users[user.ID]; !found {
		return apperr.NotFound("Account")
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) FindWithActiveResetToken(_ context.Context, _ time.Time) ([]*auth.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) SetBlocked(_ context.Context, userID string, blocked bool, blockedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, found := r.users[userID]
	if !found {
		return apperr.NotFound("Account")
	}
	user.IsBlocked = blocked
	if blocked {
		now := time.Now()
		user.BlockedAt = &now
		user.BlockedBy = &blockedBy
	} else {
		user.BlockedAt = nil
		user.BlockedBy = nil
	}
	return nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

type fakeArticleRepo struct {
	mu       sync.Mutex
	articles map[string]*article.Article
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{articles: make(map[string]*article.Article)}
}

func (r *fakeArticleRepo) Create(_ context.Context, a *article.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *a
	r.articles[a.ID] = &copied
	return nil
}

func (r *fakeArticleRepo) FindByID(_ context.Context, id string) (*article.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, found := r.articles[id]; found {
		copied := *a
		return &copied, nil
	}
	return nil, apperr.NotFound("Article")
}

func (r *fakeArticleRepo) List(_ context.Context, _ article.ListFilter, _ pagination.Params) ([]*article.Article, int64, error) {
	return nil, 0, nil
}

func (r *fakeArticleRepo) Update(_ context.Context, _ *article.Article) error { return nil }

func (r *fakeArticleRepo) Delete(_ context.Context, _ string) error { return nil }

func (r *fakeArticleRepo) SetHidden(_ context.Context, id string, hidden bool, hiddenBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, found := r.articles[id]
	if !found {
		return apperr.NotFound("Article")
	}
	a.IsHidden = hidden
	if hidden {
		now := time.Now()
		a.HiddenAt = &now
		a.HiddenBy = &hiddenBy
	} else {
		a.HiddenAt = nil
		a.HiddenBy = nil
	}
	return nil
}

func (r *fakeArticleRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.articles)), nil
}

func (r *fakeArticleRepo) AddMedia(_ context.Context, _ *article.Media) error { return nil }

func (r *fakeArticleRepo) ListMedia(_ context.Context, _ string) ([]*article.Media, error) {
	return nil, nil
}

type fakeComplaintRepo struct {
	mu         sync.Mutex
	complaints map[string]*complaint.Complaint
}

func newFakeComplaintRepo() *fakeComplaintRepo {
	return &fakeComplaintRepo{complaints: make(map[string]*complaint.Complaint)}
}

func (r *fakeComplaintRepo) Create(_ context.Context, c *complaint.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *c
	r.complaints[c.ID] = &copied
	return nil
}

func (r *fakeComplaintRepo) FindByID(_ context.Context, id string) (*complaint.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, found := r.complaints[id]; found {
		copied := *c
		return &copied, nil
	}
	return nil, apperr.NotFound("Complaint")
}

func (r *fakeComplaintRepo) ListByReporter(_ context.Context, _ string) ([]*complaint.Complaint, error) {
	return nil, nil
}

func (r *fakeComplaintRepo) ListByStatus(_ context.Context, status complaint.Status) ([]*complaint.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []*complaint.Complaint
	for _, c := range r.complaints {
		if c.Status == status {
			copied := *c
			matches = append(matches, &copied)
		}
	}
	return matches, nil
}

func (r *fakeComplaintRepo) CountByStatus(_ context.Context, status complaint.Status) (int64, error) {
	listed, _ := r.ListByStatus(context.Background(), status)
	return int64(len(listed)), nil
}

func (r *fakeComplaintRepo) SetStatus(_ context.Context, id string, status complaint.Status, resolvedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, found := r.complaints[id]
	if !found {
		return apperr.NotFound("Complaint")
	}
	c.Status = status
	if status != complaint.StatusOpen {
		now := time.Now()
		c.ResolvedBy = &resolvedBy
		c.ResolvedAt = &now
	}
	return nil
}

type fixtures struct {
	service    *Service
	users      *fakeUserRepo
	articles   *fakeArticleRepo
	complaints *fakeComplaintRepo
}

func newFixtures() fixtures {
	users := newFakeUserRepo()
	articles := newFakeArticleRepo()
	complaints := newFakeComplaintRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	complaintService := complaint.NewService(complaints, nil, logger)
	return fixtures{
		service:    NewService(users, articles, complaintService, logger),
		users:      users,
		articles:   articles,
		complaints: complaints,
	}
}

func adminSession(userID string) *session.Session {
	return &session.Session{User: &session.Identity{UserID: userID, IsAdmin: true}}
}

func memberSession(userID string) *session.Session {
	return &session.Session{User: &session.Identity{UserID: userID}}
}

// # Dashboard

func TestOverview_CountsAndQueue(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	require.NoError(t, f.users.Create(ctx, &auth.User{ID: "u1", Email: "one@inkpress.test"}))
	require.NoError(t, f.users.Create(ctx, &auth.User{ID: "u2", Email: "two@inkpress.test"}))
	require.NoError(t, f.articles.Create(ctx, &article.Article{ID: "a1", Title: "T"}))
	require.NoError(t, f.complaints.Create(ctx, &complaint.Complaint{ID: "c1", ReporterID: "u1", Subject: "s", Status: complaint.StatusOpen}))
	require.NoError(t, f.complaints.Create(ctx, &complaint.Complaint{ID: "c2", ReporterID: "u2", Subject: "s", Status: complaint.StatusResolved}))

	overview, err := f.service.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), overview.UserCount)
	assert.Equal(t, int64(1), overview.ArticleCount)
	assert.Equal(t, int64(1), overview.OpenComplaintCount)
	require.Len(t, overview.OpenComplaints, 1)
	assert.Equal(t, "c1", overview.OpenComplaints[0].ID)
}

// # Article Moderation

func TestHideUnhideArticle_RecordsAudit(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	require.NoError(t, f.articles.Create(ctx, &article.Article{ID: "a1", Title: "T"}))

	require.NoError(t, f.service.HideArticle(ctx, adminSession("admin-1"), "a1"))

	hidden, err := f.articles.FindByID(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, hidden.IsHidden)
	require.NotNil(t, hidden.HiddenBy)
	assert.Equal(t, "admin-1", *hidden.HiddenBy)

	require.NoError(t, f.service.UnhideArticle(ctx, adminSession("admin-1"), "a1"))

	restored, err := f.articles.FindByID(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, restored.IsHidden)
	assert.Nil(t, restored.HiddenBy)
	assert.Nil(t, restored.HiddenAt)
}

func TestHideArticle_RequiresAdmin(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	require.NoError(t, f.articles.Create(ctx, &article.Article{ID: "a1", Title: "T"}))

	err := f.service.HideArticle(ctx, memberSession("u1"), "a1")
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))

	err = f.service.HideArticle(ctx, adminSession("admin-1"), "missing")
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
}

// # User Moderation

func TestBlockUser_GuardsSelfAndAdmins(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	require.NoError(t, f.users.Create(ctx, &auth.User{ID: "admin-1", Email: "root@inkpress.test", IsAdmin: true}))
	require.NoError(t, f.users.Create(ctx, &auth.User{ID: "admin-2", Email: "other@inkpress.test", IsAdmin: true}))
	require.NoError(t, f.users.Create(ctx, &auth.User{ID: "u1", Email: "member@inkpress.test"}))

	err := f.service.BlockUser(ctx, adminSession("admin-1"), "admin-1")
	require.Error(t, err)
	assert.Equal(t, MsgCannotBlockSelf, apperr.As(err).Message)

	err = f.service.BlockUser(ctx, adminSession("admin-1"), "admin-2")
	require.Error(t, err)
	assert.Equal(t, MsgCannotBlockAdmin, apperr.As(err).Message)

	require.NoError(t, f.service.BlockUser(ctx, adminSession("admin-1"), "u1"))

	blocked, err := f.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, blocked.IsBlocked)
	require.NotNil(t, blocked.BlockedBy)
	assert.Equal(t, "admin-1", *blocked.BlockedBy)
	assert.NotNil(t, blocked.BlockedAt)
}

func TestUnblockUser_ClearsAudit(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	require.NoError(t, f.users.Create(ctx, &auth.User{ID: "u1", Email: "member@inkpress.test"}))
	require.NoError(t, f.service.BlockUser(ctx, adminSession("admin-1"), "u1"))
	require.NoError(t, f.service.UnblockUser(ctx, adminSession("admin-1"), "u1"))

	restored, err := f.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, restored.IsBlocked)
	assert.Nil(t, restored.BlockedAt)
	assert.Nil(t, restored.BlockedBy)
}

// # Complaint Triage

func TestComplaintTriage_Delegates(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	require.NoError(t, f.complaints.Create(ctx, &complaint.Complaint{ID: "c1", ReporterID: "u1", Subject: "s", Status: complaint.StatusOpen}))

	require.NoError(t, f.service.ResolveComplaint(ctx, adminSession("admin-1"), "c1"))

	stored, err := f.complaints.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, complaint.StatusResolved, stored.Status)

	err = f.service.DismissComplaint(ctx, adminSession("admin-1"), "c1")
	assert.True(t, apperr.IsCode(err, "CONFLICT"))
}
