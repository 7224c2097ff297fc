// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

// Package article implements the publishing domain: articles with
// public/private visibility, per-article media attachments, and the
// ownership rules enforced at every mutation.
package article

import (
	"time"
)

// Visibility controls who can read an article.
type Visibility string

const (
	// VisibilityPublic articles are readable by every signed-in member.
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate articles are readable only by their owner (and
	// administrators through the admin area).
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether the value is a known visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Article is a published piece of writing.
//
// # Rules
//   - AuthorID may be nil for legacy imports whose owner account is gone;
//     such articles are mutable by any signed-in member.
//   - IsHidden is an admin moderation flag: a hidden article disappears
//     from member-facing reads as if it did not exist.
type Article struct {
	ID       string  `json:"id"`
	AuthorID *string `json:"author_id,omitempty"`

	Title string `json:"title"`
	Slug  string `json:"slug"`
	Body  string `json:"body"`

	Visibility Visibility `json:"visibility"`

	IsHidden bool       `json:"is_hidden"`
	HiddenAt *time.Time `json:"hidden_at,omitempty"`
	HiddenBy *string    `json:"hidden_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOwnedBy reports whether the given user owns the article.
func (a *Article) IsOwnedBy(userID string) bool {
	return a.AuthorID != nil && *a.AuthorID == userID
}

// Media is a file attached to an article, stored in blob storage under Key.
type Media struct {
	ID        string `json:"id"`
	ArticleID string `json:"article_id"`

	Key         string `json:"key"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`

	CreatedAt time.Time `json:"created_at"`
}
