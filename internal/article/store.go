// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package article

import (
	"context"

	"github.com/inkpress/inkpress/pkg/pagination"
)

// ListFilter narrows a listing to what the viewer may see.
type ListFilter struct {
	// ViewerID admits the viewer's own private articles alongside public
	// ones. Empty means no private articles are admitted.
	ViewerID string

	// IncludeHidden admits moderated articles; admin reads only.
	IncludeHidden bool

	// AuthorID restricts the listing to one author when non-empty.
	AuthorID string
}

// ArticleRepository defines the persistence contract for articles and
// their media attachments.
type ArticleRepository interface {
	Create(ctx context.Context, article *Article) error

	// FindByID returns the article regardless of visibility or hidden
	// state; read-permission decisions belong to the service layer.
	FindByID(ctx context.Context, id string) (*Article, error)

	// List returns the page of articles admitted by the filter, newest
	// first, along with the total count for pagination.
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]*Article, int64, error)

	// Update persists the article's mutable fields.
	Update(ctx context.Context, article *Article) error

	// Delete removes the article; media rows cascade.
	Delete(ctx context.Context, id string) error

	// SetHidden flips the moderation flag with its audit trail.
	SetHidden(ctx context.Context, id string, hidden bool, hiddenBy string) error

	// Count returns the total number of articles.
	Count(ctx context.Context) (int64, error)

	AddMedia(ctx context.Context, media *Media) error
	ListMedia(ctx context.Context, articleID string) ([]*Media, error)
}
