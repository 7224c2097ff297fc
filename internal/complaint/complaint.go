// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

// Package complaint implements reader complaints: members file them against
// the platform or a specific article, administrators triage them from the
// dashboard.
package complaint

import "time"

// # Status

// Status is the triage state of a complaint.
type Status string

const (
	StatusOpen      Status = "open"
	StatusResolved  Status = "resolved"
	StatusDismissed Status = "dismissed"
)

// IsTerminal reports whether the complaint has already been handled.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusDismissed
}

// # Entity

// Complaint is a report filed by a member. ArticleID is nil for complaints
// about the platform itself rather than a specific article.
type Complaint struct {
	ID         string     `json:"id"`
	ReporterID string     `json:"reporter_id"`
	ArticleID  *string    `json:"article_id,omitempty"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	Status     Status     `json:"status"`
	ResolvedBy *string    `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
