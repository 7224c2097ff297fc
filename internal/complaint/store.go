// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package complaint

import "context"

// ComplaintRepository defines the persistence contract for complaints.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *Complaint) error

	FindByID(ctx context.Context, id string) (*Complaint, error)

	// ListByReporter returns the reporter's own complaints, newest first.
	ListByReporter(ctx context.Context, reporterID string) ([]*Complaint, error)

	// ListByStatus returns all complaints in the given state, oldest
	// first so the dashboard surfaces the longest-waiting reports.
	ListByStatus(ctx context.Context, status Status) ([]*Complaint, error)

	CountByStatus(ctx context.Context, status Status) (int64, error)

	// SetStatus records the triage decision with its audit trail. The
	// resolver is cleared again when a complaint is reopened.
	SetStatus(ctx context.Context, id string, status Status, resolvedBy string) error
}
