package repository

import (
	"context"

	"github.com/issuetracker/issue-tracker/internal/issues/domain"
)

// Store is the document store behind the issues API: a projects collection
// looked up by name and an issues collection keyed by id.
type Store interface {
	// FindProjectByName returns the first project with the given name or domain.ErrNotFound.
	FindProjectByName(ctx context.Context, name string) (*domain.Project, error)
	CreateProject(ctx context.Context, name string) (*domain.Project, error)

	// FindIssues returns every issue of the project matching filter. The
	// result is never nil on success.
	FindIssues(ctx context.Context, projectID string, filter domain.IssueFilter) ([]domain.Issue, error)
	CreateIssue(ctx context.Context, issue *domain.Issue) (*domain.Issue, error)
	// UpdateIssueByID merges patch into the stored issue and returns the result,
	// or domain.ErrNotFound when no issue has that id.
	UpdateIssueByID(ctx context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error)
	// DeleteIssueByID removes the issue and returns it, or domain.ErrNotFound.
	DeleteIssueByID(ctx context.Context, id string) (*domain.Issue, error)

	Ping(ctx context.Context) error
}
