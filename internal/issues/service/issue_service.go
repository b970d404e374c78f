package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/issuetracker/issue-tracker/internal/issues/domain"
	"github.com/issuetracker/issue-tracker/internal/issues/repository"
	"github.com/issuetracker/issue-tracker/internal/metrics"
)

var (
	ErrProjectNotFound       = errors.New("project not found")
	ErrRequiredFieldsMissing = errors.New("required field(s) missing")
	ErrMissingID             = errors.New("missing _id")
	ErrNoUpdateFields        = errors.New("no update field(s) sent")
)

// RequiredFields must all be truthy for a create to reach the store.
var RequiredFields = []string{"issue_title", "issue_text", "created_by"}

// CreateIssueInput carries the raw decoded create body.
type CreateIssueInput struct {
	Fields map[string]any
}

// UpdateIssueInput carries the issue id and the raw decoded body. Only
// UpdatableFields are read from Fields.
type UpdateIssueInput struct {
	ID     string
	Fields map[string]any
}

// IssueService handles issue business logic on top of a Store. It keeps no
// state between calls.
type IssueService struct {
	store repository.Store
	now   func() time.Time
}

func NewIssueService(store repository.Store) *IssueService {
	return &IssueService{
		store: store,
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// List returns the project's issues matching the filters in query. The query
// is only read once the project is known to exist.
func (s *IssueService) List(ctx context.Context, projectName string, query url.Values) ([]domain.Issue, error) {
	project, err := s.store.FindProjectByName(ctx, projectName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.RecordIssueOperation("list", "invalid")
			return nil, ErrProjectNotFound
		}
		metrics.RecordIssueOperation("list", "failed")
		return nil, err
	}

	filter, err := domain.ParseFilter(query)
	if err != nil {
		metrics.RecordIssueOperation("list", "failed")
		return nil, err
	}

	issues, err := s.store.FindIssues(ctx, project.ID, filter)
	if err != nil {
		metrics.RecordIssueOperation("list", "failed")
		return nil, err
	}
	metrics.RecordIssueOperation("list", "ok")
	return issues, nil
}

// Create finds or creates the project by name, then saves a new open issue.
// The two steps are not atomic: concurrent first submissions for one name
// may create two projects.
func (s *IssueService) Create(ctx context.Context, projectName string, in CreateIssueInput) (*domain.Issue, error) {
	for _, key := range RequiredFields {
		if !Truthy(in.Fields[key]) {
			metrics.RecordIssueOperation("create", "invalid")
			return nil, ErrRequiredFieldsMissing
		}
	}

	values, err := createValues(in.Fields)
	if err != nil {
		metrics.RecordIssueOperation("create", "failed")
		return nil, err
	}

	project, err := s.store.FindProjectByName(ctx, projectName)
	if errors.Is(err, domain.ErrNotFound) {
		project, err = s.store.CreateProject(ctx, projectName)
	}
	if err != nil {
		metrics.RecordIssueOperation("create", "failed")
		return nil, fmt.Errorf("resolve project %q: %w", projectName, err)
	}

	issue := domain.NewIssue(project.ID, values["issue_title"], values["issue_text"], values["created_by"],
		values["assigned_to"], values["status_text"], s.now())
	saved, err := s.store.CreateIssue(ctx, issue)
	if err != nil {
		metrics.RecordIssueOperation("create", "failed")
		return nil, err
	}
	metrics.RecordIssueOperation("create", "ok")
	return saved, nil
}

// Update applies the supplied fields to the issue and refreshes updated_on.
func (s *IssueService) Update(ctx context.Context, projectName string, in UpdateIssueInput) (*domain.Issue, error) {
	if in.ID == "" {
		metrics.RecordIssueOperation("update", "invalid")
		return nil, ErrMissingID
	}
	if !anyTruthy(in.Fields) {
		metrics.RecordIssueOperation("update", "invalid")
		return nil, ErrNoUpdateFields
	}

	issue, err := s.update(ctx, projectName, in)
	if err != nil {
		metrics.RecordIssueOperation("update", "failed")
		return nil, err
	}
	metrics.RecordIssueOperation("update", "ok")
	return issue, nil
}

func (s *IssueService) update(ctx context.Context, projectName string, in UpdateIssueInput) (*domain.Issue, error) {
	if _, err := s.store.FindProjectByName(ctx, projectName); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	patch, err := buildPatch(in.Fields, s.now())
	if err != nil {
		return nil, err
	}
	return s.store.UpdateIssueByID(ctx, in.ID, patch)
}

// Delete removes the issue by id. The project name is not consulted.
func (s *IssueService) Delete(ctx context.Context, id string) (*domain.Issue, error) {
	if id == "" {
		metrics.RecordIssueOperation("delete", "invalid")
		return nil, ErrMissingID
	}

	issue, err := s.store.DeleteIssueByID(ctx, id)
	if err != nil {
		metrics.RecordIssueOperation("delete", "failed")
		return nil, err
	}
	metrics.RecordIssueOperation("delete", "ok")
	return issue, nil
}
