package repository

import (
	"context"
	"sync"

	"github.com/issuetracker/issue-tracker/internal/issues/domain"
)

// MemoryStore keeps projects and issues in process memory. Used for local
// development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	projects []domain.Project
	issues   map[string]domain.Issue
	order    []string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{issues: make(map[string]domain.Issue)}
}

func (s *MemoryStore) FindProjectByName(_ context.Context, name string) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.projects {
		if p.Name == name {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *MemoryStore) CreateProject(_ context.Context, name string) (*domain.Project, error) {
	p := domain.Project{ID: domain.NewID(), Name: name}

	s.mu.Lock()
	s.projects = append(s.projects, p)
	s.mu.Unlock()

	return &p, nil
}

func (s *MemoryStore) FindIssues(_ context.Context, projectID string, filter domain.IssueFilter) ([]domain.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Issue, 0)
	for _, id := range s.order {
		issue, ok := s.issues[id]
		if !ok || issue.ProjectID != projectID {
			continue
		}
		if filter.Matches(&issue) {
			out = append(out, issue)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateIssue(_ context.Context, issue *domain.Issue) (*domain.Issue, error) {
	if issue.ID == "" {
		issue.ID = domain.NewID()
	}

	s.mu.Lock()
	s.issues[issue.ID] = *issue
	s.order = append(s.order, issue.ID)
	s.mu.Unlock()

	saved := *issue
	return &saved, nil
}

func (s *MemoryStore) UpdateIssueByID(_ context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error) {
	if _, err := domain.ParseID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	patch.Apply(&issue)
	s.issues[id] = issue
	return &issue, nil
}

func (s *MemoryStore) DeleteIssueByID(_ context.Context, id string) (*domain.Issue, error) {
	if _, err := domain.ParseID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(s.issues, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return &issue, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
