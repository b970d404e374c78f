package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/issuetracker/issue-tracker/internal/issues/domain"
	"github.com/redis/go-redis/v9"
)

const (
	projectNamePrefix  = "issues:project-name:" // list of project JSON docs per name: issues:project-name:{name}
	issueKeyPrefix     = "issues:issue:"        // issue JSON doc: issues:issue:{id}
	projectIssuePrefix = "issues:project:"      // list of issue ids per project: issues:project:{project_id}:issues
)

// RedisStore keeps issues as JSON documents in Redis, with a per-project list
// of issue ids for listing.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) FindProjectByName(ctx context.Context, name string) (*domain.Project, error) {
	data, err := r.client.LIndex(ctx, r.projectNameKey(name), 0).Result()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	var p domain.Project
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	return &p, nil
}

func (r *RedisStore) CreateProject(ctx context.Context, name string) (*domain.Project, error) {
	p := domain.Project{ID: domain.NewID(), Name: name}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal project: %w", err)
	}
	if err := r.client.RPush(ctx, r.projectNameKey(name), data).Err(); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &p, nil
}

func (r *RedisStore) FindIssues(ctx context.Context, projectID string, filter domain.IssueFilter) ([]domain.Issue, error) {
	var ids []string
	if filter.ID != nil {
		ids = []string{*filter.ID}
	} else {
		var err error
		ids, err = r.client.LRange(ctx, r.projectIssuesKey(projectID), 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list issue ids: %w", err)
		}
	}

	out := make([]domain.Issue, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.issueKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get issues: %w", err)
	}

	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var issue domain.Issue
		if err := json.Unmarshal([]byte(s), &issue); err != nil {
			return nil, fmt.Errorf("failed to unmarshal issue: %w", err)
		}
		if issue.ProjectID == projectID && filter.Matches(&issue) {
			out = append(out, issue)
		}
	}
	return out, nil
}

func (r *RedisStore) CreateIssue(ctx context.Context, issue *domain.Issue) (*domain.Issue, error) {
	if issue.ID == "" {
		issue.ID = domain.NewID()
	}

	data, err := json.Marshal(issue)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal issue: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.issueKey(issue.ID), data, 0)
	pipe.RPush(ctx, r.projectIssuesKey(issue.ProjectID), issue.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	saved := *issue
	return &saved, nil
}

func (r *RedisStore) UpdateIssueByID(ctx context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error) {
	issue, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(issue)

	if err := r.replace(ctx, issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// replace overwrites an existing issue document. An issue deleted since it
// was read is reported as not found instead of being written back.
func (r *RedisStore) replace(ctx context.Context, issue *domain.Issue) error {
	data, err := json.Marshal(issue)
	if err != nil {
		return fmt.Errorf("failed to marshal issue: %w", err)
	}
	ok, err := r.client.SetXX(ctx, r.issueKey(issue.ID), data, 0).Result()
	if errors.Is(err, redis.Nil) || (err == nil && !ok) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update issue: %w", err)
	}
	return nil
}

func (r *RedisStore) DeleteIssueByID(ctx context.Context, id string) (*domain.Issue, error) {
	issue, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}

	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, r.issueKey(id))
	pipe.LRem(ctx, r.projectIssuesKey(issue.ProjectID), 0, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to delete issue: %w", err)
	}
	// deleted concurrently between the read and the delete
	if del.Val() == 0 {
		return nil, domain.ErrNotFound
	}
	return issue, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) get(ctx context.Context, id string) (*domain.Issue, error) {
	if _, err := domain.ParseID(id); err != nil {
		return nil, err
	}

	data, err := r.client.Get(ctx, r.issueKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}

	var issue domain.Issue
	if err := json.Unmarshal([]byte(data), &issue); err != nil {
		return nil, fmt.Errorf("failed to unmarshal issue: %w", err)
	}
	return &issue, nil
}

func (r *RedisStore) projectNameKey(name string) string {
	return projectNamePrefix + name
}

func (r *RedisStore) issueKey(id string) string {
	return issueKeyPrefix + id
}

func (r *RedisStore) projectIssuesKey(projectID string) string {
	return projectIssuePrefix + projectID + ":issues"
}
