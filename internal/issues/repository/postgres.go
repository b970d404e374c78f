package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/issuetracker/issue-tracker/internal/issues/domain"
)

// Schema creates the two tables backing PostgresStore. seq keeps insertion
// order so "first match" lookups are stable.
const Schema = `
CREATE TABLE IF NOT EXISTS projects (
    seq  BIGSERIAL,
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS projects_name_idx ON projects (name);

CREATE TABLE IF NOT EXISTS issues (
    seq         BIGSERIAL,
    id          TEXT PRIMARY KEY,
    project_id  TEXT NOT NULL,
    issue_title TEXT NOT NULL,
    issue_text  TEXT NOT NULL,
    created_by  TEXT NOT NULL,
    assigned_to TEXT NOT NULL DEFAULT '',
    status_text TEXT NOT NULL DEFAULT '',
    open        BOOLEAN NOT NULL DEFAULT TRUE,
    created_on  TIMESTAMPTZ NOT NULL,
    updated_on  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS issues_project_id_idx ON issues (project_id);
`

const issueColumns = `id, project_id, issue_title, issue_text, created_by, assigned_to, status_text, open, created_on, updated_on`

// PostgresStore keeps projects and issues in two Postgres tables.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the tables if they do not exist yet.
func (r *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *PostgresStore) FindProjectByName(ctx context.Context, name string) (*domain.Project, error) {
	const q = `SELECT id, name FROM projects WHERE name = $1 ORDER BY seq LIMIT 1`

	var p domain.Project
	err := r.db.QueryRowContext(ctx, q, name).Scan(&p.ID, &p.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	return &p, nil
}

func (r *PostgresStore) CreateProject(ctx context.Context, name string) (*domain.Project, error) {
	const q = `INSERT INTO projects (id, name) VALUES ($1, $2)`

	p := domain.Project{ID: domain.NewID(), Name: name}
	if _, err := r.db.ExecContext(ctx, q, p.ID, p.Name); err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return &p, nil
}

func (r *PostgresStore) FindIssues(ctx context.Context, projectID string, filter domain.IssueFilter) ([]domain.Issue, error) {
	conds := []string{"project_id = $1"}
	args := []any{projectID}
	add := func(column string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.ID != nil {
		add("id", *filter.ID)
	}
	if filter.IssueTitle != nil {
		add("issue_title", *filter.IssueTitle)
	}
	if filter.IssueText != nil {
		add("issue_text", *filter.IssueText)
	}
	if filter.CreatedBy != nil {
		add("created_by", *filter.CreatedBy)
	}
	if filter.AssignedTo != nil {
		add("assigned_to", *filter.AssignedTo)
	}
	if filter.StatusText != nil {
		add("status_text", *filter.StatusText)
	}
	if filter.Open != nil {
		add("open", *filter.Open)
	}
	if filter.CreatedOn != nil {
		add("created_on", *filter.CreatedOn)
	}
	if filter.UpdatedOn != nil {
		add("updated_on", *filter.UpdatedOn)
	}

	q := `SELECT ` + issueColumns + ` FROM issues WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Issue, 0, 16)
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *issue)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresStore) CreateIssue(ctx context.Context, issue *domain.Issue) (*domain.Issue, error) {
	if issue.ID == "" {
		issue.ID = domain.NewID()
	}

	const q = `
INSERT INTO issues (` + issueColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + issueColumns + `;
`
	row := r.db.QueryRowContext(ctx, q,
		issue.ID, issue.ProjectID, issue.IssueTitle, issue.IssueText, issue.CreatedBy,
		issue.AssignedTo, issue.StatusText, issue.Open, issue.CreatedOn, issue.UpdatedOn)
	saved, err := scanIssue(row)
	if err != nil {
		return nil, fmt.Errorf("insert issue: %w", err)
	}
	return saved, nil
}

func (r *PostgresStore) UpdateIssueByID(ctx context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error) {
	if _, err := domain.ParseID(id); err != nil {
		return nil, err
	}

	var sets []string
	var args []any
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.IssueTitle != nil {
		set("issue_title", *patch.IssueTitle)
	}
	if patch.IssueText != nil {
		set("issue_text", *patch.IssueText)
	}
	if patch.CreatedBy != nil {
		set("created_by", *patch.CreatedBy)
	}
	if patch.AssignedTo != nil {
		set("assigned_to", *patch.AssignedTo)
	}
	if patch.StatusText != nil {
		set("status_text", *patch.StatusText)
	}
	if patch.Open != nil {
		set("open", *patch.Open)
	}
	if !patch.UpdatedOn.IsZero() {
		set("updated_on", patch.UpdatedOn)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: empty patch", domain.ErrInvalidField)
	}

	args = append(args, id)
	q := fmt.Sprintf(`UPDATE issues SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), issueColumns)

	issue, err := scanIssue(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update issue: %w", err)
	}
	return issue, nil
}

func (r *PostgresStore) DeleteIssueByID(ctx context.Context, id string) (*domain.Issue, error) {
	if _, err := domain.ParseID(id); err != nil {
		return nil, err
	}

	const q = `DELETE FROM issues WHERE id = $1 RETURNING ` + issueColumns
	issue, err := scanIssue(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("delete issue: %w", err)
	}
	return issue, nil
}

func (r *PostgresStore) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*domain.Issue, error) {
	var i domain.Issue
	if err := row.Scan(&i.ID, &i.ProjectID, &i.IssueTitle, &i.IssueText, &i.CreatedBy,
		&i.AssignedTo, &i.StatusText, &i.Open, &i.CreatedOn, &i.UpdatedOn); err != nil {
		return nil, err
	}
	i.CreatedOn = i.CreatedOn.UTC()
	i.UpdatedOn = i.UpdatedOn.UTC()
	return &i, nil
}
