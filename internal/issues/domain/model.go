package domain

import "time"

// Project is a named grouping of issues. Projects are created lazily the first
// time an issue is submitted for an unseen name and are never updated.
type Project struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Issue is a tracked work item. ProjectID is a back-reference only; projects
// do not track their issues.
type Issue struct {
	ID         string    `json:"_id"`
	ProjectID  string    `json:"projectId"`
	IssueTitle string    `json:"issue_title"`
	IssueText  string    `json:"issue_text"`
	CreatedBy  string    `json:"created_by"`
	AssignedTo string    `json:"assigned_to"`
	StatusText string    `json:"status_text"`
	Open       bool      `json:"open"`
	CreatedOn  time.Time `json:"created_on"`
	UpdatedOn  time.Time `json:"updated_on"`
}

// NewIssue builds an open issue with both timestamps set to now and optional
// fields defaulted to the empty string by their zero value.
func NewIssue(projectID, title, text, createdBy, assignedTo, statusText string, now time.Time) *Issue {
	return &Issue{
		ID:         NewID(),
		ProjectID:  projectID,
		IssueTitle: title,
		IssueText:  text,
		CreatedBy:  createdBy,
		AssignedTo: assignedTo,
		StatusText: statusText,
		Open:       true,
		CreatedOn:  now,
		UpdatedOn:  now,
	}
}

// IssuePatch is a partial update. Nil fields are left untouched.
type IssuePatch struct {
	IssueTitle *string
	IssueText  *string
	CreatedBy  *string
	AssignedTo *string
	StatusText *string
	Open       *bool
	UpdatedOn  time.Time
}

// Apply merges the set fields of p into issue.
func (p IssuePatch) Apply(issue *Issue) {
	if p.IssueTitle != nil {
		issue.IssueTitle = *p.IssueTitle
	}
	if p.IssueText != nil {
		issue.IssueText = *p.IssueText
	}
	if p.CreatedBy != nil {
		issue.CreatedBy = *p.CreatedBy
	}
	if p.AssignedTo != nil {
		issue.AssignedTo = *p.AssignedTo
	}
	if p.StatusText != nil {
		issue.StatusText = *p.StatusText
	}
	if p.Open != nil {
		issue.Open = *p.Open
	}
	if !p.UpdatedOn.IsZero() {
		issue.UpdatedOn = p.UpdatedOn
	}
}
