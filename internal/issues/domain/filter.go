package domain

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// IssueFilter holds exact-match predicates for a list query. Every set field
// must match; nil fields are not constrained.
type IssueFilter struct {
	ID         *string
	IssueTitle *string
	IssueText  *string
	CreatedBy  *string
	AssignedTo *string
	StatusText *string
	Open       *bool
	CreatedOn  *time.Time
	UpdatedOn  *time.Time
}

// FilterableFields lists the query keys accepted by ParseFilter.
var FilterableFields = []string{
	"_id", "issue_title", "issue_text", "created_by", "assigned_to",
	"status_text", "open", "created_on", "updated_on",
}

// ParseFilter builds a filter from query parameters. Keys outside
// FilterableFields are ignored. Values that cannot be read as the field's
// type produce ErrInvalidField (or ErrInvalidID for _id).
func ParseFilter(q url.Values) (IssueFilter, error) {
	var f IssueFilter
	for _, key := range FilterableFields {
		if _, ok := q[key]; !ok {
			continue
		}
		v := q.Get(key)
		switch key {
		case "_id":
			if _, err := ParseID(v); err != nil {
				return f, err
			}
			f.ID = &v
		case "issue_title":
			f.IssueTitle = &v
		case "issue_text":
			f.IssueText = &v
		case "created_by":
			f.CreatedBy = &v
		case "assigned_to":
			f.AssignedTo = &v
		case "status_text":
			f.StatusText = &v
		case "open":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return f, fmt.Errorf("%w: open=%q", ErrInvalidField, v)
			}
			f.Open = &b
		case "created_on", "updated_on":
			t, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return f, fmt.Errorf("%w: %s=%q", ErrInvalidField, key, v)
			}
			if key == "created_on" {
				f.CreatedOn = &t
			} else {
				f.UpdatedOn = &t
			}
		}
	}
	return f, nil
}

// Matches reports whether issue satisfies every set predicate.
func (f IssueFilter) Matches(issue *Issue) bool {
	switch {
	case f.ID != nil && *f.ID != issue.ID:
		return false
	case f.IssueTitle != nil && *f.IssueTitle != issue.IssueTitle:
		return false
	case f.IssueText != nil && *f.IssueText != issue.IssueText:
		return false
	case f.CreatedBy != nil && *f.CreatedBy != issue.CreatedBy:
		return false
	case f.AssignedTo != nil && *f.AssignedTo != issue.AssignedTo:
		return false
	case f.StatusText != nil && *f.StatusText != issue.StatusText:
		return false
	case f.Open != nil && *f.Open != issue.Open:
		return false
	case f.CreatedOn != nil && !f.CreatedOn.Equal(issue.CreatedOn):
		return false
	case f.UpdatedOn != nil && !f.UpdatedOn.Equal(issue.UpdatedOn):
		return false
	}
	return true
}
