package service

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/issuetracker/issue-tracker/internal/issues/domain"
)

// UpdatableFields are the body keys an update may change. Anything else in
// the body is dropped before the patch is built.
var UpdatableFields = []string{
	"issue_title", "issue_text", "created_by", "assigned_to", "status_text", "open",
}

// Truthy reports whether a decoded body value counts as "sent". nil, false,
// "", 0 and NaN do not; everything else does (including the string "false").
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	default:
		return true
	}
}

// StringValue renders a decoded scalar as a string field value.
func StringValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	default:
		return "", fmt.Errorf("%w: %T is not a string", domain.ErrInvalidField, v)
	}
}

func boolValue(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return false, fmt.Errorf("%w: open=%q", domain.ErrInvalidField, x)
		}
		return b, nil
	case float64:
		if x == 0 || x == 1 {
			return x == 1, nil
		}
	}
	return false, fmt.Errorf("%w: open=%v", domain.ErrInvalidField, v)
}

func anyTruthy(fields map[string]any) bool {
	for _, key := range UpdatableFields {
		if Truthy(fields[key]) {
			return true
		}
	}
	return false
}

// buildPatch turns the updatable keys present in fields into a typed patch.
// Present keys are applied even when falsy. A null open is ignored.
func buildPatch(fields map[string]any, now time.Time) (domain.IssuePatch, error) {
	patch := domain.IssuePatch{UpdatedOn: now}

	str := func(key string) (*string, error) {
		v, ok := fields[key]
		if !ok {
			return nil, nil
		}
		s, err := StringValue(v)
		if err != nil {
			return nil, err
		}
		return &s, nil
	}

	var err error
	if patch.IssueTitle, err = str("issue_title"); err != nil {
		return patch, err
	}
	if patch.IssueText, err = str("issue_text"); err != nil {
		return patch, err
	}
	if patch.CreatedBy, err = str("created_by"); err != nil {
		return patch, err
	}
	if patch.AssignedTo, err = str("assigned_to"); err != nil {
		return patch, err
	}
	if patch.StatusText, err = str("status_text"); err != nil {
		return patch, err
	}
	if v, ok := fields["open"]; ok && v != nil {
		b, err := boolValue(v)
		if err != nil {
			return patch, err
		}
		patch.Open = &b
	}
	return patch, nil
}

// createValues renders the create fields as strings. Falsy values become ""
// so optional fields default to empty.
func createValues(fields map[string]any) (map[string]string, error) {
	out := make(map[string]string, 5)
	for _, key := range []string{"issue_title", "issue_text", "created_by", "assigned_to", "status_text"} {
		v := fields[key]
		if !Truthy(v) {
			out[key] = ""
			continue
		}
		s, err := StringValue(v)
		if err != nil {
			return nil, err
		}
		out[key] = s
	}
	return out, nil
}
