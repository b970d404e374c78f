package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/issuetracker/issue-tracker/internal/issues/domain"
	"github.com/issuetracker/issue-tracker/internal/issues/repository"
	"github.com/issuetracker/issue-tracker/internal/issues/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct {
	repository.Store
}

func (brokenStore) FindProjectByName(context.Context, string) (*domain.Project, error) {
	return nil, assert.AnError
}

func newRouter(store repository.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(service.NewIssueService(store), nil).Register(r.Group("/api/issues"))
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	return rr
}

func decodeObject(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func decodeArray(t *testing.T, rr *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func createIssue(t *testing.T, r http.Handler, project string, body map[string]any) map[string]any {
	t.Helper()
	out := decodeObject(t, doJSON(t, r, http.MethodPost, "/api/issues/"+project, body))
	require.NotContains(t, out, "error")
	return out
}

func TestCreateIssue(t *testing.T) {
	r := newRouter(repository.NewMemoryStore())

	t.Run("every field", func(t *testing.T) {
		out := createIssue(t, r, "testing1234", map[string]any{
			"issue_title": "Test 1",
			"issue_text":  "This is a test issue with every field",
			"created_by":  "testuser",
			"assigned_to": "assigneduser",
			"status_text": "In Progress",
		})
		assert.Equal(t, "Test 1", out["issue_title"])
		assert.Equal(t, "This is a test issue with every field", out["issue_text"])
		assert.Equal(t, "testuser", out["created_by"])
		assert.Equal(t, "assigneduser", out["assigned_to"])
		assert.Equal(t, "In Progress", out["status_text"])
		assert.Equal(t, true, out["open"])
		assert.NotEmpty(t, out["_id"])
		assert.NotEmpty(t, out["created_on"])
		assert.Equal(t, out["created_on"], out["updated_on"])
	})

	t.Run("only required fields", func(t *testing.T) {
		out := createIssue(t, r, "testing1234", map[string]any{
			"issue_title": "Test 2",
			"issue_text":  "This is a test",
			"created_by":  "testuser",
		})
		assert.Equal(t, "", out["assigned_to"])
		assert.Equal(t, "", out["status_text"])
	})

	t.Run("missing required fields", func(t *testing.T) {
		store := repository.NewMemoryStore()
		r := newRouter(store)
		out := decodeObject(t, doJSON(t, r, http.MethodPost, "/api/issues/testing1234", map[string]any{
			"issue_title": "",
			"issue_text":  "",
			"created_by":  "fCC",
		}))
		assert.Equal(t, map[string]any{"error": "required field(s) missing"}, out)

		_, err := store.FindProjectByName(context.Background(), "testing1234")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("falsy required values", func(t *testing.T) {
		store := repository.NewMemoryStore()
		r := newRouter(store)
		for _, body := range []map[string]any{
			{"issue_title": false, "issue_text": 0, "created_by": "u"},
			{"issue_title": "T", "issue_text": "X", "created_by": nil},
			{"issue_title": map[string]any{"x": 1}, "created_by": "u"},
		} {
			out := decodeObject(t, doJSON(t, r, http.MethodPost, "/api/issues/falsy", body))
			assert.Equal(t, map[string]any{"error": "required field(s) missing"}, out, "%v", body)
		}

		_, err := store.FindProjectByName(context.Background(), "falsy")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unreadable field after required ones", func(t *testing.T) {
		store := repository.NewMemoryStore()
		r := newRouter(store)
		out := decodeObject(t, doJSON(t, r, http.MethodPost, "/api/issues/objects", map[string]any{
			"issue_title": "T", "issue_text": "X", "created_by": "u", "assigned_to": []any{"a", "b"},
		}))
		assert.Equal(t, map[string]any{"error": "could not save issue"}, out)

		_, err := store.FindProjectByName(context.Background(), "objects")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("form encoded body", func(t *testing.T) {
		form := url.Values{"issue_title": {"Form"}, "issue_text": {"posted"}, "created_by": {"browser"}}
		req := httptest.NewRequest(http.MethodPost, "/api/issues/forms", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		out := decodeObject(t, rr)
		assert.Equal(t, "Form", out["issue_title"])
		assert.Equal(t, "browser", out["created_by"])
	})

	t.Run("store failure", func(t *testing.T) {
		r := newRouter(brokenStore{repository.NewMemoryStore()})
		out := decodeObject(t, doJSON(t, r, http.MethodPost, "/api/issues/p", map[string]any{
			"issue_title": "T", "issue_text": "X", "created_by": "u",
		}))
		assert.Equal(t, map[string]any{"error": "could not save issue"}, out)
	})
}

func TestListIssues(t *testing.T) {
	r := newRouter(repository.NewMemoryStore())
	first := createIssue(t, r, "listing", map[string]any{"issue_title": "A", "issue_text": "first", "created_by": "alice"})
	createIssue(t, r, "listing", map[string]any{"issue_title": "A", "issue_text": "second", "created_by": "bob"})
	createIssue(t, r, "other", map[string]any{"issue_title": "A", "issue_text": "first", "created_by": "alice"})

	t.Run("all issues of the project", func(t *testing.T) {
		out := decodeArray(t, doJSON(t, r, http.MethodGet, "/api/issues/listing", nil))
		assert.Len(t, out, 2)
	})

	t.Run("filter by _id", func(t *testing.T) {
		out := decodeArray(t, doJSON(t, r, http.MethodGet, "/api/issues/listing?_id="+first["_id"].(string), nil))
		require.Len(t, out, 1)
		assert.Equal(t, first["_id"], out[0]["_id"])
	})

	t.Run("multiple filters", func(t *testing.T) {
		out := decodeArray(t, doJSON(t, r, http.MethodGet, "/api/issues/listing?issue_title=A&issue_text=second", nil))
		require.Len(t, out, 1)
		assert.Equal(t, "A", out[0]["issue_title"])
		assert.Equal(t, "second", out[0]["issue_text"])
	})

	t.Run("open filter", func(t *testing.T) {
		out := decodeArray(t, doJSON(t, r, http.MethodGet, "/api/issues/listing?open=false", nil))
		assert.Empty(t, out)
	})

	t.Run("no match is an empty array", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodGet, "/api/issues/listing?created_by=nobody", nil)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("unknown project", func(t *testing.T) {
		out := decodeArray(t, doJSON(t, r, http.MethodGet, "/api/issues/ghost", nil))
		assert.Equal(t, []map[string]any{{"error": "project not found"}}, out)
	})

	t.Run("unknown project with malformed filter", func(t *testing.T) {
		out := decodeArray(t, doJSON(t, r, http.MethodGet, "/api/issues/ghost?_id=123&open=maybe", nil))
		assert.Equal(t, []map[string]any{{"error": "project not found"}}, out)
	})

	t.Run("malformed filter", func(t *testing.T) {
		out := decodeObject(t, doJSON(t, r, http.MethodGet, "/api/issues/listing?_id=123", nil))
		assert.Equal(t, map[string]any{"error": "fail fetching issues"}, out)
	})

	t.Run("store failure", func(t *testing.T) {
		r := newRouter(brokenStore{repository.NewMemoryStore()})
		out := decodeObject(t, doJSON(t, r, http.MethodGet, "/api/issues/listing", nil))
		assert.Equal(t, map[string]any{"error": "fail fetching issues"}, out)
	})
}

func TestUpdateIssue(t *testing.T) {
	store := repository.NewMemoryStore()
	r := newRouter(store)
	issue := createIssue(t, r, "testing1234", map[string]any{
		"issue_title": "T", "issue_text": "X", "created_by": "alice", "assigned_to": "bob",
	})
	id := issue["_id"].(string)

	stored := func() domain.Issue {
		project, err := store.FindProjectByName(context.Background(), "testing1234")
		require.NoError(t, err)
		issues, err := store.FindIssues(context.Background(), project.ID, domain.IssueFilter{ID: &id})
		require.NoError(t, err)
		require.Len(t, issues, 1)
		return issues[0]
	}

	t.Run("one field", func(t *testing.T) {
		before := stored()
		out := decodeObject(t, doJSON(t, r, http.MethodPut, "/api/issues/testing1234", map[string]any{
			"_id": id, "issue_text": "new text",
		}))
		assert.Equal(t, map[string]any{"result": "successfully updated", "_id": id}, out)

		after := stored()
		assert.Equal(t, "new text", after.IssueText)
		assert.Equal(t, "bob", after.AssignedTo)
		assert.False(t, after.UpdatedOn.Before(before.UpdatedOn))
	})

	t.Run("multiple fields", func(t *testing.T) {
		out := decodeObject(t, doJSON(t, r, http.MethodPut, "/api/issues/testing1234", map[string]any{
			"_id": id, "issue_title": "Updated", "status_text": "Closed", "open": false,
		}))
		assert.Equal(t, map[string]any{"result": "successfully updated", "_id": id}, out)

		after := stored()
		assert.Equal(t, "Updated", after.IssueTitle)
		assert.Equal(t, "Closed", after.StatusText)
		assert.False(t, after.Open)
	})

	t.Run("missing _id", func(t *testing.T) {
		out := decodeObject(t, doJSON(t, r, http.MethodPut, "/api/issues/testing1234", map[string]any{
			"issue_title": "Updated",
		}))
		assert.Equal(t, map[string]any{"error": "missing _id"}, out)
	})

	t.Run("no fields to update", func(t *testing.T) {
		out := decodeObject(t, doJSON(t, r, http.MethodPut, "/api/issues/testing1234", map[string]any{"_id": id}))
		assert.Equal(t, map[string]any{"error": "no update field(s) sent", "_id": id}, out)
	})

	t.Run("open false alone counts as no fields", func(t *testing.T) {
		out := decodeObject(t, doJSON(t, r, http.MethodPut, "/api/issues/testing1234", map[string]any{"_id": id, "open": false}))
		assert.Equal(t, "no update field(s) sent", out["error"])
	})

	t.Run("unknown _id", func(t *testing.T) {
		ghost := domain.NewID()
		out := decodeObject(t, doJSON(t, r, http.MethodPut, "/api/issues/testing1234", map[string]any{
			"_id": ghost, "issue_title": "Updated",
		}))
		assert.Equal(t, map[string]any{"error": "could not update", "_id": ghost}, out)
	})

	t.Run("malformed _id", func(t *testing.T) {
		out := decodeObject(t, doJSON(t, r, http.MethodPut, "/api/issues/testing1234", map[string]any{
			"_id": "5871dda29faedc3491ff93bb_bad", "issue_title": "Updated",
		}))
		assert.Equal(t, "could not update", out["error"])
	})

	t.Run("object _id", func(t *testing.T) {
		rawID := map[string]any{"$ne": id}
		out := decodeObject(t, doJSON(t, r, http.MethodPut, "/api/issues/testing1234", map[string]any{
			"_id": rawID, "issue_title": "Hijacked",
		}))
		assert.Equal(t, map[string]any{"error": "could not update", "_id": rawID}, out)
		assert.NotEqual(t, "Hijacked", stored().IssueTitle)
	})

	t.Run("unknown project", func(t *testing.T) {
		out := decodeObject(t, doJSON(t, r, http.MethodPut, "/api/issues/ghost", map[string]any{
			"_id": id, "issue_title": "Updated",
		}))
		assert.Equal(t, map[string]any{"error": "could not update", "_id": id}, out)
	})
}

func TestDeleteIssue(t *testing.T) {
	r := newRouter(repository.NewMemoryStore())
	issue := createIssue(t, r, "testing1234", map[string]any{"issue_title": "T", "issue_text": "X", "created_by": "alice"})
	id := issue["_id"].(string)

	out := decodeObject(t, doJSON(t, r, http.MethodDelete, "/api/issues/testing1234", map[string]any{"_id": id}))
	assert.Equal(t, map[string]any{"result": "successfully deleted", "_id": id}, out)

	left := decodeArray(t, doJSON(t, r, http.MethodGet, "/api/issues/testing1234?_id="+id, nil))
	assert.Empty(t, left)

	out = decodeObject(t, doJSON(t, r, http.MethodDelete, "/api/issues/testing1234", map[string]any{"_id": id}))
	assert.Equal(t, map[string]any{"error": "could not delete", "_id": id}, out)

	ghost := domain.NewID()
	out = decodeObject(t, doJSON(t, r, http.MethodDelete, "/api/issues/testing1234", map[string]any{"_id": ghost}))
	assert.Equal(t, map[string]any{"error": "could not delete", "_id": ghost}, out)

	out = decodeObject(t, doJSON(t, r, http.MethodDelete, "/api/issues/testing1234", map[string]any{}))
	assert.Equal(t, map[string]any{"error": "missing _id"}, out)

	t.Run("array _id", func(t *testing.T) {
		kept := createIssue(t, r, "testing1234", map[string]any{"issue_title": "K", "issue_text": "X", "created_by": "alice"})
		rawID := []any{kept["_id"]}

		out := decodeObject(t, doJSON(t, r, http.MethodDelete, "/api/issues/testing1234", map[string]any{"_id": rawID}))
		assert.Equal(t, map[string]any{"error": "could not delete", "_id": rawID}, out)

		left := decodeArray(t, doJSON(t, r, http.MethodGet, "/api/issues/testing1234?_id="+kept["_id"].(string), nil))
		assert.Len(t, left, 1)
	})

	t.Run("form encoded body", func(t *testing.T) {
		issue := createIssue(t, r, "testing1234", map[string]any{"issue_title": "T", "issue_text": "X", "created_by": "alice"})
		id := issue["_id"].(string)

		req := httptest.NewRequest(http.MethodDelete, "/api/issues/testing1234", strings.NewReader(url.Values{"_id": {id}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, map[string]any{"result": "successfully deleted", "_id": id}, decodeObject(t, rr))
	})
}
