package notion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("secret_test", WithBaseURL(srv.URL), WithTimeout(5*time.Second))
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

const pageJSON = `{
  "object": "page",
  "id": "page-1",
  "url": "https://www.notion.so/page-1",
  "created_time": "2024-01-01T10:00:00.000Z",
  "last_edited_time": "2024-02-01T10:00:00.000Z",
  "icon": {"type": "emoji", "emoji": "📝"},
  "parent": {"type": "database_id", "database_id": "db-1"},
  "properties": {"Name": {"id": "title", "type": "title", "title": [{"plain_text": "Meeting "}, {"plain_text": "notes"}]}}
}`

const databaseJSON = `{
  "object": "database",
  "id": "db-1",
  "url": "https://www.notion.so/db-1",
  "last_edited_time": "2024-02-02T10:00:00.000Z",
  "title": [{"plain_text": "Tasks"}],
  "parent": {"type": "workspace"},
  "properties": {
    "Task": {"id": "title", "type": "title", "title": []},
    "Status": {"id": "abc", "type": "status"}
  }
}`

func TestClient_Search(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer secret_test", r.Header.Get("Authorization"))
		assert.Equal(t, APIVersion, r.Header.Get("Notion-Version"))

		body := decodeBody(t, r)
		assert.Equal(t, "notes", body["query"])
		assert.Equal(t, "cur-1", body["start_cursor"])
		assert.Equal(t, float64(25), body["page_size"])
		sort := body["sort"].(map[string]any)
		assert.Equal(t, "descending", sort["direction"])

		_, _ = io.WriteString(w, `{"results": [`+pageJSON+`,`+databaseJSON+`], "has_more": true, "next_cursor": "cur-2"}`)
	})

	result, err := client.Search(context.Background(), SearchRequest{Query: "notes", StartCursor: "cur-1", PageSize: 25})
	require.NoError(t, err)
	assert.True(t, result.HasMore)
	assert.Equal(t, "cur-2", result.NextCursor)
	require.Len(t, result.Pages, 2)

	page := result.Pages[0]
	assert.Equal(t, "page", page.Object)
	assert.Equal(t, "Meeting notes", page.Title)
	assert.Equal(t, "📝", page.Icon)
	assert.Equal(t, "db-1", page.ParentDatabaseID)
	assert.Equal(t, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), page.LastEditedTime.UTC())

	assert.Equal(t, "database", result.Pages[1].Object)
	assert.Equal(t, "Tasks", result.Pages[1].Title)
}

func TestClient_SearchNullCursor(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		_, hasCursor := body["start_cursor"]
		assert.False(t, hasCursor)
		assert.Equal(t, float64(maxPageSize), body["page_size"])
		_, _ = io.WriteString(w, `{"results": [], "has_more": false, "next_cursor": null}`)
	})

	result, err := client.Search(context.Background(), SearchRequest{})
	require.NoError(t, err)
	assert.False(t, result.HasMore)
	assert.Empty(t, result.NextCursor)
	assert.Empty(t, result.Pages)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		code     string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"object":"error","status":401,"code":"unauthorized","message":"API token is invalid."}`, ErrUnauthorized, "unauthorized"},
		{"not_found", http.StatusNotFound, `{"object":"error","status":404,"code":"object_not_found","message":"Could not find page"}`, ErrNotFound, "object_not_found"},
		{"rate_limited", http.StatusTooManyRequests, `{"code":"rate_limited","message":"slow down"}`, ErrRateLimited, "rate_limited"},
		{"plain_text_body", http.StatusBadGateway, `bad gateway`, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.RetrievePage(context.Background(), "page-1")
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.code, apiErr.Code)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			} else {
				assert.Equal(t, "bad gateway", apiErr.Message)
				assert.NotErrorIs(t, err, ErrNotFound)
				assert.ErrorIs(t, err, ErrUnavailable)
			}
		})
	}
}

func TestClient_RetrieveDatabase(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/databases/db-1", r.URL.Path)
		_, _ = io.WriteString(w, databaseJSON)
	})

	db, err := client.RetrieveDatabase(context.Background(), "db-1")
	require.NoError(t, err)
	assert.Equal(t, "Tasks", db.Title)
	assert.Equal(t, "Task", db.TitleProperty())
	assert.Equal(t, []DatabaseProperty{
		{ID: "abc", Name: "Status", Type: "status"},
		{ID: "title", Name: "Task", Type: "title"},
	}, db.Properties)
}

func TestClient_QueryDatabase(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/databases/db-1":
			_, _ = io.WriteString(w, databaseJSON)
		case "/databases/db-1/query":
			body := decodeBody(t, r)
			filter := body["filter"].(map[string]any)
			assert.Equal(t, "Task", filter["property"])
			assert.Equal(t, map[string]any{"contains": "meeting"}, filter["title"])
			sorts := body["sorts"].([]any)
			assert.Equal(t, "last_edited_time", sorts[0].(map[string]any)["timestamp"])
			_, _ = io.WriteString(w, `{"results": [`+pageJSON+`], "has_more": false, "next_cursor": null}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	pages, err := client.QueryDatabase(context.Background(), "db-1", "meeting", "")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "page-1", pages[0].ID)
}

func TestClient_ListDatabasesFollowsCursor(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		body := decodeBody(t, r)
		assert.Equal(t, map[string]any{"property": "object", "value": "database"}, body["filter"])
		if calls == 1 {
			_, _ = io.WriteString(w, `{"results": [`+databaseJSON+`], "has_more": true, "next_cursor": "next"}`)
			return
		}
		assert.Equal(t, "next", body["start_cursor"])
		_, _ = io.WriteString(w, `{"results": [`+databaseJSON+`], "has_more": false, "next_cursor": null}`)
	})

	dbs, err := client.ListDatabases(context.Background())
	require.NoError(t, err)
	assert.Len(t, dbs, 2)
	assert.Equal(t, 2, calls)
}

func TestClient_CreateDatabasePage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/databases/db-1":
			_, _ = io.WriteString(w, databaseJSON)
		case r.Method == http.MethodPost && r.URL.Path == "/pages":
			body := decodeBody(t, r)
			assert.Equal(t, map[string]any{"database_id": "db-1"}, body["parent"])
			props := body["properties"].(map[string]any)
			assert.Contains(t, props, "Task")
			assert.Len(t, body["children"], 2)
			_, _ = io.WriteString(w, pageJSON)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	page, err := client.CreateDatabasePage(context.Background(), "db-1", "Meeting notes", "first\n\nsecond")
	require.NoError(t, err)
	assert.Equal(t, "page-1", page.ID)
}

func TestClient_AppendBlocksBatches(t *testing.T) {
	var sizes []int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/blocks/page-1/children", r.URL.Path)
		body := decodeBody(t, r)
		sizes = append(sizes, len(body["children"].([]any)))
		_, _ = io.WriteString(w, `{"results": []}`)
	})

	content := ""
	for i := 0; i < 150; i++ {
		content += "paragraph\n\n"
	}
	require.NoError(t, client.AppendBlocks(context.Background(), "page-1", content))
	assert.Equal(t, []int{100, 50}, sizes)
}

func TestClient_AppendBlocksEmpty(t *testing.T) {
	client := NewClient("secret_test")
	err := client.AppendBlocks(context.Background(), "page-1", "  \n\n ")
	assert.ErrorContains(t, err, "nothing to append")
}

func TestClient_ListBlockChildren(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/blocks/page-1/children", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("page_size"))
		_, _ = io.WriteString(w, `{"results": [
		  {"object":"block","id":"b1","type":"paragraph","has_children":false,"paragraph":{"rich_text":[{"plain_text":"hello"}]}},
		  {"object":"block","id":"b2","type":"divider","has_children":false,"divider":{}}
		], "has_more": false, "next_cursor": null}`)
	})

	blocks, err := client.ListBlockChildren(context.Background(), "page-1", 0)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "hello", blocks[0].Text)
	assert.Equal(t, "divider", blocks[1].Type)
	assert.Empty(t, blocks[1].Text)
	assert.NotEmpty(t, blocks[1].Raw)
}

func TestClient_ListUsersSkipsBots(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		_, _ = io.WriteString(w, `{"results": [
		  {"object":"user","id":"u1","type":"person","name":"Ada","avatar_url":null},
		  {"object":"user","id":"u2","type":"bot","name":"Integration"}
		], "has_more": false, "next_cursor": null}`)
	})

	users, err := client.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []User{{ID: "u1", Name: "Ada", Type: "person"}}, users)
}

func TestClient_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, pageJSON)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.RetrievePage(ctx, "page-1")
	assert.ErrorIs(t, err, context.Canceled)
}
