package jira

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	c := NewClient("https://example.atlassian.net/", "user@example.com", "token")
	assert.Equal(t, "https://example.atlassian.net", c.baseURL)
	assert.Equal(t, "user@example.com", c.email)
	assert.Equal(t, "https://example.atlassian.net/browse/PROJ-1", c.BrowseURL("PROJ-1"))
}

func TestGetMyself(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/myself", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok, "expected basic auth")
		assert.Equal(t, "test@example.com", user)
		assert.Equal(t, "token", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accountId":"abc123","displayName":"Test User","active":true}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "test@example.com", "token")
	user, err := c.GetMyself(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", user.AccountID)
	assert.Equal(t, "Test User", user.DisplayName)
}

func TestClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessages":["Bad things"],"errors":{"summary":"Summary is too long"}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "bad@example.com", "wrong")
	err := c.UpdateIssue(context.Background(), "PROJ-1", map[string]any{"summary": "x"})
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok, "expected APIError in chain, got %v", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, []string{"summary"}, apiErr.FieldKeys())
	assert.Equal(t, "Bad things; summary: Summary is too long", apiErr.Reason())
}

func TestAPIErrorFallsBackToBody(t *testing.T) {
	apiErr := newAPIError(http.StatusBadGateway, []byte("  upstream down "))
	assert.Equal(t, "upstream down", apiErr.Reason())
	assert.Contains(t, apiErr.Error(), "502")
}

func TestGetIssueKeepsRawFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue/PROJ-7", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": "10007",
			"key": "PROJ-7",
			"fields": {
				"summary": "Fix login",
				"priority": {"id": "3", "name": "Medium"},
				"customfield_10010": {"id": "1", "value": "Red"}
			}
		}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "u", "t")
	issue, err := c.GetIssue(context.Background(), "PROJ-7")
	require.NoError(t, err)
	assert.Equal(t, "Fix login", issue.Fields.Summary)
	require.NotNil(t, issue.Fields.Priority)
	assert.Equal(t, "Medium", issue.Fields.Priority.Name)
	assert.Equal(t, map[string]any{"id": "1", "value": "Red"}, issue.Raw["customfield_10010"])
}

func TestGetEditMeta(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue/PROJ-1/editmeta", r.URL.Path)
		_, _ = w.Write([]byte(`{"fields":{"summary":{"required":true,"name":"Summary","schema":{"type":"string","system":"summary"},"operations":["set"]}}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "u", "t")
	meta, err := c.GetEditMeta(context.Background(), "PROJ-1")
	require.NoError(t, err)
	require.Contains(t, meta.Fields, "summary")
	assert.True(t, meta.Fields["summary"].Required)
	assert.Equal(t, "summary", meta.Fields["summary"].Schema.System)
}

func TestGetCreateMetaPaginates(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/rest/api/3/issue/createmeta/PROJ/issuetypes/10001", r.URL.Path)
		if r.URL.Query().Get("startAt") == "0" {
			_, _ = w.Write([]byte(`{"startAt":0,"total":2,"fields":[{"fieldId":"summary","name":"Summary","schema":{"type":"string"}}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"startAt":1,"total":2,"fields":[{"fieldId":"duedate","name":"Due","schema":{"type":"date"}}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "u", "t")
	fields, err := c.GetCreateMeta(context.Background(), "PROJ", "10001")
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "summary", fields[0].FieldID)
	assert.Equal(t, "duedate", fields[1].FieldID)
	assert.Equal(t, 2, calls)
}

func TestIssuePickerDedupesSections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue/picker", r.URL.Path)
		assert.Equal(t, "login", r.URL.Query().Get("query"))
		assert.Equal(t, `project = "PROJ"`, r.URL.Query().Get("currentJQL"))
		_, _ = w.Write([]byte(`{"sections":[
			{"id":"hs","issues":[{"key":"PROJ-1","summaryText":"Login"}]},
			{"id":"cs","issues":[{"key":"PROJ-1","summaryText":"Login"},{"key":"PROJ-2","summaryText":"Logout"}]}
		]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "u", "t")
	issues, err := c.IssuePicker(context.Background(), `/rest/api/3/issue/picker?currentJQL=project+%3D+%22PROJ%22`, "login")
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "PROJ-1", issues[0].Key)
	assert.Equal(t, "PROJ-2", issues[1].Key)
}

func TestAutoCompleteShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "array", body: `[{"accountId":"a"},{"accountId":"b"}]`, want: 2},
		{name: "suggestions", body: `{"suggestions":[{"label":"backend"}]}`, want: 1},
		{name: "values", body: `{"values":[{"id":"1"},{"id":"2"},{"id":"3"}]}`, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "ba", r.URL.Query().Get("query"))
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewClient(server.URL, "u", "t")
			got, err := c.AutoComplete(context.Background(), server.URL+"/rest/api/3/user/search?query=", "ba")
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestCreateOption(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/api/3/component", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		var in map[string]any
		require.NoError(t, json.Unmarshal(body, &in))
		assert.Equal(t, "Backend", in["name"])
		_, _ = w.Write([]byte(`{"id":"10500","name":"Backend"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "u", "t")
	created, err := c.CreateOption(context.Background(), "/rest/api/3/component", map[string]any{"name": "Backend", "project": "PROJ"})
	require.NoError(t, err)
	assert.Equal(t, "10500", created["id"])
}

func TestAddWorklogNewEstimate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue/PROJ-1/worklog", r.URL.Path)
		assert.Equal(t, "new", r.URL.Query().Get("adjustEstimate"))
		assert.Equal(t, "2d", r.URL.Query().Get("newEstimate"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	c := NewClient(server.URL, "u", "t")
	err := c.AddWorklog(context.Background(), "PROJ-1", Worklog{TimeSpent: "3h"}, "2d")
	require.NoError(t, err)
}
