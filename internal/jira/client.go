// Package jira provides a client for the Jira REST API.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a Jira REST API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	email      string
	apiToken   string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new Jira API client.
func NewClient(baseURL, email, apiToken string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		email:    email,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the Jira instance base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BrowseURL returns the Jira web URL for the given issue key.
func (c *Client) BrowseURL(issueKey string) string {
	return c.baseURL + "/browse/" + issueKey
}

// resolve turns a path or an absolute URL returned by Jira (autoCompleteUrl,
// createUrl) into a request URL on this instance.
func (c *Client) resolve(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.baseURL + pathOrURL
}

// do executes an HTTP request with authentication and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, newAPIError(resp.StatusCode, data)
	}

	return data, nil
}

// doJSON marshals in (if non-nil), executes the request and decodes into out (if non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	data, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// GetMyself returns the currently authenticated user.
func (c *Client) GetMyself(ctx context.Context) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodGet, "/rest/api/3/myself", nil, &user); err != nil {
		return nil, fmt.Errorf("getting myself: %w", err)
	}
	return &user, nil
}

// GetIssue returns the full details for a single issue by key or ID.
func (c *Client) GetIssue(ctx context.Context, issueKeyOrID string) (*Issue, error) {
	var issue Issue
	path := fmt.Sprintf("/rest/api/3/issue/%s", url.PathEscape(issueKeyOrID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &issue); err != nil {
		return nil, fmt.Errorf("getting issue %s: %w", issueKeyOrID, err)
	}
	return &issue, nil
}

// GetEditMeta returns the editable field metadata of an issue.
func (c *Client) GetEditMeta(ctx context.Context, issueKeyOrID string) (*EditMeta, error) {
	var meta EditMeta
	path := fmt.Sprintf("/rest/api/3/issue/%s/editmeta", url.PathEscape(issueKeyOrID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &meta); err != nil {
		return nil, fmt.Errorf("getting edit metadata for %s: %w", issueKeyOrID, err)
	}
	return &meta, nil
}

// GetCreateIssueTypes lists the issue types that can be created in a project.
func (c *Client) GetCreateIssueTypes(ctx context.Context, projectKey string) ([]IssueType, error) {
	var page IssueTypesPage
	path := fmt.Sprintf("/rest/api/3/issue/createmeta/%s/issuetypes", url.PathEscape(projectKey))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, fmt.Errorf("getting issue types for %s: %w", projectKey, err)
	}
	return page.IssueTypes, nil
}

// GetCreateMeta returns the create-screen field metadata for a project and
// issue type, following pagination.
func (c *Client) GetCreateMeta(ctx context.Context, projectKey, issueTypeID string) ([]FieldMeta, error) {
	var all []FieldMeta
	startAt := 0
	for {
		path := fmt.Sprintf("/rest/api/3/issue/createmeta/%s/issuetypes/%s?startAt=%d&maxResults=50",
			url.PathEscape(projectKey), url.PathEscape(issueTypeID), startAt)
		var page CreateMetaFields
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, fmt.Errorf("getting create metadata for %s/%s: %w", projectKey, issueTypeID, err)
		}
		all = append(all, page.Fields...)
		startAt += len(page.Fields)
		if len(page.Fields) == 0 || startAt >= page.Total {
			break
		}
	}
	return all, nil
}

// IssuePicker returns issue suggestions for query. pickerURL is the picker
// endpoint, optionally carrying a currentJQL parameter that scopes the search.
func (c *Client) IssuePicker(ctx context.Context, pickerURL, query string) ([]PickerIssue, error) {
	if pickerURL == "" {
		pickerURL = "/rest/api/3/issue/picker"
	}
	u, err := url.Parse(pickerURL)
	if err != nil {
		return nil, fmt.Errorf("parsing picker url: %w", err)
	}
	q := u.Query()
	q.Set("query", query)
	u.RawQuery = q.Encode()

	var resp PickerResponse
	if err := c.doJSON(ctx, http.MethodGet, u.String(), nil, &resp); err != nil {
		return nil, fmt.Errorf("searching issues: %w", err)
	}

	seen := make(map[string]bool)
	var issues []PickerIssue
	for _, section := range resp.Sections {
		for _, issue := range section.Issues {
			if seen[issue.Key] {
				continue
			}
			seen[issue.Key] = true
			issues = append(issues, issue)
		}
	}
	return issues, nil
}

// AutoComplete queries a field's autoCompleteUrl. Jira returns several
// shapes depending on the field (a bare array, {suggestions}, {values});
// all are flattened into a list of option objects.
func (c *Client) AutoComplete(ctx context.Context, autoCompleteURL, query string) ([]map[string]any, error) {
	data, err := c.do(ctx, http.MethodGet, autoCompleteURL+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("autocomplete: %w", err)
	}

	var list []map[string]any
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Suggestions []map[string]any `json:"suggestions"`
		Values      []map[string]any `json:"values"`
		Results     []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing autocomplete results: %w", err)
	}
	switch {
	case wrapped.Suggestions != nil:
		return wrapped.Suggestions, nil
	case wrapped.Values != nil:
		return wrapped.Values, nil
	default:
		return wrapped.Results, nil
	}
}

// CreateOption posts createData to a field's createUrl (components,
// versions, custom field options) and returns the created entity.
func (c *Client) CreateOption(ctx context.Context, createURL string, createData map[string]any) (map[string]any, error) {
	var created map[string]any
	if err := c.doJSON(ctx, http.MethodPost, createURL, createData, &created); err != nil {
		return nil, fmt.Errorf("creating option: %w", err)
	}
	return created, nil
}

// GetComments returns the comments for a Jira issue, newest first.
func (c *Client) GetComments(ctx context.Context, issueKeyOrID string) ([]Comment, error) {
	path := fmt.Sprintf("/rest/api/3/issue/%s/comment?orderBy=-created&maxResults=50", url.PathEscape(issueKeyOrID))
	var resp CommentsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("getting comments for %s: %w", issueKeyOrID, err)
	}
	return resp.Comments, nil
}

// AddComment adds a comment to a Jira issue. The body is an ADF document.
func (c *Client) AddComment(ctx context.Context, issueKeyOrID string, body map[string]any) (*Comment, error) {
	path := fmt.Sprintf("/rest/api/3/issue/%s/comment", url.PathEscape(issueKeyOrID))
	var comment Comment
	if err := c.doJSON(ctx, http.MethodPost, path, map[string]any{"body": body}, &comment); err != nil {
		return nil, fmt.Errorf("adding comment to %s: %w", issueKeyOrID, err)
	}
	return &comment, nil
}

// AddWorklog logs work on an issue. newEstimate, when set, replaces the
// remaining estimate.
func (c *Client) AddWorklog(ctx context.Context, issueKeyOrID string, wl Worklog, newEstimate string) error {
	path := fmt.Sprintf("/rest/api/3/issue/%s/worklog", url.PathEscape(issueKeyOrID))
	if newEstimate != "" {
		path += "?adjustEstimate=new&newEstimate=" + url.QueryEscape(newEstimate)
	}
	if err := c.doJSON(ctx, http.MethodPost, path, wl, nil); err != nil {
		return fmt.Errorf("logging work on %s: %w", issueKeyOrID, err)
	}
	return nil
}

// UpdateIssue updates an issue's fields (summary, description, priority, etc.).
func (c *Client) UpdateIssue(ctx context.Context, issueKeyOrID string, fields map[string]any) error {
	path := fmt.Sprintf("/rest/api/3/issue/%s", url.PathEscape(issueKeyOrID))
	if err := c.doJSON(ctx, http.MethodPut, path, map[string]any{"fields": fields}, nil); err != nil {
		return fmt.Errorf("updating issue %s: %w", issueKeyOrID, err)
	}
	return nil
}

// CreateIssue creates a new issue and returns the created issue reference.
func (c *Client) CreateIssue(ctx context.Context, req CreateIssueRequest) (*CreateIssueResponse, error) {
	var resp CreateIssueResponse
	if err := c.doJSON(ctx, http.MethodPost, "/rest/api/3/issue", req, &resp); err != nil {
		return nil, fmt.Errorf("creating issue: %w", err)
	}
	return &resp, nil
}

// GetTransitions returns the available transitions for an issue.
func (c *Client) GetTransitions(ctx context.Context, issueKeyOrID string) ([]Transition, error) {
	path := fmt.Sprintf("/rest/api/3/issue/%s/transitions", url.PathEscape(issueKeyOrID))
	var resp TransitionsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("getting transitions for %s: %w", issueKeyOrID, err)
	}
	return resp.Transitions, nil
}

// TransitionIssue executes a workflow transition on an issue.
func (c *Client) TransitionIssue(ctx context.Context, issueKeyOrID, transitionID string) error {
	body := map[string]any{
		"transition": map[string]string{"id": transitionID},
	}
	path := fmt.Sprintf("/rest/api/3/issue/%s/transitions", url.PathEscape(issueKeyOrID))
	if err := c.doJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("transitioning issue %s: %w", issueKeyOrID, err)
	}
	return nil
}

// SearchAllUsers fetches all active users from the instance.
// The Jira API returns users in pages; this method paginates through all results.
func (c *Client) SearchAllUsers(ctx context.Context) ([]User, error) {
	var all []User
	startAt := 0
	maxResults := 1000

	for {
		path := fmt.Sprintf("/rest/api/3/users/search?startAt=%d&maxResults=%d", startAt, maxResults)
		var page []User
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, fmt.Errorf("searching users (startAt=%d): %w", startAt, err)
		}
		if len(page) == 0 {
			break
		}
		for _, u := range page {
			if u.Active {
				all = append(all, u)
			}
		}
		if len(page) < maxResults {
			break
		}
		startAt += len(page)
	}
	return all, nil
}
