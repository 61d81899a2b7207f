package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Onnokh/bookr/internal/enrich"
)

// GetIssue fetches an issue by key (PROJ-123) or numeric ID.
func (c *Client) GetIssue(ctx context.Context, keyOrID string) (Issue, error) {
	q := url.Values{}
	q.Set("fields", "summary,status,project")
	var out Issue
	if err := c.doJSON(ctx, "get issue "+keyOrID, http.MethodGet, "/rest/api/3/issue/"+url.PathEscape(keyOrID), q, nil, &out); err != nil {
		return Issue{}, err
	}
	return out, nil
}

// FetchIssue resolves a numeric issue ID for the enrichment cache.
func (c *Client) FetchIssue(ctx context.Context, id string) (enrich.Info, error) {
	is, err := c.GetIssue(ctx, id)
	if err != nil {
		return enrich.Info{}, err
	}
	return enrich.Info{Key: is.Key, Summary: is.Fields.Summary}, nil
}

// Myself returns the authenticated user.
func (c *Client) Myself(ctx context.Context) (User, error) {
	var out User
	if err := c.doJSON(ctx, "get current user", http.MethodGet, "/rest/api/3/myself", nil, nil, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

// SearchIssues runs a JQL query and returns up to max issues.
func (c *Client) SearchIssues(ctx context.Context, jql string, max int) ([]Issue, error) {
	if max <= 0 {
		max = 50
	}
	type body struct {
		JQL        string   `json:"jql"`
		StartAt    int      `json:"startAt"`
		MaxResults int      `json:"maxResults"`
		Fields     []string `json:"fields"`
	}
	type resp struct {
		StartAt    int     `json:"startAt"`
		MaxResults int     `json:"maxResults"`
		Total      int     `json:"total"`
		Issues     []Issue `json:"issues"`
	}

	var out []Issue
	startAt := 0
	for len(out) < max {
		page := max - len(out)
		if page > 100 {
			page = 100
		}
		b := body{JQL: jql, StartAt: startAt, MaxResults: page, Fields: []string{"summary", "status", "project"}}
		var r resp
		if err := c.doJSON(ctx, "search issues", http.MethodPost, "/rest/api/3/search", nil, b, &r); err != nil {
			return nil, err
		}
		out = append(out, r.Issues...)
		startAt += len(r.Issues)
		if len(r.Issues) == 0 || startAt >= r.Total {
			break
		}
	}
	if len(out) > max {
		out = out[:max]
	}
	return out, nil
}

// BrowseURL returns the web link of an issue.
func (c *Client) BrowseURL(key string) string {
	return fmt.Sprintf("%s/browse/%s", c.baseURL, key)
}
