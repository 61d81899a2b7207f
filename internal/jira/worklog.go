package jira

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// AddWorklog creates a native worklog on an issue. The comment is sent as a
// single-paragraph document and omitted when empty.
func (c *Client) AddWorklog(ctx context.Context, issueKey string, w NewWorklog) (Worklog, error) {
	type body struct {
		TimeSpentSeconds int    `json:"timeSpentSeconds"`
		Comment          *Doc   `json:"comment,omitempty"`
		Started          string `json:"started"`
	}
	b := body{TimeSpentSeconds: w.Seconds, Started: w.Started.Format(TimeLayout)}
	if w.Comment != "" {
		b.Comment = Paragraph(w.Comment)
	}
	var out Worklog
	path := "/rest/api/3/issue/" + url.PathEscape(issueKey) + "/worklog"
	if err := c.doJSON(ctx, "add worklog to "+issueKey, http.MethodPost, path, nil, b, &out); err != nil {
		return Worklog{}, err
	}
	return out, nil
}

// DeleteWorklog removes a native worklog.
func (c *Client) DeleteWorklog(ctx context.Context, issueKeyOrID, worklogID string) error {
	path := "/rest/api/3/issue/" + url.PathEscape(issueKeyOrID) + "/worklog/" + url.PathEscape(worklogID)
	return c.doJSON(ctx, "delete worklog "+worklogID, http.MethodDelete, path, nil, nil, nil)
}

// IssueWorklogs returns every worklog of an issue.
func (c *Client) IssueWorklogs(ctx context.Context, issueKey string) ([]Worklog, error) {
	type resp struct {
		StartAt    int       `json:"startAt"`
		MaxResults int       `json:"maxResults"`
		Total      int       `json:"total"`
		Worklogs   []Worklog `json:"worklogs"`
	}

	var out []Worklog
	startAt := 0
	for {
		q := url.Values{}
		q.Set("startAt", strconv.Itoa(startAt))
		q.Set("maxResults", "100")
		var r resp
		path := "/rest/api/3/issue/" + url.PathEscape(issueKey) + "/worklog"
		if err := c.doJSON(ctx, "get worklogs for "+issueKey, http.MethodGet, path, q, nil, &r); err != nil {
			return nil, err
		}
		out = append(out, r.Worklogs...)
		startAt += len(r.Worklogs)
		if len(r.Worklogs) == 0 || startAt >= r.Total {
			break
		}
	}
	return out, nil
}
