package tempo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Onnokh/bookr/internal/worklog"
)

type rawWorklog struct {
	TempoWorklogID   flexID `json:"tempoWorklogId"`
	JiraWorklogID    flexID `json:"jiraWorklogId"`
	ID               flexID `json:"id"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
	Description      string `json:"description"`
	Started          string `json:"started"`
	StartDate        string `json:"startDate"`
	StartTime        string `json:"startTime"`
	Issue            struct {
		ID  flexID `json:"id"`
		Key string `json:"key"`
	} `json:"issue"`
}

type envelope struct {
	Results  []rawWorklog `json:"results"`
	Metadata struct {
		Count  int    `json:"count"`
		Offset int    `json:"offset"`
		Limit  int    `json:"limit"`
		Total  int    `json:"total"`
		Next   string `json:"next"`
	} `json:"metadata"`
}

// normalize maps a raw worklog onto a Record. A worklog without a usable
// start is placed at fallback. ok is false when it has no identifier.
func normalize(w rawWorklog, fallback time.Time) (worklog.Record, bool) {
	r := worklog.Record{
		Seconds:    worklog.ClampSeconds(w.TimeSpentSeconds),
		Comment:    w.Description,
		Issue:      worklog.IssueRef{ID: string(w.Issue.ID), Key: w.Issue.Key},
		Provenance: worklog.FromTempo,
	}
	switch {
	case w.TempoWorklogID != "":
		r.ID = string(w.TempoWorklogID)
		if w.JiraWorklogID != "" && w.JiraWorklogID != w.TempoWorklogID {
			r.SecondaryID = string(w.JiraWorklogID)
		}
	case w.JiraWorklogID != "":
		// Only the Jira ID is known, so the record lives in that namespace.
		r.ID = string(w.JiraWorklogID)
		r.Provenance = worklog.FromJira
	case w.ID != "":
		r.ID = string(w.ID)
	default:
		return worklog.Record{}, false
	}

	started, ok := parseStart(w)
	if !ok {
		started = fallback
	}
	r.Started = started
	return r, true
}

func parseStart(w rawWorklog) (time.Time, bool) {
	if w.Started != "" {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000-0700"} {
			if t, err := time.Parse(layout, w.Started); err == nil {
				return t, true
			}
		}
		if t, err := time.ParseInLocation("2006-01-02T15:04:05", w.Started, time.Local); err == nil {
			return t, true
		}
	}
	if w.StartDate == "" {
		return time.Time{}, false
	}
	if w.StartTime != "" {
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", w.StartDate+" "+w.StartTime, time.Local); err == nil {
			return t, true
		}
	}
	t, err := time.ParseInLocation(worklog.DateLayout, w.StartDate, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// decodePage reads either a bare array of worklogs or a paged envelope.
// more reports whether another page should be requested. A page shorter
// than the limit the server reports is the last one, whatever next says.
func decodePage(b []byte, offset int) (items []rawWorklog, more bool, err error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, false, err
		}
		return items, false, nil
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, false, err
	}
	items = env.Results
	switch {
	case len(items) == 0:
		more = false
	case env.Metadata.Next == "":
		more = false
	case env.Metadata.Limit > 0 && len(items) < env.Metadata.Limit:
		more = false
	case env.Metadata.Total > 0 && offset+len(items) >= env.Metadata.Total:
		more = false
	default:
		more = true
	}
	return items, more, nil
}

// FetchForUser returns the user's worklogs between the calendar dates of
// from and to, inclusive.
func (c *Client) FetchForUser(ctx context.Context, accountID string, from, to time.Time) ([]worklog.Record, error) {
	const op = "get worklogs"
	path := "/worklogs/user/" + url.PathEscape(accountID)
	var out []worklog.Record
	offset := 0
	for {
		q := url.Values{}
		q.Set("from", from.Format(worklog.DateLayout))
		q.Set("to", to.Format(worklog.DateLayout))
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(c.pageSize))
		b, err := c.do(ctx, op, http.MethodGet, path, q, nil)
		if err != nil {
			return nil, err
		}
		items, more, err := decodePage(b, offset)
		if err != nil {
			c.logger.Debug().Err(err).Str("body", string(b)).Msg("tempo json unmarshal failed")
			return nil, fmt.Errorf("tempo %s: decoding response: %w", op, err)
		}
		for _, w := range items {
			r, ok := normalize(w, worklog.StartOfDay(from))
			if !ok {
				c.logger.Warn().Msg("skipping worklog without id")
				continue
			}
			if _, parsed := parseStart(w); !parsed {
				c.logger.Warn().Str("id", r.ID).Msg("worklog has no start; placing it on the first day of the range")
			}
			out = append(out, r)
		}
		if !more {
			break
		}
		offset += len(items)
	}
	return out, nil
}

// NewWorklog is the input for creating a Tempo worklog.
type NewWorklog struct {
	IssueID     string
	AccountID   string
	Seconds     int
	Started     time.Time
	Description string
}

// CreateWorklog logs time against an issue and returns the created record.
func (c *Client) CreateWorklog(ctx context.Context, w NewWorklog) (worklog.Record, error) {
	const op = "create worklog"
	issueID, err := strconv.Atoi(w.IssueID)
	if err != nil {
		return worklog.Record{}, fmt.Errorf("tempo %s: issue id %q is not numeric", op, w.IssueID)
	}
	body := struct {
		AuthorAccountID  string `json:"authorAccountId"`
		IssueID          int    `json:"issueId"`
		TimeSpentSeconds int    `json:"timeSpentSeconds"`
		StartDate        string `json:"startDate"`
		StartTime        string `json:"startTime"`
		Description      string `json:"description,omitempty"`
	}{
		AuthorAccountID:  w.AccountID,
		IssueID:          issueID,
		TimeSpentSeconds: w.Seconds,
		StartDate:        w.Started.Format(worklog.DateLayout),
		StartTime:        w.Started.Format("15:04:05"),
		Description:      w.Description,
	}
	b, err := c.do(ctx, op, http.MethodPost, "/worklogs", nil, body)
	if err != nil {
		return worklog.Record{}, err
	}
	var raw rawWorklog
	if err := c.decode(op, b, &raw); err != nil {
		return worklog.Record{}, err
	}
	r, ok := normalize(raw, w.Started)
	if !ok {
		return worklog.Record{}, fmt.Errorf("tempo %s: response has no worklog id", op)
	}
	return r, nil
}

// DeleteWorklog removes a Tempo worklog by its Tempo ID.
func (c *Client) DeleteWorklog(ctx context.Context, id string) error {
	_, err := c.do(ctx, "delete worklog "+id, http.MethodDelete, "/worklogs/"+url.PathEscape(id), nil, nil)
	return err
}
