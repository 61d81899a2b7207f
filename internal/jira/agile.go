package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrNoBoards       = errors.New("no boards found")
	ErrNoActiveSprint = errors.New("no active sprint found")
)

// Boards lists every board visible to the user, in the order Jira returns
// them.
func (c *Client) Boards(ctx context.Context) ([]Board, error) {
	type page struct {
		StartAt    int     `json:"startAt"`
		MaxResults int     `json:"maxResults"`
		Total      int     `json:"total"`
		IsLast     bool    `json:"isLast"`
		Values     []Board `json:"values"`
	}

	var out []Board
	startAt := 0
	for {
		q := url.Values{}
		q.Set("startAt", strconv.Itoa(startAt))
		q.Set("maxResults", "50")
		var p page
		if err := c.doJSON(ctx, "get boards", http.MethodGet, "/rest/agile/1.0/board", q, nil, &p); err != nil {
			return nil, err
		}
		out = append(out, p.Values...)
		if p.IsLast || len(p.Values) == 0 {
			break
		}
		startAt += len(p.Values)
		if startAt >= p.Total && p.Total != 0 {
			break
		}
	}
	return out, nil
}

// Sprints lists a board's sprints in the given states, newest start first.
// Sprints without a start date sort last.
func (c *Client) Sprints(ctx context.Context, boardID int, states ...string) ([]Sprint, error) {
	type page struct {
		StartAt    int      `json:"startAt"`
		MaxResults int      `json:"maxResults"`
		Total      int      `json:"total"`
		IsLast     bool     `json:"isLast"`
		Values     []Sprint `json:"values"`
	}
	if len(states) == 0 {
		states = []string{"active", "future", "closed"}
	}

	var out []Sprint
	startAt := 0
	path := fmt.Sprintf("/rest/agile/1.0/board/%d/sprint", boardID)
	for {
		q := url.Values{}
		q.Set("state", strings.Join(states, ","))
		q.Set("startAt", strconv.Itoa(startAt))
		q.Set("maxResults", "100")
		var p page
		if err := c.doJSON(ctx, "get sprints", http.MethodGet, path, q, nil, &p); err != nil {
			return nil, err
		}
		out = append(out, p.Values...)
		if p.IsLast || len(p.Values) == 0 {
			break
		}
		startAt += len(p.Values)
		if p.Total != 0 && startAt >= p.Total {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		si, oki := ParseTime(out[i].StartDate)
		sj, okj := ParseTime(out[j].StartDate)
		if oki != okj {
			return oki
		}
		return si.After(sj)
	})
	return out, nil
}

// ActiveSprint returns the active sprint of the first board.
func (c *Client) ActiveSprint(ctx context.Context) (Sprint, error) {
	boards, err := c.Boards(ctx)
	if err != nil {
		return Sprint{}, err
	}
	if len(boards) == 0 {
		return Sprint{}, ErrNoBoards
	}
	sprints, err := c.Sprints(ctx, boards[0].ID, "active")
	if err != nil {
		return Sprint{}, err
	}
	if len(sprints) == 0 {
		return Sprint{}, ErrNoActiveSprint
	}
	return sprints[0], nil
}
