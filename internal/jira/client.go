// Package jira is a small client for the Jira Cloud REST and Agile APIs:
// issue lookup, native worklogs, JQL search and sprints.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// maxBody caps how much of a response body is read.
const maxBody = 2 << 20

type Config struct {
	BaseURL    string
	Email      string
	APIToken   string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

type Client struct {
	baseURL string
	email   string
	token   string
	http    *http.Client
	logger  zerolog.Logger
}

func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		email:   cfg.Email,
		token:   cfg.APIToken,
		http:    hc,
		logger:  cfg.Logger,
	}
}

// BaseURL returns the site root used for browse links.
func (c *Client) BaseURL() string { return c.baseURL }

// APIError is a non-2xx response from Jira.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("jira %s: status=%d", e.Op, e.StatusCode)
	}
	body := e.Body
	if len(body) > 300 {
		body = body[:300] + "…"
	}
	return fmt.Sprintf("jira %s: status=%d body=%s", e.Op, e.StatusCode, body)
}

// NotFound reports whether the resource does not exist (anymore).
func (e *APIError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// Unauthorized reports whether the credentials were rejected.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	if c.baseURL == "" {
		return errors.New("jira base url is empty")
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("jira %s: %w", op, err)
	}
	// Server and Data Center installs may live under a context path.
	u = u.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("jira %s: encoding request: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return fmt.Errorf("jira %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.email != "" || c.token != "" {
		req.SetBasicAuth(c.email, c.token)
	}

	c.logger.Debug().Str("op", op).Str("method", method).Str("path", path).Msg("jira request")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("jira %s: %w", op, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("jira %s: reading response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		c.logger.Debug().Str("op", op).Err(err).Str("body", string(b)).Msg("jira json unmarshal failed")
		return fmt.Errorf("jira %s: decoding response: %w", op, err)
	}
	return nil
}
