// Package tempo talks to the Tempo time-tracking API (v4) and normalizes its
// worklogs into bookr's canonical records.
package tempo

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
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the Tempo Cloud API root.
const DefaultBaseURL = "https://api.tempo.io/4"

const maxBody = 2 << 20

type Config struct {
	BaseURL string
	Token   string
	// PageSize is the limit sent with list requests. Zero means 1000.
	PageSize int
	// HTTPClient is the transport wrapped with bearer authentication.
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

type Client struct {
	baseURL  string
	pageSize int
	http     *http.Client
	logger   zerolog.Logger
}

// NewClient returns a client authenticating every request with the static
// API token as a bearer token.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	size := cfg.PageSize
	if size <= 0 {
		size = 1000
	}
	ctx := context.Background()
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	return &Client{
		baseURL:  base,
		pageSize: size,
		http:     oauth2.NewClient(ctx, ts),
		logger:   cfg.Logger,
	}
}

// APIError is a non-2xx response from Tempo.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("tempo %s: status=%d", e.Op, e.StatusCode)
	}
	body := e.Body
	if len(body) > 300 {
		body = body[:300] + "…"
	}
	return fmt.Sprintf("tempo %s: status=%d body=%s", e.Op, e.StatusCode, body)
}

func (e *APIError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any) ([]byte, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("tempo %s: %w", op, err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("tempo %s: encoding request: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, fmt.Errorf("tempo %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("op", op).Str("method", method).Str("path", path).Msg("tempo request")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tempo %s: %w", op, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("tempo %s: reading response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return b, nil
}

func (c *Client) decode(op string, b []byte, out any) error {
	if err := json.Unmarshal(b, out); err != nil {
		c.logger.Debug().Str("op", op).Err(err).Str("body", string(b)).Msg("tempo json unmarshal failed")
		return fmt.Errorf("tempo %s: decoding response: %w", op, err)
	}
	return nil
}

// flexID accepts an identifier encoded as either a JSON number or string.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("id is neither a string nor a number")
	}
	*f = flexID(n.String())
	return nil
}
