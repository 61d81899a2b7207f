package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/charmbracelet/lipgloss"
	"github.com/hay-kot/criterio"

	"github.com/Onnokh/bookr/internal/config"
	"github.com/Onnokh/bookr/internal/issue"
	"github.com/Onnokh/bookr/internal/jira"
	"github.com/Onnokh/bookr/internal/logging"
	"github.com/Onnokh/bookr/internal/tempo"
	"github.com/Onnokh/bookr/internal/undo"
)

// ── Styles ────────────────────────────────────────────────────────────────────

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
)

// fatalError marks setup failures that end the process with exit code 1.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// hintError attaches an actionable suggestion to an error.
type hintError struct {
	err  error
	hint string
}

func (e *hintError) Error() string { return e.err.Error() }
func (e *hintError) Unwrap() error { return e.err }

func withHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return &hintError{err: err, hint: hint}
}

// hintFor returns the suggestion shown under err.
func hintFor(err error) string {
	var h *hintError
	if errors.As(err, &h) {
		return h.hint
	}

	var (
		parseErr  *config.ParseError
		fieldErrs criterio.FieldErrors
		lookupErr *issue.LookupError
		jiraErr   *jira.APIError
		tempoErr  *tempo.APIError
		deleteErr *undo.DeleteError
		netErr    net.Error
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, config.ErrNotConfigured):
		return "run `bookr init` to set up your Jira credentials"
	case errors.As(err, &parseErr):
		return "fix or remove " + parseErr.Path + ", or run `bookr init`"
	case errors.As(err, &fieldErrs):
		return "run `bookr init` to correct your configuration"
	case errors.Is(err, issue.ErrNoIssue):
		return "pass the ticket explicitly, e.g. `bookr PROJ-123 2h`"
	case errors.As(err, &lookupErr):
		return "check the ticket key and that your Jira account can see it"
	case errors.As(err, &jiraErr) && jiraErr.Unauthorized():
		return "check JIRA_EMAIL and JIRA_API_TOKEN, or run `bookr init`"
	case errors.As(err, &tempoErr) && tempoErr.StatusCode == 401:
		return "check TEMPO_API_TOKEN, or run `bookr init`"
	case errors.Is(err, context.Canceled):
		return ""
	case errors.As(err, &deleteErr):
		return "the local history was kept; retry with `bookr undo " + deleteErr.ID + "`"
	case apiStatus(err) >= 500:
		return "the API failed on its side; try again later"
	case errors.As(err, &netErr):
		return "check your network connection and JIRA_BASE_URL"
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return "the server sent an unexpected response; check that JIRA_BASE_URL points at your Jira site"
	case apiStatus(err) > 0:
		return "rerun with --log-level debug and check " + logging.FileName + " for the full response"
	}
	return ""
}

// apiStatus returns the HTTP status of a Jira or Tempo API error, or 0.
func apiStatus(err error) int {
	var (
		jiraErr  *jira.APIError
		tempoErr *tempo.APIError
	)
	switch {
	case errors.As(err, &jiraErr):
		return jiraErr.StatusCode
	case errors.As(err, &tempoErr):
		return tempoErr.StatusCode
	}
	return 0
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("✗ "+err.Error()))
	if hint := hintFor(err); hint != "" {
		fmt.Fprintln(w, hintStyle.Render("  "+hint))
	}
}
