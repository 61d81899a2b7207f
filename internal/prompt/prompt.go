// Package prompt wraps the huh forms bookr shows on an interactive terminal.
package prompt

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrAborted is returned when the user leaves a form with ctrl+c or esc.
var ErrAborted = huh.ErrUserAborted

// Confirm asks a yes/no question. Aborting counts as no.
func Confirm(title, description string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Option is one choice of a Select.
type Option[T comparable] struct {
	Label string
	Value T
}

// Select asks the user to pick one option.
func Select[T comparable](title string, options []Option[T]) (T, error) {
	var choice T
	opts := make([]huh.Option[T], 0, len(options))
	for _, o := range options {
		opts = append(opts, huh.NewOption(o.Label, o.Value))
	}
	err := huh.NewSelect[T]().
		Title(title).
		Options(opts...).
		Height(min(len(opts)+2, 15)).
		Value(&choice).
		Run()
	return choice, err
}

// Credentials are the values collected by `bookr init`.
type Credentials struct {
	BaseURL    string
	Email      string
	JiraToken  string
	TempoToken string
}

func ValidateBaseURL(s string) error {
	if !strings.HasPrefix(strings.TrimSpace(s), "http") {
		return errors.New("please enter a valid URL")
	}
	return nil
}

func ValidateEmail(s string) error {
	if !strings.Contains(s, "@") {
		return errors.New("please enter a valid email")
	}
	return nil
}

func ValidateToken(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("API token cannot be empty")
	}
	return nil
}

// InitForm collects Jira and Tempo credentials, prefilled with existing.
func InitForm(existing Credentials) (Credentials, error) {
	c := existing
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Jira base URL").
				Placeholder("https://your-domain.atlassian.net").
				Validate(ValidateBaseURL).
				Value(&c.BaseURL),
			huh.NewInput().
				Title("Jira email").
				Validate(ValidateEmail).
				Value(&c.Email),
			huh.NewInput().
				Title("Jira API token").
				Description("https://id.atlassian.com/manage-profile/security/api-tokens").
				EchoMode(huh.EchoModePassword).
				Validate(ValidateToken).
				Value(&c.JiraToken),
			huh.NewInput().
				Title("Tempo API token (optional)").
				Description("https://id.tempo.io/manage/api-tokens").
				EchoMode(huh.EchoModePassword).
				Value(&c.TempoToken),
		),
	)
	if err := form.Run(); err != nil {
		return Credentials{}, err
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Email = strings.TrimSpace(c.Email)
	c.JiraToken = strings.TrimSpace(c.JiraToken)
	c.TempoToken = strings.TrimSpace(c.TempoToken)
	return c, nil
}
