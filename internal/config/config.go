package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hay-kot/criterio"
	"github.com/spf13/viper"
)

// Keys used in the config file and, in the same spelling, the environment.
const (
	KeyJiraBaseURL   = "JIRA_BASE_URL"
	KeyJiraEmail     = "JIRA_EMAIL"
	KeyJiraAPIToken  = "JIRA_API_TOKEN"
	KeyTempoAPIToken = "TEMPO_API_TOKEN"
	KeyTempoBaseURL  = "TEMPO_BASE_URL"
	KeyLogLevel      = "LOG_LEVEL"

	legacyTempoAPIToken = "tempoApiToken"
)

// DefaultTempoBaseURL is used when TEMPO_BASE_URL is unset.
const DefaultTempoBaseURL = "https://api.tempo.io/4"

// ErrNotConfigured is returned by Validate when a required credential is missing.
var ErrNotConfigured = errors.New("bookr is not configured")

// Config holds the credentials and settings bookr needs.
type Config struct {
	JiraBaseURL   string `json:"JIRA_BASE_URL"`
	JiraEmail     string `json:"JIRA_EMAIL"`
	JiraAPIToken  string `json:"JIRA_API_TOKEN"`
	TempoAPIToken string `json:"TEMPO_API_TOKEN,omitempty"`
	TempoBaseURL  string `json:"TEMPO_BASE_URL,omitempty"`
	LogLevel      string `json:"LOG_LEVEL,omitempty"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		TempoBaseURL: DefaultTempoBaseURL,
		LogLevel:     "info",
	}
}

// HasTempo reports whether a Tempo token is configured.
func (c Config) HasTempo() bool {
	return c.TempoAPIToken != ""
}

// Merge combines file and environment configs, with the file taking
// precedence. Missing keys fall back to env, then defaults.
func Merge(file, env *Config) Config {
	result := Defaults()
	for _, src := range []*Config{env, file} {
		if src == nil {
			continue
		}
		overlay(&result.JiraBaseURL, src.JiraBaseURL)
		overlay(&result.JiraEmail, src.JiraEmail)
		overlay(&result.JiraAPIToken, src.JiraAPIToken)
		overlay(&result.TempoAPIToken, src.TempoAPIToken)
		overlay(&result.TempoBaseURL, src.TempoBaseURL)
		overlay(&result.LogLevel, src.LogLevel)
	}
	result.JiraBaseURL = strings.TrimRight(result.JiraBaseURL, "/")
	return result
}

func overlay(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// Load reads the config file at path and layers it over the environment.
// An absent file is not an error.
func Load(path string) (Config, error) {
	file, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Merge(file, loadEnv()), nil
}

// loadFile returns nil when the file is absent or empty.
func loadFile(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	v := viper.New()
	v.SetConfigType("json")
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	cfg := fromViper(v)
	if cfg.TempoAPIToken == "" {
		cfg.TempoAPIToken = v.GetString(legacyTempoAPIToken)
	}
	return &cfg, nil
}

func loadEnv() *Config {
	v := viper.New()
	v.AutomaticEnv()
	cfg := fromViper(v)
	return &cfg
}

func fromViper(v *viper.Viper) Config {
	return Config{
		JiraBaseURL:   v.GetString(KeyJiraBaseURL),
		JiraEmail:     v.GetString(KeyJiraEmail),
		JiraAPIToken:  v.GetString(KeyJiraAPIToken),
		TempoAPIToken: v.GetString(KeyTempoAPIToken),
		TempoBaseURL:  v.GetString(KeyTempoBaseURL),
		LogLevel:      v.GetString(KeyLogLevel),
	}
}

// Validate checks that the required credentials are present and well formed.
// Missing credentials wrap ErrNotConfigured; malformed values are reported as
// criterio field errors.
func (c Config) Validate() error {
	var missing []string
	for key, v := range map[string]string{
		KeyJiraBaseURL:  c.JiraBaseURL,
		KeyJiraEmail:    c.JiraEmail,
		KeyJiraAPIToken: c.JiraAPIToken,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, ", "))
	}

	return criterio.ValidateStruct(
		criterio.Run(KeyJiraBaseURL, c.JiraBaseURL, httpURL),
		criterio.Run(KeyJiraEmail, c.JiraEmail, email),
		criterio.Run(KeyTempoBaseURL, c.TempoBaseURL, optionalHTTPURL),
	)
}

func httpURL(s string) error {
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an http(s) URL, got %q", s)
	}
	return nil
}

func optionalHTTPURL(s string) error {
	if s == "" {
		return nil
	}
	return httpURL(s)
}

func email(s string) error {
	if !strings.Contains(s, "@") {
		return fmt.Errorf("must be an email address, got %q", s)
	}
	return nil
}

// Save writes cfg to path as JSON with owner-only permissions.
func Save(path string, cfg Config) error {
	if cfg.TempoBaseURL == DefaultTempoBaseURL {
		cfg.TempoBaseURL = ""
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename config file: %w", err)
	}
	return nil
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
