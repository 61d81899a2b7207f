// Package update checks, at most once a day, whether a newer bookr release
// has been published.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/mod/semver"

	"github.com/Onnokh/bookr/internal/xdg"
)

const (
	cacheTTL = 24 * time.Hour
	// DefaultReleaseURL is the GitHub API endpoint of the latest release.
	DefaultReleaseURL = "https://api.github.com/repos/Onnokh/bookr/releases/latest"
)

// Cache is the on-disk record of the last check. UpdateAvailable records the
// comparison made when the entry was written and is only kept so the file
// keeps its established shape. Check always compares LatestVersion against
// the running version, which may have changed since.
type Cache struct {
	LastCheck       time.Time `json:"lastCheck"`
	LatestVersion   string    `json:"latestVersion"`
	UpdateAvailable bool      `json:"updateAvailable"`
}

// Result is returned when a newer version is available.
type Result struct {
	Current string
	Latest  string
}

type Checker struct {
	Current    string
	CachePath  string
	ReleaseURL string
	HTTPClient *http.Client
	Now        func() time.Time
	Logger     zerolog.Logger
}

// NewChecker returns a Checker caching under <cache dir>/update-cache.json.
func NewChecker(current string, logger zerolog.Logger) (*Checker, error) {
	dir, err := xdg.CacheDir()
	if err != nil {
		return nil, fmt.Errorf("resolving cache directory: %w", err)
	}
	return &Checker{
		Current:    current,
		CachePath:  filepath.Join(dir, "update-cache.json"),
		ReleaseURL: DefaultReleaseURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		Logger:     logger,
	}, nil
}

func (c *Checker) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Check returns a non-nil Result only when an update is available. Failures
// are logged and reported as no update.
func (c *Checker) Check(ctx context.Context) *Result {
	if c.Current == "" || c.Current == "dev" {
		return nil
	}
	current, ok := normalizeVersion(c.Current)
	if !ok {
		c.Logger.Debug().Str("version", c.Current).Msg("update check: invalid current version")
		return nil
	}

	latest, err := c.latest(ctx)
	if err != nil {
		c.Logger.Debug().Err(err).Msg("update check: failed to get latest release")
		return nil
	}
	normalized, ok := normalizeVersion(latest)
	if !ok {
		c.Logger.Debug().Str("tag", latest).Msg("update check: invalid release tag")
		return nil
	}
	if semver.Compare(current, normalized) >= 0 {
		return nil
	}
	return &Result{Current: current, Latest: normalized}
}

func (c *Checker) latest(ctx context.Context) (string, error) {
	if cached, ok := c.readCache(); ok && c.now().Sub(cached.LastCheck) < cacheTTL {
		return cached.LatestVersion, nil
	}

	tag, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}

	entry := Cache{LastCheck: c.now(), LatestVersion: tag}
	if cur, ok := normalizeVersion(c.Current); ok {
		if lat, ok := normalizeVersion(tag); ok {
			entry.UpdateAvailable = semver.Compare(cur, lat) < 0
		}
	}
	if err := c.writeCache(entry); err != nil {
		c.Logger.Debug().Err(err).Msg("update check: failed to cache release")
	}
	return tag, nil
}

func (c *Checker) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ReleaseURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "bookr-update-checker")

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("request latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request latest release: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read latest release body: %w", err)
	}

	var info struct {
		TagName string `json:"tag_name"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("decode latest release: %w", err)
	}
	if info.TagName == "" {
		return "", errors.New("decode latest release: missing tag_name")
	}
	return info.TagName, nil
}

func (c *Checker) readCache() (Cache, bool) {
	if c.CachePath == "" {
		return Cache{}, false
	}
	data, err := os.ReadFile(c.CachePath)
	if err != nil {
		return Cache{}, false
	}
	var cache Cache
	if err := json.Unmarshal(data, &cache); err != nil {
		return Cache{}, false
	}
	return cache, true
}

func (c *Checker) writeCache(cache Cache) error {
	if c.CachePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.CachePath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.CachePath, data, 0o644)
}

func normalizeVersion(version string) (string, bool) {
	if semver.IsValid(version) {
		return version, true
	}
	withPrefix := "v" + version
	if semver.IsValid(withPrefix) {
		return withPrefix, true
	}
	return "", false
}
