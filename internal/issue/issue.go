// Package issue works out which Jira issue a worklog belongs to, from an
// explicit key or from the current git branch name.
package issue

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Onnokh/bookr/internal/jira"
)

// ErrNoIssue means neither an explicit key nor the branch named an issue.
var ErrNoIssue = errors.New("no issue key found")

// LookupError wraps a failed remote lookup of a syntactically valid key.
type LookupError struct {
	Key string
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("looking up issue %s: %v", e.Key, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

var (
	keyPattern = regexp.MustCompile(`^[A-Za-z0-9]+-\d+$`)

	// Patterns tried in order against a branch name.
	branchPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:feature|bugfix|hotfix|release|issue|ticket)/([A-Za-z0-9]+-\d+)(?:/.*)?`),
		regexp.MustCompile(`([A-Za-z0-9]+-\d+)`),
	}
)

// LooksLikeKey reports whether s has the shape of an issue key.
func LooksLikeKey(s string) bool {
	return keyPattern.MatchString(strings.TrimSpace(s))
}

// ExtractKey returns the upper-cased issue key embedded in a branch name.
func ExtractKey(branch string) (string, bool) {
	for _, re := range branchPatterns {
		if m := re.FindStringSubmatch(branch); m != nil {
			return strings.ToUpper(m[1]), true
		}
	}
	return "", false
}

// Fetcher loads issue metadata.
type Fetcher interface {
	GetIssue(ctx context.Context, keyOrID string) (jira.Issue, error)
}

// BranchFunc returns the current branch name.
type BranchFunc func() (string, error)

type Resolver struct {
	Issues Fetcher
	Branch BranchFunc
}

// Resolve picks the issue for a new worklog. An explicit key wins over the
// branch. The metadata fetch happens once and is not retried.
func (r *Resolver) Resolve(ctx context.Context, explicit string) (jira.Issue, error) {
	key, err := r.key(explicit)
	if err != nil {
		return jira.Issue{}, err
	}
	is, err := r.Issues.GetIssue(ctx, key)
	if err != nil {
		return jira.Issue{}, &LookupError{Key: key, Err: err}
	}
	return is, nil
}

func (r *Resolver) key(explicit string) (string, error) {
	explicit = strings.TrimSpace(explicit)
	if explicit != "" {
		if !LooksLikeKey(explicit) {
			return "", fmt.Errorf("%q is not an issue key: %w", explicit, ErrNoIssue)
		}
		return strings.ToUpper(explicit), nil
	}
	if r.Branch == nil {
		return "", ErrNoIssue
	}
	branch, err := r.Branch()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoIssue, err)
	}
	key, ok := ExtractKey(branch)
	if !ok {
		return "", fmt.Errorf("branch %q: %w", branch, ErrNoIssue)
	}
	return key, nil
}
