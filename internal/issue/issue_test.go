package issue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Onnokh/bookr/internal/jira"
)

func TestExtractKey(t *testing.T) {
	tests := []struct {
		branch string
		want   string
		ok     bool
	}{
		{"feature/ABC-123", "ABC-123", true},
		{"feature/abc-123/login-form", "ABC-123", true},
		{"bugfix/PROJ-9", "PROJ-9", true},
		{"ticket/x1-2", "X1-2", true},
		{"ABC-42-some-work", "ABC-42", true},
		{"chore/upgrade-deps", "", false},
		{"main", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.branch, func(t *testing.T) {
			got, ok := ExtractKey(tt.branch)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLooksLikeKey(t *testing.T) {
	assert.True(t, LooksLikeKey("ABC-1"))
	assert.True(t, LooksLikeKey(" abc-12 "))
	assert.False(t, LooksLikeKey("ABC"))
	assert.False(t, LooksLikeKey("ABC-"))
	assert.False(t, LooksLikeKey("feature/ABC-1"))
	assert.False(t, LooksLikeKey("2h"))
}

// Feature: bookr, Property 6: Keys embedded after a category prefix are extracted upper-cased
func TestExtractKeyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prefix := rapid.SampledFrom([]string{"feature", "bugfix", "hotfix", "release", "issue", "ticket"}).Draw(t, "prefix")
		project := rapid.StringMatching(`[a-zA-Z][a-zA-Z0-9]{0,6}`).Draw(t, "project")
		num := rapid.StringMatching(`[1-9][0-9]{0,4}`).Draw(t, "num")
		branch := prefix + "/" + project + "-" + num

		got, ok := ExtractKey(branch)
		if !ok {
			t.Fatalf("no key in %q", branch)
		}
		if !LooksLikeKey(got) {
			t.Fatalf("extracted %q is not a key", got)
		}
		if want := strings.ToUpper(project + "-" + num); got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	})
}

type fakeIssues struct {
	calls []string
	err   error
}

func (f *fakeIssues) GetIssue(_ context.Context, key string) (jira.Issue, error) {
	f.calls = append(f.calls, key)
	if f.err != nil {
		return jira.Issue{}, f.err
	}
	return jira.Issue{ID: "10001", Key: key}, nil
}

func TestResolvePrefersExplicitKey(t *testing.T) {
	f := &fakeIssues{}
	branchCalled := false
	r := &Resolver{Issues: f, Branch: func() (string, error) {
		branchCalled = true
		return "feature/OTHER-1", nil
	}}

	is, err := r.Resolve(context.Background(), "abc-7")

	require.NoError(t, err)
	assert.Equal(t, "ABC-7", is.Key)
	assert.False(t, branchCalled)
}

func TestResolveFromBranch(t *testing.T) {
	f := &fakeIssues{}
	r := &Resolver{Issues: f, Branch: func() (string, error) { return "feature/OPS-12/deploy", nil }}

	is, err := r.Resolve(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, "OPS-12", is.Key)
	assert.Equal(t, []string{"OPS-12"}, f.calls)
}

func TestResolveNoIssue(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		branch   BranchFunc
	}{
		{"no branch func", "", nil},
		{"branch without key", "", func() (string, error) { return "main", nil }},
		{"branch error", "", func() (string, error) { return "", errors.New("not a git repository") }},
		{"bad explicit", "login", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeIssues{}
			_, err := (&Resolver{Issues: f, Branch: tt.branch}).Resolve(context.Background(), tt.explicit)
			require.ErrorIs(t, err, ErrNoIssue)
			assert.Empty(t, f.calls, "no lookup without a key")
		})
	}
}

func TestResolveLookupFailureIsNotRetried(t *testing.T) {
	f := &fakeIssues{err: errors.New("404")}
	r := &Resolver{Issues: f}

	_, err := r.Resolve(context.Background(), "ABC-1")

	var lerr *LookupError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, "ABC-1", lerr.Key)
	assert.False(t, errors.Is(err, ErrNoIssue))
	assert.Len(t, f.calls, 1)
}
