// Package git reads the current branch of a working tree so the issue key
// can be inferred from branch names like feature/PROJ-123-add-x.
package git

import (
	"errors"
	"os/exec"
	"strings"
)

var (
	// ErrNotRepository is returned when the directory is not inside a git
	// working tree (git exits with code 128).
	ErrNotRepository = errors.New("not a git repository")
	// ErrDetachedHead is returned when HEAD does not point at a branch.
	ErrDetachedHead = errors.New("HEAD is detached")
)

// Runner executes a git command and returns its output.
// This abstraction allows mocking in tests.
type Runner func(dir string, args ...string) (string, error)

// Repo inspects the git working tree rooted at (or containing) Dir.
type Repo struct {
	Dir    string
	Runner Runner // if nil, uses the real git subprocess
}

// defaultRunner runs git as a real subprocess.
func defaultRunner(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	return string(out), err
}

func (r Repo) run(args ...string) (string, error) {
	runner := r.Runner
	if runner == nil {
		runner = defaultRunner
	}
	out, err := runner(r.Dir, args...)
	if err != nil {
		if isExitCode128(err) {
			return "", ErrNotRepository
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// IsRepository reports whether Dir is inside a git working tree. Any failure
// to run git counts as "no".
func (r Repo) IsRepository() bool {
	out, err := r.run("rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// CurrentBranch returns the checked-out branch name. It prefers
// `git branch --show-current` and falls back to rev-parse for older gits.
func (r Repo) CurrentBranch() (string, error) {
	branch, err := r.run("branch", "--show-current")
	if err != nil {
		if errors.Is(err, ErrNotRepository) {
			return "", err
		}
		branch = ""
	}
	if branch != "" {
		return branch, nil
	}

	branch, err = r.run("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if branch == "" || branch == "HEAD" {
		return "", ErrDetachedHead
	}
	return branch, nil
}

// isExitCode128 reports whether err is an *exec.ExitError with exit code 128.
func isExitCode128(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode() == 128
	}
	return false
}
