// Package vcs provides the narrow go-git facade the quality gates need:
// the staged file list, the current branch, and re-staging files after
// the formatter rewrites them.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when the working directory is not inside
// a git repository.
var ErrNotRepository = errors.New("not a git repository")

// ErrDetachedHead is returned when HEAD does not point to a branch.
var ErrDetachedHead = errors.New("HEAD is detached")

// WrapError wraps an error with additional context while preserving the
// ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Repo wraps an open repository and its worktree.
type Repo struct {
	repo     *git.Repository
	worktree *git.Worktree
}

// Open opens the repository containing path, searching parent directories
// for the .git directory the way the git CLI does.
func Open(path string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, WrapError(ErrNotRepository, path)
		}
		return nil, WrapError(err, "failed to open repository")
	}
	return FromRepository(repo)
}

// FromRepository wraps an already-open go-git repository. Used by tests
// that build repositories in memory.
func FromRepository(repo *git.Repository) (*Repo, error) {
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, WrapError(err, "failed to get worktree")
	}
	return &Repo{repo: repo, worktree: worktree}, nil
}

// CurrentBranch returns the short name of the checked-out branch.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", WrapError(err, "context cancelled")
	}
	head, err := r.repo.Head()
	if err != nil {
		return "", WrapError(err, "failed to get HEAD reference")
	}
	if !head.Name().IsBranch() {
		return "", ErrDetachedHead
	}
	return head.Name().Short(), nil
}

// StagedFiles returns the paths staged for the next commit, sorted.
// Deleted files are excluded: there is nothing on disk to format or
// analyze for them.
func (r *Repo) StagedFiles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapError(err, "context cancelled")
	}
	status, err := r.worktree.Status()
	if err != nil {
		return nil, WrapError(err, "failed to get worktree status")
	}

	var staged []string
	for path, st := range status {
		switch st.Staging {
		case git.Unmodified, git.Untracked:
			continue
		case git.Deleted:
			continue
		default:
			staged = append(staged, path)
		}
	}
	sort.Strings(staged)
	return staged, nil
}

// Stage adds the given paths to the index. Missing paths are ignored,
// matching git add behavior for files the formatter may have removed.
func (r *Repo) Stage(ctx context.Context, paths ...string) error {
	if err := ctx.Err(); err != nil {
		return WrapError(err, "context cancelled")
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := r.worktree.Add(path); err != nil {
			return WrapError(err, fmt.Sprintf("failed to stage %q", path))
		}
	}
	return nil
}
