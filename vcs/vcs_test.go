package vcs_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipgate/shipgate/vcs"
)

// newTestRepo builds an in-memory repository with one initial commit so
// HEAD resolves to a branch.
func newTestRepo(t *testing.T) (*vcs.Repo, *git.Worktree) {
	t.Helper()

	fs := memfs.New()
	gitRepo, err := git.Init(memory.NewStorage(), fs)
	require.NoError(t, err)

	worktree, err := gitRepo.Worktree()
	require.NoError(t, err)

	require.NoError(t, util.WriteFile(fs, "README.md", []byte("# app\n"), 0o644))
	_, err = worktree.Add("README.md")
	require.NoError(t, err)

	_, err = worktree.Commit("chore: initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	repo, err := vcs.FromRepository(gitRepo)
	require.NoError(t, err)
	return repo, worktree
}

func TestCurrentBranch(t *testing.T) {
	repo, _ := newTestRepo(t)

	branch, err := repo.CurrentBranch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}

func TestStagedFilesEmptyWhenNothingStaged(t *testing.T) {
	repo, _ := newTestRepo(t)

	staged, err := repo.StagedFiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, staged)
}

func TestStagedFilesListsAdditionsAndModifications(t *testing.T) {
	repo, worktree := newTestRepo(t)
	bfs := worktree.Filesystem

	require.NoError(t, util.WriteFile(bfs, "lib/main.dart", []byte("void main() {}\n"), 0o644))
	require.NoError(t, util.WriteFile(bfs, "README.md", []byte("# app v2\n"), 0o644))
	_, err := worktree.Add("lib/main.dart")
	require.NoError(t, err)
	_, err = worktree.Add("README.md")
	require.NoError(t, err)

	// An unstaged file must not appear.
	require.NoError(t, util.WriteFile(bfs, "scratch.txt", []byte("x"), 0o644))

	staged, statusErr := repo.StagedFiles(context.Background())
	require.NoError(t, statusErr)
	assert.Equal(t, []string{"README.md", "lib/main.dart"}, staged)
}

func TestStageAddsFileToIndex(t *testing.T) {
	repo, worktree := newTestRepo(t)
	require.NoError(t, util.WriteFile(worktree.Filesystem, "lib/app.dart", []byte("class App {}\n"), 0o644))

	require.NoError(t, repo.Stage(context.Background(), "lib/app.dart"))

	staged, err := repo.StagedFiles(context.Background())
	require.NoError(t, err)
	assert.Contains(t, staged, "lib/app.dart")
}

func TestStageIgnoresEmptyPaths(t *testing.T) {
	repo, _ := newTestRepo(t)
	assert.NoError(t, repo.Stage(context.Background(), ""))
}

func TestOpenMissingRepository(t *testing.T) {
	_, err := vcs.Open(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, vcs.ErrNotRepository)
}
