package gitinfo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "content"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "content", "index.md"), []byte("# Hi\n"), 0o600))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("content/index.md")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, hash.String()
}

func TestHead_FromSubdirectory(t *testing.T) {
	dir, hash := initRepo(t)

	rev, err := Head(filepath.Join(dir, "content"))
	require.NoError(t, err)
	assert.Equal(t, hash, rev.Commit)
	assert.Equal(t, hash[:8], rev.Short)
	assert.NotEmpty(t, rev.Branch)

	m := rev.AsMap()
	assert.Equal(t, hash, m["commit"])
}

func TestHead_NotRepository(t *testing.T) {
	_, err := Head(t.TempDir())
	require.ErrorIs(t, err, ErrNotRepository)
}

func TestHead_NoCommits(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	_, err = Head(dir)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotRepository)
}
