package build

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpipe/internal/preprocess"
)

func initRepo(t *testing.T, dir string) *git.Repository {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	writeFiles(t, dir, map[string]string{"src/index.mdx": "hi\n"})
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("src/index.mdx")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Docs", Email: "docs@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return repo
}

func TestDetectEditURLBase(t *testing.T) {
	dir := t.TempDir()
	repo := initRepo(t, dir)

	assert.Equal(t, editURLPrefix+"master/src/", DetectEditURLBase(filepath.Join(dir, "src")))
	assert.Equal(t, editURLPrefix+"master/", DetectEditURLBase(dir))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName("docs-preview"), Create: true}))
	assert.Equal(t, editURLPrefix+"docs-preview/src/", DetectEditURLBase(filepath.Join(dir, "src")))
}

func TestDetectEditURLBase_Fallbacks(t *testing.T) {
	plain := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(plain, "src"), 0o750))
	assert.Equal(t, preprocess.DefaultEditURLBase, DetectEditURLBase(filepath.Join(plain, "src")))

	dir := t.TempDir()
	repo := initRepo(t, dir)
	head, err := repo.Head()
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.Checkout(&git.CheckoutOptions{Hash: head.Hash()}))
	assert.Equal(t, preprocess.DefaultEditURLBase, DetectEditURLBase(filepath.Join(dir, "src")))
}
