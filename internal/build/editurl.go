package build

import (
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/docpipe/internal/preprocess"
)

const editURLPrefix = "https://github.com/langchain-ai/docs/edit/"

// DetectEditURLBase derives the edit link prefix from the git checkout
// containing srcDir: the current branch plus srcDir's path inside the
// worktree. Outside a checkout, or on a detached HEAD, the default is used.
func DetectEditURLBase(srcDir string) string {
	abs, err := filepath.Abs(srcDir)
	if err != nil {
		return preprocess.DefaultEditURLBase
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return preprocess.DefaultEditURLBase
	}
	head, err := repo.Head()
	if err != nil || !head.Name().IsBranch() {
		return preprocess.DefaultEditURLBase
	}
	wt, err := repo.Worktree()
	if err != nil {
		return preprocess.DefaultEditURLBase
	}

	base := editURLPrefix + head.Name().Short() + "/"
	rel, err := filepath.Rel(wt.Filesystem.Root(), abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return base + "src/"
	}
	if rel == "." {
		return base
	}
	return base + filepath.ToSlash(rel) + "/"
}
