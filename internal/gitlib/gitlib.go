// Package gitlib reads the checkout a stack is deployed from.
package gitlib

import (
	"errors"
	"os"

	"github.com/go-git/go-git/v5"
)

var ErrNotRepository = errors.New("this does not appear to be a git repository")

// DotGit is the revision stamped onto provisioned resources.
type DotGit struct {
	Branch string
	Sha    string
	Root   string
	Dirty  bool
}

func FromCwd() (DotGit, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return DotGit{}, err
	}

	return FromPath(cwd)
}

// FromPath describes the repository enclosing path, searching upward for
// the .git directory.
func FromPath(path string) (DotGit, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return DotGit{}, ErrNotRepository
	}
	if err != nil {
		return DotGit{}, err
	}

	head, err := repo.Head()
	if err != nil {
		return DotGit{}, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return DotGit{}, err
	}

	status, err := wt.Status()
	if err != nil {
		return DotGit{}, err
	}

	return DotGit{
		Branch: head.Name().Short(),
		Sha:    head.Hash().String(),
		Root:   wt.Filesystem.Root(),
		Dirty:  !status.IsClean(),
	}, nil
}
