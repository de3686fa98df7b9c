package gitlib

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
)

func initRepository(t *testing.T) (string, *git.Repository, plumbing.Hash) {
	t.Helper()

	root := t.TempDir()
	repo, err := git.PlainInitWithOptions(root, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "resources", "website"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "resources", "website", "index.html"), []byte("<h1>hi</h1>"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)

	_, err = wt.Add("resources/website/index.html")
	require.NoError(t, err)

	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Unix(0, 0)},
	})
	require.NoError(t, err)

	return root, repo, hash
}

func TestFromPath(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*testing.T, string, *git.Repository)
		test  func(*testing.T, DotGit, plumbing.Hash)
	}{
		{
			name:  "clean checkout",
			setup: func(t *testing.T, root string, repo *git.Repository) {},
			test: func(t *testing.T, found DotGit, head plumbing.Hash) {
				assert.Equal(t, "main", found.Branch)
				assert.Equal(t, head.String(), found.Sha)
				assert.False(t, found.Dirty)
			},
		},
		{
			name: "detached head reports the commit",
			setup: func(t *testing.T, root string, repo *git.Repository) {
				head, err := repo.Head()
				require.NoError(t, err)
				wt, err := repo.Worktree()
				require.NoError(t, err)
				require.NoError(t, wt.Checkout(&git.CheckoutOptions{Hash: head.Hash()}))
			},
			test: func(t *testing.T, found DotGit, head plumbing.Hash) {
				assert.Equal(t, "HEAD", found.Branch)
				assert.Equal(t, head.String(), found.Sha)
			},
		},
		{
			name: "untracked files mark the tree dirty",
			setup: func(t *testing.T, root string, repo *git.Repository) {
				require.NoError(t, os.WriteFile(filepath.Join(root, "scratch.txt"), []byte("x"), 0o644))
			},
			test: func(t *testing.T, found DotGit, head plumbing.Hash) {
				assert.True(t, found.Dirty)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root, repo, head := initRepository(t)
			tc.setup(t, root, repo)

			found, err := FromPath(filepath.Join(root, "resources", "website"))
			require.NoError(t, err)
			assert.Equal(t, root, found.Root)

			tc.test(t, found, head)
		})
	}
}

func TestFromPathOutsideRepository(t *testing.T) {
	_, err := FromPath(t.TempDir())
	if err == nil {
		t.Skip("temporary directory is inside a git repository")
	}
	assert.ErrorIs(t, err, ErrNotRepository)
}
