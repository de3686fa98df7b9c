package mocks

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/linecard/hellocdk/internal/gitlib"
	mockfixture "github.com/linecard/hellocdk/pkg/mock/fixture"

	"github.com/rs/zerolog/log"
)

// MockRepository lays out a stack project under root: a lambda bundle and a
// website bundle with a stylesheet. The returned DotGit describes it as a
// clean checkout of branch.
func MockRepository(t *testing.T, root, branch string) gitlib.DotGit {
	t.Helper()

	files := map[string]string{
		"index.js":   filepath.Join(root, "resources", "lambda", "index.js"),
		"index.html": filepath.Join(root, "resources", "website", "index.html"),
		"app.css":    filepath.Join(root, "resources", "website", "css", "app.css"),
	}

	for src, dst := range files {
		if err := mockfixture.Copy(src, dst); err != nil {
			t.Fatalf("failed to copy %s: %v", src, err)
		}
	}

	return mockGit(root, branch)
}

func mockGit(root, branch string) gitlib.DotGit {
	sha, err := shaPath(root)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to determine SHA")
	}

	return gitlib.DotGit{
		Branch: branch,
		Sha:    sha,
		Root:   root,
		Dirty:  false,
	}
}

func shaPath(path string) (string, error) {
	hasher := sha1.New()

	err := filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}

		if _, err = hasher.Write([]byte(filepath.ToSlash(rel))); err != nil {
			return err
		}

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()

		if _, err := io.Copy(hasher, f); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
