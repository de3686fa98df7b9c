package umwelt

import (
	"os"
	"path/filepath"
)

// Projectish reports whether path carries the asset bundles of a stack.
func Projectish(path string) bool {
	signature := []string{"resources"}

	for _, item := range signature {
		info, err := os.Stat(filepath.Join(path, item))
		if err != nil || !info.IsDir() {
			return false
		}
	}

	return true
}

// FindRoot walks up from cwd looking for a project, never leaving boundary
// when one is given. Without a match it settles on boundary, then cwd.
func FindRoot(cwd, boundary string) string {
	cwd, err := filepath.Abs(cwd)
	if err != nil {
		return cwd
	}

	for dir := cwd; ; dir = filepath.Dir(dir) {
		if Projectish(dir) {
			return dir
		}

		if dir == boundary || filepath.Dir(dir) == dir {
			break
		}
	}

	if boundary != "" {
		return boundary
	}

	return cwd
}
