package repo

import (
	"fmt"
	"os"
	"path/filepath"
)

// Discover searches upward from path for a ".git" directory (or a bare
// repository directory containing "objects" and "refs" directly), the
// same upward-walk the teacher's Open used. It returns the resolved git
// directory and work tree ("" for a bare repository).
func Discover(path string) (gitDir, workTree string, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", fmt.Errorf("discover: %w", err)
	}

	cur := abs
	for {
		candidate := filepath.Join(cur, ".git")
		if info, statErr := os.Stat(candidate); statErr == nil && info.IsDir() {
			return candidate, cur, nil
		}
		if looksLikeBareGitDir(cur) {
			return cur, "", nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", "", fmt.Errorf("discover: not a git repository (or any parent up to /): %s", abs)
		}
		cur = parent
	}
}

func looksLikeBareGitDir(dir string) bool {
	objInfo, err := os.Stat(filepath.Join(dir, "objects"))
	if err != nil || !objInfo.IsDir() {
		return false
	}
	refInfo, err := os.Stat(filepath.Join(dir, "refs"))
	return err == nil && refInfo.IsDir()
}

// OpenDiscovered is a convenience that combines Discover and Open.
func OpenDiscovered(path string) (*Repository, error) {
	gitDir, workTree, err := Discover(path)
	if err != nil {
		return nil, err
	}
	return Open(gitDir, workTree)
}
