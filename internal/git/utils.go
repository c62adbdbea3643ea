package git

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// findGitRepositoryPath finds the git repository containing sourceFolder.
func findGitRepositoryPath(sourceFolder string) (string, error) {
	if sourceFolder == "" {
		return "", fmt.Errorf("source folder is not set")
	}

	// check if source folder is a subfolder of a git repository
	for {
		_, err := git.PlainOpen(sourceFolder)
		if err == nil {
			return sourceFolder, nil
		}

		// move up one level
		sourceFolder = filepath.Dir(sourceFolder)

		// check if reached the root folder
		if sourceFolder == filepath.Dir(sourceFolder) {
			break
		}
	}

	return "", ErrNotRepository
}

// openContaining opens the repository holding path and returns it with the
// slash-separated path of the target relative to the repository root.
func openContaining(path string) (*git.Repository, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	abs, err = filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	abs = filepath.Join(abs, filepath.Base(path))

	root, err := findGitRepositoryPath(filepath.Dir(abs))
	if err != nil {
		return nil, "", err
	}
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open repository %q: %w", root, err)
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, "", fmt.Errorf("%q is outside repository %q", path, root)
	}
	return repo, filepath.ToSlash(rel), nil
}
