package git

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// RepositoryMetadata describes the repository a remediated file came from.
type RepositoryMetadata struct {
	Branch         string `json:"branch,omitempty"`
	Commit         string `json:"commit,omitempty"`
	Remote         string `json:"remote,omitempty"`
	Subfolder      string `json:"subfolder,omitempty"`
	RepoRootFolder string `json:"-"`
}

// CollectRepositoryMetadata collects the branch name, commit hash, remote and
// subfolder of the repository containing sourceFolder.
func CollectRepositoryMetadata(sourceFolder string) (*RepositoryMetadata, error) {
	if sourceFolder == "" {
		return &RepositoryMetadata{}, fmt.Errorf("source folder is not set")
	}

	if absSource, err := filepath.Abs(sourceFolder); err == nil {
		sourceFolder = absSource
	}

	md := &RepositoryMetadata{
		RepoRootFolder: filepath.Clean(sourceFolder),
	}

	repoRootFolder, err := findGitRepositoryPath(sourceFolder)
	if err != nil {
		return md, err
	}

	md.RepoRootFolder = filepath.Clean(repoRootFolder)

	repo, err := git.PlainOpen(repoRootFolder)
	if err != nil {
		return md, fmt.Errorf("failed to open repository: %w", err)
	}

	if rel, err := filepath.Rel(repoRootFolder, sourceFolder); err == nil && rel != "." {
		md.Subfolder = filepath.ToSlash(rel)
	}

	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			md.Branch = head.Name().Short()
		}
		md.Commit = head.Hash().String()
	}

	if remote, err := repo.Remote("origin"); err == nil {
		if cfg := remote.Config(); cfg != nil && len(cfg.URLs) > 0 {
			md.Remote = strings.TrimSuffix(cfg.URLs[0], ".git")
		}
	}

	return md, nil
}
