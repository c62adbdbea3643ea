package git

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ReadFileAtRevision returns the content of the file at path as recorded in
// revision rev ("HEAD", "HEAD~1", a branch, a tag or a full hash) of the
// repository containing it.
func ReadFileAtRevision(path, rev string) (string, error) {
	if rev == "" {
		return "", ErrEmptyRevision
	}
	repo, rel, err := openContaining(path)
	if err != nil {
		return "", err
	}

	commit, err := resolveCommit(repo, rev)
	if err != nil {
		return "", err
	}

	file, err := commit.File(rel)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", fmt.Errorf("%w: %s@%s", ErrFileNotFound, rel, rev)
		}
		return "", fmt.Errorf("failed to read %s@%s: %w", rel, rev, err)
	}
	return file.Contents()
}

func resolveCommit(repo *git.Repository, rev string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve revision %q: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", hash, err)
	}
	return commit, nil
}
