package git

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/sourcegraph/go-diff/diff"
)

// AddedLines returns, for every file touched between the base and head
// revisions, a map of new-file line numbers to the added text. Line numbers
// are 1-based and only include additions. Deleted files are skipped.
func AddedLines(repoPath, baseRev, headRev string) (map[string]map[int]string, error) {
	if baseRev == "" || headRev == "" {
		return nil, ErrEmptyRevision
	}

	root, err := findGitRepositoryPath(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %q: %w", root, err)
	}

	baseCommit, err := resolveCommit(repo, baseRev)
	if err != nil {
		return nil, err
	}
	headCommit, err := resolveCommit(repo, headRev)
	if err != nil {
		return nil, err
	}

	baseTree, err := baseCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load base tree: %w", err)
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load head tree: %w", err)
	}

	patch, err := baseTree.Patch(headTree)
	if err != nil {
		return nil, fmt.Errorf("failed to compute diff: %w", err)
	}

	parsed, err := diff.ParseMultiFileDiff([]byte(patch.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	result := make(map[string]map[int]string)
	for _, fd := range parsed {
		// deleted files and files without content changes
		if fd == nil || fd.NewName == "/dev/null" || len(fd.Hunks) == 0 {
			continue
		}

		added := make(map[int]string)
		for _, h := range fd.Hunks {
			if h == nil {
				continue
			}
			lineNo := int(h.NewStartLine)
			if lineNo <= 0 {
				lineNo = 1
			}
			for _, bodyLine := range bytes.Split(h.Body, []byte("\n")) {
				if len(bodyLine) == 0 {
					continue
				}
				switch bodyLine[0] {
				case '+':
					added[lineNo] = string(bodyLine[1:])
					lineNo++
				case '-':
					// deletion; do not advance new file line counter
				default:
					lineNo++
				}
			}
		}

		if len(added) > 0 {
			result[strings.TrimPrefix(fd.NewName, "b/")] = added
		}
	}

	return result, nil
}

// ChangedFiles lists, in sorted order, the files with additions between the
// two revisions whose extension is ext (any extension when ext is empty).
// Paths are relative to the repository root.
func ChangedFiles(repoPath, baseRev, headRev, ext string) ([]string, error) {
	added, err := AddedLines(repoPath, baseRev, headRev)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(added))
	for p := range added {
		if ext != "" && path.Ext(p) != ext {
			continue
		}
		files = append(files, p)
	}
	sort.Strings(files)
	return files, nil
}

// RepositoryRoot returns the root folder of the repository containing folder.
func RepositoryRoot(folder string) (string, error) {
	return findGitRepositoryPath(folder)
}
