package git

import "errors"

// Repo errors
var (
	ErrNotRepository = errors.New("source folder is not a git repository")
	ErrFileNotFound  = errors.New("file not found at revision")
)

// Revision errors
var (
	ErrEmptyRevision = errors.New("revision is required")
)
