package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("repository out of sync with commit")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrEmptyCommit      = errors.New("commit contains no files or directories")
	ErrMalformedPayload = errors.New("payload is missing required frontmatter")
	ErrInvalidTags      = errors.New("tags must be a string or a list of strings")
)
